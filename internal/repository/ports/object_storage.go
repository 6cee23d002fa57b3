package ports

import (
	"context"
	"time"
)

type ObjectURLSigner interface {
	SignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
}
