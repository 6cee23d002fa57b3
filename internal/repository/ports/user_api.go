package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/storefront-favorites/internal/domain"
)

// UserAPI is the backend user profile API. PatchMe merges the patch into the
// stored profile and returns the updated user.
type UserAPI interface {
	Create(ctx context.Context, email string, passwordHash, passwordSalt []byte) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// UpsertByEmail returns the user with the email, creating a password-less
	// account for federated sign-in when none exists.
	UpsertByEmail(ctx context.Context, email, fullName string) (*domain.User, error)
	PatchMe(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (*domain.User, error)
}
