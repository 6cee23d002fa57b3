package minio

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/njprem/storefront-favorites/internal/repository/ports"
)

// defaultRegion is fixed so presigning never has to look up the bucket location.
const defaultRegion = "us-east-1"

func NewClient(endpoint, key, secret string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(key, secret, ""),
		Secure: useSSL,
		Region: defaultRegion,
	})
}

// ImageSigner hands out presigned GET URLs for product images in one bucket.
// When publicURL is set, the scheme and host of signed URLs are rewritten to
// it so browsers reach the object store through the public endpoint.
type ImageSigner struct {
	client    *minio.Client
	bucket    string
	publicURL *url.URL
}

func NewImageSigner(client *minio.Client, bucket, publicURL string) (*ImageSigner, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("minio: empty product image bucket")
	}
	signer := &ImageSigner{client: client, bucket: bucket}
	if publicURL = strings.TrimSpace(publicURL); publicURL != "" {
		parsed, err := url.Parse(publicURL)
		if err != nil {
			return nil, err
		}
		signer.publicURL = parsed
	}
	return signer, nil
}

func (s *ImageSigner) SignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	signed, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, ttl, url.Values{})
	if err != nil {
		return "", err
	}
	if s.publicURL != nil {
		signed.Scheme = s.publicURL.Scheme
		signed.Host = s.publicURL.Host
	}
	return signed.String(), nil
}

var _ ports.ObjectURLSigner = (*ImageSigner)(nil)
