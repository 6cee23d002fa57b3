package service

import (
	"context"
	"time"

	"github.com/njprem/storefront-favorites/internal/domain"
	"github.com/njprem/storefront-favorites/internal/logging"
	"github.com/njprem/storefront-favorites/internal/repository/ports"
)

// SignedProductAPI decorates a product API so listed products carry a
// time-limited image URL for their stored image key.
type SignedProductAPI struct {
	ports.ProductAPI
	signer ports.ObjectURLSigner
	ttl    time.Duration
}

func NewSignedProductAPI(base ports.ProductAPI, signer ports.ObjectURLSigner, ttl time.Duration) *SignedProductAPI {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SignedProductAPI{ProductAPI: base, signer: signer, ttl: ttl}
}

func (s *SignedProductAPI) ListProducts(ctx context.Context, params domain.ListParameters) (*domain.ProductList, error) {
	list, err := s.ProductAPI.ListProducts(ctx, params)
	if err != nil {
		return nil, err
	}
	for i := range list.Items {
		s.sign(ctx, &list.Items[i])
	}
	return list, nil
}

func (s *SignedProductAPI) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.ProductAPI.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.sign(ctx, product)
	return product, nil
}

// sign leaves the image URL empty when signing fails; a missing thumbnail
// must not fail the listing.
func (s *SignedProductAPI) sign(ctx context.Context, product *domain.Product) {
	if product.ImageKey == nil || *product.ImageKey == "" {
		return
	}
	url, err := s.signer.SignedURL(ctx, *product.ImageKey, s.ttl)
	if err != nil {
		logging.Logger.Warn().Err(err).Str("product_id", product.ID).Msg("sign product image")
		return
	}
	product.ImageURL = &url
}

var _ ports.ProductAPI = (*SignedProductAPI)(nil)
