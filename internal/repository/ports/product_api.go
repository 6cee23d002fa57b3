package ports

import (
	"context"

	"github.com/njprem/storefront-favorites/internal/domain"
)

type ProductAPI interface {
	ListProducts(ctx context.Context, params domain.ListParameters) (*domain.ProductList, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}
