package service

import (
	"context"
	"fmt"

	"github.com/njprem/storefront-favorites/internal/domain"
	"github.com/njprem/storefront-favorites/internal/metrics"
	"github.com/njprem/storefront-favorites/internal/repository/ports"
)

// FavoriteIDFilter is the product field the favorites list filters on.
const FavoriteIDFilter = "ID"

// favoriteIDSeparator joins alternatives inside one filter value.
const favoriteIDSeparator = "|"

// FavoriteResolver loads the data a favorites list view needs. Favorites are
// not stored separately: the list is the product listing filtered to the ids
// in the user's profile.
type FavoriteResolver struct {
	params   ports.ParametersService
	products ports.ProductAPI
	metrics  *metrics.Favorites
}

func NewFavoriteResolver(params ports.ParametersService, products ports.ProductAPI, m *metrics.Favorites) *FavoriteResolver {
	return &FavoriteResolver{params: params, products: products, metrics: m}
}

func (r *FavoriteResolver) Parameters(current domain.StateParams) (domain.ListParameters, error) {
	return r.params.Get(current)
}

// FavoriteProducts overwrites the id filter of params with the user's
// favorites and lists the matching products. The key stays present when the
// user has no favorites so the listing matches nothing.
func (r *FavoriteResolver) FavoriteProducts(ctx context.Context, user *domain.User, params *domain.ListParameters) (*domain.ProductList, error) {
	ScopeToFavorites(user, params)

	list, err := r.products.ListProducts(ctx, *params)
	r.metrics.List("resolve", err)
	if err != nil {
		return nil, fmt.Errorf("list favorite products: %w", err)
	}
	return list, nil
}

// ScopeToFavorites overwrites the id filter of params with the user's favorites.
func ScopeToFavorites(user *domain.User, params *domain.ListParameters) {
	if params.Filters == nil {
		params.Filters = domain.Filters{}
	}
	params.Filters[FavoriteIDFilter] = user.XP.FavoriteProducts.Join(favoriteIDSeparator)
}
