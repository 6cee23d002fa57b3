package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/njprem/storefront-favorites/internal/domain"
	"github.com/njprem/storefront-favorites/internal/metrics"
	"github.com/njprem/storefront-favorites/internal/repository/ports"
)

// CurrentView is the navigation target that reloads the view in place.
const CurrentView = "."

// FavoriteListController drives the favorites list view: it rebuilds the
// list query after filter, sort and page changes and reloads the view with it.
type FavoriteListController struct {
	nav      ports.Navigator
	params   ports.ParametersService
	products ports.ProductAPI
	metrics  *metrics.Favorites

	Parameters    domain.ListParameters
	SortSelection domain.SortKey
	List          *domain.ProductList
}

func NewFavoriteListController(nav ports.Navigator, params ports.ParametersService, products ports.ProductAPI, parameters domain.ListParameters, list *domain.ProductList) *FavoriteListController {
	if list == nil {
		list = &domain.ProductList{Items: []domain.Product{}, Meta: domain.ListMeta{Page: parameters.Page}}
	}
	return &FavoriteListController{
		nav:        nav,
		params:     params,
		products:   products,
		Parameters: parameters,
		List:       list,
	}
}

func (c *FavoriteListController) WithMetrics(m *metrics.Favorites) *FavoriteListController {
	c.metrics = m
	return c
}

// Filter reloads the view with a query built from the current parameters.
func (c *FavoriteListController) Filter(ctx context.Context, resetPage bool) error {
	next := c.params.Create(c.Parameters, resetPage)
	return c.nav.Go(ctx, CurrentView, next)
}

func (c *FavoriteListController) ClearFilters(ctx context.Context) error {
	c.Parameters.Filters = nil
	return c.Filter(ctx, true)
}

// UpdateSort cycles a column's sort: ascending, then descending, then none.
// Any other key replaces the sort; an empty key adopts SortSelection.
func (c *FavoriteListController) UpdateSort(ctx context.Context, key domain.SortKey) error {
	current := c.Parameters.SortBy
	switch {
	case key == "":
		c.Parameters.SortBy = c.SortSelection
	case key == current:
		c.Parameters.SortBy = key.Desc()
	case key.Desc() == current:
		c.Parameters.SortBy = ""
	default:
		c.Parameters.SortBy = key
	}
	return c.Filter(ctx, false)
}

func (c *FavoriteListController) ReverseSort(ctx context.Context) error {
	c.Parameters.SortBy = c.Parameters.SortBy.Reverse()
	return c.Filter(ctx, false)
}

// PageChanged reloads the view on the page selected in the list pagination.
func (c *FavoriteListController) PageChanged(ctx context.Context) error {
	return c.nav.Go(ctx, CurrentView, domain.StateParams{
		domain.ParamPage: strconv.Itoa(c.List.Meta.Page),
	})
}

// LoadMore fetches the page after the last loaded one and appends it to the
// list without reloading the view. On error the list is left as it was.
func (c *FavoriteListController) LoadMore(ctx context.Context) (*domain.ProductList, error) {
	next := c.Parameters.Clone()
	next.Page = c.List.Meta.Page + 1

	page, err := c.products.ListProducts(ctx, next)
	c.metrics.List("load_more", err)
	if err != nil {
		return nil, fmt.Errorf("load page %d: %w", next.Page, err)
	}

	c.Parameters = next
	c.List.Items = append(c.List.Items, page.Items...)
	c.List.Meta = page.Meta
	return page, nil
}
