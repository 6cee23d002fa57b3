package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/njprem/storefront-favorites/internal/domain"
	"github.com/njprem/storefront-favorites/internal/repository/ports"
)

// ProductAPI wraps a product API with one span per call.
type ProductAPI struct {
	next   ports.ProductAPI
	tracer trace.Tracer
}

func NewProductAPI(next ports.ProductAPI) *ProductAPI {
	return &ProductAPI{next: next, tracer: otel.Tracer(instrumentationName)}
}

func (r *ProductAPI) ListProducts(ctx context.Context, params domain.ListParameters) (*domain.ProductList, error) {
	ctx, span := r.tracer.Start(ctx, "products.List",
		trace.WithAttributes(
			attribute.String("list.search", params.Search),
			attribute.String("list.sort_by", string(params.SortBy)),
			attribute.StringSlice("list.filters", params.Filters.Keys()),
			attribute.Int("list.page", params.Page),
			attribute.Int("list.page_size", params.PageSize),
		),
	)
	defer span.End()

	list, err := r.next.ListProducts(ctx, params)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("list.total_count", list.Meta.TotalCount),
		attribute.Int("list.items", len(list.Items)),
	)
	return list, nil
}

func (r *ProductAPI) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "products.Get",
		trace.WithAttributes(attribute.String("product.id", id)),
	)
	defer span.End()

	product, err := r.next.GetProduct(ctx, id)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	return product, nil
}

var _ ports.ProductAPI = (*ProductAPI)(nil)
