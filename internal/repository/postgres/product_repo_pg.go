package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/njprem/storefront-favorites/internal/domain"
	"github.com/njprem/storefront-favorites/internal/repository/ports"
)

const productColumns = `p.id, p.name, p.description, p.price, p.image_key, p.active, p.created_at, p.updated_at`

// productFields maps the public field names used in filters, search and sort
// keys onto catalog columns.
var productFields = map[string]string{
	"id":          "p.id",
	"name":        "p.name",
	"description": "p.description",
	"price":       "p.price",
}

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepo(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM product p WHERE p.id = $1 AND p.active`

	var product domain.Product
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) ListProducts(ctx context.Context, params domain.ListParameters) (*domain.ProductList, error) {
	where, args, err := buildProductWhere(params)
	if err != nil {
		return nil, err
	}
	orderBy, err := buildProductOrder(params.SortBy)
	if err != nil {
		return nil, err
	}

	page, pageSize := params.Page, params.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM product p `+where, args...); err != nil {
		return nil, err
	}

	limitPlaceholder := fmt.Sprintf("$%d", len(args)+1)
	offsetPlaceholder := fmt.Sprintf("$%d", len(args)+2)
	query := `SELECT ` + productColumns + ` FROM product p ` + where +
		"\n\tORDER BY " + orderBy +
		"\n\tLIMIT " + limitPlaceholder + " OFFSET " + offsetPlaceholder
	args = append(args, pageSize, (page-1)*pageSize)

	items := make([]domain.Product, 0, pageSize)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return &domain.ProductList{
		Items: items,
		Meta:  domain.NewListMeta(page, pageSize, total),
	}, nil
}

// buildProductWhere renders search and filters. A filter value lists
// alternatives separated by "|"; text alternatives may use "*" wildcards.
func buildProductWhere(params domain.ListParameters) (string, []any, error) {
	var builder strings.Builder
	args := make([]any, 0, len(params.Filters)+1)
	builder.WriteString("WHERE p.active")

	if search := strings.TrimSpace(params.Search); search != "" {
		columns, err := searchColumns(params.SearchOn)
		if err != nil {
			return "", nil, err
		}
		placeholder := fmt.Sprintf("$%d", len(args)+1)
		clauses := make([]string, 0, len(columns))
		for _, column := range columns {
			clauses = append(clauses, "COALESCE("+column+"::text, '') ILIKE "+placeholder)
		}
		builder.WriteString("\n\tAND (" + strings.Join(clauses, " OR ") + ")")
		args = append(args, "%"+search+"%")
	}

	for _, key := range params.Filters.Keys() {
		column, ok := productFields[strings.ToLower(key)]
		if !ok {
			return "", nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFilter, key)
		}
		alternatives := splitAlternatives(params.Filters[key])

		if column == "p.id" {
			placeholder := fmt.Sprintf("$%d", len(args)+1)
			builder.WriteString("\n\tAND p.id = ANY(" + placeholder + ")")
			args = append(args, pq.StringArray(alternatives))
			continue
		}

		if len(alternatives) == 0 {
			continue
		}
		clauses := make([]string, 0, len(alternatives))
		for _, alt := range alternatives {
			placeholder := fmt.Sprintf("$%d", len(args)+1)
			clauses = append(clauses, column+"::text ILIKE "+placeholder)
			args = append(args, strings.ReplaceAll(alt, "*", "%"))
		}
		builder.WriteString("\n\tAND (" + strings.Join(clauses, " OR ") + ")")
	}
	return builder.String(), args, nil
}

func buildProductOrder(sortBy domain.SortKey) (string, error) {
	if sortBy == "" {
		return "p.name ASC, p.id ASC", nil
	}
	column, ok := productFields[strings.ToLower(sortBy.Field())]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedSort, sortBy)
	}
	direction := "ASC"
	if sortBy.Descending() {
		direction = "DESC"
	}
	return column + " " + direction + ", p.id ASC", nil
}

func searchColumns(searchOn string) ([]string, error) {
	if strings.TrimSpace(searchOn) == "" {
		return []string{"p.id", "p.name", "p.description"}, nil
	}
	columns := make([]string, 0, 3)
	for _, part := range strings.Split(searchOn, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		column, ok := productFields[name]
		if !ok {
			return nil, fmt.Errorf("%w: searchOn %s", domain.ErrUnsupportedFilter, part)
		}
		columns = append(columns, column)
	}
	if len(columns) == 0 {
		return searchColumns("")
	}
	return columns, nil
}

func splitAlternatives(value string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(value, "|") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

var _ ports.ProductAPI = (*ProductRepository)(nil)
