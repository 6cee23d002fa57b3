package service

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/njprem/storefront-favorites/internal/domain"
	"github.com/njprem/storefront-favorites/internal/repository/ports"
)

// Parameters translates navigation parameters into list queries and back.
type Parameters struct {
	defaultPageSize int
	maxPageSize     int
	// maxPage keeps (page-1)*pageSize inside a 32-bit offset.
	maxPage int
}

func NewParameters(defaultPageSize, maxPageSize int) *Parameters {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = defaultPageSize
	}
	return &Parameters{
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		maxPage:         math.MaxInt32 / maxPageSize,
	}
}

func (p *Parameters) Get(current domain.StateParams) (domain.ListParameters, error) {
	params := domain.ListParameters{
		Search:   strings.TrimSpace(current[domain.ParamSearch]),
		SearchOn: strings.TrimSpace(current[domain.ParamSearchOn]),
		SortBy:   domain.SortKey(strings.TrimSpace(current[domain.ParamSortBy])),
		Page:     1,
		PageSize: p.defaultPageSize,
	}

	if raw := strings.TrimSpace(current[domain.ParamFilters]); raw != "" {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return domain.ListParameters{}, fmt.Errorf("%w: filters: %v", ErrInvalidParameters, err)
		}
		params.Filters = make(domain.Filters, len(values))
		for key, vals := range values {
			if key = strings.TrimSpace(key); key != "" && len(vals) > 0 {
				params.Filters[key] = vals[0]
			}
		}
	}

	if raw := strings.TrimSpace(current[domain.ParamPage]); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page <= 0 {
			return domain.ListParameters{}, fmt.Errorf("%w: page must be a positive integer", ErrInvalidParameters)
		}
		if page > p.maxPage {
			return domain.ListParameters{}, fmt.Errorf("%w: page must not exceed %d", ErrInvalidParameters, p.maxPage)
		}
		params.Page = page
	}

	if raw := strings.TrimSpace(current[domain.ParamPageSize]); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return domain.ListParameters{}, fmt.Errorf("%w: pageSize must be a positive integer", ErrInvalidParameters)
		}
		params.PageSize = size
	}
	if params.PageSize > p.maxPageSize {
		params.PageSize = p.maxPageSize
	}
	return params, nil
}

// Create encodes template as navigation parameters. Every known key is
// present so a reload overrides the inherited values; with resetPage the page
// is left unset and the reloaded view starts at page 1.
func (p *Parameters) Create(template domain.ListParameters, resetPage bool) domain.StateParams {
	out := domain.StateParams{
		domain.ParamSearch:   template.Search,
		domain.ParamSearchOn: template.SearchOn,
		domain.ParamFilters:  encodeFilters(template.Filters),
		domain.ParamSortBy:   string(template.SortBy),
		domain.ParamPage:     "",
		domain.ParamPageSize: "",
	}
	if !resetPage && template.Page > 0 {
		out[domain.ParamPage] = strconv.Itoa(template.Page)
	}
	if template.PageSize > 0 {
		out[domain.ParamPageSize] = strconv.Itoa(template.PageSize)
	}
	return out
}

func encodeFilters(filters domain.Filters) string {
	if len(filters) == 0 {
		return ""
	}
	values := url.Values{}
	for _, key := range filters.Keys() {
		values.Set(key, filters[key])
	}
	return values.Encode()
}

var _ ports.ParametersService = (*Parameters)(nil)
