package domain

import (
	"errors"
	"sort"
	"strings"
)

const sortDescPrefix = "!"

// SortKey encodes a sort field and direction: a bare key sorts ascending,
// a key prefixed with "!" sorts descending. The empty key means no sort.
type SortKey string

func (k SortKey) Descending() bool {
	return strings.HasPrefix(string(k), sortDescPrefix)
}

func (k SortKey) Field() string {
	return strings.TrimPrefix(string(k), sortDescPrefix)
}

// Desc returns the descending form of the key's field.
func (k SortKey) Desc() SortKey {
	if k.Field() == "" {
		return ""
	}
	return SortKey(sortDescPrefix + k.Field())
}

// Reverse flips the direction. The empty key stays empty.
func (k SortKey) Reverse() SortKey {
	if k == "" {
		return ""
	}
	if k.Descending() {
		return SortKey(k.Field())
	}
	return k.Desc()
}

// Filters maps a filterable field to an expression. A value may hold several
// alternatives separated by "|". A nil map means no filters.
type Filters map[string]string

func (f Filters) Clone() Filters {
	if f == nil {
		return nil
	}
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Keys returns the filter keys in a stable order.
func (f Filters) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ListParameters is the query for a product list view: filter criteria, sort
// key and page. Views replace it on every change instead of editing it.
type ListParameters struct {
	Search   string  `json:"search,omitempty"`
	SearchOn string  `json:"searchOn,omitempty"`
	Filters  Filters `json:"filters"`
	SortBy   SortKey `json:"sortBy,omitempty"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

func (p ListParameters) Clone() ListParameters {
	out := p
	out.Filters = p.Filters.Clone()
	return out
}

// StateParams are navigation parameters of a view. An empty value marks the
// key as unset when the view is reloaded.
type StateParams map[string]string

const (
	ParamSearch   = "search"
	ParamSearchOn = "searchOn"
	ParamFilters  = "filters"
	ParamSortBy   = "sortBy"
	ParamPage     = "page"
	ParamPageSize = "pageSize"
)

var (
	ErrUnsupportedFilter = errors.New("unsupported filter")
	ErrUnsupportedSort   = errors.New("unsupported sort")
)
