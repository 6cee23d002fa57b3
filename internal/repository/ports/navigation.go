package ports

import (
	"context"

	"github.com/njprem/storefront-favorites/internal/domain"
)

// Navigator reloads a view. Target "." is the current view; params are
// merged over the current navigation parameters.
type Navigator interface {
	Go(ctx context.Context, target string, params domain.StateParams) error
}

// ParametersService converts between navigation parameters and list queries.
type ParametersService interface {
	Get(current domain.StateParams) (domain.ListParameters, error)
	Create(template domain.ListParameters, resetPage bool) domain.StateParams
}
