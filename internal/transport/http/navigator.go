package http

import (
	"context"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/njprem/storefront-favorites/internal/domain"
	"github.com/njprem/storefront-favorites/internal/repository/ports"
	"github.com/njprem/storefront-favorites/internal/service"
)

// RedirectNavigator reloads a view by redirecting the client to it. The new
// query inherits the request's query; empty values remove a key.
type RedirectNavigator struct {
	c     echo.Context
	route string
}

func NewRedirectNavigator(c echo.Context, route string) *RedirectNavigator {
	return &RedirectNavigator{c: c, route: route}
}

func (n *RedirectNavigator) Go(ctx context.Context, target string, params domain.StateParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := target
	if target == service.CurrentView || target == "" {
		path = n.route
	}
	return n.c.Redirect(http.StatusSeeOther, mergeLocation(path, n.c.QueryParams(), params))
}

func mergeLocation(path string, current url.Values, params domain.StateParams) string {
	query := make(url.Values, len(current)+len(params))
	for key, values := range current {
		query[key] = append([]string(nil), values...)
	}
	for key, value := range params {
		if value == "" {
			query.Del(key)
			continue
		}
		query.Set(key, value)
	}
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

var _ ports.Navigator = (*RedirectNavigator)(nil)
