package http

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/njprem/storefront-favorites/internal/domain"
	"github.com/njprem/storefront-favorites/internal/logging"
	"github.com/njprem/storefront-favorites/internal/metrics"
	"github.com/njprem/storefront-favorites/internal/repository/ports"
	"github.com/njprem/storefront-favorites/internal/service"
	"github.com/njprem/storefront-favorites/internal/util"
)

// FavoritesRoute is the favorites list view; reload actions redirect to it.
const FavoritesRoute = "/api/v1/me/favorites"

type FavoriteHandlerConfig struct {
	Auth     *service.AuthService
	Users    ports.UserAPI
	Products ports.ProductAPI
	Params   ports.ParametersService
	Classes  service.FavoriteClasses
	Metrics  *metrics.Favorites
}

type FavoriteHandler struct {
	users    ports.UserAPI
	products ports.ProductAPI
	params   ports.ParametersService
	resolver *service.FavoriteResolver
	classes  service.FavoriteClasses
	metrics  *metrics.Favorites
}

type FavoriteListResponse struct {
	Items      []domain.Product      `json:"items"`
	Meta       domain.ListMeta       `json:"meta"`
	Parameters domain.ListParameters `json:"parameters"`
}

// FavoriteToggleResponse is the control state for one product.
// NormalizeError is set when initializing an empty favorites list failed.
type FavoriteToggleResponse struct {
	ProductID      string             `json:"product_id"`
	HasFavorites   bool               `json:"has_favorites"`
	State          string             `json:"state"`
	Class          string             `json:"class"`
	Favorites      domain.FavoriteSet `json:"favorite_products"`
	NormalizeError string             `json:"normalize_error,omitempty"`
}

type FilterRequest struct {
	Search    *string           `json:"search"`
	SearchOn  *string           `json:"searchOn"`
	Filters   map[string]string `json:"filters"`
	PageSize  *int              `json:"pageSize"`
	ResetPage bool              `json:"reset_page"`
}

type SortRequest struct {
	Key       string `json:"key"`
	Selection string `json:"selection"`
}

type PageRequest struct {
	Page int `json:"page"`
}

type ToggleRequest struct {
	Displayed string `json:"displayed"`
}

func RegisterFavorites(e *echo.Echo, cfg FavoriteHandlerConfig) {
	h := &FavoriteHandler{
		users:    cfg.Users,
		products: cfg.Products,
		params:   cfg.Params,
		resolver: service.NewFavoriteResolver(cfg.Params, cfg.Products, cfg.Metrics),
		classes:  cfg.Classes,
		metrics:  cfg.Metrics,
	}

	g := e.Group(FavoritesRoute, RequireAuth(cfg.Auth))
	g.GET("", h.list)
	g.GET("/more", h.loadMore)
	g.POST("/filter", h.filter)
	g.POST("/filters/clear", h.clearFilters)
	g.POST("/sort", h.sort)
	g.POST("/sort/reverse", h.reverseSort)
	g.POST("/page", h.pageChanged)
	g.GET("/products/:product_id", h.productState)
	g.POST("/products/:product_id/toggle", h.toggle)
}

func (h *FavoriteHandler) list(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	params, err := h.resolver.Parameters(stateParams(c))
	if err != nil {
		return writeFavoriteError(c, err)
	}
	params = withoutFavoriteScope(params)
	view := params.Clone()
	list, err := h.resolver.FavoriteProducts(c.Request().Context(), user, &params)
	if err != nil {
		return writeFavoriteError(c, err)
	}
	return c.JSON(http.StatusOK, FavoriteListResponse{Items: list.Items, Meta: list.Meta, Parameters: view})
}

// loadMore answers with the page after the one named in the query; the
// client appends it to what it already shows.
func (h *FavoriteHandler) loadMore(c echo.Context) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return writeFavoriteError(c, err)
	}
	page, err := ctrl.LoadMore(c.Request().Context())
	if err != nil {
		return writeFavoriteError(c, err)
	}
	return c.JSON(http.StatusOK, FavoriteListResponse{Items: page.Items, Meta: page.Meta, Parameters: withoutFavoriteScope(ctrl.Parameters)})
}

func (h *FavoriteHandler) filter(c echo.Context) error {
	var req FilterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	ctrl, err := h.controller(c)
	if err != nil {
		return writeFavoriteError(c, err)
	}
	if req.Search != nil {
		ctrl.Parameters.Search = strings.TrimSpace(*req.Search)
	}
	if req.SearchOn != nil {
		ctrl.Parameters.SearchOn = strings.TrimSpace(*req.SearchOn)
	}
	if req.Filters != nil {
		ctrl.Parameters.Filters = filtersFromRequest(req.Filters)
	}
	if req.PageSize != nil {
		if *req.PageSize <= 0 {
			return c.JSON(http.StatusBadRequest, util.Error("pageSize must be a positive integer"))
		}
		ctrl.Parameters.PageSize = *req.PageSize
	}
	return h.reload(c, ctrl.Filter(c.Request().Context(), req.ResetPage))
}

func (h *FavoriteHandler) clearFilters(c echo.Context) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return writeFavoriteError(c, err)
	}
	return h.reload(c, ctrl.ClearFilters(c.Request().Context()))
}

func (h *FavoriteHandler) sort(c echo.Context) error {
	var req SortRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	ctrl, err := h.controller(c)
	if err != nil {
		return writeFavoriteError(c, err)
	}
	ctrl.SortSelection = domain.SortKey(strings.TrimSpace(req.Selection))
	return h.reload(c, ctrl.UpdateSort(c.Request().Context(), domain.SortKey(strings.TrimSpace(req.Key))))
}

func (h *FavoriteHandler) reverseSort(c echo.Context) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return writeFavoriteError(c, err)
	}
	return h.reload(c, ctrl.ReverseSort(c.Request().Context()))
}

func (h *FavoriteHandler) pageChanged(c echo.Context) error {
	var req PageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if req.Page <= 0 {
		return c.JSON(http.StatusBadRequest, util.Error("page must be a positive integer"))
	}
	ctrl, err := h.controller(c)
	if err != nil {
		return writeFavoriteError(c, err)
	}
	ctrl.List.Meta.Page = req.Page
	return h.reload(c, ctrl.PageChanged(c.Request().Context()))
}

func (h *FavoriteHandler) productState(c echo.Context) error {
	toggle, normalizeErr, err := h.bindToggle(c)
	if err != nil {
		return writeFavoriteError(c, err)
	}
	return c.JSON(http.StatusOK, h.toggleResponse(toggle, normalizeErr))
}

func (h *FavoriteHandler) toggle(c echo.Context) error {
	var req ToggleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	toggle, normalizeErr, err := h.bindToggle(c)
	if err != nil {
		return writeFavoriteError(c, err)
	}
	if strings.TrimSpace(req.Displayed) != "" {
		displayed, ok := domain.ParseFavoriteState(req.Displayed)
		if !ok {
			return c.JSON(http.StatusBadRequest, util.Error("displayed must be favorited or unfavorited"))
		}
		toggle.SetDisplayed(displayed)
	}
	if err := toggle.Activate(c.Request().Context()); err != nil {
		return writeFavoriteError(c, err)
	}
	return c.JSON(http.StatusOK, h.toggleResponse(toggle, normalizeErr))
}

// bindToggle binds a toggle to the current user and the path product and
// runs its favorites check. A failed check does not disable the toggle; it
// comes back as normalizeErr next to the usable toggle.
func (h *FavoriteHandler) bindToggle(c echo.Context) (toggle *service.FavoriteToggle, normalizeErr, err error) {
	user, ok := CurrentUser(c)
	if !ok {
		return nil, nil, service.ErrUnauthorized
	}
	productID := strings.TrimSpace(c.Param("product_id"))
	if productID == "" {
		return nil, nil, service.ErrProductNotFound
	}
	product, err := h.products.GetProduct(c.Request().Context(), productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, service.ErrProductNotFound
		}
		return nil, nil, err
	}
	toggle = service.NewFavoriteToggle(h.users, user, *product, h.classes, service.WithToggleMetrics(h.metrics))
	if normalizeErr = toggle.CheckHasFavorites(c.Request().Context()); normalizeErr != nil {
		logging.Logger.Warn().
			Err(normalizeErr).
			Str("user_id", user.ID.String()).
			Str("product_id", product.ID).
			Msg("favorites normalization failed")
	}
	return toggle, normalizeErr, nil
}

func (h *FavoriteHandler) toggleResponse(t *service.FavoriteToggle, normalizeErr error) FavoriteToggleResponse {
	resp := FavoriteToggleResponse{
		ProductID:    t.Product().ID,
		HasFavorites: t.HasFavorites(),
		State:        t.State().String(),
		Class:        t.Class(),
		Favorites:    t.User().XP.FavoriteProducts,
	}
	if normalizeErr != nil {
		resp.NormalizeError = "could not initialize favorites"
	}
	return resp
}

// controller rebuilds the list view state from the request query. The
// query's page is the last page the client has loaded.
func (h *FavoriteHandler) controller(c echo.Context) (*service.FavoriteListController, error) {
	user, ok := CurrentUser(c)
	if !ok {
		return nil, service.ErrUnauthorized
	}
	params, err := h.resolver.Parameters(stateParams(c))
	if err != nil {
		return nil, err
	}
	params = withoutFavoriteScope(params)
	if c.Request().Method == http.MethodGet {
		service.ScopeToFavorites(user, &params)
	}
	nav := NewRedirectNavigator(c, FavoritesRoute)
	return service.NewFavoriteListController(nav, h.params, h.products, params, nil).WithMetrics(h.metrics), nil
}

// reload passes through a navigation result. The navigator has already
// written the redirect when err is nil.
func (h *FavoriteHandler) reload(c echo.Context, err error) error {
	if err != nil {
		return writeFavoriteError(c, err)
	}
	return nil
}

func stateParams(c echo.Context) domain.StateParams {
	query := c.QueryParams()
	out := make(domain.StateParams, len(query))
	for key := range query {
		out[key] = query.Get(key)
	}
	return out
}

func filtersFromRequest(in map[string]string) domain.Filters {
	out := make(domain.Filters, len(in))
	for key, value := range in {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" || strings.EqualFold(key, service.FavoriteIDFilter) {
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// withoutFavoriteScope drops the favorites id filter; it is derived from the
// profile on every listing and never round-trips through the client.
func withoutFavoriteScope(params domain.ListParameters) domain.ListParameters {
	out := params.Clone()
	for key := range out.Filters {
		if strings.EqualFold(key, service.FavoriteIDFilter) {
			delete(out.Filters, key)
		}
	}
	if len(out.Filters) == 0 {
		out.Filters = nil
	}
	return out
}

func writeFavoriteError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	case errors.Is(err, service.ErrInvalidParameters),
		errors.Is(err, domain.ErrUnsupportedFilter),
		errors.Is(err, domain.ErrUnsupportedSort):
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	case errors.Is(err, service.ErrProductNotFound):
		return c.JSON(http.StatusNotFound, util.Error("product not found"))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, util.Error("request cancelled"))
	default:
		c.Logger().Errorf("favorites: %v", err)
		return c.JSON(http.StatusBadGateway, util.Error("could not update favorites"))
	}
}
