package service

import (
	"context"
	"fmt"

	"github.com/njprem/storefront-favorites/internal/domain"
	"github.com/njprem/storefront-favorites/internal/logging"
	"github.com/njprem/storefront-favorites/internal/metrics"
	"github.com/njprem/storefront-favorites/internal/repository/ports"
)

const (
	toggleActionInit   = "init"
	toggleActionFirst  = "first"
	toggleActionAdd    = "add"
	toggleActionRemove = "remove"
)

// FavoriteClasses are the display classes rendered for each toggle state.
type FavoriteClasses struct {
	Favorite    string
	NonFavorite string
}

type ToggleOption func(*FavoriteToggle)

func WithToggleMetrics(m *metrics.Favorites) ToggleOption {
	return func(t *FavoriteToggle) {
		t.metrics = m
	}
}

// FavoriteToggle is the favorite control bound to one user and one product.
// Its displayed state follows the product's membership in the user's
// favorites and only changes after the patch call succeeds. A toggle is not
// safe for concurrent use.
type FavoriteToggle struct {
	users   ports.UserAPI
	user    *domain.User
	product domain.Product
	classes FavoriteClasses
	metrics *metrics.Favorites

	hasFavorites bool
	state        domain.FavoriteState
	confirmed    domain.FavoriteState
}

func NewFavoriteToggle(users ports.UserAPI, user *domain.User, product domain.Product, classes FavoriteClasses, opts ...ToggleOption) *FavoriteToggle {
	t := &FavoriteToggle{
		users:   users,
		user:    user,
		product: product,
		classes: classes,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.settle(t.membership())
	return t
}

func (t *FavoriteToggle) User() *domain.User { return t.user }
func (t *FavoriteToggle) Product() domain.Product { return t.product }
func (t *FavoriteToggle) HasFavorites() bool { return t.hasFavorites }
func (t *FavoriteToggle) State() domain.FavoriteState { return t.state }
func (t *FavoriteToggle) Classes() FavoriteClasses { return t.classes }
func (t *FavoriteToggle) Displayed() domain.FavoriteState { return t.displayed() }

// Class is the display class for the last confirmed state. A pending toggle
// keeps rendering what it showed before the call.
func (t *FavoriteToggle) Class() string {
	if t.displayed() == domain.StateFavorited {
		return t.classes.Favorite
	}
	return t.classes.NonFavorite
}

// SetDisplayed restores the state a client currently shows for the product.
// Activate uses it to pick between adding and removing.
func (t *FavoriteToggle) SetDisplayed(state domain.FavoriteState) {
	if state == domain.StatePending {
		return
	}
	t.settle(state)
}

// CheckHasFavorites reads the bound user's favorites. A profile that never
// had favorites is normalized with an empty list patch; that call's error is
// returned but leaves the toggle untouched.
func (t *FavoriteToggle) CheckHasFavorites(ctx context.Context) error {
	favorites := t.user.XP.FavoriteProducts
	if !favorites.Defined() {
		return t.apply(ctx, toggleActionInit, domain.FavoriteSet{})
	}
	t.hasFavorites = len(favorites) > 0
	return nil
}

// Activate toggles the bound product. Without any favorites the product
// becomes the first one; otherwise the displayed state decides whether the
// product is removed (favorited) or added (not favorited). Adding keeps the
// list as is when the product is already in it; the displayed state then
// follows the membership the server returns.
func (t *FavoriteToggle) Activate(ctx context.Context) error {
	if !t.hasFavorites {
		return t.apply(ctx, toggleActionFirst, domain.FavoriteSet{t.product.ID})
	}

	current := t.user.XP.FavoriteProducts
	if t.displayed() == domain.StateFavorited {
		return t.apply(ctx, toggleActionRemove, current.Without(t.product.ID))
	}
	return t.apply(ctx, toggleActionAdd, current.With(t.product.ID))
}

func (t *FavoriteToggle) apply(ctx context.Context, action string, favorites domain.FavoriteSet) error {
	previous := t.displayed()
	t.state = domain.StatePending

	updated, err := t.users.PatchMe(ctx, t.user.ID, domain.FavoritesPatch(favorites))
	t.metrics.Toggle(action, err)
	if err != nil {
		t.state = previous
		logging.Logger.Warn().
			Err(err).
			Str("action", action).
			Str("user_id", t.user.ID.String()).
			Str("product_id", t.product.ID).
			Msg("favorite patch failed")
		return fmt.Errorf("patch favorites (%s): %w", action, err)
	}

	if updated != nil {
		favorites = updated.XP.FavoriteProducts
	}
	t.user.XP.FavoriteProducts = favorites
	t.hasFavorites = len(favorites) > 0
	t.settle(t.membership())
	return nil
}

func (t *FavoriteToggle) membership() domain.FavoriteState {
	if t.user.XP.FavoriteProducts.Contains(t.product.ID) {
		return domain.StateFavorited
	}
	return domain.StateUnfavorited
}

func (t *FavoriteToggle) displayed() domain.FavoriteState {
	if t.state == domain.StatePending {
		return t.confirmed
	}
	return t.state
}

func (t *FavoriteToggle) settle(state domain.FavoriteState) {
	t.state = state
	t.confirmed = state
}
