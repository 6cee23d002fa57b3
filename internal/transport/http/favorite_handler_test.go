package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/njprem/storefront-favorites/internal/domain"
	"github.com/njprem/storefront-favorites/internal/service"
	"github.com/njprem/storefront-favorites/internal/util"
)

type fakeUsers struct {
	users    map[uuid.UUID]*domain.User
	patches  []domain.UserPatch
	patchErr error
}

func (f *fakeUsers) Create(ctx context.Context, email string, hash, salt []byte) (*domain.User, error) {
	user := &domain.User{ID: uuid.New(), Email: email, PasswordHash: hash, PasswordSalt: salt}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsers) UpsertByEmail(ctx context.Context, email, fullName string) (*domain.User, error) {
	if user, err := f.FindByEmail(ctx, email); err == nil {
		return user, nil
	}
	user := &domain.User{ID: uuid.New(), Email: email}
	if fullName != "" {
		user.FullName = &fullName
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUsers) PatchMe(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (*domain.User, error) {
	f.patches = append(f.patches, patch)
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if patch.XP != nil {
		user.XP.FavoriteProducts = append(domain.FavoriteSet{}, patch.XP.FavoriteProducts...)
	}
	copied := *user
	return &copied, nil
}

type fakeProducts struct {
	products   map[string]domain.Product
	lastParams domain.ListParameters
	listCalls  int
}

func (f *fakeProducts) ListProducts(ctx context.Context, params domain.ListParameters) (*domain.ProductList, error) {
	f.listCalls++
	f.lastParams = params.Clone()
	ids := strings.Split(params.Filters[service.FavoriteIDFilter], "|")
	items := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := f.products[id]; ok {
			items = append(items, product)
		}
	}
	return &domain.ProductList{Items: items, Meta: domain.NewListMeta(params.Page, params.PageSize, len(items))}, nil
}

func (f *fakeProducts) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &product, nil
}

type favoritesFixture struct {
	e        *echo.Echo
	users    *fakeUsers
	products *fakeProducts
	user     *domain.User
	token    string
}

func newFavoritesFixture(t *testing.T, favorites domain.FavoriteSet) *favoritesFixture {
	t.Helper()
	user := &domain.User{ID: uuid.New(), Email: "shopper@example.com", XP: domain.UserXP{FavoriteProducts: favorites}}
	users := &fakeUsers{users: map[uuid.UUID]*domain.User{user.ID: user}}
	products := &fakeProducts{products: map[string]domain.Product{
		"P1": {ID: "P1", Name: "Blue mug"},
		"P2": {ID: "P2", Name: "Red mug"},
	}}

	jwtManager := util.NewJWTManager("handler-secret", time.Hour)
	token, _, err := jwtManager.Generate(user.ID, user.Email)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	e := NewRouter([]string{"*"}, nil, nil)
	auth := service.NewAuthService(users, jwtManager)
	RegisterAuth(e, auth)
	RegisterFavorites(e, FavoriteHandlerConfig{
		Auth:     auth,
		Users:    users,
		Products: products,
		Params:   service.NewParameters(20, 100),
		Classes:  service.FavoriteClasses{Favorite: "fav-on", NonFavorite: "fav-off"},
	})
	return &favoritesFixture{e: e, users: users, products: products, user: user, token: token}
}

func (f *favoritesFixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+f.token)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func redirectQuery(t *testing.T, rec *httptest.ResponseRecorder) url.Values {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	location, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if location.Path != FavoritesRoute {
		t.Fatalf("expected redirect to %s, got %s", FavoritesRoute, location.Path)
	}
	return location.Query()
}

func TestFavoritesRequireAuth(t *testing.T) {
	f := newFavoritesFixture(t, domain.FavoriteSet{"P1"})
	req := httptest.NewRequest(http.MethodGet, FavoritesRoute, nil)
	rec := httptest.NewRecorder()

	f.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestListFavoritesScopesToProfile(t *testing.T) {
	f := newFavoritesFixture(t, domain.FavoriteSet{"P2", "P1"})

	rec := f.do(http.MethodGet, FavoritesRoute+"?sortBy=%21name&filters=ID%3DP9", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := f.products.lastParams.Filters[service.FavoriteIDFilter]; got != "P2|P1" {
		t.Fatalf("expected id filter from profile, got %q", got)
	}
	if f.products.lastParams.SortBy != "!name" {
		t.Fatalf("expected sort to pass through, got %q", f.products.lastParams.SortBy)
	}
	var body FavoriteListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(body.Items))
	}
	if _, leaked := body.Parameters.Filters[service.FavoriteIDFilter]; leaked {
		t.Fatal("id filter must not be echoed back to the client")
	}
}

func TestListFavoritesRejectsBadPage(t *testing.T) {
	f := newFavoritesFixture(t, domain.FavoriteSet{"P1"})

	rec := f.do(http.MethodGet, FavoritesRoute+"?page=zero", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if f.products.listCalls != 0 {
		t.Fatal("catalog should not be queried for invalid parameters")
	}
}

func TestListFavoritesRejectsHugePage(t *testing.T) {
	f := newFavoritesFixture(t, domain.FavoriteSet{"P1"})

	rec := f.do(http.MethodGet, FavoritesRoute+"?page=9223372036854775807", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.products.listCalls != 0 {
		t.Fatal("catalog should not be queried for an out-of-range page")
	}
}

func TestSortRedirectCyclesAndKeepsQuery(t *testing.T) {
	f := newFavoritesFixture(t, domain.FavoriteSet{"P1"})

	query := redirectQuery(t, f.do(http.MethodPost, FavoritesRoute+"/sort?search=mug&page=2&sortBy=name&utm=mail", `{"key":"name"}`))

	if got := query.Get("sortBy"); got != "!name" {
		t.Fatalf("expected descending sort, got %q", got)
	}
	if query.Get("search") != "mug" || query.Get("page") != "2" || query.Get("utm") != "mail" {
		t.Fatalf("expected inherited params, got %v", query)
	}

	query = redirectQuery(t, f.do(http.MethodPost, FavoritesRoute+"/sort?sortBy=%21name", `{"key":"name"}`))
	if _, ok := query["sortBy"]; ok {
		t.Fatalf("expected sort to be cleared, got %v", query)
	}
}

func TestReverseSortRedirect(t *testing.T) {
	f := newFavoritesFixture(t, domain.FavoriteSet{"P1"})

	query := redirectQuery(t, f.do(http.MethodPost, FavoritesRoute+"/sort/reverse?sortBy=price", ""))

	if got := query.Get("sortBy"); got != "!price" {
		t.Fatalf("expected !price, got %q", got)
	}
}

func TestClearFiltersRedirectResetsPage(t *testing.T) {
	f := newFavoritesFixture(t, domain.FavoriteSet{"P1"})

	query := redirectQuery(t, f.do(http.MethodPost, FavoritesRoute+"/filters/clear?filters=name%3DBlue%252A&page=3&search=mug", ""))

	if _, ok := query["filters"]; ok {
		t.Fatalf("expected filters to be removed, got %v", query)
	}
	if _, ok := query["page"]; ok {
		t.Fatalf("expected page to be removed, got %v", query)
	}
	if query.Get("search") != "mug" {
		t.Fatalf("expected search to survive, got %v", query)
	}
}

func TestFilterRedirectEncodesCriteria(t *testing.T) {
	f := newFavoritesFixture(t, domain.FavoriteSet{"P1"})

	query := redirectQuery(t, f.do(http.MethodPost, FavoritesRoute+"/filter?page=4",
		`{"filters":{"name":"Blue*|Red*","ID":"P9"},"reset_page":true}`))

	filters, err := url.ParseQuery(query.Get("filters"))
	if err != nil {
		t.Fatalf("decode filters: %v", err)
	}
	if filters.Get("name") != "Blue*|Red*" {
		t.Fatalf("unexpected name filter %q", filters.Get("name"))
	}
	if filters.Has(service.FavoriteIDFilter) {
		t.Fatal("client id filter must be ignored")
	}
	if _, ok := query["page"]; ok {
		t.Fatalf("expected page reset, got %v", query)
	}
}

func TestPageChangedRedirect(t *testing.T) {
	f := newFavoritesFixture(t, domain.FavoriteSet{"P1"})

	query := redirectQuery(t, f.do(http.MethodPost, FavoritesRoute+"/page?page=1&sortBy=name", `{"page":4}`))

	if query.Get("page") != "4" || query.Get("sortBy") != "name" {
		t.Fatalf("unexpected query %v", query)
	}
	if rec := f.do(http.MethodPost, FavoritesRoute+"/page", `{"page":0}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for page 0, got %d", rec.Code)
	}
}

func TestLoadMoreRequestsNextPage(t *testing.T) {
	f := newFavoritesFixture(t, domain.FavoriteSet{"P1", "P2"})

	rec := f.do(http.MethodGet, FavoritesRoute+"/more?page=2&pageSize=1", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.products.lastParams.Page != 3 {
		t.Fatalf("expected page 3 to be requested, got %d", f.products.lastParams.Page)
	}
	if got := f.products.lastParams.Filters[service.FavoriteIDFilter]; got != "P1|P2" {
		t.Fatalf("expected favorites scope, got %q", got)
	}
}

func TestProductStateNormalizesUndefinedFavorites(t *testing.T) {
	f := newFavoritesFixture(t, nil)

	rec := f.do(http.MethodGet, FavoritesRoute+"/products/P1", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.users.patches) != 1 || len(f.users.patches[0].XP.FavoriteProducts) != 0 {
		t.Fatalf("expected one empty favorites patch, got %+v", f.users.patches)
	}
	var body FavoriteToggleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.HasFavorites || body.State != "unfavorited" || body.Class != "fav-off" {
		t.Fatalf("unexpected toggle state %+v", body)
	}
	if !strings.Contains(rec.Body.String(), `"favorite_products":[]`) {
		t.Fatalf("expected empty favorites list in body, got %s", rec.Body.String())
	}
}

func TestProductStateSurvivesFailedNormalization(t *testing.T) {
	f := newFavoritesFixture(t, nil)
	f.users.patchErr = errors.New("profile service down")

	rec := f.do(http.MethodGet, FavoritesRoute+"/products/P1", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.users.patches) != 1 {
		t.Fatalf("expected one normalization attempt, got %d", len(f.users.patches))
	}
	var body FavoriteToggleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.HasFavorites || body.State != "unfavorited" || body.Class != "fav-off" {
		t.Fatalf("unexpected toggle state %+v", body)
	}
	if body.NormalizeError == "" {
		t.Fatalf("expected the normalization failure to be reported, got %s", rec.Body.String())
	}
}

func TestToggleContinuesAfterFailedNormalization(t *testing.T) {
	f := newFavoritesFixture(t, nil)
	f.users.patchErr = errors.New("profile service down")

	rec := f.do(http.MethodPost, FavoritesRoute+"/products/P1/toggle", "")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 from the first-favorite patch, got %d", rec.Code)
	}
	if len(f.users.patches) != 2 {
		t.Fatalf("expected normalization then first-favorite patch, got %+v", f.users.patches)
	}
	if got := f.users.patches[1].XP.FavoriteProducts; len(got) != 1 || got[0] != "P1" {
		t.Fatalf("expected first-favorite payload [P1], got %v", got)
	}
}

func TestToggleFirstFavoriteAfterFailedNormalization(t *testing.T) {
	f := newFavoritesFixture(t, nil)
	failing := &failOnceUsers{fakeUsers: f.users}
	f.e = NewRouter([]string{"*"}, nil, nil)
	auth := service.NewAuthService(f.users, util.NewJWTManager("handler-secret", time.Hour))
	RegisterFavorites(f.e, FavoriteHandlerConfig{
		Auth:     auth,
		Users:    failing,
		Products: f.products,
		Params:   service.NewParameters(20, 100),
		Classes:  service.FavoriteClasses{Favorite: "fav-on", NonFavorite: "fav-off"},
	})

	rec := f.do(http.MethodPost, FavoritesRoute+"/products/P1/toggle", "")

	var body FavoriteToggleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || body.State != "favorited" || !body.HasFavorites {
		t.Fatalf("expected favorited after the first-favorite path, got %d %+v", rec.Code, body)
	}
	if body.NormalizeError == "" {
		t.Fatal("expected the failed normalization to be reported")
	}
	if got := f.users.users[f.user.ID].XP.FavoriteProducts; len(got) != 1 || got[0] != "P1" {
		t.Fatalf("expected [P1] stored, got %v", got)
	}
}

// failOnceUsers fails the first PatchMe call only.
type failOnceUsers struct {
	*fakeUsers
	failed bool
}

func (f *failOnceUsers) PatchMe(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (*domain.User, error) {
	if !f.failed {
		f.failed = true
		f.fakeUsers.patches = append(f.fakeUsers.patches, patch)
		return nil, errors.New("profile service down")
	}
	return f.fakeUsers.PatchMe(ctx, id, patch)
}

func TestToggleAddsAndRemoves(t *testing.T) {
	f := newFavoritesFixture(t, domain.FavoriteSet{"P2"})

	rec := f.do(http.MethodPost, FavoritesRoute+"/products/P1/toggle", "")
	var body FavoriteToggleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || body.State != "favorited" || body.Class != "fav-on" {
		t.Fatalf("expected favorited, got %d %+v", rec.Code, body)
	}
	if got := f.users.users[f.user.ID].XP.FavoriteProducts; len(got) != 2 || got[1] != "P1" {
		t.Fatalf("expected P1 appended, got %v", got)
	}

	rec = f.do(http.MethodPost, FavoritesRoute+"/products/P1/toggle", `{"displayed":"favorited"}`)
	body = FavoriteToggleResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.State != "unfavorited" || !body.HasFavorites {
		t.Fatalf("expected unfavorited with remaining favorites, got %+v", body)
	}
	if got := f.users.users[f.user.ID].XP.FavoriteProducts; len(got) != 1 || got[0] != "P2" {
		t.Fatalf("expected only P2 left, got %v", got)
	}
}

func TestToggleFailureIsBadGateway(t *testing.T) {
	f := newFavoritesFixture(t, domain.FavoriteSet{"P1"})
	f.users.patchErr = errors.New("profile service down")

	rec := f.do(http.MethodPost, FavoritesRoute+"/products/P1/toggle", "")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if got := f.users.users[f.user.ID].XP.FavoriteProducts; len(got) != 1 {
		t.Fatalf("favorites must be unchanged, got %v", got)
	}
}

func TestToggleUnknownProduct(t *testing.T) {
	f := newFavoritesFixture(t, domain.FavoriteSet{"P1"})

	rec := f.do(http.MethodPost, FavoritesRoute+"/products/NOPE/toggle", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if len(f.users.patches) != 0 {
		t.Fatal("no patch expected for an unknown product")
	}
}

func TestMergeLocation(t *testing.T) {
	current := url.Values{"search": {"mug"}, "page": {"3"}, "utm": {"mail"}}

	got := mergeLocation("/list", current, domain.StateParams{"page": "", "sortBy": "!name"})

	if got != "/list?search=mug&sortBy=%21name&utm=mail" {
		t.Fatalf("unexpected location %q", got)
	}
	if got := mergeLocation("/list", url.Values{}, domain.StateParams{"page": ""}); got != "/list" {
		t.Fatalf("expected bare path, got %q", got)
	}
}
