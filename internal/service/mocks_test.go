package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/njprem/storefront-favorites/internal/domain"
)

type MockUserAPI struct {
	mock.Mock
}

func (m *MockUserAPI) Create(ctx context.Context, email string, passwordHash, passwordSalt []byte) (*domain.User, error) {
	args := m.Called(ctx, email, passwordHash, passwordSalt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserAPI) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserAPI) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserAPI) UpsertByEmail(ctx context.Context, email, fullName string) (*domain.User, error) {
	args := m.Called(ctx, email, fullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserAPI) PatchMe(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (*domain.User, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockProductAPI struct {
	mock.Mock
}

func (m *MockProductAPI) ListProducts(ctx context.Context, params domain.ListParameters) (*domain.ProductList, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductList), args.Error(1)
}

func (m *MockProductAPI) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

type MockNavigator struct {
	mock.Mock
}

func (m *MockNavigator) Go(ctx context.Context, target string, params domain.StateParams) error {
	args := m.Called(ctx, target, params)
	return args.Error(0)
}

type MockURLSigner struct {
	mock.Mock
}

func (m *MockURLSigner) SignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, objectKey, ttl)
	return args.String(0), args.Error(1)
}

// favoritesPatch matches a user patch carrying exactly the given favorites.
func favoritesPatch(ids ...string) interface{} {
	want := domain.FavoriteSet(ids)
	if want == nil {
		want = domain.FavoriteSet{}
	}
	return mock.MatchedBy(func(patch domain.UserPatch) bool {
		if patch.XP == nil || patch.XP.FavoriteProducts == nil {
			return false
		}
		got := patch.XP.FavoriteProducts
		if len(got) != len(want) {
			return false
		}
		for i := range got {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	})
}

func userWithFavorites(ids domain.FavoriteSet) *domain.User {
	return &domain.User{
		ID:    uuid.New(),
		Email: "shopper@example.com",
		XP:    domain.UserXP{FavoriteProducts: ids},
	}
}
