package tracing

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/njprem/storefront-favorites/internal/domain"
	"github.com/njprem/storefront-favorites/internal/repository/ports"
)

const instrumentationName = "storefront-repository"

// UserAPI wraps a user API with one span per call.
type UserAPI struct {
	next   ports.UserAPI
	tracer trace.Tracer
}

func NewUserAPI(next ports.UserAPI) *UserAPI {
	return &UserAPI{next: next, tracer: otel.Tracer(instrumentationName)}
}

func (r *UserAPI) Create(ctx context.Context, email string, passwordHash, passwordSalt []byte) (*domain.User, error) {
	ctx, span := r.tracer.Start(ctx, "users.Create")
	defer span.End()

	user, err := r.next.Create(ctx, email, passwordHash, passwordSalt)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	return user, nil
}

func (r *UserAPI) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := r.tracer.Start(ctx, "users.FindByEmail")
	defer span.End()

	user, err := r.next.FindByEmail(ctx, email)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	return user, nil
}

func (r *UserAPI) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	ctx, span := r.tracer.Start(ctx, "users.FindByID",
		trace.WithAttributes(attribute.String("user.id", id.String())),
	)
	defer span.End()

	user, err := r.next.FindByID(ctx, id)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	return user, nil
}

func (r *UserAPI) UpsertByEmail(ctx context.Context, email, fullName string) (*domain.User, error) {
	ctx, span := r.tracer.Start(ctx, "users.UpsertByEmail")
	defer span.End()

	user, err := r.next.UpsertByEmail(ctx, email, fullName)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	return user, nil
}

func (r *UserAPI) PatchMe(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (*domain.User, error) {
	attrs := []attribute.KeyValue{attribute.String("user.id", id.String())}
	if patch.XP != nil {
		attrs = append(attrs, attribute.Int("favorites.count", len(patch.XP.FavoriteProducts)))
	}
	ctx, span := r.tracer.Start(ctx, "users.PatchMe", trace.WithAttributes(attrs...))
	defer span.End()

	user, err := r.next.PatchMe(ctx, id, patch)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	return user, nil
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

var _ ports.UserAPI = (*UserAPI)(nil)
