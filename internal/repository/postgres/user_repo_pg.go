package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/storefront-favorites/internal/domain"
	"github.com/njprem/storefront-favorites/internal/repository/ports"
)

const userColumns = `id, email, username, full_name, password_hash, password_salt, xp, created_at, updated_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, email string, passwordHash, passwordSalt []byte) (*domain.User, error) {
	query := `
        INSERT INTO user_account (email, password_hash, password_salt, xp)
        VALUES ($1, $2, $3, '{}'::jsonb)
        RETURNING ` + userColumns

	var user domain.User
	if err := r.db.QueryRowxContext(ctx, query, email, passwordHash, passwordSalt).StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM user_account WHERE email = $1`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM user_account WHERE id = $1`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertByEmail keeps an existing full name and only fills it when empty.
func (r *UserRepository) UpsertByEmail(ctx context.Context, email, fullName string) (*domain.User, error) {
	query := `
        INSERT INTO user_account (email, full_name, xp)
        VALUES ($1, NULLIF($2, ''), '{}'::jsonb)
        ON CONFLICT (email) DO UPDATE
        SET full_name = COALESCE(user_account.full_name, EXCLUDED.full_name),
            updated_at = NOW()
        RETURNING ` + userColumns

	var user domain.User
	if err := r.db.QueryRowxContext(ctx, query, email, fullName).StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// PatchMe merges the patch's xp keys into the stored bag; keys the patch
// does not name are kept.
func (r *UserRepository) PatchMe(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (*domain.User, error) {
	if patch.XP == nil {
		return r.FindByID(ctx, id)
	}
	xp, err := json.Marshal(patch.XP)
	if err != nil {
		return nil, err
	}

	query := `
        UPDATE user_account
        SET xp = COALESCE(xp, '{}'::jsonb) || $2::jsonb,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + userColumns

	var user domain.User
	if err := r.db.QueryRowxContext(ctx, query, id, string(xp)).StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

var _ ports.UserAPI = (*UserRepository)(nil)
