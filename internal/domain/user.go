package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     *string   `db:"username" json:"username,omitempty"`
	FullName     *string   `db:"full_name" json:"full_name,omitempty"`
	PasswordHash []byte    `db:"password_hash" json:"-"`
	PasswordSalt []byte    `db:"password_salt" json:"-"`
	XP           UserXP    `db:"xp" json:"xp"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserXP is the extensible properties bag stored with the user profile.
// Keys other than FavoriteProducts are kept server-side and merged on patch.
// FavoriteProducts has no omitempty: an empty set must reach the wire as [].
type UserXP struct {
	FavoriteProducts FavoriteSet `json:"FavoriteProducts"`
}

func (x UserXP) Value() (driver.Value, error) {
	data, err := json.Marshal(x)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (x *UserXP) Scan(value any) error {
	if value == nil {
		*x = UserXP{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("user xp must be []byte or string")
	}
	*x = UserXP{}
	return json.Unmarshal(data, x)
}

// UserPatch is a partial profile update. Nil fields are left untouched.
type UserPatch struct {
	XP *UserXP `json:"xp,omitempty"`
}

// FavoritesPatch builds a patch that replaces the favorites sequence only.
func FavoritesPatch(favorites FavoriteSet) UserPatch {
	if favorites == nil {
		favorites = FavoriteSet{}
	}
	return UserPatch{XP: &UserXP{FavoriteProducts: favorites}}
}
