package domain

import "strings"

// FavoriteSet holds favorited product identifiers in insertion order.
// A nil set means the profile was never initialized; an empty, non-nil set
// means the user has no favorites.
type FavoriteSet []string

func (s FavoriteSet) Defined() bool {
	return s != nil
}

func (s FavoriteSet) Contains(productID string) bool {
	for _, id := range s {
		if id == productID {
			return true
		}
	}
	return false
}

// With returns a copy with productID appended unless it is already present.
func (s FavoriteSet) With(productID string) FavoriteSet {
	out := make(FavoriteSet, 0, len(s)+1)
	out = append(out, s...)
	if !s.Contains(productID) {
		out = append(out, productID)
	}
	return out
}

// Without returns a copy with every occurrence of productID removed.
func (s FavoriteSet) Without(productID string) FavoriteSet {
	out := make(FavoriteSet, 0, len(s))
	for _, id := range s {
		if id != productID {
			out = append(out, id)
		}
	}
	return out
}

func (s FavoriteSet) Join(sep string) string {
	return strings.Join(s, sep)
}

// FavoriteState is what a favorite toggle currently displays.
type FavoriteState int

const (
	StateUnfavorited FavoriteState = iota
	StateFavorited
	StatePending
)

func (s FavoriteState) String() string {
	switch s {
	case StateFavorited:
		return "favorited"
	case StatePending:
		return "pending"
	default:
		return "unfavorited"
	}
}

func ParseFavoriteState(raw string) (FavoriteState, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "favorited", "faved", "favorite":
		return StateFavorited, true
	case "unfavorited", "unfaved", "":
		return StateUnfavorited, true
	default:
		return StateUnfavorited, false
	}
}
