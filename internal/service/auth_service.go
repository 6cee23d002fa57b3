package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/njprem/storefront-favorites/internal/domain"
	"github.com/njprem/storefront-favorites/internal/repository/ports"
	"github.com/njprem/storefront-favorites/internal/util"
)

var (
	ErrPasswordTooWeak = errors.New("password does not meet requirements")
	ErrGoogleDisabled  = errors.New("google sign-in is not configured")
)

// GoogleTokenValidator checks a Google ID token against an audience.
type GoogleTokenValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService owns the shopper session: it issues tokens and resolves the
// current user that favorites are read from and patched on.
type AuthService struct {
	users ports.UserAPI
	jwt   *util.JWTManager

	googleAudience string
	validateGoogle GoogleTokenValidator
}

type AuthOption func(*AuthService)

// WithGoogleAudience enables Google sign-in for tokens issued to the client ID.
func WithGoogleAudience(audience string) AuthOption {
	return func(s *AuthService) {
		s.googleAudience = strings.TrimSpace(audience)
	}
}

func WithGoogleValidator(v GoogleTokenValidator) AuthOption {
	return func(s *AuthService) {
		if v != nil {
			s.validateGoogle = v
		}
	}
}

func NewAuthService(users ports.UserAPI, jwtManager *util.JWTManager, opts ...AuthOption) *AuthService {
	s := &AuthService{users: users, jwt: jwtManager, validateGoogle: idtoken.Validate}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) RegisterWithEmail(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidCredentials)
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordTooWeak, err)
	}

	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Create(ctx, email, hash, salt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.issue(user)
}

func (s *AuthService) LoginWithEmail(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !util.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// LoginWithGoogle signs in with a Google ID token, creating the account on
// first use.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (*AuthResult, error) {
	if s.googleAudience == "" {
		return nil, ErrGoogleDisabled
	}
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, fmt.Errorf("%w: id token is required", ErrInvalidCredentials)
	}
	payload, err := s.validateGoogle(ctx, idToken, s.googleAudience)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid google token: %v", ErrInvalidCredentials, err)
	}

	email, _ := payload.Claims["email"].(string)
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: google token has no email", ErrInvalidCredentials)
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, fmt.Errorf("%w: google email is not verified", ErrInvalidCredentials)
	}
	name, _ := payload.Claims["name"].(string)

	user, err := s.users.UpsertByEmail(ctx, email, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("upsert google user: %w", err)
	}
	return s.issue(user)
}

// Authenticate resolves a bearer token to the current user profile.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, ErrUserNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
