// Package services holds the request level operations behind the HTTP handlers.
package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cppla/docqa/models"
	"github.com/cppla/docqa/store"
	"github.com/cppla/docqa/utils"
)

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Token is the OAuth2 style bearer token response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthService registers users and issues and validates their tokens.
type AuthService struct {
	users  UserRepository
	tokens *utils.TokenIssuer
}

func NewAuthService(users UserRepository, tokens *utils.TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// NormalizeEmail trims and lowercases so lookups are case insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the account and logs it in.
func (s *AuthService) Register(ctx context.Context, email, password string) (*Token, error) {
	email = NormalizeEmail(email)
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, ErrInternal.With(err)
	}

	u := &models.User{Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail.With(err)
		}
		return nil, ErrInternal.With(err)
	}
	utils.Logger.Info("user registered", zap.Uint("user_id", u.ID))
	return s.issue(u)
}

// Authenticate checks the password and returns a fresh token.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*Token, error) {
	u, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Spend the same bcrypt time as a wrong password.
			utils.CheckPassword(dummyHash(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, ErrInternal.With(err)
	}
	if !utils.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

// ValidateToken verifies signature and expiry and loads the token's user.
func (s *AuthService) ValidateToken(ctx context.Context, raw string) (*models.User, error) {
	claims, err := s.tokens.ParseToken(raw)
	if err != nil {
		return nil, ErrInvalidToken.With(err)
	}
	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken.With(err)
		}
		return nil, ErrInternal.With(err)
	}
	if u.Email != claims.Subject {
		return nil, ErrInvalidToken
	}
	return u, nil
}

func (s *AuthService) issue(u *models.User) (*Token, error) {
	tok, err := s.tokens.GenerateToken(u.ID, u.Email)
	if err != nil {
		return nil, ErrInternal.With(err)
	}
	return &Token{AccessToken: tok, TokenType: "bearer"}, nil
}

var (
	dummyOnce sync.Once
	dummy     string
)

func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = utils.HashPassword("docqa-timing-equaliser")
	})
	return dummy
}
