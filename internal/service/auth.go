package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sakif/podcast-api/internal/apperror"
	"github.com/sakif/podcast-api/internal/auth"
	"github.com/sakif/podcast-api/internal/model"
	"github.com/sakif/podcast-api/internal/repository"
)

// AuthService checks credentials, issues tokens and resolves token
// identities back to accounts.
//
//	AuthHandler ──► AuthService.Login ──► AccountRepository
//	                                  └─► TokenService
//	RequireAuth ──► AuthService.Identity ──► AccountRepository
type AuthService struct {
	accounts  repository.AccountRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *zap.Logger
}

var _ auth.IdentityResolver = (*AuthService)(nil)

func NewAuthService(
	accounts repository.AccountRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		accounts:  accounts,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

var errInvalidCredentials = apperror.Unauthorized("invalid credentials")

// Authenticate returns the account whose username matches exactly and whose
// stored hash matches password. Unknown usernames and wrong passwords give
// the same error, and both cost one bcrypt comparison.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.Account, error) {
	if username == "" || password == "" {
		return nil, errInvalidCredentials
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.VerifyNothing(password)
			s.logger.Info("login failed", zap.String("username", username), zap.String("reason", "unknown username"))
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	if err := s.passwords.Verify(account.Password, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login failed", zap.String("username", username), zap.String("reason", "wrong password"))
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: verifying password for account %d: %w", account.ID, err)
	}

	return account, nil
}

// AccessToken is a signed token and how long it stays valid.
type AccessToken struct {
	Token     string
	ExpiresIn time.Duration
}

// Login authenticates and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (AccessToken, error) {
	account, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return AccessToken{}, err
	}

	token, err := s.tokens.Generate(account.ID)
	if err != nil {
		return AccessToken{}, fmt.Errorf("service/auth: issuing token for account %d: %w", account.ID, err)
	}

	s.logger.Info("account logged in", zap.Int64("id", account.ID))
	return AccessToken{Token: token, ExpiresIn: s.tokens.Expiration()}, nil
}

// Identity loads the account named by the token's identity claim. A
// validated token for a deleted account is rejected, not served.
func (s *AuthService) Identity(ctx context.Context, claims *auth.Claims) (*model.Account, error) {
	account, err := s.accounts.GetByID(ctx, claims.Identity)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("user does not exist")
		}
		return nil, fmt.Errorf("service/auth: resolving identity %d: %w", claims.Identity, err)
	}
	return account, nil
}
