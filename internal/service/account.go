// Package service contains the business rules of the catalog.
//
// Handlers parse HTTP and call a service; services validate, hash, and talk
// to repositories through interfaces; repositories speak SQL. Services return
// apperror values and never see an http.Request, so the seeding command uses
// them unchanged.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sakif/podcast-api/internal/apperror"
	"github.com/sakif/podcast-api/internal/auth"
	"github.com/sakif/podcast-api/internal/model"
	"github.com/sakif/podcast-api/internal/repository"
)

// RegisterInput is the body of POST /account/.
type RegisterInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// AccountService registers accounts and looks them up.
type AccountService struct {
	accounts  repository.AccountRepository
	passwords *auth.PasswordService
	logger    *zap.Logger
}

func NewAccountService(accounts repository.AccountRepository, passwords *auth.PasswordService, logger *zap.Logger) *AccountService {
	return &AccountService{
		accounts:  accounts,
		passwords: passwords,
		logger:    logger,
	}
}

// Register validates in, hashes the password and stores the account.
//
// Every field is required. Values are stored exactly as sent: a username of
// " ab" is a different account from "ab". A taken username returns an error
// wrapping apperror.ErrConflict.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.Account, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", err.Error())
		}
		return nil, fmt.Errorf("service/account: %w", err)
	}

	account := &model.Account{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Username:  in.Username,
		Password:  hash,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Info("username already taken", zap.String("username", in.Username))
			return nil, err
		}
		s.logger.Error("failed to create account", zap.String("username", in.Username), zap.Error(err))
		return nil, fmt.Errorf("service/account: creating account: %w", err)
	}

	s.logger.Info("account created", zap.Int64("id", account.ID), zap.String("username", account.Username))
	return account, nil
}

func validateRegistration(in RegisterInput) error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"first_name", in.FirstName, model.MaxNameLength},
		{"last_name", in.LastName, model.MaxNameLength},
		{"username", in.Username, model.MaxUsernameLength},
		{"password", in.Password, auth.MaxPasswordBytes},
	}

	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return apperror.ValidationFailed(f.name, f.name+" is required")
		}
		n := utf8.RuneCountInString(f.value)
		if f.name == "password" {
			n = len(f.value) // bcrypt counts bytes
		}
		if n > f.max {
			return apperror.ValidationFailed(f.name, fmt.Sprintf("%s must be %d characters or fewer", f.name, f.max))
		}
	}
	return nil
}
