package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/podcast-api/internal/apperror"
	"github.com/sakif/podcast-api/internal/model"
	"github.com/sakif/podcast-api/internal/repository"
)

var _ repository.AccountRepository = (*AccountStore)(nil)

type AccountStore struct {
	c conn
}

const accountColumns = `id, first_name, last_name, username, password`

// Create inserts account and sets its ID. The password column is stored as
// given; hashing is the caller's job.
func (s *AccountStore) Create(ctx context.Context, account *model.Account) error {
	id, err := s.c.insert(ctx,
		`INSERT INTO account (first_name, last_name, username, password) VALUES (?, ?, ?, ?)`,
		account.FirstName, account.LastName, account.Username, account.Password,
	)
	if err != nil {
		if classify(err) == uniqueViolation {
			return fmt.Errorf("sqlstore: creating account: %w", apperror.Conflict("account", "username"))
		}
		return fmt.Errorf("sqlstore: creating account: %w", err)
	}
	account.ID = id
	return nil
}

func (s *AccountStore) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	var a model.Account
	err := sqlx.GetContext(ctx, s.c.ext, &a,
		s.c.ext.Rebind(`SELECT `+accountColumns+` FROM account WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlstore: getting account %d: %w", id, err)
	}
	return &a, nil
}

// GetByUsername matches the username exactly, case included.
func (s *AccountStore) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	var a model.Account
	err := sqlx.GetContext(ctx, s.c.ext, &a,
		s.c.ext.Rebind(`SELECT `+accountColumns+` FROM account WHERE username = ?`), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: "account not found",
				Field:   "username",
			}
		}
		return nil, fmt.Errorf("sqlstore: getting account by username: %w", err)
	}
	return &a, nil
}
