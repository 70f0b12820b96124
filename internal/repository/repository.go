// Package repository declares the storage contracts the service layer
// depends on. Implementations live in sub-packages (sqlstore).
package repository

import (
	"context"

	"github.com/sakif/podcast-api/internal/model"
)

// AccountRepository stores accounts.
//
// Create sets account.ID on success and returns an error wrapping
// apperror.ErrConflict when the username is taken. Lookups return an error
// wrapping apperror.ErrNotFound for missing rows.
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
}

// ContentRepository stores content rows and their category links.
//
// Create inserts the row and links it to every category in categoryIDs in a
// single transaction. A duplicate file_path wraps apperror.ErrConflict; an
// unknown category id wraps apperror.ErrNotFound. List returns every row in
// ascending id order and a non-nil slice.
type ContentRepository interface {
	Create(ctx context.Context, content *model.Content, categoryIDs ...int64) error
	List(ctx context.Context) ([]model.Content, error)
	Categories(ctx context.Context, contentID int64) ([]model.Category, error)
}

// CategoryRepository stores categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	List(ctx context.Context) ([]model.Category, error)
}

// Transactor runs fn with repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}

// Repositories bundles the repositories that share one connection or
// transaction.
type Repositories struct {
	Accounts   AccountRepository
	Contents   ContentRepository
	Categories CategoryRepository
}
