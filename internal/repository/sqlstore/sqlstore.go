// Package sqlstore implements the repository interfaces on top of
// database/sql through sqlx.
//
// THREE DIALECTS, ONE SET OF QUERIES:
// Queries are written once with "?" placeholders and passed through
// sqlx's Rebind, which rewrites them to "$1, $2, ..." for Postgres. The few
// places where the engines really differ are switched on Dialect:
//
//   - new ids: SQLite and Postgres use INSERT ... RETURNING id; MySQL has no
//     RETURNING, so it reads LastInsertId instead
//   - constraint violations: each driver has its own error type (errors.go)
//   - migrations: each dialect has its own directory of SQL files
//
// SQLite is the default. Its pool is capped at one connection: SQLite allows
// a single writer anyway, and a ":memory:" database only exists on the
// connection that created it.
package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	// Drivers register themselves with database/sql: "sqlite", "mysql", "pgx".
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/sakif/podcast-api/internal/repository"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

func init() {
	// sqlx does not know the modernc driver name.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// driverName maps a dialect to the database/sql driver registered for it.
func (d Dialect) driverName() (string, error) {
	switch d {
	case SQLite:
		return "sqlite", nil
	case MySQL:
		return "mysql", nil
	case Postgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("sqlstore: unsupported dialect %q", d)
	}
}

// Config selects and tunes the database.
type Config struct {
	Dialect      Dialect
	DSN          string // file path or ":memory:" for SQLite
	MaxOpenConns int
}

// Store owns the connection pool and hands out repositories bound to it.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	logger  *zap.Logger
}

// Open connects, applies pending migrations and returns a ready Store.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	driver, err := cfg.Dialect.driverName()
	if err != nil {
		return nil, err
	}

	if cfg.Dialect == SQLite {
		if err := ensureSQLiteDir(cfg.DSN); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening %s: %w", cfg.Dialect, err)
	}

	if cfg.Dialect == SQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
			db.SetMaxIdleConns(max(cfg.MaxOpenConns/2, 1))
		}
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: pinging %s: %w", cfg.Dialect, err)
	}

	if cfg.Dialect == SQLite {
		if err := sqlitePragmas(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := New(db, cfg.Dialect, logger)
	if err := s.migrate(cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: running migrations: %w", err)
	}
	return s, nil
}

// New wraps an existing pool without migrating it. Tests use it with sqlmock.
func New(db *sqlx.DB, dialect Dialect, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, dialect: dialect, logger: logger}
}

// ensureSQLiteDir creates the parent directory of a plain file DSN. SQLite
// creates the file itself but not its directory. URI DSNs are left alone.
func ensureSQLiteDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sqlstore: creating database directory %s: %w", dir, err)
	}
	return nil
}

func sqlitePragmas(ctx context.Context, db *sqlx.DB) error {
	// WAL lets readers proceed during a write. In-memory databases report
	// "memory" and ignore it.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("sqlstore: setting WAL mode: %w", err)
	}
	// Off by default in SQLite; content_categories relies on it.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("sqlstore: enabling foreign keys: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) conn() conn {
	return conn{ext: s.db, db: s.db, dialect: s.dialect}
}

func (s *Store) Accounts() *AccountStore { return &AccountStore{c: s.conn()} }

func (s *Store) Contents() *ContentStore { return &ContentStore{c: s.conn()} }

func (s *Store) Categories() *CategoryStore { return &CategoryStore{c: s.conn()} }

// Repositories returns all repositories bound to the pool.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Accounts:   s.Accounts(),
		Contents:   s.Contents(),
		Categories: s.Categories(),
	}
}

var _ repository.Transactor = (*Store)(nil)

// WithinTx runs fn with repositories bound to one transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Repositories) error) error {
	return s.conn().inTx(ctx, func(c conn) error {
		return fn(repository.Repositories{
			Accounts:   &AccountStore{c: c},
			Contents:   &ContentStore{c: c},
			Categories: &CategoryStore{c: c},
		})
	})
}

// conn is what every repository runs its queries through: the pool, or a
// transaction when db is nil.
type conn struct {
	ext     sqlx.ExtContext
	db      *sqlx.DB
	dialect Dialect
}

// inTx runs fn in a transaction, reusing the current one if there is one.
func (c conn) inTx(ctx context.Context, fn func(conn) error) (err error) {
	if c.db == nil {
		return fn(c)
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(conn{ext: tx, dialect: c.dialect}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: committing transaction: %w", err)
	}
	return nil
}

// insert runs an INSERT written with "?" placeholders and returns the new id.
func (c conn) insert(ctx context.Context, query string, args ...any) (int64, error) {
	if c.dialect == MySQL {
		res, err := c.ext.ExecContext(ctx, c.ext.Rebind(query), args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}

	var id int64
	err := c.ext.QueryRowxContext(ctx, c.ext.Rebind(query+" RETURNING id"), args...).Scan(&id)
	return id, err
}
