package sqlstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Migrations are compiled into the binary, one directory per dialect, so a
// deployed server never depends on files next to it.
//
//go:embed migrations
var migrationsFS embed.FS

// migrate applies every pending up migration.
//
// The SQLite driver works on the store's own pool; its Close would close that
// pool too, so the migrate instance is simply dropped. MySQL and Postgres
// drivers pin a connection for their advisory lock, so they get a short-lived
// pool of their own that is closed afterwards.
func (s *Store) migrate(cfg Config) error {
	src, err := iofs.New(migrationsFS, "migrations/"+string(s.dialect))
	if err != nil {
		return fmt.Errorf("loading %s migrations: %w", s.dialect, err)
	}

	var (
		driver  database.Driver
		cleanup = func() {}
	)

	switch s.dialect {
	case SQLite:
		driver, err = migratesqlite.WithInstance(s.db.DB, &migratesqlite.Config{})
	case MySQL, Postgres:
		name, _ := s.dialect.driverName()
		var raw *sql.DB
		raw, err = sql.Open(name, cfg.DSN)
		if err != nil {
			return fmt.Errorf("opening migration connection: %w", err)
		}
		if s.dialect == MySQL {
			driver, err = migratemysql.WithInstance(raw, &migratemysql.Config{})
		} else {
			driver, err = migratepgx.WithInstance(raw, &migratepgx.Config{})
		}
		if err != nil {
			raw.Close()
		} else {
			cleanup = func() { _ = driver.Close() }
		}
	default:
		return fmt.Errorf("unsupported dialect %q", s.dialect)
	}
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	defer cleanup()

	m, err := migrate.NewWithInstance("iofs", src, string(s.dialect), driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}

	before, _, _ := m.Version()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	after, dirty, _ := m.Version()

	s.logger.Info("database migrated",
		zap.String("dialect", string(s.dialect)),
		zap.Uint("from_version", before),
		zap.Uint("to_version", after),
		zap.Bool("dirty", dirty),
	)
	return nil
}
