package sqlstore

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type violation int

const (
	noViolation violation = iota
	uniqueViolation
	foreignKeyViolation
)

// MySQL server error numbers and Postgres SQLSTATE codes for the two
// constraint kinds the schema can trip.
const (
	mysqlDuplicateEntry   = 1062
	mysqlNoReferencedRow  = 1452
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// classify reports which constraint err violated, whatever driver raised it.
func classify(err error) violation {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return uniqueViolation
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return foreignKeyViolation
		case sqlite3.SQLITE_CONSTRAINT:
			// Connection opened without extended result codes.
			msg := liteErr.Error()
			switch {
			case strings.Contains(msg, "UNIQUE constraint"):
				return uniqueViolation
			case strings.Contains(msg, "FOREIGN KEY constraint"):
				return foreignKeyViolation
			}
		}
		return noViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return uniqueViolation
		case mysqlNoReferencedRow:
			return foreignKeyViolation
		}
		return noViolation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return uniqueViolation
		case pgForeignKeyViolation:
			return foreignKeyViolation
		}
	}
	return noViolation
}
