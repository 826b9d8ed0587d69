package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/loykin/sqlmigrate/internal/store/postgresql"
	"github.com/loykin/sqlmigrate/internal/store/sqlite"
)

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect hides driver differences from the ledger and the catalog source.
type Dialect interface {
	DriverName() string
	Placeholder(index int) string
	LedgerDDL(table string) string
	IsConstraintViolation(err error) bool
	ConvertBoolFromStorage(val interface{}) bool
	ConvertTimeFromStorage(val interface{}) time.Time
	Connect(dsn string) (*sql.DB, error)
}

var (
	_ Dialect = (*sqlite.Dialect)(nil)
	_ Dialect = (*postgresql.Dialect)(nil)
)

// DialectFor returns the dialect for a driver name or alias.
func DialectFor(driver string) (Dialect, error) {
	switch NormalizeDriver(driver) {
	case DriverSqlite:
		return sqlite.NewDialect(), nil
	case DriverPostgresql:
		return postgresql.NewDialect(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported store type %q", ErrInvalidConfig, driver)
	}
}
