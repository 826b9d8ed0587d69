package postgresql

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/loykin/sqlmigrate/internal/constants"
)

// SQLSTATE unique_violation
const uniqueViolation = "23505"

// Dialect implements SQL dialect for PostgreSQL
type Dialect struct{}

// NewDialect creates a new PostgreSQL dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

// DriverName returns the driver name for logging
func (p *Dialect) DriverName() string {
	return "postgresql"
}

// Placeholder returns PostgreSQL-style placeholders ($1, $2, etc.)
func (p *Dialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// LedgerDDL creates the ledger keyed by script identifier with a UTC applied_at default.
func (p *Dialect) LedgerDDL(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ("+
		"script_id TEXT NOT NULL PRIMARY KEY, "+
		"applied_at TIMESTAMP NOT NULL DEFAULT (now() AT TIME ZONE 'utc'))", table)
}

// IsConstraintViolation reports whether err is a unique_violation.
func (p *Dialect) IsConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ConvertBoolFromStorage converts PostgreSQL bool storage to bool
func (p *Dialect) ConvertBoolFromStorage(val interface{}) bool {
	switch v := val.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int32:
		return v != 0
	}
	return false
}

// ConvertTimeFromStorage converts PostgreSQL timestamps to UTC time.
func (p *Dialect) ConvertTimeFromStorage(val interface{}) time.Time {
	if t, ok := val.(*time.Time); ok && t != nil {
		return t.UTC()
	}
	if t, ok := val.(time.Time); ok {
		return t.UTC()
	}
	return time.Time{}
}

// Connect opens a PostgreSQL pool with the default pool limits.
func (p *Dialect) Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}
	db.SetMaxOpenConns(constants.DefaultPostgresMaxConnections)
	db.SetMaxIdleConns(constants.DefaultPostgresMaxIdleConns)
	db.SetConnMaxLifetime(constants.DefaultMaxConnLifetime)
	db.SetConnMaxIdleTime(constants.DefaultMaxIdleTime)
	return db, nil
}
