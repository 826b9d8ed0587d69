package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/loykin/sqlmigrate/internal/constants"
)

// Layouts SQLite TEXT timestamps are commonly written in.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.DateOnly,
}

// Dialect implements SQL dialect for SQLite
type Dialect struct{}

// NewDialect creates a new SQLite dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

// DriverName returns the driver name for logging
func (s *Dialect) DriverName() string {
	return "sqlite"
}

// Placeholder returns SQLite-style placeholders (?)
func (s *Dialect) Placeholder(int) string {
	return "?"
}

// LedgerDDL creates the ledger keyed by script identifier. applied_at defaults
// to the current UTC time with millisecond precision.
func (s *Dialect) LedgerDDL(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ("+
		"script_id TEXT NOT NULL PRIMARY KEY, "+
		"applied_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now')))", table)
}

// IsConstraintViolation reports whether err is a UNIQUE/PRIMARY KEY failure.
func (s *Dialect) IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	var se *msqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return strings.Contains(err.Error(), "constraint failed")
}

// ConvertBoolFromStorage converts SQLite integer storage to bool
func (s *Dialect) ConvertBoolFromStorage(val interface{}) bool {
	switch v := val.(type) {
	case int64:
		return v != 0
	case int:
		return v != 0
	case bool:
		return v
	case string:
		return v == "1" || strings.EqualFold(v, "true")
	case []byte:
		return string(v) == "1" || strings.EqualFold(string(v), "true")
	}
	return false
}

// ConvertTimeFromStorage converts SQLite TEXT (or driver-parsed) timestamps to UTC time.
func (s *Dialect) ConvertTimeFromStorage(val interface{}) time.Time {
	var str string
	switch v := val.(type) {
	case time.Time:
		return v.UTC()
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(str)); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Connect opens a SQLite pool. SQLite allows a single writer so the pool holds one connection.
func (s *Dialect) Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}
	db.SetMaxOpenConns(constants.DefaultSQLiteMaxConnections)
	db.SetMaxIdleConns(constants.DefaultSQLiteMaxIdleConns)
	db.SetConnMaxLifetime(constants.DefaultSQLiteLifetime)
	db.SetConnMaxIdleTime(constants.DefaultSQLiteIdleTime)
	return db, nil
}
