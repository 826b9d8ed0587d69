package store

import (
	"strings"

	"github.com/loykin/sqlmigrate/internal/constants"
	"github.com/loykin/sqlmigrate/internal/retry"
)

const (
	DriverSqlite     = "sqlite"
	DriverPostgresql = "postgresql"
)

type Config struct {
	Driver       string `mapstructure:"type"`
	TableNames   TableNames
	DriverConfig DriverConfig
	// Retry controls the connect ping; nil uses retry.DefaultRetryConfig.
	Retry *retry.Config
}

type DriverConfig interface {
	ToMap() map[string]interface{}
}

// TableNames selects the ledger table. Ledger wins over Prefix.
type TableNames struct {
	Ledger string `mapstructure:"ledger_table"`
	Prefix string `mapstructure:"table_prefix"`
}

// LedgerTable returns the resolved ledger table name.
func (t TableNames) LedgerTable() string {
	if name := strings.TrimSpace(t.Ledger); name != "" {
		return name
	}
	if prefix := strings.TrimSpace(t.Prefix); prefix != "" {
		return prefix + constants.LedgerSuffix
	}
	return constants.DefaultLedgerTable
}

// NormalizeDriver maps accepted driver aliases to DriverSqlite or DriverPostgresql.
func NormalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return DriverSqlite
	case "postgres", "postgresql", "pg", "pgx":
		return DriverPostgresql
	default:
		return strings.ToLower(strings.TrimSpace(driver))
	}
}
