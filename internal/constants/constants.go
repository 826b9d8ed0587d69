package constants

import "time"

// Database Constants
const (
	// PostgreSQL defaults
	DefaultPostgresPort    = 5432
	DefaultPostgresSSLMode = "disable"

	// Connection pool settings
	DefaultPostgresMaxConnections = 25
	DefaultPostgresMaxIdleConns   = 5
	DefaultSQLiteMaxConnections   = 1 // SQLite allows only one writer
	DefaultSQLiteMaxIdleConns     = 1

	// SQLite DSN parameters
	DefaultSQLiteBusyTimeoutMS = 5000
	SQLiteForeignKeysParam     = "_pragma=foreign_keys(1)"

	// Default ledger table name
	DefaultLedgerTable = "applied_migration_script"

	// Table name suffix when using a prefix
	LedgerSuffix = "_applied_migration_script"
)

// Time and Duration Constants
const (
	// Connection pool lifetimes
	DefaultMaxConnLifetime = 5 * time.Minute
	DefaultMaxIdleTime     = 1 * time.Minute
	DefaultSQLiteLifetime  = 10 * time.Minute
	DefaultSQLiteIdleTime  = 5 * time.Minute

	// Manifest download timeout
	DefaultManifestTimeout = 30 * time.Second
)

// Script source constants
const (
	SourceDir      = "dir"
	SourceManifest = "manifest"
	SourceCatalog  = "catalog"

	DefaultScriptExtension = ".sql"
	DefaultScriptDir       = "./migrations"
	DefaultCatalogTable    = "migration_script"

	// Manifests shorter than this are treated as empty.
	MinManifestLength = 10
)
