package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/loykin/sqlmigrate/internal/common"
	"github.com/loykin/sqlmigrate/internal/retry"
)

// ErrInvalidConfig is returned for missing or invalid connection settings.
var ErrInvalidConfig = errors.New("invalid store configuration")

// Store bundles the database pool, its dialect and the ledger.
type Store struct {
	DB      *sql.DB
	Dialect Dialect
	Ledger  *Ledger
}

// Open resolves the driver configuration, connects and pings with retry.
// Missing connection settings fail before any connection is attempted.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	ledger, err := NewLedger(dialect, cfg.TableNames.LedgerTable())
	if err != nil {
		return nil, err
	}

	var dsn string
	if cfg.DriverConfig != nil {
		if v, ok := cfg.DriverConfig.ToMap()["dsn"].(string); ok {
			dsn = strings.TrimSpace(v)
		}
	}
	if dsn == "" {
		return nil, fmt.Errorf("%w: %s connection settings are missing", ErrInvalidConfig, dialect.DriverName())
	}

	logger := common.GetLogger().WithStore(dialect.DriverName())
	logger.Debug("connecting to database", "dsn", dsn)

	db, err := dialect.Connect(dsn)
	if err != nil {
		return nil, err
	}
	if err := retry.WithRetry(ctx, cfg.Retry, db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect.DriverName(), err)
	}
	logger.Info("database connection established", "ledger_table", ledger.Table())
	return &Store{DB: db, Dialect: dialect, Ledger: ledger}, nil
}

// New wraps an existing pool.
func New(db *sql.DB, driver string, tables TableNames) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil database", ErrInvalidConfig)
	}
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	ledger, err := NewLedger(dialect, tables.LedgerTable())
	if err != nil {
		return nil, err
	}
	return &Store{DB: db, Dialect: dialect, Ledger: ledger}, nil
}

// Applied lists the ledger, creating it first if needed.
func (s *Store) Applied(ctx context.Context) ([]AppliedRecord, error) {
	if err := s.Ledger.EnsureBootstrapped(ctx, s.DB); err != nil {
		return nil, err
	}
	return s.Ledger.List(ctx, s.DB)
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
