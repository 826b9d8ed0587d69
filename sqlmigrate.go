// Package sqlmigrate applies ordered SQL migration scripts exactly once,
// tracking them in a ledger table and running each batch in one transaction.
package sqlmigrate

import (
	"context"
	"errors"
	"io"
	"io/fs"

	"github.com/loykin/sqlmigrate/internal/common"
	imig "github.com/loykin/sqlmigrate/internal/migration"
	"github.com/loykin/sqlmigrate/internal/script"
	"github.com/loykin/sqlmigrate/internal/source"
	"github.com/loykin/sqlmigrate/internal/store"
	"github.com/loykin/sqlmigrate/internal/store/postgresql"
	"github.com/loykin/sqlmigrate/internal/store/sqlite"
	"github.com/loykin/sqlmigrate/internal/version"
)

// Re-export commonly used types for public API

type Script = script.Script

type Migrator = imig.Migrator

type Result = imig.Result

type Plan = imig.Plan

type Skipped = imig.Skipped

// ScriptError names the script that failed; the whole batch was rolled back.
type ScriptError = imig.ScriptError

type State = imig.State

type Store = store.Store

type StoreConfig = store.Config

type TableNames = store.TableNames

type AppliedRecord = store.AppliedRecord

type SQLiteConfig = sqlite.Config

type PostgresConfig = postgresql.Config

type Source = source.Source

type SourceConfig = source.Config

type DirConfig = source.DirConfig

type ManifestConfig = source.ManifestConfig

type CatalogConfig = source.CatalogConfig

type Gate = version.Gate

const (
	DriverSqlite     = store.DriverSqlite
	DriverPostgresql = store.DriverPostgresql

	StateIdle       = imig.StateIdle
	StateLoaded     = imig.StateLoaded
	StateApplying   = imig.StateApplying
	StateCommitted  = imig.StateCommitted
	StateRolledBack = imig.StateRolledBack
)

var (
	ErrConfig              = imig.ErrConfig
	ErrConstraintViolation = store.ErrConstraintViolation
)

// OpenStore connects to the configured database and pings it with retry.
func OpenStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	return store.Open(ctx, cfg)
}

// NewSource builds the configured script source. st is required for catalog sources.
func NewSource(cfg SourceConfig, st *Store) (Source, error) {
	return source.New(cfg, st)
}

// FSSource reads one script per file with the given extension from root in fsys,
// which may be an embed.FS.
func FSSource(fsys fs.FS, root, extension string) Source {
	return &source.DirSource{FS: fsys, Root: root, Extension: extension}
}

// NewGate returns a version gate for appVersion; an empty version disables gating.
func NewGate(appVersion string) (*Gate, error) {
	return version.New(appVersion)
}

// New returns a migrator over st and src gated on appVersion.
func New(st *Store, src Source, appVersion string) (*Migrator, error) {
	if st == nil {
		return nil, errors.Join(ErrConfig, errors.New("nil store"))
	}
	gate, err := version.New(appVersion)
	if err != nil {
		return nil, errors.Join(ErrConfig, err)
	}
	return &Migrator{DB: st.DB, Ledger: st.Ledger, Source: src, Gate: gate}, nil
}

// Options configures Run.
type Options struct {
	Store      StoreConfig
	Source     SourceConfig
	AppVersion string
}

// Run opens the store, applies pending scripts and closes the store.
func Run(ctx context.Context, opts Options) (*Result, error) {
	st, err := store.Open(ctx, opts.Store)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	src, err := source.New(opts.Source, st)
	if err != nil {
		return nil, err
	}
	m, err := New(st, src, opts.AppVersion)
	if err != nil {
		return nil, err
	}
	return m.Up(ctx)
}

// IsConfigError reports whether err was raised before any database mutation
// because of missing or invalid configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, imig.ErrConfig) ||
		errors.Is(err, store.ErrInvalidConfig) ||
		errors.Is(err, source.ErrInvalidConfig) ||
		errors.Is(err, version.ErrInvalidVersion)
}

// UpgradeDatabase applies pending scripts and reports success as a bool.
// Execution failures are logged and reported as false with a nil error;
// configuration errors are returned.
func UpgradeDatabase(ctx context.Context, m *Migrator) (bool, error) {
	_, err := m.Up(ctx)
	if err == nil {
		return true, nil
	}
	if IsConfigError(err) {
		return false, err
	}
	common.LogError("database upgrade failed", err)
	return false, nil
}

// ReadManifest decodes a JSON manifest; malformed input yields no scripts.
func ReadManifest(data []byte) []Script {
	return script.DecodeJSON(data, "")
}

// WriteManifest writes scripts as a JSON manifest.
func WriteManifest(w io.Writer, scripts []Script) error {
	return script.WriteManifest(w, scripts)
}
