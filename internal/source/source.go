// Package source lists migration scripts from a directory, a manifest or a
// catalog table in the target database.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/loykin/sqlmigrate/internal/constants"
	"github.com/loykin/sqlmigrate/internal/httpc"
	"github.com/loykin/sqlmigrate/internal/script"
	"github.com/loykin/sqlmigrate/internal/store"
)

// ErrInvalidConfig is returned when a source cannot be built from its configuration.
var ErrInvalidConfig = errors.New("invalid script source configuration")

// Source produces every known migration script.
type Source interface {
	ListScripts(ctx context.Context) ([]script.Script, error)
}

// ConnSource is a Source backed by the target database. The migrator lists it
// on the connection that owns the run.
type ConnSource interface {
	Source
	ListScriptsOn(ctx context.Context, q store.DBTX) ([]script.Script, error)
}

type Config struct {
	Type     string         `mapstructure:"type"`
	Dir      DirConfig      `mapstructure:"dir"`
	Manifest ManifestConfig `mapstructure:"manifest"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
}

type DirConfig struct {
	Path      string `mapstructure:"path"`
	Extension string `mapstructure:"extension"`
}

type ManifestConfig struct {
	Path        string        `mapstructure:"path"`
	URL         string        `mapstructure:"url"`
	ScriptsPath string        `mapstructure:"scripts_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Insecure    bool          `mapstructure:"insecure"`
}

type CatalogConfig struct {
	Table string `mapstructure:"table"`
	// All disables the applied-id watermark and lists every active row.
	All bool `mapstructure:"all"`
}

// New builds the source selected by cfg.Type. The catalog source needs st.
func New(cfg Config, st *store.Store) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", constants.SourceDir:
		path := strings.TrimSpace(cfg.Dir.Path)
		if path == "" {
			path = constants.DefaultScriptDir
		}
		return &DirSource{FS: os.DirFS(path), Root: ".", Extension: cfg.Dir.Extension, Label: path}, nil
	case constants.SourceManifest:
		if strings.TrimSpace(cfg.Manifest.Path) == "" && strings.TrimSpace(cfg.Manifest.URL) == "" {
			return nil, fmt.Errorf("%w: manifest source requires path or url", ErrInvalidConfig)
		}
		timeout := cfg.Manifest.Timeout
		if timeout <= 0 {
			timeout = constants.DefaultManifestTimeout
		}
		return &ManifestSource{
			Path:        strings.TrimSpace(cfg.Manifest.Path),
			URL:         strings.TrimSpace(cfg.Manifest.URL),
			ScriptsPath: cfg.Manifest.ScriptsPath,
			Client:      &httpc.Httpc{Timeout: timeout, Insecure: cfg.Manifest.Insecure},
		}, nil
	case constants.SourceCatalog:
		if st == nil {
			return nil, fmt.Errorf("%w: catalog source requires a store", ErrInvalidConfig)
		}
		cs, err := NewCatalogSource(st.DB, st.Dialect, cfg.Catalog.Table)
		if err != nil {
			return nil, err
		}
		if !cfg.Catalog.All {
			cs.Watermark = st.Ledger
		}
		return cs, nil
	default:
		return nil, fmt.Errorf("%w: unknown source type %q", ErrInvalidConfig, cfg.Type)
	}
}
