package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/loykin/sqlmigrate"
	"github.com/loykin/sqlmigrate/internal/retry"
	"github.com/loykin/sqlmigrate/internal/store"
	"github.com/loykin/sqlmigrate/internal/util"
)

type LoggingConfig struct {
	Level         string `mapstructure:"level" yaml:"level"`                   // error, warn, info, debug
	Format        string `mapstructure:"format" yaml:"format"`                 // text, json, color
	MaskSensitive *bool  `mapstructure:"mask_sensitive" yaml:"mask_sensitive"` // enable/disable sensitive data masking
	Color         *bool  `mapstructure:"color" yaml:"color"`                   // enable/disable colorized output
}

type StoreConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	// Driver sections are decoded with mapstructure into the driver's own config.
	SQLite   map[string]interface{} `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres map[string]interface{} `mapstructure:"postgres" yaml:"postgres"`
	// Optional table name customization
	LedgerTable    string `mapstructure:"ledger_table" yaml:"ledger_table"`
	TablePrefix    string `mapstructure:"table_prefix" yaml:"table_prefix"`
	ConnectRetries *int   `mapstructure:"connect_retries" yaml:"connect_retries"`
}

type ConfigDoc struct {
	AppVersion string                 `mapstructure:"app_version" yaml:"app_version"`
	Store      StoreConfig            `mapstructure:"store" yaml:"store"`
	Source     map[string]interface{} `mapstructure:"source" yaml:"source"`
	Logging    LoggingConfig          `mapstructure:"logging" yaml:"logging"`

	// dir of the loaded file; relative paths resolve against it
	baseDir string
}

func (c *ConfigDoc) Load(path string) error {
	clean := filepath.Clean(path)
	// Ensure path points to a regular file to avoid opening directories/special files
	if info, statErr := os.Stat(clean); statErr != nil || !info.Mode().IsRegular() {
		if statErr != nil {
			return statErr
		}
		return fmt.Errorf("not a regular file: %s", clean)
	}
	// #nosec G304 -- config path is provided intentionally by the user/CI; cleaned and validated above
	f, err := os.Open(clean)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("decode config %s: %w", clean, err)
	}
	c.baseDir = filepath.Dir(clean)
	return nil
}

func (c *ConfigDoc) resolve(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) || c.baseDir == "" || strings.Contains(p, "://") {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

func decode(input interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// StoreOptions builds the store configuration. Missing connection settings
// surface later as a configuration error from the store.
func (c *ConfigDoc) StoreOptions() (sqlmigrate.StoreConfig, error) {
	cfg := sqlmigrate.StoreConfig{
		Driver: store.NormalizeDriver(c.Store.Type),
		TableNames: sqlmigrate.TableNames{
			Ledger: c.Store.LedgerTable,
			Prefix: c.Store.TablePrefix,
		},
	}
	switch cfg.Driver {
	case sqlmigrate.DriverSqlite:
		var sc sqlmigrate.SQLiteConfig
		if err := decode(c.Store.SQLite, &sc); err != nil {
			return cfg, fmt.Errorf("store.sqlite: %w", err)
		}
		sc.Path = c.resolve(sc.Path)
		cfg.DriverConfig = &sc
	case sqlmigrate.DriverPostgresql:
		var pc sqlmigrate.PostgresConfig
		if err := decode(c.Store.Postgres, &pc); err != nil {
			return cfg, fmt.Errorf("store.postgres: %w", err)
		}
		cfg.DriverConfig = &pc
	default:
		return cfg, fmt.Errorf("%w: unsupported store type %q (valid: sqlite, postgresql)", sqlmigrate.ErrConfig, c.Store.Type)
	}
	if c.Store.ConnectRetries != nil {
		rc := retry.DefaultRetryConfig()
		rc.MaxRetries = *c.Store.ConnectRetries
		cfg.Retry = rc
	}
	return cfg, nil
}

// SourceOptions decodes the source section.
func (c *ConfigDoc) SourceOptions() (sqlmigrate.SourceConfig, error) {
	var sc sqlmigrate.SourceConfig
	if err := decode(c.Source, &sc); err != nil {
		return sc, fmt.Errorf("source: %w", err)
	}
	sc.Dir.Path = c.resolve(sc.Dir.Path)
	sc.Manifest.Path = c.resolve(sc.Manifest.Path)
	return sc, nil
}

// Options assembles run options; appVersion overrides app_version when set.
func (c *ConfigDoc) Options(appVersion string) (sqlmigrate.Options, error) {
	st, err := c.StoreOptions()
	if err != nil {
		return sqlmigrate.Options{}, err
	}
	src, err := c.SourceOptions()
	if err != nil {
		return sqlmigrate.Options{}, err
	}
	return sqlmigrate.Options{
		Store:      st,
		Source:     src,
		AppVersion: util.TrimWithDefault(appVersion, c.AppVersion),
	}, nil
}

func (c *ConfigDoc) parseLogLevel() (sqlmigrate.LogLevel, error) {
	level := util.TrimAndLower(c.Logging.Level)
	switch level {
	case "error":
		return sqlmigrate.LogLevelError, nil
	case "warn", "warning":
		return sqlmigrate.LogLevelWarn, nil
	case "info", "":
		return sqlmigrate.LogLevelInfo, nil
	case "debug":
		return sqlmigrate.LogLevelDebug, nil
	default:
		return sqlmigrate.LogLevelInfo, fmt.Errorf("invalid logging level: %s (valid: error, warn, info, debug)", c.Logging.Level)
	}
}

// SetupLogging configures the global logger based on config settings
func (c *ConfigDoc) SetupLogging() error {
	level, err := c.parseLogLevel()
	if err != nil {
		return err
	}

	var logger *sqlmigrate.Logger
	format := util.TrimAndLower(c.Logging.Format)

	useColor := false
	if c.Logging.Color != nil {
		useColor = *c.Logging.Color
	} else if format == "color" || format == "colour" {
		useColor = true
	}

	switch format {
	case "json":
		logger = sqlmigrate.NewJSONLogger(level)
	case "color", "colour":
		logger = sqlmigrate.NewColorLogger(level)
	case "text", "":
		if useColor {
			logger = sqlmigrate.NewColorLogger(level)
		} else {
			logger = sqlmigrate.NewLogger(level)
		}
	default:
		return fmt.Errorf("invalid logging format: %s (valid: text, json, color)", c.Logging.Format)
	}

	maskingEnabled := true
	if c.Logging.MaskSensitive != nil {
		maskingEnabled = *c.Logging.MaskSensitive
	}
	sqlmigrate.SetDefaultLogger(logger)
	sqlmigrate.EnableMasking(maskingEnabled)

	logger.Debug("logging configured",
		"level", util.TrimWithDefault(util.TrimAndLower(c.Logging.Level), "info"),
		"format", format,
		"color", useColor,
		"mask_sensitive", maskingEnabled)
	return nil
}
