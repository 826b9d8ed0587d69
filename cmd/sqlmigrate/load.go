package main

import (
	"fmt"
	"strings"

	"github.com/loykin/sqlmigrate"
	"github.com/loykin/sqlmigrate/cmd/sqlmigrate/config"
)

// loadConfig reads the config document at path and sets up logging.
func loadConfig(path string) (*config.ConfigDoc, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: no config file given (use --config or SQLMIGRATE_CONFIG)", sqlmigrate.ErrConfig)
	}
	var doc config.ConfigDoc
	if err := doc.Load(path); err != nil {
		return nil, fmt.Errorf("%w: %w", sqlmigrate.ErrConfig, err)
	}
	if err := doc.SetupLogging(); err != nil {
		return nil, fmt.Errorf("%w: %w", sqlmigrate.ErrConfig, err)
	}
	return &doc, nil
}
