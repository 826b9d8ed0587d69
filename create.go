package sqlmigrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/loykin/sqlmigrate/internal/constants"
)

type CreateOptions struct {
	Name string
	Dir  string
	// Now overrides the timestamp source; nil uses time.Now.
	Now func() time.Time
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

const scriptTemplate = `-- %s
-- Statements in this file run in the same transaction as every other pending script.
`

// CreateMigration writes an empty YYYYMMDDHHMMSS_<name>.sql script into Dir and
// returns its path. Timestamps keep lexical file order equal to creation order.
func CreateMigration(opts CreateOptions) (string, error) {
	slug := strings.Trim(nonWord.ReplaceAllString(strings.ToLower(opts.Name), "_"), "_")
	if slug == "" {
		return "", errors.New("migration name must contain letters or digits")
	}
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		dir = constants.DefaultScriptDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create migration dir: %w", err)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	name := fmt.Sprintf("%s_%s%s", now().UTC().Format("20060102150405"), slug, constants.DefaultScriptExtension)
	p := filepath.Join(dir, name)

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration file: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := fmt.Fprintf(f, scriptTemplate, strings.TrimSpace(opts.Name)); err != nil {
		return "", fmt.Errorf("write migration file: %w", err)
	}
	return p, nil
}
