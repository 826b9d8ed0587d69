// Package version restricts scripts to the application versions they declare.
package version

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/loykin/sqlmigrate/internal/script"
)

// Bounds used when a script leaves min_version or max_version unset.
const (
	MinimumVersion = "0.0.0"
	MaximumVersion = "999999.999999.999999"
)

// ErrInvalidVersion is returned for application or script versions that are not semantic versions.
var ErrInvalidVersion = errors.New("invalid version")

// Gate filters scripts by application version. A script applies when
// min < app <= max. A nil Gate, or one built with an empty application
// version, lets every script through.
type Gate struct {
	app      *semver.Version
	minimum  *semver.Version
	maximum  *semver.Version
	appLabel string
}

// New builds a gate for appVersion with the default bounds.
func New(appVersion string) (*Gate, error) {
	return NewGate(appVersion, MinimumVersion, MaximumVersion)
}

// NewGate builds a gate whose absent script bounds resolve to minimum and maximum.
func NewGate(appVersion, minimum, maximum string) (*Gate, error) {
	lo, err := parse(minimum)
	if err != nil {
		return nil, fmt.Errorf("minimum version: %w", err)
	}
	hi, err := parse(maximum)
	if err != nil {
		return nil, fmt.Errorf("maximum version: %w", err)
	}
	g := &Gate{minimum: lo, maximum: hi}
	if app := strings.TrimSpace(appVersion); app != "" {
		v, err := parse(app)
		if err != nil {
			return nil, fmt.Errorf("application version: %w", err)
		}
		g.app = v
		g.appLabel = app
	}
	return g, nil
}

// Enabled reports whether the gate filters anything.
func (g *Gate) Enabled() bool {
	return g != nil && g.app != nil
}

// AppVersion returns the application version as supplied.
func (g *Gate) AppVersion() string {
	if g == nil {
		return ""
	}
	return g.appLabel
}

// IsApplicable reports whether s may run against the application version.
func (g *Gate) IsApplicable(s script.Script) (bool, error) {
	if !g.Enabled() {
		return true, nil
	}
	lo, err := g.bound(s.MinVersion, g.minimum)
	if err != nil {
		return false, fmt.Errorf("script %s min_version: %w", s.ID, err)
	}
	hi, err := g.bound(s.MaxVersion, g.maximum)
	if err != nil {
		return false, fmt.Errorf("script %s max_version: %w", s.ID, err)
	}
	return g.app.GreaterThan(lo) && !g.app.GreaterThan(hi), nil
}

func (g *Gate) bound(v string, fallback *semver.Version) (*semver.Version, error) {
	if strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	return parse(v)
}

func parse(v string) (*semver.Version, error) {
	sv, err := semver.NewVersion(strings.TrimSpace(v))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidVersion, v, err)
	}
	return sv, nil
}
