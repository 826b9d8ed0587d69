// Package script defines the migration script model shared by sources, the
// version gate and the migrator.
package script

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/loykin/sqlmigrate/internal/util"
)

var (
	// ErrMissingID is returned when a script has no identifier.
	ErrMissingID = errors.New("migration script has no identifier")
	// ErrDuplicateID is returned when two scripts in one listing share an identifier.
	ErrDuplicateID = errors.New("duplicate migration script identifier")
)

// Script is a unit of schema change applied at most once.
type Script struct {
	// ID is unique and stable across runs; it is the ledger key.
	ID          string
	Description string
	// Order defines the application sequence. Empty means "use ID".
	Order string
	// Body holds the statements executed in list order.
	Body       []string
	CreatedAt  time.Time
	MinVersion string
	MaxVersion string
	// Active is nil when the source does not carry the flag.
	Active *bool
}

// SortKey returns the key scripts are ordered by.
func (s Script) SortKey() string {
	if strings.TrimSpace(s.Order) != "" {
		return strings.TrimSpace(s.Order)
	}
	return s.ID
}

// IsActive reports whether the script may be applied at all.
func (s Script) IsActive() bool {
	return s.Active == nil || *s.Active
}

// Statements returns the non-blank statements of the body.
func (s Script) Statements() []string {
	out := make([]string, 0, len(s.Body))
	for _, stmt := range s.Body {
		if strings.TrimSpace(stmt) != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func (s Script) String() string {
	if s.Description == "" {
		return s.ID
	}
	return fmt.Sprintf("%s (%s)", s.ID, s.Description)
}

// CompareKeys orders two keys: integers compare numerically and sort before
// non-integers, which compare lexically.
func CompareKeys(a, b string) int {
	ai, aok := util.ParseInt(a)
	bi, bok := util.ParseInt(b)
	switch {
	case aok && bok:
		return cmp.Compare(ai, bi)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// Compare orders scripts by sort key, breaking ties on ID.
func Compare(a, b Script) int {
	if c := CompareKeys(a.SortKey(), b.SortKey()); c != 0 {
		return c
	}
	return CompareKeys(a.ID, b.ID)
}

// Sort orders scripts in application order.
func Sort(scripts []Script) {
	slices.SortStableFunc(scripts, Compare)
}

// Validate checks that every script has an identifier and that identifiers are unique.
func Validate(scripts []Script) error {
	seen := make(map[string]struct{}, len(scripts))
	for i, s := range scripts {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("script #%d: %w", i+1, ErrMissingID)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// Bool returns a pointer to b, for populating Script.Active.
func Bool(b bool) *bool { return &b }
