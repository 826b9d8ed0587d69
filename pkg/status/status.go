package status

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/loykin/sqlmigrate"
)

// Status display constants
const (
	defaultAppliedLimit = 10 // Default number of applied entries to show
)

// AppliedItem is a ledger row. AppliedAt is UTC.
type AppliedItem struct {
	ScriptID  string
	AppliedAt time.Time
}

// PendingItem is a script the next run would apply, in application order.
type PendingItem struct {
	ScriptID    string
	Description string
	Order       string
}

// SkippedItem is a listed script that the next run would not apply.
type SkippedItem struct {
	ScriptID string
	Reason   string
}

// Info aggregates status information: applied ledger rows and the pending plan.
type Info struct {
	Applied []AppliedItem
	Pending []PendingItem
	Skipped []SkippedItem
}

// FromMigrator collects status from an opened store and a migrator over it.
// No transaction is opened.
func FromMigrator(ctx context.Context, st *sqlmigrate.Store, m *sqlmigrate.Migrator) (Info, error) {
	recs, err := st.Applied(ctx)
	if err != nil {
		return Info{}, err
	}
	plan, err := m.Plan(ctx)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Applied: make([]AppliedItem, 0, len(recs)),
		Pending: make([]PendingItem, 0, len(plan.Pending)),
	}
	for _, r := range recs {
		info.Applied = append(info.Applied, AppliedItem{ScriptID: r.ScriptID, AppliedAt: r.AppliedAt})
	}
	for _, s := range plan.Pending {
		info.Pending = append(info.Pending, PendingItem{ScriptID: s.ID, Description: s.Description, Order: s.SortKey()})
	}
	for _, sk := range plan.Skipped {
		info.Skipped = append(info.Skipped, SkippedItem{ScriptID: sk.Script.ID, Reason: sk.Reason})
	}
	return info, nil
}

// FromOptions opens a store using the provided options, collects status, and closes it.
func FromOptions(ctx context.Context, opts sqlmigrate.Options) (Info, error) {
	st, err := sqlmigrate.OpenStore(ctx, opts.Store)
	if err != nil {
		return Info{}, err
	}
	defer func() { _ = st.Close() }()

	src, err := sqlmigrate.NewSource(opts.Source, st)
	if err != nil {
		return Info{}, err
	}
	m, err := sqlmigrate.New(st, src, opts.AppVersion)
	if err != nil {
		return Info{}, err
	}
	return FromMigrator(ctx, st, m)
}

// FormatHuman returns a human-friendly multiline string for CLI output.
// details=false prints only counts; details=true lists every applied and pending script.
func (i Info) FormatHuman(details bool) string {
	return i.FormatHumanWithLimit(details, 0, true)
}

// FormatHumanWithLimit prints status like FormatHuman, but when details=true it prints
// applied rows newest-first up to the provided limit. If all=true, every applied row is
// printed and limit is ignored. Default behavior when limit<=0 is 10.
// Pending scripts are always listed in full.
func (i Info) FormatHumanWithLimit(details bool, limit int, all bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "applied: %d\npending: %d\n", len(i.Applied), len(i.Pending))
	if len(i.Skipped) > 0 {
		fmt.Fprintf(&b, "skipped: %d\n", len(i.Skipped))
	}
	if !details {
		return b.String()
	}

	// reverse copy to make newest-first (ledger rows come oldest-first)
	rev := make([]AppliedItem, len(i.Applied))
	for idx := range i.Applied {
		rev[len(i.Applied)-1-idx] = i.Applied[idx]
	}
	items := rev
	if !all {
		if limit <= 0 {
			limit = defaultAppliedLimit
		}
		if len(items) > limit {
			items = items[:limit]
		}
	}
	b.WriteString("applied scripts:\n")
	for _, a := range items {
		fmt.Fprintf(&b, "  %s at=%s\n", a.ScriptID, a.AppliedAt.UTC().Format(time.RFC3339))
	}
	b.WriteString("pending scripts:\n")
	for _, p := range i.Pending {
		if p.Description != "" {
			fmt.Fprintf(&b, "  %s order=%s %q\n", p.ScriptID, p.Order, p.Description)
		} else {
			fmt.Fprintf(&b, "  %s order=%s\n", p.ScriptID, p.Order)
		}
	}
	for _, s := range i.Skipped {
		fmt.Fprintf(&b, "  %s skipped=%s\n", s.ScriptID, s.Reason)
	}
	return b.String()
}
