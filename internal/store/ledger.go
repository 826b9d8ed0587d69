package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loykin/sqlmigrate/internal/common"
	"github.com/loykin/sqlmigrate/internal/util"
)

// ErrConstraintViolation is returned by Record when the identifier is already in the ledger.
var ErrConstraintViolation = errors.New("ledger constraint violation")

// AppliedRecord is one ledger row.
type AppliedRecord struct {
	ScriptID  string
	AppliedAt time.Time
}

// Ledger is the persisted set of applied script identifiers. It holds no
// connection; every call runs on the querier it is given.
type Ledger struct {
	dialect Dialect
	table   string
}

// NewLedger returns a ledger stored in table.
func NewLedger(dialect Dialect, table string) (*Ledger, error) {
	if dialect == nil {
		return nil, fmt.Errorf("%w: ledger requires a dialect", ErrInvalidConfig)
	}
	if !util.SafeIdentifier(table) {
		return nil, fmt.Errorf("%w: invalid ledger table name %q", ErrInvalidConfig, table)
	}
	return &Ledger{dialect: dialect, table: table}, nil
}

func (l *Ledger) Table() string { return l.table }

// EnsureBootstrapped creates the ledger table when absent.
func (l *Ledger) EnsureBootstrapped(ctx context.Context, q DBTX) error {
	ddl := l.dialect.LedgerDDL(l.table)
	common.GetLogger().WithStore(l.dialect.DriverName()).Debug("ensuring ledger table", "table", l.table)
	if _, err := q.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create ledger table %s: %w", l.table, err)
	}
	return nil
}

// ReadApplied returns every recorded identifier.
func (l *Ledger) ReadApplied(ctx context.Context, q DBTX) (map[string]struct{}, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT script_id FROM %s", l.table))
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", l.table, err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		applied[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}
	return applied, nil
}

// Record inserts id using the caller's transaction. A duplicate returns an
// error matching ErrConstraintViolation.
func (l *Ledger) Record(ctx context.Context, q DBTX, id string) error {
	stmt := fmt.Sprintf("INSERT INTO %s (script_id) VALUES (%s)", l.table, l.dialect.Placeholder(1))
	if _, err := q.ExecContext(ctx, stmt, id); err != nil {
		if l.dialect.IsConstraintViolation(err) {
			return fmt.Errorf("record script %s: %w: %w", id, ErrConstraintViolation, err)
		}
		return fmt.Errorf("record script %s: %w", id, err)
	}
	return nil
}

// List returns ledger rows ordered by application time, then identifier.
func (l *Ledger) List(ctx context.Context, q DBTX) ([]AppliedRecord, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT script_id, applied_at FROM %s ORDER BY applied_at, script_id", l.table))
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger %s: %w", l.table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []AppliedRecord
	for rows.Next() {
		var rec AppliedRecord
		var appliedAt interface{}
		if err := rows.Scan(&rec.ScriptID, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		rec.AppliedAt = l.dialect.ConvertTimeFromStorage(appliedAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}
	return out, nil
}

// MaxNumericID returns the largest integer identifier in the ledger, or 0.
// allNumeric is false when any recorded identifier is not an integer.
func (l *Ledger) MaxNumericID(ctx context.Context, q DBTX) (maxID int64, allNumeric bool, err error) {
	applied, err := l.ReadApplied(ctx, q)
	if err != nil {
		return 0, false, err
	}
	allNumeric = true
	for id := range applied {
		n, ok := util.ParseInt(id)
		if !ok {
			allNumeric = false
			continue
		}
		if n > maxID {
			maxID = n
		}
	}
	return maxID, allNumeric, nil
}
