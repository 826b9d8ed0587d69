// Package migration applies pending scripts in one shared transaction and
// records each in the ledger.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/loykin/sqlmigrate/internal/common"
	"github.com/loykin/sqlmigrate/internal/script"
	"github.com/loykin/sqlmigrate/internal/source"
	"github.com/loykin/sqlmigrate/internal/store"
)

// Ledger is the applied-script record the migrator reads and appends to.
type Ledger interface {
	EnsureBootstrapped(ctx context.Context, q store.DBTX) error
	ReadApplied(ctx context.Context, q store.DBTX) (map[string]struct{}, error)
	Record(ctx context.Context, q store.DBTX, id string) error
}

// Gate decides whether a script applies to the running application version.
type Gate interface {
	IsApplicable(s script.Script) (bool, error)
}

type Migrator struct {
	DB     *sql.DB
	Ledger Ledger
	Source source.Source
	// Gate is optional; nil applies every active script.
	Gate   Gate
	Logger *common.Logger
	// TxOptions is passed to BeginTx for the batch transaction.
	TxOptions *sql.TxOptions
}

func (m *Migrator) validate() error {
	switch {
	case m == nil:
		return fmt.Errorf("%w: nil migrator", ErrConfig)
	case m.DB == nil:
		return fmt.Errorf("%w: no database", ErrConfig)
	case m.Ledger == nil:
		return fmt.Errorf("%w: no ledger", ErrConfig)
	case m.Source == nil:
		return fmt.Errorf("%w: no script source", ErrConfig)
	}
	return nil
}

func (m *Migrator) logger() *common.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return common.GetLogger()
}

// Up applies every pending script. All scripts share one transaction that is
// committed once; any failure rolls the whole batch back and returns a
// *ScriptError. When nothing is pending no transaction is opened.
func (m *Migrator) Up(ctx context.Context) (*Result, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	res := &Result{RunID: uuid.NewString(), State: StateIdle}
	logger := m.logger().WithComponent("migrator").WithRun(res.RunID)

	conn, err := m.DB.Conn(ctx)
	if err != nil {
		return res, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	plan, err := m.load(ctx, conn)
	if err != nil {
		logger.Error("failed to load migration scripts", "error", err)
		return res, err
	}
	res.State = StateLoaded
	res.Skipped = plan.Skipped
	for _, sk := range plan.Skipped {
		logger.WithScript(sk.Script.ID).Debug("skipping migration script", "reason", sk.Reason)
	}
	if len(plan.Pending) == 0 {
		logger.Info("database is up to date", "applied_before", plan.AlreadyApplied)
		return res, nil
	}

	tx, err := conn.BeginTx(ctx, m.TxOptions)
	if err != nil {
		return res, fmt.Errorf("begin migration transaction: %w", err)
	}
	res.State = StateApplying
	logger.Info("applying migration scripts", "pending", len(plan.Pending))

	for _, s := range plan.Pending {
		if err := m.apply(ctx, tx, s); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
			res.State = StateRolledBack
			logger.WithScript(s.ID).Error("error applying migration script, batch rolled back",
				"error", err, "description", s.Description)
			return res, &ScriptError{Script: s, Err: err}
		}
		logger.WithScript(s.ID).Info("applied migration script", "description", s.Description)
	}

	if err := tx.Commit(); err != nil {
		res.State = StateRolledBack
		logger.Error("failed to commit migration batch", "error", err)
		return res, fmt.Errorf("commit migration batch: %w", err)
	}
	res.State = StateCommitted
	res.Applied = plan.Pending
	logger.Info("migration batch committed", "applied", len(res.Applied))
	return res, nil
}

// Plan computes the pending set without opening a transaction.
func (m *Migrator) Plan(ctx context.Context) (*Plan, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	conn, err := m.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()
	return m.load(ctx, conn)
}

func (m *Migrator) apply(ctx context.Context, tx *sql.Tx, s script.Script) error {
	for i, stmt := range s.Statements() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	return m.Ledger.Record(ctx, tx, s.ID)
}

func (m *Migrator) load(ctx context.Context, conn *sql.Conn) (*Plan, error) {
	if err := m.Ledger.EnsureBootstrapped(ctx, conn); err != nil {
		return nil, err
	}
	applied, err := m.Ledger.ReadApplied(ctx, conn)
	if err != nil {
		return nil, err
	}

	var all []script.Script
	if cs, ok := m.Source.(source.ConnSource); ok {
		all, err = cs.ListScriptsOn(ctx, conn)
	} else {
		all, err = m.Source.ListScripts(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list migration scripts: %w", err)
	}
	if err := script.Validate(all); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return m.plan(all, applied)
}

// plan drops applied, inactive and out-of-range scripts and sorts the rest.
func (m *Migrator) plan(all []script.Script, applied map[string]struct{}) (*Plan, error) {
	p := &Plan{Pending: make([]script.Script, 0, len(all))}
	for _, s := range all {
		if _, done := applied[s.ID]; done {
			p.AlreadyApplied++
			continue
		}
		if !s.IsActive() {
			p.Skipped = append(p.Skipped, Skipped{Script: s, Reason: SkipInactive})
			continue
		}
		if m.Gate != nil {
			ok, err := m.Gate.IsApplicable(s)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrConfig, err)
			}
			if !ok {
				p.Skipped = append(p.Skipped, Skipped{Script: s, Reason: SkipVersion})
				continue
			}
		}
		p.Pending = append(p.Pending, s)
	}
	script.Sort(p.Pending)
	return p, nil
}
