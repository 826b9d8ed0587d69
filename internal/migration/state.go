package migration

import (
	"errors"
	"fmt"

	"github.com/loykin/sqlmigrate/internal/script"
)

// State is the position of a run in Idle -> Loaded -> Applying -> Committed | RolledBack.
type State int

const (
	StateIdle State = iota
	StateLoaded
	StateApplying
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoaded:
		return "loaded"
	case StateApplying:
		return "applying"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrConfig marks configuration errors. They are raised before any
// transaction is opened and leave the database untouched.
var ErrConfig = errors.New("migration configuration error")

// ScriptError identifies the script whose statement or ledger insert failed.
// The whole batch was rolled back.
type ScriptError struct {
	Script script.Script
	Err    error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("apply migration script %s: %v", e.Script, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// Skip reason values.
const (
	SkipInactive = "inactive"
	SkipVersion  = "version"
)

// Skipped is a script left out of the pending set for a reason other than
// already being applied.
type Skipped struct {
	Script script.Script
	Reason string
}

// Plan is the pending set computed for one run.
type Plan struct {
	Pending []script.Script
	Skipped []Skipped
	// AlreadyApplied counts listed scripts found in the ledger.
	AlreadyApplied int
}

// Result reports one Up call.
type Result struct {
	RunID string
	State State
	// Applied holds the scripts committed by this run, in application order.
	Applied []script.Script
	Skipped []Skipped
}
