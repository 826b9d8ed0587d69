package migration

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/loykin/sqlmigrate/internal/script"
	"github.com/loykin/sqlmigrate/internal/store"
)

const (
	ensureSQL = `CREATE TABLE IF NOT EXISTS applied_migration_script`
	readSQL   = `SELECT script_id FROM applied_migration_script`
	recordSQL = `INSERT INTO applied_migration_script \(script_id\)`
)

func newMockMigrator(t *testing.T, driver string, scripts ...script.Script) (*Migrator, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	st, err := store.New(db, driver, store.TableNames{})
	require.NoError(t, err)
	return &Migrator{DB: db, Ledger: st.Ledger, Source: staticSource(scripts)}, mock
}

func expectLoad(mock sqlmock.Sqlmock, applied ...string) {
	mock.ExpectExec(ensureSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"script_id"})
	for _, id := range applied {
		rows.AddRow(id)
	}
	mock.ExpectQuery(readSQL).WillReturnRows(rows)
}

func TestUp_EmptyPendingOpensNoTransaction(t *testing.T) {
	m, mock := newMockMigrator(t, store.DriverSqlite,
		script.Script{ID: "1", Body: []string{"CREATE TABLE t(x int)"}},
		script.Script{ID: "2", Body: []string{"ALTER TABLE t ADD y int"}},
	)
	expectLoad(mock, "1", "2")

	res, err := m.Up(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateLoaded, res.State)
	require.Empty(t, res.Applied)
	require.NotEmpty(t, res.RunID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUp_CommitsOnceForWholeBatch(t *testing.T) {
	m, mock := newMockMigrator(t, store.DriverSqlite,
		script.Script{ID: "2", Order: "2", Body: []string{"ALTER TABLE t ADD y int", "ALTER TABLE t ADD z int"}},
		script.Script{ID: "1", Order: "1", Body: []string{"CREATE TABLE t(x int)"}},
	)
	expectLoad(mock)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE t(x int)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(recordSQL).WithArgs("1").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE t ADD y int")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE t ADD z int")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(recordSQL).WithArgs("2").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := m.Up(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateCommitted, res.State)
	require.Len(t, res.Applied, 2)
	require.Equal(t, "1", res.Applied[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUp_StatementFailureRollsBackBatch(t *testing.T) {
	m, mock := newMockMigrator(t, store.DriverSqlite,
		script.Script{ID: "A", Order: "1", Description: "first", Body: []string{"CREATE TABLE a(x int)"}},
		script.Script{ID: "B", Order: "2", Description: "broken", Body: []string{"CREATE TABL b"}},
		script.Script{ID: "C", Order: "3", Body: []string{"CREATE TABLE c(x int)"}},
	)
	boom := errors.New("syntax error near TABL")
	expectLoad(mock)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE a(x int)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(recordSQL).WithArgs("A").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABL b")).WillReturnError(boom)
	mock.ExpectRollback()

	res, err := m.Up(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, boom)

	var se *ScriptError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "B", se.Script.ID)
	require.Contains(t, err.Error(), "broken")

	require.Equal(t, StateRolledBack, res.State)
	require.Empty(t, res.Applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUp_LedgerRaceRollsBack(t *testing.T) {
	m, mock := newMockMigrator(t, store.DriverPostgresql,
		script.Script{ID: "7", Body: []string{"CREATE TABLE t(x int)"}},
	)
	expectLoad(mock)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE t(x int)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO applied_migration_script \(script_id\) VALUES \(\$1\)`).
		WithArgs("7").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})
	mock.ExpectRollback()

	res, err := m.Up(context.Background())
	require.ErrorIs(t, err, store.ErrConstraintViolation)
	require.Equal(t, StateRolledBack, res.State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUp_RollbackFailureIsJoined(t *testing.T) {
	m, mock := newMockMigrator(t, store.DriverSqlite,
		script.Script{ID: "1", Body: []string{"BAD"}},
	)
	expectLoad(mock)
	mock.ExpectBegin()
	mock.ExpectExec("BAD").WillReturnError(errors.New("bad statement"))
	mock.ExpectRollback().WillReturnError(errors.New("connection lost"))

	_, err := m.Up(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad statement")
	require.Contains(t, err.Error(), "connection lost")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUp_CommitFailure(t *testing.T) {
	m, mock := newMockMigrator(t, store.DriverSqlite,
		script.Script{ID: "1", Body: []string{"CREATE TABLE t(x int)"}},
	)
	expectLoad(mock)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE t(x int)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(recordSQL).WithArgs("1").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	res, err := m.Up(context.Background())
	require.Error(t, err)
	require.Equal(t, StateRolledBack, res.State)
	require.Empty(t, res.Applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUp_DuplicateIDsFailBeforeTransaction(t *testing.T) {
	m, mock := newMockMigrator(t, store.DriverSqlite,
		script.Script{ID: "1", Body: []string{"SELECT 1"}},
		script.Script{ID: "1", Body: []string{"SELECT 2"}},
	)
	expectLoad(mock)

	res, err := m.Up(context.Background())
	require.ErrorIs(t, err, ErrConfig)
	require.ErrorIs(t, err, script.ErrDuplicateID)
	require.Equal(t, StateIdle, res.State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUp_SourceErrorFailsBeforeTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	st, err := store.New(db, store.DriverSqlite, store.TableNames{})
	require.NoError(t, err)

	unreachable := errors.New("source unreachable")
	m := &Migrator{DB: db, Ledger: st.Ledger, Source: failingSource{err: unreachable}}
	expectLoad(mock)

	_, err = m.Up(context.Background())
	require.ErrorIs(t, err, unreachable)
	require.NotErrorIs(t, err, ErrConfig)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUp_ConfigurationErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	st, err := store.New(db, store.DriverSqlite, store.TableNames{})
	require.NoError(t, err)

	cases := map[string]*Migrator{
		"nil":       nil,
		"no db":     {Ledger: st.Ledger, Source: staticSource{}},
		"no ledger": {DB: db, Source: staticSource{}},
		"no source": {DB: db, Ledger: st.Ledger},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.Up(context.Background())
			require.ErrorIs(t, err, ErrConfig)
			_, err = m.Plan(context.Background())
			require.ErrorIs(t, err, ErrConfig)
		})
	}
	// nothing touched the database
	require.NoError(t, mock.ExpectationsWereMet())
}
