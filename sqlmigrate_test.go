package sqlmigrate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func writeScripts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestRun_DirectorySource(t *testing.T) {
	ctx := context.Background()
	dir := writeScripts(t, map[string]string{
		"0001_create.sql": "CREATE TABLE t(x int);",
		"0002_alter.sql":  "ALTER TABLE t ADD y int;",
	})
	opts := Options{
		Store:  StoreConfig{Driver: DriverSqlite, DriverConfig: &SQLiteConfig{Path: filepath.Join(t.TempDir(), "app.db")}},
		Source: SourceConfig{Type: "dir", Dir: DirConfig{Path: dir}},
	}

	res, err := Run(ctx, opts)
	require.NoError(t, err)
	require.Equal(t, StateCommitted, res.State)
	require.Len(t, res.Applied, 2)

	res, err = Run(ctx, opts)
	require.NoError(t, err)
	require.Equal(t, StateLoaded, res.State)
	require.Empty(t, res.Applied)
}

func TestUpgradeDatabase(t *testing.T) {
	ctx := context.Background()
	st, err := OpenStore(ctx, StoreConfig{Driver: DriverSqlite, DriverConfig: &SQLiteConfig{Path: filepath.Join(t.TempDir(), "app.db")}})
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	good := FSSource(fstest.MapFS{"1.sql": {Data: []byte("CREATE TABLE t(x int)")}}, ".", "")
	m, err := New(st, good, "")
	require.NoError(t, err)
	ok, err := UpgradeDatabase(ctx, m)
	require.NoError(t, err)
	require.True(t, ok)

	bad := FSSource(fstest.MapFS{
		"1.sql": {Data: []byte("CREATE TABLE t(x int)")},
		"2.sql": {Data: []byte("CREATE TABLE t(x int)")},
	}, ".", "")
	m, err = New(st, bad, "")
	require.NoError(t, err)
	ok, err = UpgradeDatabase(ctx, m)
	require.NoError(t, err)
	require.False(t, ok)

	recs, err := st.Applied(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	ok, err = UpgradeDatabase(ctx, &Migrator{})
	require.False(t, ok)
	require.True(t, IsConfigError(err))
}

func TestNew_InvalidAppVersion(t *testing.T) {
	st, err := OpenStore(context.Background(), StoreConfig{Driver: DriverSqlite, DriverConfig: &SQLiteConfig{Path: filepath.Join(t.TempDir(), "app.db")}})
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	_, err = New(st, FSSource(fstest.MapFS{}, ".", ""), "not.a.version")
	require.ErrorIs(t, err, ErrConfig)
	require.True(t, IsConfigError(err))

	_, err = New(nil, nil, "")
	require.True(t, IsConfigError(err))
}

func TestRun_MissingConnectionSettings(t *testing.T) {
	_, err := Run(context.Background(), Options{Store: StoreConfig{Driver: DriverPostgresql, DriverConfig: &PostgresConfig{}}})
	require.Error(t, err)
	require.True(t, IsConfigError(err))
}

func TestManifestRoundTrip(t *testing.T) {
	scripts := []Script{
		{ID: "1", Order: "1", Description: "create", Body: []string{"CREATE TABLE t(x int)"}},
		{ID: "2", Order: "2", Body: []string{"ALTER TABLE t ADD y int"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteManifest(&buf, scripts))

	got := ReadManifest(buf.Bytes())
	require.Len(t, got, 2)
	require.Equal(t, "create", got[0].Description)
	require.Empty(t, ReadManifest([]byte("[]")))
}
