package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loykin/sqlmigrate/internal/script"
)

func TestDirSource_ListScripts(t *testing.T) {
	mod := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	fsys := fstest.MapFS{
		"migrations/0002_add_users.sql": {Data: []byte("ALTER TABLE t ADD y int"), ModTime: mod},
		"migrations/0001_init.SQL":      {Data: []byte("CREATE TABLE t(x int)"), ModTime: mod},
		"migrations/README.md":          {Data: []byte("docs")},
		"migrations/nested/0003_x.sql":  {Data: []byte("SELECT 1")},
	}
	src := &DirSource{FS: fsys, Root: "migrations"}

	scripts, err := src.ListScripts(context.Background())
	require.NoError(t, err)
	require.Len(t, scripts, 2)

	script.Sort(scripts)
	require.Equal(t, "0001_init.SQL", scripts[0].ID)
	require.Equal(t, "init", scripts[0].Description)
	require.Equal(t, []string{"CREATE TABLE t(x int)"}, scripts[0].Body)
	require.True(t, scripts[0].CreatedAt.Equal(mod))
	require.Equal(t, "0002_add_users.sql", scripts[1].ID)
	require.Equal(t, "add users", scripts[1].Description)
	require.True(t, scripts[1].IsActive())
}

func TestDirSource_CustomExtension(t *testing.T) {
	fsys := fstest.MapFS{
		"a.pgsql": {Data: []byte("SELECT 1")},
		"b.sql":   {Data: []byte("SELECT 2")},
	}
	scripts, err := (&DirSource{FS: fsys, Extension: "pgsql"}).ListScripts(context.Background())
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	require.Equal(t, "a.pgsql", scripts[0].ID)
}

func TestDirSource_Errors(t *testing.T) {
	_, err := (&DirSource{}).ListScripts(context.Background())
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = (&DirSource{FS: fstest.MapFS{}, Root: "missing"}).ListScripts(context.Background())
	require.Error(t, err)
}

func TestNew_DirFromConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000_init.sql"), []byte("CREATE TABLE a(x int)"), 0o600))

	src, err := New(Config{Type: "dir", Dir: DirConfig{Path: dir}}, nil)
	require.NoError(t, err)
	scripts, err := src.ListScripts(context.Background())
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	require.Equal(t, "init", scripts[0].Description)
}

func TestDescribe(t *testing.T) {
	for in, want := range map[string]string{
		"0001_init.sql":        "init",
		"20240101_add_col.sql": "add col",
		"create_t.sql":         "create t",
		"7.sql":                "7",
	} {
		require.Equal(t, want, describe(in), in)
	}
}
