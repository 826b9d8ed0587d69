package status

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/loykin/sqlmigrate"
)

func TestFormatHuman_CountsOnly(t *testing.T) {
	i := Info{
		Applied: []AppliedItem{{ScriptID: "1"}, {ScriptID: "2"}},
		Pending: []PendingItem{{ScriptID: "3", Order: "3"}},
	}
	got := i.FormatHuman(false)
	want := "applied: 2\npending: 1\n"
	if got != want {
		t.Fatalf("FormatHuman(false) mismatch\nwant: %q\n got: %q", want, got)
	}
}

func TestFormatHumanWithLimit_NewestFirstAndLimit(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var applied []AppliedItem
	for n := 1; n <= 5; n++ {
		applied = append(applied, AppliedItem{ScriptID: string(rune('0' + n)), AppliedAt: base.Add(time.Duration(n) * time.Minute)})
	}
	i := Info{Applied: applied, Pending: []PendingItem{{ScriptID: "6", Order: "6", Description: "add index"}}}

	got := i.FormatHumanWithLimit(true, 3, false)
	re := regexp.MustCompile(`(?s)^applied: 5\npending: 1\napplied scripts:\n  5 .*\n  4 .*\n  3 .*\npending scripts:\n  6 order=6 "add index"\n$`)
	if !re.MatchString(got) {
		t.Fatalf("unexpected output with limit:\n%s", got)
	}
}

func TestFormatHumanWithLimit_AllIgnoresLimit(t *testing.T) {
	i := Info{
		Applied: []AppliedItem{{ScriptID: "a"}, {ScriptID: "b"}},
		Skipped: []SkippedItem{{ScriptID: "c", Reason: "inactive"}},
	}
	got := i.FormatHumanWithLimit(true, 1, true)
	re := regexp.MustCompile(`(?s)^applied: 2\npending: 0\nskipped: 1\napplied scripts:\n  b .*\n  a .*\npending scripts:\n  c skipped=inactive\n$`)
	if !re.MatchString(got) {
		t.Fatalf("unexpected output:\n%s", got)
	}
}

func TestFromOptions_SQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "0001_init.sql"), []byte("CREATE TABLE t(x int)"), 0o600); err != nil {
		t.Fatal(err)
	}
	opts := sqlmigrate.Options{
		Store:  sqlmigrate.StoreConfig{Driver: sqlmigrate.DriverSqlite, DriverConfig: &sqlmigrate.SQLiteConfig{Path: filepath.Join(t.TempDir(), "app.db")}},
		Source: sqlmigrate.SourceConfig{Type: "dir", Dir: sqlmigrate.DirConfig{Path: dir}},
	}

	info, err := FromOptions(ctx, opts)
	if err != nil {
		t.Fatalf("FromOptions: %v", err)
	}
	if len(info.Applied) != 0 || len(info.Pending) != 1 || info.Pending[0].Description != "init" {
		t.Fatalf("unexpected status before run: %+v", info)
	}

	if _, err := sqlmigrate.Run(ctx, opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "0002_more.sql"), []byte("ALTER TABLE t ADD y int"), 0o600); err != nil {
		t.Fatal(err)
	}

	info, err = FromOptions(ctx, opts)
	if err != nil {
		t.Fatalf("FromOptions: %v", err)
	}
	if len(info.Applied) != 1 || info.Applied[0].ScriptID != "0001_init.sql" || info.Applied[0].AppliedAt.IsZero() {
		t.Fatalf("unexpected applied: %+v", info.Applied)
	}
	if len(info.Pending) != 1 || info.Pending[0].ScriptID != "0002_more.sql" {
		t.Fatalf("unexpected pending: %+v", info.Pending)
	}
}
