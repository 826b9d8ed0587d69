package sqlmigrate

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestCreateMigration_CreatesTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	p, err := CreateMigration(CreateOptions{Name: "Create User", Dir: dir})
	if err != nil {
		t.Fatalf("CreateMigration error: %v", err)
	}
	// Filename pattern: YYYYMMDDHHMMSS_create_user.sql
	name := filepath.Base(p)
	re := regexp.MustCompile(`^[0-9]{14}_create_user\.sql$`)
	if !re.MatchString(name) {
		t.Fatalf("unexpected filename: %s", name)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read created file: %v", err)
	}
	if !strings.HasPrefix(string(b), "-- Create User") {
		t.Fatalf("unexpected template: %q", string(b))
	}
}

func TestCreateMigration_FixedClockAndCollisions(t *testing.T) {
	dir := t.TempDir()
	now := func() time.Time { return time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC) }

	p, err := CreateMigration(CreateOptions{Name: "add-index!", Dir: dir, Now: now})
	if err != nil {
		t.Fatalf("CreateMigration error: %v", err)
	}
	if filepath.Base(p) != "20240601123045_add_index.sql" {
		t.Fatalf("unexpected filename: %s", filepath.Base(p))
	}
	// same second, same name: refuse to overwrite
	if _, err := CreateMigration(CreateOptions{Name: "add index", Dir: dir, Now: now}); err == nil {
		t.Fatalf("expected error for existing file")
	}
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	if _, err := CreateMigration(CreateOptions{Name: " --- ", Dir: t.TempDir()}); err == nil {
		t.Fatalf("expected error for empty name")
	}
}
