package util

import "testing"

func TestTrimHelpers(t *testing.T) {
	if got := TrimAndLower("  SQLite "); got != "sqlite" {
		t.Fatalf("TrimAndLower: got %q", got)
	}
	if v, ok := TrimEmptyCheck("   "); ok || v != "" {
		t.Fatalf("TrimEmptyCheck blank: got %q %v", v, ok)
	}
	if got := TrimWithDefault(" ", "info"); got != "info" {
		t.Fatalf("TrimWithDefault: got %q", got)
	}
	f := TrimSpaceFields(" a", "b ", " c ")
	if f[0] != "a" || f[1] != "b" || f[2] != "c" {
		t.Fatalf("TrimSpaceFields: got %v", f)
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{" 7 ", 7, true},
		{"-3", -3, true},
		{"0001_init.sql", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseInt(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParseInt(%q) = %d,%v want %d,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSafeIdentifier(t *testing.T) {
	good := []string{"applied_migration_script", "public.ledger", "_t1"}
	bad := []string{"", "1abc", "a;drop table x", "a.b.c", "a.", "with space"}
	for _, s := range good {
		if !SafeIdentifier(s) {
			t.Errorf("expected %q to be accepted", s)
		}
	}
	for _, s := range bad {
		if SafeIdentifier(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}
