package credentials

import (
	"strings"
	"testing"
)

func TestLoadFrom(t *testing.T) {
	src := "alice,wonderland\r\nbob,builder\n\n# not a comment just malformed\nalice,duplicate\ncarol\ndave,\n,nouser\n"

	store, err := LoadFrom(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	tests := []struct {
		user, pass string
		want       bool
	}{
		{"alice", "wonderland", true},
		{"alice", "duplicate", false}, // first match wins
		{"bob", "builder", true},
		{"bob", "wrong", false},
		{"carol", "", false}, // malformed line (no comma), never loaded
		{"dave", "", false},  // empty password field, skipped
		{"nouser", "", false},
	}

	for _, tt := range tests {
		if got := store.Verify(tt.user, tt.pass); got != tt.want {
			t.Errorf("Verify(%q, %q) = %v, want %v", tt.user, tt.pass, got, tt.want)
		}
	}

	if !store.Exists("alice") {
		t.Error("Exists(alice) = false, want true")
	}
	if store.Exists("carol") {
		t.Error("Exists(carol) = true, want false")
	}
}

func TestLoadFromTruncatesLongFields(t *testing.T) {
	longUser := strings.Repeat("u", 100)
	longPass := strings.Repeat("p", 100)

	store, err := LoadFrom(strings.NewReader(longUser + "," + longPass + "\n"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	truncatedUser := longUser[:MaxFieldLength]
	truncatedPass := longPass[:MaxFieldLength]

	if !store.Verify(truncatedUser, truncatedPass) {
		t.Error("expected truncated username/password to match")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/users.csv"); err == nil {
		t.Error("Load of missing file: expected error, got nil")
	}
}
