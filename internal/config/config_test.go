package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsForMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ftpd.yaml")
	if err := os.WriteFile(path, []byte("root: /srv/ftp\nmax_sessions: 4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Root != "/srv/ftp" {
		t.Errorf("Root = %q, want /srv/ftp", cfg.Root)
	}
	if cfg.MaxSessions != 4 {
		t.Errorf("MaxSessions = %d, want 4", cfg.MaxSessions)
	}
	if cfg.ListenAddr != ":21" {
		t.Errorf("ListenAddr = %q, want :21 (default)", cfg.ListenAddr)
	}
	if cfg.DataAddr != ":20" {
		t.Errorf("DataAddr = %q, want :20 (default)", cfg.DataAddr)
	}
	if cfg.Backlog != 5 {
		t.Errorf("Backlog = %d, want 5 (default)", cfg.Backlog)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/ftpd.yaml"); err == nil {
		t.Error("Load of missing file: expected error, got nil")
	}
}
