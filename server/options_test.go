package server

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"goftpd/internal/credentials"
)

func testDriver(t *testing.T) *FSDriver {
	t.Helper()
	store, err := credentials.LoadFrom(strings.NewReader("alice,secret\n"))
	if err != nil {
		t.Fatal(err)
	}
	d, err := NewFSDriver(t.TempDir(), store)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestWithDriverRejectsDuplicate(t *testing.T) {
	driver := testDriver(t)
	_, err := NewServer(":0", WithDriver(driver), WithDriver(driver))
	if err == nil {
		t.Error("expected error setting driver twice")
	}
}

func TestNewServerRequiresDriver(t *testing.T) {
	if _, err := NewServer(":0"); err == nil {
		t.Error("expected error when driver is not provided")
	}
}

func TestNewServerDefaults(t *testing.T) {
	driver := testDriver(t)
	s, err := NewServer(":0", WithDriver(driver))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if s.maxIdleTime != 5*time.Minute {
		t.Errorf("maxIdleTime = %v, want 5m", s.maxIdleTime)
	}
	if s.maxSessions != 10 {
		t.Errorf("maxSessions = %d, want 10", s.maxSessions)
	}
}

func TestWithMaxSessionsRejectsNonPositive(t *testing.T) {
	driver := testDriver(t)
	_, err := NewServer(":0", WithDriver(driver), WithMaxSessions(0))
	if err == nil {
		t.Error("expected error for non-positive max sessions")
	}
}

func TestWithLoggerOverridesDefault(t *testing.T) {
	driver := testDriver(t)
	custom := slog.Default()
	s, err := NewServer(":0", WithDriver(driver), WithLogger(custom))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if s.logger != custom {
		t.Error("custom logger not applied")
	}
}

func TestWithDataAddrConfiguresBroker(t *testing.T) {
	driver := testDriver(t)
	s, err := NewServer(":0", WithDriver(driver), WithDataAddr("127.0.0.1:0"))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if s.dataBroker.localAddr.Port != 0 {
		t.Errorf("expected port 0, got %d", s.dataBroker.localAddr.Port)
	}
}
