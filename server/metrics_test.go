package server

import (
	"testing"
	"time"
)

type mockMetricsCollector struct {
	commands        int
	transfers       int
	connections     int
	authentications int
}

func (m *mockMetricsCollector) RecordCommand(cmd string, success bool, duration time.Duration) {
	m.commands++
}

func (m *mockMetricsCollector) RecordTransfer(operation string, bytes int64, duration time.Duration) {
	m.transfers++
}

func (m *mockMetricsCollector) RecordConnection(accepted bool, reason string) {
	m.connections++
}

func (m *mockMetricsCollector) RecordAuthentication(success bool, user string) {
	m.authentications++
}

func TestWithMetricsAttachesCollector(t *testing.T) {
	driver := testDriver(t)
	mock := &mockMetricsCollector{}

	s, err := NewServer(":0", WithDriver(driver), WithMetrics(mock))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if s.metrics == nil {
		t.Fatal("expected metrics collector to be set")
	}

	s.recordConnection(true, "accepted")
	s.recordCommand("PWD", true, time.Millisecond)
	s.recordTransfer("RETR", 1024, time.Millisecond)
	s.recordAuthentication(true, "alice")

	if mock.connections != 1 || mock.commands != 1 || mock.transfers != 1 || mock.authentications != 1 {
		t.Errorf("mock = %+v, want one of each", mock)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	driver := testDriver(t)
	s, err := NewServer(":0", WithDriver(driver))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if s.metrics != nil {
		t.Fatal("expected nil metrics by default")
	}

	s.recordConnection(true, "accepted")
	s.recordCommand("PWD", true, time.Millisecond)
	s.recordTransfer("RETR", 1024, time.Millisecond)
	s.recordAuthentication(true, "alice")
}
