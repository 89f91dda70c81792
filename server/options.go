package server

import (
	"fmt"
	"log/slog"
	"time"
)

// Option is a functional option for configuring an FTP server. The
// second parameter lets WithDataAddr reach the data broker's listen
// address, which is resolved once after all options have run.
type Option func(s *Server, dataAddr *string) error

// WithDriver sets the backend driver for authentication and file
// operations. Required.
func WithDriver(driver Driver) Option {
	return func(s *Server, _ *string) error {
		if s.driver != nil {
			return fmt.Errorf("driver already set")
		}
		s.driver = driver
		return nil
	}
}

// WithLogger sets a custom logger for the server. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server, _ *string) error {
		s.logger = logger
		return nil
	}
}

// WithMaxIdleTime sets how long a control connection may sit idle
// before the session's read deadline expires and the connection is
// dropped. Defaults to 5 minutes.
func WithMaxIdleTime(d time.Duration) Option {
	return func(s *Server, _ *string) error {
		s.maxIdleTime = d
		return nil
	}
}

// WithMaxSessions bounds the number of concurrent control connections
// (default 10). Connections beyond the limit receive a 421 and are
// closed rather than queued.
func WithMaxSessions(n int64) Option {
	return func(s *Server, _ *string) error {
		if n <= 0 {
			return fmt.Errorf("max sessions must be positive")
		}
		s.maxSessions = n
		return nil
	}
}

// WithDataAddr sets the local address the Data-Connection Broker
// binds before dialing out in active mode (default ":20").
func WithDataAddr(addr string) Option {
	return func(_ *Server, dataAddr *string) error {
		*dataAddr = addr
		return nil
	}
}

// WithMetrics attaches a MetricsCollector. If unset, the server skips
// every metrics call.
func WithMetrics(m MetricsCollector) Option {
	return func(s *Server, _ *string) error {
		s.metrics = m
		return nil
	}
}
