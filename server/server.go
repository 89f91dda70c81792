package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrServerClosed is returned by Serve and ListenAndServe after a call
// to Shutdown.
var ErrServerClosed = errors.New("ftpd: server closed")

// Server is the control-connection listener. It accepts connections,
// bounds how many run concurrently, and hands each accepted
// connection to its own session goroutine.
//
// A session blocking on a transfer only blocks itself; the dispatcher
// keeps accepting and dispatching other sessions concurrently. This
// is the idiomatic-Go reading of the original single-coordinator
// design: independent sessions, ordered per-session replies, and
// non-blocking accept all hold under goroutine-per-connection just as
// they held under the original's fork-per-client model.
type Server struct {
	addr        string
	driver      Driver
	logger      *slog.Logger
	maxIdleTime time.Duration
	maxSessions int64
	metrics     MetricsCollector

	dataBroker *dataBroker

	sem *semaphore.Weighted

	mu         sync.Mutex
	listener   net.Listener
	conns      map[net.Conn]struct{}
	inShutdown bool
}

// NewServer creates a Server listening on addr (the control port,
// e.g. ":21"). WithDriver is required; all other options fall back to
// the defaults documented on their respective With* functions.
func NewServer(addr string, options ...Option) (*Server, error) {
	s := &Server{
		addr:        addr,
		logger:      slog.Default(),
		maxIdleTime: 5 * time.Minute,
		maxSessions: 10,
		conns:       make(map[net.Conn]struct{}),
	}

	dataAddr := ":20"
	for _, opt := range options {
		if err := opt(s, &dataAddr); err != nil {
			return nil, err
		}
	}

	if s.driver == nil {
		return nil, fmt.Errorf("driver is required (use WithDriver option)")
	}

	broker, err := newDataBroker(dataAddr)
	if err != nil {
		return nil, fmt.Errorf("configure data broker: %w", err)
	}
	s.dataBroker = broker
	s.sem = semaphore.NewWeighted(s.maxSessions)

	return s, nil
}

// ListenAndServe listens on the server's configured address and
// serves until an error occurs or Shutdown is called.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	s.logger.Info("ftp server listening", "addr", s.addr)
	return s.Serve(ln)
}

// Serve accepts connections on l until the listener is closed. Each
// accepted connection is bounded by the session semaphore: once
// maxSessions control connections are open, new connections are told
// 421 and closed rather than left to wait.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.inShutdown {
		s.mu.Unlock()
		l.Close()
		return ErrServerClosed
	}
	s.listener = l
	s.mu.Unlock()

	defer l.Close()

	for {
		conn, err := l.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.inShutdown
			s.mu.Unlock()
			if closed {
				return ErrServerClosed
			}
			s.logger.Error("accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	if !s.sem.TryAcquire(1) {
		_ = reply(bufio.NewWriter(conn), replyTooManySessions, "Too many sessions, try again later.")
		conn.Close()
		s.recordConnection(false, "max_sessions_reached")
		return
	}
	defer s.sem.Release(1)
	s.recordConnection(true, "accepted")

	s.trackConn(conn, true)
	defer s.trackConn(conn, false)

	newSession(s, conn).serve()
}

func (s *Server) recordConnection(accepted bool, reason string) {
	if s.metrics != nil {
		s.metrics.RecordConnection(accepted, reason)
	}
}

func (s *Server) recordCommand(cmd string, success bool, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordCommand(cmd, success, d)
	}
}

func (s *Server) recordTransfer(op string, bytes int64, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordTransfer(op, bytes, d)
	}
}

func (s *Server) recordAuthentication(success bool, user string) {
	if s.metrics != nil {
		s.metrics.RecordAuthentication(success, user)
	}
}

func (s *Server) trackConn(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

// Shutdown closes the listener and every open control connection.
func (s *Server) Shutdown(_ context.Context) error {
	s.mu.Lock()
	s.inShutdown = true
	ln := s.listener
	conns := s.conns
	s.conns = make(map[net.Conn]struct{})
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	for conn := range conns {
		conn.Close()
	}
	return err
}
