package server

import (
	"bufio"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxCommandLength is the maximum length of a command line. Lines
// longer than this are treated as a protocol violation and the
// session is closed.
const MaxCommandLength = 4096

// authState tracks a session's position in the login sequence:
// Unauth -> UserNamed -> Authenticated.
type authState int

const (
	stateUnauth authState = iota
	stateUserNamed
	stateAuthenticated
)

// session represents one FTP control connection. A session owns its
// control connection and, once authenticated, a ClientContext scoped
// to that user's jail. LIST/RETR/STOR hand the data-connection work
// off to a worker goroutine (see startTransfer) so the read loop stays
// free to receive the next command instead of blocking for the whole
// transfer; other sessions are unaffected either way because each
// already runs on its own goroutine.
type session struct {
	server *Server
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer

	id       string
	remoteIP string

	state    authState
	username string
	fs       ClientContext

	// pendingDataEndpoint is set by PORT and consumed by the next
	// LIST/RETR/STOR.
	pendingDataEndpoint *net.TCPAddr

	// pendingRenameSrc is set by RNFR and consumed by the next RNTO,
	// whether RNTO succeeds or fails.
	pendingRenameSrc string

	// transferDone is non-nil while a LIST/RETR/STOR worker is still
	// writing to the data connection and hasn't yet sent its 226/451/
	// 550. Only the read loop (via awaitTransfer) ever reads or clears
	// this field, so it needs no lock of its own; the worker goroutine
	// only ever closes the channel it was handed.
	transferDone chan struct{}

	quit bool
}

func newSession(server *Server, conn net.Conn) *session {
	remoteIP := conn.RemoteAddr().String()
	if host, _, err := net.SplitHostPort(remoteIP); err == nil {
		remoteIP = host
	}

	return &session{
		server:   server,
		conn:     conn,
		reader:   bufio.NewReader(conn),
		writer:   bufio.NewWriter(conn),
		id:       uuid.NewString(),
		remoteIP: remoteIP,
		state:    stateUnauth,
	}
}

// serve drives the session's command loop until the client disconnects,
// QUITs, or a read error occurs. One goroutine per session. awaitTransfer
// is called before dispatching every command (including QUIT) so a
// transfer worker's final reply can never be overtaken on the wire by
// the reply to a later command; close is deferred ahead of awaitTransfer
// so it always runs after any in-flight worker has finished with the
// session's file handle and writer, even on an abrupt disconnect.
func (s *session) serve() {
	defer s.close()
	defer s.awaitTransfer()

	if err := reply(s.writer, replyReadyForNewUser, "Service ready."); err != nil {
		return
	}

	s.server.logger.Info("session started",
		"session_id", s.id,
		"remote_ip", s.remoteIP,
	)

	for {
		if s.server.maxIdleTime > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.server.maxIdleTime))
		}

		line, err := s.readLine()
		s.awaitTransfer()
		if err != nil {
			if err != errCommandTooLong {
				s.server.logger.Debug("session read ended",
					"session_id", s.id,
					"remote_ip", s.remoteIP,
					"error", err,
				)
				return
			}
			_ = reply(s.writer, replySyntaxError, "Command line too long.")
			return
		}

		cmd := parseCommand(line)
		s.dispatch(cmd)

		if s.quit {
			return
		}
	}
}

// startTransfer spawns fn as this session's data-connection worker and
// records a done channel that awaitTransfer waits on before the read
// loop moves on to the next command's reply. fn is responsible for
// writing the transfer's own final reply (226/451/550) before returning.
func (s *session) startTransfer(fn func()) {
	done := make(chan struct{})
	s.transferDone = done
	go func() {
		defer close(done)
		fn()
	}()
}

// awaitTransfer blocks until the most recently started transfer worker
// has written its final reply, if one is still outstanding. Called only
// from the read loop, so it never races the field it clears.
func (s *session) awaitTransfer() {
	if s.transferDone == nil {
		return
	}
	<-s.transferDone
	s.transferDone = nil
}

var errCommandTooLong = errLine("command too long")

type errLine string

func (e errLine) Error() string { return string(e) }

// readLine reads a single CRLF (or bare LF)-terminated line, bounded
// by MaxCommandLength.
func (s *session) readLine() (string, error) {
	var line []byte
	for {
		b, err := s.reader.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			return strings.TrimRight(string(line), "\r"), nil
		}
		if len(line) >= MaxCommandLength {
			return "", errCommandTooLong
		}
		line = append(line, b)
	}
}

// dispatch enforces the per-state allowed-verb table and routes to
// the matching handler.
func (s *session) dispatch(cmd command) {
	if cmd.verb == "" {
		_ = reply(s.writer, replySyntaxError, "Syntax error, command unrecognized.")
		return
	}

	s.server.logger.Debug("command received",
		"session_id", s.id,
		"user", s.username,
		"verb", cmd.verb,
	)

	// The rename source recorded by RNFR is consumed by the very next
	// RNTO and cleared unconditionally by any other intervening
	// command, so a stale RNFR can never attach itself to a later,
	// unrelated RNTO.
	if cmd.verb != "RNTO" {
		s.pendingRenameSrc = ""
	}

	switch cmd.verb {
	case "USER":
		s.handleUSER(cmd.arg)
		return
	case "PASS":
		s.handlePASS(cmd.arg)
		return
	case "QUIT":
		s.handleQUIT()
		return
	}

	if s.state != stateAuthenticated {
		_ = reply(s.writer, replyNotLoggedIn, "Please login with USER and PASS.")
		return
	}

	handler, ok := commandHandlers[cmd.verb]
	if !ok {
		_ = reply(s.writer, replyNotImplemented, "Command not implemented.")
		return
	}

	start := time.Now()
	handler(s, cmd.arg)
	s.server.recordCommand(cmd.verb, true, time.Since(start))
}

func (s *session) close() {
	if s.fs != nil {
		s.fs.Close()
	}
	s.conn.Close()

	s.server.logger.Debug("session closed",
		"session_id", s.id,
		"remote_ip", s.remoteIP,
		"user", s.username,
	)
}

// virtualPath renders the current directory the way PWD/CWD replies
// display it: rooted at "/<username>" rather than the bare jail root,
// with a trailing slash.
func (s *session) virtualPath() string {
	wd := s.fs.GetWd()
	if wd == "/" {
		return "/" + s.username + "/"
	}
	return "/" + s.username + wd + "/"
}
