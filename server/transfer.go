package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	osReadOnly        = os.O_RDONLY
	osCreateWriteOnly = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
)

// dataConnTimeout bounds both the active-mode dial and the subsequent
// transfer; it keeps a stalled client from pinning a session's
// goroutine (and its single source-port-20 slot) forever.
const dataConnTimeout = 30 * time.Second

// handlePORT parses the RFC 959 "h1,h2,h3,h4,p1,p2" tuple and records
// it as this session's pending data endpoint, consumed by the next
// LIST/RETR/STOR.
func (s *session) handlePORT(arg string) {
	addr, err := parsePortArg(arg)
	if err != nil {
		_ = reply(s.writer, replyBadArguments, "Syntax error in parameters.")
		return
	}

	s.pendingDataEndpoint = addr
	_ = reply(s.writer, replyCommandOK, "PORT command successful.")
}

func parsePortArg(arg string) (*net.TCPAddr, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 6 {
		return nil, fmt.Errorf("malformed PORT argument")
	}

	nums := make([]int, 6)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return nil, fmt.Errorf("malformed PORT octet %q", p)
		}
		nums[i] = n
	}

	ip := net.IPv4(byte(nums[0]), byte(nums[1]), byte(nums[2]), byte(nums[3]))
	port := nums[4]<<8 | nums[5]

	return &net.TCPAddr{IP: ip, Port: port}, nil
}

// takePendingEndpoint consumes the session's pending data endpoint,
// reporting whether one was present. The endpoint is cleared by the
// attempt itself, whether or not the attempt goes on to succeed.
func (s *session) takePendingEndpoint() (*net.TCPAddr, bool) {
	addr := s.pendingDataEndpoint
	s.pendingDataEndpoint = nil
	return addr, addr != nil
}

// dialData connects to addr through the server's data broker,
// originating from source port 20.
func (s *session) dialData(addr *net.TCPAddr) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dataConnTimeout)
	defer cancel()
	return s.server.dataBroker.dial(ctx, addr)
}

// handleRETR sends a file over the data connection declared by the
// session's pending PORT. Preconditions (endpoint present, file
// readable) are checked before the 150 reply; only a data-channel or
// broker failure after 150 is reported as 451 rather than a precise
// filesystem code. The dial and the actual streaming happen in a
// worker goroutine (see session.startTransfer) so the control
// connection's read loop is free to take the next command the moment
// 150 is sent, rather than blocking here for the whole transfer.
func (s *session) handleRETR(arg string) {
	if arg == "" {
		_ = reply(s.writer, replyBadArguments, "Syntax error in parameters.")
		return
	}

	addr, ok := s.takePendingEndpoint()
	if !ok {
		_ = reply(s.writer, replyCantOpenDataConn, "Can't open data connection.")
		return
	}

	f, err := s.fs.OpenFile(arg, osReadOnly)
	if err != nil {
		s.replyError(err)
		return
	}

	_ = reply(s.writer, replyDataConnOpen, "Opening data connection for %s.", arg)

	s.startTransfer(func() {
		defer f.Close()

		conn, err := s.dialData(addr)
		if err != nil {
			_ = reply(s.writer, replyLocalError, "Requested action aborted; local error.")
			return
		}
		defer conn.Close()

		start := time.Now()
		n, err := copyWithDeadline(conn, f)
		if err != nil {
			_ = reply(s.writer, replyLocalError, "Requested action aborted; local error.")
			return
		}
		s.server.recordTransfer("RETR", n, time.Since(start))

		_ = reply(s.writer, replyTransferComplete, "Transfer complete.")
	})
}

// handleSTOR receives a file into a temp sibling and renames it into
// place once fully written, so a failed or aborted upload never
// leaves a partial file at the destination name. Precondition checks
// (endpoint present, destination inside jail and writable) happen
// before the 150 reply, mirroring handleRETR; the dial, streaming, and
// commit rename run in a worker goroutine so the control connection
// stays free to take the next command while the upload is underway.
func (s *session) handleSTOR(arg string) {
	if arg == "" {
		_ = reply(s.writer, replyBadArguments, "Syntax error in parameters.")
		return
	}

	addr, ok := s.takePendingEndpoint()
	if !ok {
		_ = reply(s.writer, replyCantOpenDataConn, "Can't open data connection.")
		return
	}

	if _, err := s.fs.GetFileInfo(arg); err != nil && !os.IsNotExist(err) {
		s.replyError(err)
		return
	}

	tmpName := tempSiblingName(arg)

	f, err := s.fs.OpenFile(tmpName, osCreateWriteOnly)
	if err != nil {
		s.replyError(err)
		return
	}

	_ = reply(s.writer, replyDataConnOpen, "Opening data connection for %s.", arg)

	s.startTransfer(func() {
		conn, err := s.dialData(addr)
		if err != nil {
			f.Close()
			s.fs.DeleteFile(tmpName)
			_ = reply(s.writer, replyLocalError, "Requested action aborted; local error.")
			return
		}

		start := time.Now()
		n, copyErr := copyWithDeadline(f, conn)
		conn.Close()
		f.Close()

		if copyErr != nil {
			s.fs.DeleteFile(tmpName)
			_ = reply(s.writer, replyLocalError, "Requested action aborted; local error.")
			return
		}

		if err := s.fs.Rename(tmpName, arg); err != nil {
			s.fs.DeleteFile(tmpName)
			s.replyError(err)
			return
		}

		s.server.recordTransfer("STOR", n, time.Since(start))
		_ = reply(s.writer, replyTransferComplete, "Transfer complete.")
	})
}

// tempSiblingName mirrors the original server's "tmp_<unix>_<name>"
// staging convention.
func tempSiblingName(name string) string {
	return fmt.Sprintf("tmp_%d_%s", time.Now().Unix(), name)
}

// copyWithDeadline runs the transfer in its own goroutine under a
// deadline-bound errgroup so a stalled peer can't block the calling
// goroutine past dataConnTimeout. It returns the number of bytes
// copied once the copy finishes; when the deadline cuts the copy
// short it returns 0 and the deadline error, without a partial count.
func copyWithDeadline(dst io.Writer, src io.Reader) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dataConnTimeout)
	defer cancel()

	var n int64
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		copied, err := io.Copy(dst, src)
		n = copied
		return err
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		return n, err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// writeListing writes one entry name per CRLF-terminated line, short
// format only, no long-form metadata.
func writeListing(w io.Writer, entries []os.FileInfo) error {
	for _, entry := range entries {
		if _, err := fmt.Fprintf(w, "%s\r\n", entry.Name()); err != nil {
			return err
		}
	}
	return nil
}
