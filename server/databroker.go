package server

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// dataBroker owns the server's single source-port-20 socket slot for
// active-mode data connections. RFC 959 requires the server to originate
// data connections from port
// 20; since only one local socket can bind that port at a time, every
// session's dial is single-flighted through this broker's token.
type dataBroker struct {
	localAddr *net.TCPAddr
	tokens    chan struct{} // capacity 1
}

func newDataBroker(localAddr string) (*dataBroker, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", localAddr)
	if err != nil {
		return nil, err
	}

	b := &dataBroker{localAddr: tcpAddr, tokens: make(chan struct{}, 1)}
	b.tokens <- struct{}{}
	return b, nil
}

// dial connects to remote, originating from the broker's local
// address (port 20) with SO_REUSEADDR set so a previous transfer's
// socket lingering in TIME_WAIT doesn't block the bind.
func (b *dataBroker) dial(ctx context.Context, remote *net.TCPAddr) (net.Conn, error) {
	select {
	case <-b.tokens:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { b.tokens <- struct{}{} }()

	d := net.Dialer{
		LocalAddr: b.localAddr,
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			if err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			}); err != nil {
				return err
			}
			return sockErr
		},
	}

	return d.DialContext(ctx, "tcp", remote.String())
}
