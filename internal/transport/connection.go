package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/udisondev/wowcli/internal/constants"
)

// ErrNotConnected is returned by Send when no connection is established.
var ErrNotConnected = errors.New("not connected")

// ErrAlreadyConnected is returned by Connect while a connection is active.
var ErrAlreadyConnected = errors.New("already connected")

// Connection owns one TCP byte-stream socket. Received chunks are pushed to
// the onData callback from the read loop goroutine, in receipt order; the
// callback must not block for long. The onClose callback fires exactly once
// per established connection, with the causing error, or nil for a close
// requested through Disconnect.
//
// A Connection may be reconnected to the same target after a disconnect
// (each Connect starts a new generation); it is never pointed at a
// different host.
type Connection struct {
	onData  func([]byte)
	onOpen  func()
	onClose func(error)

	// dial is swappable so the connect/disconnect race is testable.
	dial func(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error)

	mu             sync.Mutex
	conn           net.Conn
	state          State
	gen            int
	dialGen        int
	graceful       bool
	failure        error
	closeRequested bool
}

// NewConnection creates a disconnected Connection. Any callback may be nil.
func NewConnection(onData func([]byte), onOpen func(), onClose func(error)) *Connection {
	return &Connection{
		onData:  onData,
		onOpen:  onOpen,
		onClose: onClose,
		state:   StateDisconnected,
		dial:    dialTCP,
	}
}

func dialTCP(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	dialer := net.Dialer{Timeout: timeout}
	return dialer.DialContext(ctx, "tcp", addr)
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials host:port. It fails if a connection is already active.
// Cancellation of ctx aborts the dial.
func (c *Connection) Connect(ctx context.Context, host string, port int, timeout time.Duration) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = StateConnecting
	c.closeRequested = false
	c.dialGen++
	dialGen := c.dialGen
	c.mu.Unlock()

	if timeout <= 0 {
		timeout = constants.DefaultConnectTimeout
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := c.dial(ctx, addr, timeout)
	if err != nil {
		c.mu.Lock()
		if c.dialGen == dialGen {
			c.state = StateDisconnected
			c.closeRequested = false
		}
		c.mu.Unlock()
		return fmt.Errorf("dialing %s: %w", addr, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			slog.Warn("set keepalive failed", "error", err)
		}
	}

	c.mu.Lock()
	if c.closeRequested || c.dialGen != dialGen {
		// Disconnect landed while the dial was in flight, or a newer
		// Connect superseded this one; the socket is unwanted.
		if c.dialGen == dialGen {
			c.closeRequested = false
			c.state = StateDisconnected
		}
		c.mu.Unlock()
		_ = conn.Close()
		return fmt.Errorf("dialing %s: %w", addr, net.ErrClosed)
	}
	c.conn = conn
	c.state = StateConnected
	c.graceful = false
	c.failure = nil
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	slog.Debug("connected", "addr", addr)
	if c.onOpen != nil {
		c.onOpen()
	}

	go c.readLoop(conn, gen)
	return nil
}

// Send writes raw bytes to the socket.
func (c *Connection) Send(b []byte) error {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()

	if state != StateConnected || conn == nil {
		return ErrNotConnected
	}
	if _, err := conn.Write(b); err != nil {
		return fmt.Errorf("writing %d bytes: %w", len(b), err)
	}
	return nil
}

// Disconnect closes the connection. Safe to call at any time, in any state;
// repeated calls are no-ops. The close is reported through onClose with a
// nil error.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.graceful = true
	conn := c.conn
	if conn == nil {
		// Dial still in flight; flag it so Connect discards the socket
		// when it lands.
		c.closeRequested = true
		c.state = StateDisconnected
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// readLoop observes the close error and fires onClose(nil).
	_ = conn.Close()
}

// Abort closes the connection reporting err as the cause of the disconnect.
// Used when a protocol-level failure (not the socket itself) kills the
// stream, e.g. irrecoverable framing desync.
func (c *Connection) Abort(err error) {
	c.mu.Lock()
	if c.state != StateConnected || c.conn == nil {
		c.mu.Unlock()
		return
	}
	c.failure = err
	conn := c.conn
	c.mu.Unlock()

	_ = conn.Close()
}

func (c *Connection) readLoop(conn net.Conn, gen int) {
	buf := make([]byte, constants.DefaultReadBufSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 && c.onData != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.onData(chunk)
		}
		if err != nil {
			c.closeWith(conn, gen, err)
			return
		}
	}
}

// closeWith transitions to Disconnected and fires onClose exactly once per
// generation. A stale generation (connection already superseded) is ignored.
func (c *Connection) closeWith(conn net.Conn, gen int, err error) {
	c.mu.Lock()
	if gen != c.gen || c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	graceful := c.graceful
	failure := c.failure
	c.failure = nil
	c.state = StateDisconnected
	c.conn = nil
	c.mu.Unlock()

	_ = conn.Close()

	switch {
	case failure != nil:
		err = failure
	case graceful || errors.Is(err, net.ErrClosed):
		err = nil
	}
	if err != nil {
		slog.Debug("connection lost", "error", err)
	}
	if c.onClose != nil {
		c.onClose(err)
	}
}
