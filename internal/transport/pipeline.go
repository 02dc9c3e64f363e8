package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/wowcli/internal/crypto"
	"github.com/udisondev/wowcli/internal/protocol"
)

// Pipeline composes a Connection, a Framer, a Codec, a swappable cipher and
// a Router into the reusable transport core shared by the auth and world
// clients. The pipeline owns the connection and the router exclusively;
// Close tears everything down exactly once.
type Pipeline struct {
	conn   *Connection
	framer Framer
	codec  Codec
	router *Router
	cipher *CipherHandle

	sendMu  sync.Mutex
	frameMu sync.Mutex

	mu           sync.Mutex
	onConnect    []func()
	onDisconnect []func(error)
	closeOnce    sync.Once
}

// NewAuthPipeline builds a pipeline for the auth channel with the
// caller-supplied framing (the auth protocol frames per-opcode).
func NewAuthPipeline(framer Framer) *Pipeline {
	return newPipeline(framer, AuthCodec{}, NewCipherHandle())
}

// NewWorldPipeline builds a pipeline with length-prefixed world framing and
// header encryption starting at the identity cipher.
func NewWorldPipeline() *Pipeline {
	handle := NewCipherHandle()
	return newPipeline(NewWorldFramer(handle), NewWorldCodec(handle), handle)
}

func newPipeline(framer Framer, codec Codec, handle *CipherHandle) *Pipeline {
	p := &Pipeline{
		framer: framer,
		codec:  codec,
		router: NewRouter(),
		cipher: handle,
	}
	p.conn = NewConnection(p.handleData, p.handleOpen, p.handleClose)
	return p
}

// Connect dials the target and starts receiving.
func (p *Pipeline) Connect(ctx context.Context, host string, port int, timeout time.Duration) error {
	return p.conn.Connect(ctx, host, port, timeout)
}

// Disconnect closes the connection. Idempotent; subscriptions survive so
// the pipeline can be reconnected.
func (p *Pipeline) Disconnect() {
	p.conn.Disconnect()
}

// Close disconnects and closes the router. After Close the pipeline is dead.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		p.conn.Disconnect()
		p.router.Close()
	})
}

// State returns the connection state.
func (p *Pipeline) State() State {
	return p.conn.State()
}

// Send frames, encrypts and writes one message. Sends are serialized: the
// header cipher carries rolling state, so wire order must match cipher order.
func (p *Pipeline) Send(op protocol.Opcode, payload []byte) error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	if p.conn.State() != StateConnected {
		return ErrNotConnected
	}
	return p.conn.Send(p.codec.Encode(op, payload))
}

// Register adds a handler invoked once per received message of op.
func (p *Pipeline) Register(op protocol.Opcode, h Handler) {
	p.router.Register(op, h)
}

// Subscribe returns a stream of payloads for op.
func (p *Pipeline) Subscribe(op protocol.Opcode) <-chan []byte {
	return p.router.Subscribe(op)
}

// ResetFraming discards buffered bytes and partial-frame state. Used when a
// client abandons an exchange on a live connection (e.g. a timed-out login)
// and must not glue the stale tail onto the next response.
func (p *Pipeline) ResetFraming() {
	p.frameMu.Lock()
	p.framer.Reset()
	p.frameMu.Unlock()
}

// SetCipher swaps the active cipher. The swap replaces the reference
// atomically; the caller is responsible for ordering it against traffic
// (the world client swaps immediately after the session-auth send, before
// the next inbound frame is parsed).
func (p *Pipeline) SetCipher(c crypto.Cipher) {
	p.cipher.Swap(c)
}

// OnConnect registers a lifecycle callback fired once per established
// connection.
func (p *Pipeline) OnConnect(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onConnect = append(p.onConnect, fn)
}

// OnDisconnect registers a lifecycle callback fired once per connection
// teardown, with the causing error (nil for a requested close).
func (p *Pipeline) OnDisconnect(fn func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onDisconnect = append(p.onDisconnect, fn)
}

// handleOpen runs before the read loop starts: every connection begins with
// an empty framing buffer and the identity cipher, so a previous session's
// keyed cipher or buffered tail can never corrupt the new stream.
func (p *Pipeline) handleOpen() {
	p.frameMu.Lock()
	p.framer.Reset()
	p.frameMu.Unlock()
	p.cipher.Swap(crypto.NullCipher{})

	p.mu.Lock()
	fns := append([]func(){}, p.onConnect...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (p *Pipeline) handleClose(err error) {
	p.mu.Lock()
	fns := append([]func(error){}, p.onDisconnect...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
}

// handleData runs on the read-loop goroutine: buffer the chunk, extract
// every message currently completable, then dispatch outside the lock so a
// slow handler never blocks buffer appends.
func (p *Pipeline) handleData(chunk []byte) {
	p.frameMu.Lock()
	p.framer.Feed(chunk)

	var msgs []protocol.Message
	var frameErr error
	for {
		msg, ok, err := p.framer.Next()
		if err != nil {
			frameErr = err
			break
		}
		if !ok {
			break
		}
		msgs = append(msgs, msg)
	}
	p.frameMu.Unlock()

	// Messages extracted before the failure are still valid; deliver them
	// before dropping the connection.
	for _, msg := range msgs {
		p.router.Dispatch(msg)
	}
	if frameErr != nil {
		slog.Error("framing failed, dropping connection", "error", frameErr)
		p.conn.Abort(frameErr)
	}
}
