package world

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/wowcli/internal/constants"
	"github.com/udisondev/wowcli/internal/crypto"
	"github.com/udisondev/wowcli/internal/protocol"
	"github.com/udisondev/wowcli/internal/transport"
	"github.com/udisondev/wowcli/internal/world/clientpackets"
	"github.com/udisondev/wowcli/internal/world/serverpackets"
)

// ErrNotAuthenticated is returned by sends issued before the handshake
// completes.
var ErrNotAuthenticated = errors.New("world session not authenticated")

// ErrConnectInProgress is returned by Connect while a handshake is running.
var ErrConnectInProgress = errors.New("world connect already in progress")

// AuthFailedError carries the raw result code of a rejected session auth.
type AuthFailedError struct {
	Code byte
}

func (e *AuthFailedError) Error() string {
	return fmt.Sprintf("world session auth rejected: code 0x%02X", e.Code)
}

// Option is a functional option for Client configuration.
type Option func(*Client)

// WithTimeout overrides the handshake wait timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client drives a world-server session: the seed/proof handshake with the
// preemptive header-encryption switch, then opaque opcode traffic. Payload
// semantics beyond the handshake and combat notifications are the
// subscriber's business, not the client's.
type Client struct {
	timeout time.Duration
	pipe    *transport.Pipeline

	mu         sync.Mutex
	state      SessionState
	username   string
	sessionKey []byte
	ready      *transport.Completion[error]
	attackSubs []chan serverpackets.AttackEvent
}

// NewClient creates a disconnected world client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout: constants.LoginTimeout,
		state:   StateIdle,
	}
	c.pipe = transport.NewWorldPipeline()
	c.pipe.Register(protocol.SMSGAuthChallenge, c.handleAuthChallenge)
	c.pipe.Register(protocol.SMSGAuthResponse, c.handleAuthResponse)
	for _, op := range []protocol.Opcode{
		protocol.SMSGAttackStart,
		protocol.SMSGAttackStop,
		protocol.SMSGAttackSwingNotInRange,
		protocol.SMSGAttackSwingBadFacing,
		protocol.SMSGAttackSwingNotStanding,
		protocol.SMSGAttackSwingDeadTarget,
		protocol.SMSGAttackSwingCantAttack,
	} {
		c.pipe.Register(op, func(payload []byte) { c.handleAttack(op, payload) })
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// State returns the current session state.
func (c *Client) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnDisconnect registers a lifecycle callback on the underlying pipeline.
func (c *Client) OnDisconnect(fn func(error)) {
	c.pipe.OnDisconnect(fn)
}

// Connect opens the world connection and blocks until the server-initiated
// handshake completes, the timeout elapses, or ctx is canceled. The client
// sends nothing until the server's auth challenge arrives.
func (c *Client) Connect(ctx context.Context, username, host string, sessionKey []byte, port int) error {
	c.mu.Lock()
	if c.state == StateHandshake {
		c.mu.Unlock()
		return ErrConnectInProgress
	}
	c.state = StateHandshake
	c.username = username
	c.sessionKey = sessionKey
	done := transport.NewCompletion[error]()
	c.ready = done
	c.mu.Unlock()

	if err := c.pipe.Connect(ctx, host, port, constants.DefaultConnectTimeout); err != nil {
		c.setState(StateFailed)
		return fmt.Errorf("connecting to world server: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := done.Wait(waitCtx)
	if err != nil {
		c.setState(StateFailed)
		c.pipe.Disconnect()
		return fmt.Errorf("waiting for world session: %w", err)
	}
	return result
}

// SendOpcode sends one gameplay message. Rejected before authentication.
func (c *Client) SendOpcode(op protocol.Opcode, payload []byte) error {
	c.mu.Lock()
	authenticated := c.state == StateAuthenticated
	c.mu.Unlock()

	if !authenticated {
		return ErrNotAuthenticated
	}
	return c.pipe.Send(op, payload)
}

// Subscribe returns a stream of raw payloads for one opcode. The client
// makes no assumptions about their layout.
func (c *Client) Subscribe(op protocol.Opcode) <-chan []byte {
	return c.pipe.Subscribe(op)
}

// AttackEvents returns a stream of decoded combat notifications.
func (c *Client) AttackEvents() <-chan serverpackets.AttackEvent {
	ch := make(chan serverpackets.AttackEvent, attackSubscriptionBuffer)
	c.mu.Lock()
	c.attackSubs = append(c.attackSubs, ch)
	c.mu.Unlock()
	return ch
}

const attackSubscriptionBuffer = 64

// Disconnect closes the connection; the client stays usable for a new Connect.
func (c *Client) Disconnect() {
	c.setState(StateIdle)
	c.pipe.Disconnect()
}

// Close tears down the client permanently.
func (c *Client) Close() {
	c.mu.Lock()
	subs := c.attackSubs
	c.attackSubs = nil
	c.mu.Unlock()
	for _, ch := range subs {
		close(ch)
	}
	c.pipe.Close()
}

func (c *Client) setState(s SessionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// failSession moves to Failed and resolves the pending Connect wait.
func (c *Client) failSession(err error) {
	c.mu.Lock()
	c.state = StateFailed
	done := c.ready
	c.mu.Unlock()

	slog.Warn("world session failed", "error", err)
	if done != nil {
		done.Complete(err)
	}
}

// handleAuthChallenge answers the server seed with the session-auth message
// and immediately switches on header encryption. The server starts
// encrypting as soon as it has read the session-auth message, not after it
// replies, so the switch must not wait for the auth response.
func (c *Client) handleAuthChallenge(payload []byte) {
	c.mu.Lock()
	username := c.username
	key := c.sessionKey
	state := c.state
	c.mu.Unlock()

	if state != StateHandshake {
		slog.Warn("unexpected world auth challenge", "state", state)
		return
	}

	serverSeed, err := serverpackets.ParseAuthChallenge(payload)
	if err != nil {
		c.failSession(fmt.Errorf("malformed auth challenge: %w", err))
		return
	}

	clientSeed := make([]byte, 4)
	if _, err := rand.Read(clientSeed); err != nil {
		c.failSession(fmt.Errorf("generating client seed: %w", err))
		return
	}

	proof := crypto.WorldSessionProof(username, clientSeed, serverSeed, key)
	session := clientpackets.AuthSession(username, clientSeed, proof)
	if err := c.pipe.Send(protocol.CMSGAuthSession, session); err != nil {
		c.failSession(fmt.Errorf("sending session auth: %w", err))
		return
	}

	if len(key) == constants.SessionKeySize {
		hc, err := crypto.NewHeaderCrypt(key)
		if err != nil {
			c.failSession(fmt.Errorf("initializing header cipher: %w", err))
			return
		}
		c.pipe.SetCipher(hc)
	}
	slog.Debug("session auth sent", "account", username, "encrypted", len(key) == constants.SessionKeySize)
}

func (c *Client) handleAuthResponse(payload []byte) {
	c.mu.Lock()
	state := c.state
	done := c.ready
	username := c.username
	c.mu.Unlock()

	if state != StateHandshake {
		slog.Warn("unexpected world auth response", "state", state)
		return
	}

	code := serverpackets.ParseAuthResponse(payload)
	if code != protocol.WorldAuthOK {
		c.failSession(&AuthFailedError{Code: code})
		return
	}

	c.setState(StateAuthenticated)
	slog.Info("world session established", "account", username)
	if done != nil {
		done.Complete(nil)
	}

	// Character enumeration is the first thing every session needs; ask
	// for it without waiting for the caller.
	if err := c.pipe.Send(protocol.CMSGCharEnum, clientpackets.CharEnum()); err != nil {
		slog.Warn("character enum request failed", "error", err)
	}
}

func (c *Client) handleAttack(op protocol.Opcode, payload []byte) {
	ev, err := serverpackets.ParseAttackEvent(op, payload)
	if err != nil {
		slog.Warn("malformed combat notification", "opcode", op, "error", err)
		return
	}

	c.mu.Lock()
	subs := make([]chan serverpackets.AttackEvent, len(c.attackSubs))
	copy(subs, c.attackSubs)
	c.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("attack event subscriber is slow, dropping", "action", ev.Action)
		}
	}
}
