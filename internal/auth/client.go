package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/udisondev/wowcli/internal/auth/clientpackets"
	"github.com/udisondev/wowcli/internal/auth/serverpackets"
	"github.com/udisondev/wowcli/internal/constants"
	"github.com/udisondev/wowcli/internal/crypto"
	"github.com/udisondev/wowcli/internal/protocol"
	"github.com/udisondev/wowcli/internal/transport"
)

// ErrLoginInProgress is returned by Login while a handshake is running.
var ErrLoginInProgress = errors.New("login already in progress")

// ErrNotAuthenticated is returned by operations requiring a completed login.
var ErrNotAuthenticated = errors.New("not authenticated")

// Option is a functional option for Client configuration.
type Option func(*Client)

// WithTimeout overrides the handshake/realm-list wait timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client drives the login-server protocol: the SRP6 challenge/proof
// exchange and the realm-list request, over a pipeline with per-opcode auth
// framing. After a failed login the client is reusable; a successful login
// yields an immutable Session.
type Client struct {
	timeout time.Duration
	pipe    *transport.Pipeline
	reasm   *Reassembler

	mu         sync.Mutex
	state      ClientState
	host       string
	username   string
	password   string
	srp        *crypto.SRP6
	session    *Session
	loginDone  *transport.Completion[error]
	realmsDone *transport.Completion[[]Realm]
}

// NewClient creates a disconnected auth client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout: constants.LoginTimeout,
		state:   StateIdle,
	}
	c.reasm = NewReassembler()
	c.pipe = transport.NewAuthPipeline(c.reasm)
	c.pipe.Register(protocol.AuthLogonChallenge, c.handleChallenge)
	c.pipe.Register(protocol.AuthLogonProof, c.handleProof)
	c.pipe.Register(protocol.AuthRealmList, c.handleRealmList)

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// State returns the current handshake state.
func (c *Client) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the session produced by the last successful login, or nil.
func (c *Client) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// OnDisconnect registers a lifecycle callback on the underlying pipeline.
func (c *Client) OnDisconnect(fn func(error)) {
	c.pipe.OnDisconnect(fn)
}

// Login connects to the login server (if not already connected) and runs
// the SRP6 handshake. It blocks until the handshake completes, the timeout
// elapses, or ctx is canceled. The password never leaves this call except
// as derived proof material.
func (c *Client) Login(ctx context.Context, username, password, host string, port int) error {
	c.mu.Lock()
	if c.state == StateChallengeSent || c.state == StateProofSent {
		c.mu.Unlock()
		return ErrLoginInProgress
	}
	c.state = StateIdle
	c.session = nil
	c.srp = nil
	c.host = host
	c.username = username
	c.password = password
	done := transport.NewCompletion[error]()
	c.loginDone = done
	c.mu.Unlock()

	if c.pipe.State() != transport.StateConnected {
		if err := c.pipe.Connect(ctx, host, port, constants.DefaultConnectTimeout); err != nil {
			c.setState(StateFailed)
			return fmt.Errorf("connecting to login server: %w", err)
		}
	}

	// A timed-out attempt may have left a partial response buffered on the
	// live connection; it must not prefix this attempt's response.
	c.pipe.ResetFraming()
	c.reasm.Expect(protocol.AuthLogonChallenge)
	payload := clientpackets.LogonChallenge(username, net.IPv4zero, 0)
	if err := c.pipe.Send(protocol.AuthLogonChallenge, payload); err != nil {
		c.setState(StateFailed)
		return fmt.Errorf("sending logon challenge: %w", err)
	}
	c.setState(StateChallengeSent)
	slog.Debug("logon challenge sent", "account", username, "server", host)

	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := done.Wait(waitCtx)
	if err != nil {
		c.setState(StateFailed)
		return fmt.Errorf("waiting for login result: %w", err)
	}
	return result
}

// GetRealmList requests the realm list. A timeout yields an empty list, not
// an error; the caller decides whether an empty universe is a problem.
func (c *Client) GetRealmList(ctx context.Context) ([]Realm, error) {
	c.mu.Lock()
	if c.state != StateAuthenticated {
		c.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	done := transport.NewCompletion[[]Realm]()
	c.realmsDone = done
	c.mu.Unlock()

	c.reasm.Expect(protocol.AuthRealmList)
	if err := c.pipe.Send(protocol.AuthRealmList, clientpackets.RealmList()); err != nil {
		return nil, fmt.Errorf("sending realm list request: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	realms, err := done.Wait(waitCtx)
	if err != nil {
		slog.Warn("realm list request timed out", "error", err)
		return []Realm{}, nil
	}
	return realms, nil
}

// Disconnect closes the connection; the client stays usable for a new Login.
func (c *Client) Disconnect() {
	c.pipe.Disconnect()
}

// Close tears down the client permanently.
func (c *Client) Close() {
	c.pipe.Close()
}

func (c *Client) setState(s ClientState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// failLogin moves to Failed and resolves the pending login wait. The
// connection stays open so the caller may retry.
func (c *Client) failLogin(err error) {
	c.mu.Lock()
	c.state = StateFailed
	c.password = ""
	done := c.loginDone
	c.mu.Unlock()

	slog.Warn("login failed", "error", err)
	if done != nil {
		done.Complete(err)
	}
}

func (c *Client) handleChallenge(payload []byte) {
	c.mu.Lock()
	if c.state != StateChallengeSent {
		c.mu.Unlock()
		slog.Warn("unexpected logon challenge response", "state", c.state)
		return
	}
	username, password := c.username, c.password
	c.mu.Unlock()

	result, ch, err := serverpackets.ParseChallenge(payload)
	if err != nil {
		c.failLogin(fmt.Errorf("malformed challenge response: %w", err))
		return
	}
	if result != protocol.AuthResultSuccess {
		c.failLogin(fmt.Errorf("logon challenge rejected: code 0x%02X", result))
		return
	}

	srp, err := crypto.NewSRP6(username, password, ch.SRP)
	if err != nil {
		c.failLogin(fmt.Errorf("deriving SRP6 session: %w", err))
		return
	}

	proof := clientpackets.LogonProof(srp.PublicKey(), srp.ClientProof(), srp.CRCHash(ch.CRCSalt))

	c.mu.Lock()
	c.srp = srp
	c.password = ""
	c.state = StateProofSent
	c.mu.Unlock()

	c.reasm.Expect(protocol.AuthLogonProof)
	if err := c.pipe.Send(protocol.AuthLogonProof, proof); err != nil {
		c.failLogin(fmt.Errorf("sending logon proof: %w", err))
	}
}

func (c *Client) handleProof(payload []byte) {
	c.mu.Lock()
	if c.state != StateProofSent {
		c.mu.Unlock()
		slog.Warn("unexpected logon proof response", "state", c.state)
		return
	}
	srp := c.srp
	host := c.host
	done := c.loginDone
	c.mu.Unlock()

	result, pr, err := serverpackets.ParseProof(payload)
	if err != nil {
		c.failLogin(fmt.Errorf("malformed proof response: %w", err))
		return
	}
	if result != protocol.AuthResultSuccess {
		c.failLogin(fmt.Errorf("logon proof rejected: code 0x%02X", result))
		return
	}
	if !srp.VerifyServerProof(pr.ServerProof) {
		c.failLogin(errors.New("server proof verification failed"))
		return
	}

	c.mu.Lock()
	c.state = StateAuthenticated
	c.session = &Session{
		Username: srp.Username(),
		Key:      srp.SessionKey(),
		ServerIP: host,
	}
	c.mu.Unlock()

	slog.Info("authenticated", "account", srp.Username(), "flags", pr.AccountFlags)
	if done != nil {
		done.Complete(nil)
	}
}

func (c *Client) handleRealmList(payload []byte) {
	realms, err := serverpackets.ParseRealmList(payload)
	if err != nil {
		slog.Warn("malformed realm list response", "error", err)
		realms = nil
	}

	c.mu.Lock()
	done := c.realmsDone
	c.mu.Unlock()

	if done != nil {
		done.Complete(realms)
	}
}
