// Package bot ties the auth and world clients together into one headless
// game client: login, realm selection, world session, and reconnection on
// an unexpected disconnect.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/udisondev/wowcli/internal/auth"
	"github.com/udisondev/wowcli/internal/config"
	"github.com/udisondev/wowcli/internal/journal"
	"github.com/udisondev/wowcli/internal/protocol"
	"github.com/udisondev/wowcli/internal/transport"
	"github.com/udisondev/wowcli/internal/world"
	"github.com/udisondev/wowcli/internal/world/serverpackets"
)

// ErrNoRealms is returned when the login server advertises an empty universe.
var ErrNoRealms = errors.New("no realms advertised")

// ErrRealmNotFound is returned when the preferred realm is not advertised.
var ErrRealmNotFound = errors.New("preferred realm not advertised")

// Bot owns one auth client and one world client and sequences them:
// Login → RealmList → ConnectToRealm. Gameplay traffic is proxied through
// Send/Subscribe; Close disposes both clients together.
type Bot struct {
	cfg     config.Client
	journal *journal.Journal
	auth    *auth.Client
	world   *world.Client

	// disconnects carries world disconnect causes to the Run loop.
	disconnects chan error

	mu         sync.Mutex
	realm      auth.Realm
	sessionRow int64
}

// New creates a bot from configuration. j may be nil to disable journaling.
func New(cfg config.Client, j *journal.Journal) *Bot {
	timeout := time.Duration(cfg.Auth.LoginTimeout) * time.Second
	b := &Bot{
		cfg:         cfg,
		journal:     j,
		auth:        auth.NewClient(auth.WithTimeout(timeout)),
		world:       world.NewClient(world.WithTimeout(timeout)),
		disconnects: make(chan error, 1),
	}
	b.world.OnDisconnect(b.onWorldDisconnect)
	return b
}

// Login authenticates against the configured login server.
func (b *Bot) Login(ctx context.Context) error {
	err := b.auth.Login(ctx, b.cfg.Account.Username, b.cfg.Account.Password, b.cfg.Auth.Host, b.cfg.Auth.Port)
	b.journal.LoginAttempt(b.cfg.Account.Username, b.cfg.Auth.Host, err)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// RealmList fetches the advertised realms.
func (b *Bot) RealmList(ctx context.Context) ([]auth.Realm, error) {
	realms, err := b.auth.GetRealmList(ctx)
	if err != nil {
		return nil, fmt.Errorf("realm list: %w", err)
	}
	b.journal.RealmSnapshot(realms)
	return realms, nil
}

// SelectRealm picks the configured preferred realm by name, or the first
// advertised one when no preference is set.
func (b *Bot) SelectRealm(realms []auth.Realm) (auth.Realm, error) {
	if len(realms) == 0 {
		return auth.Realm{}, ErrNoRealms
	}
	preferred := b.cfg.World.PreferredRealm
	if preferred == "" {
		return realms[0], nil
	}
	for _, r := range realms {
		if strings.EqualFold(r.Name, preferred) {
			return r, nil
		}
	}
	return auth.Realm{}, fmt.Errorf("%w: %q", ErrRealmNotFound, preferred)
}

// ConnectToRealm opens the world session on realm using the session key
// from the last successful login.
func (b *Bot) ConnectToRealm(ctx context.Context, realm auth.Realm) error {
	sess := b.auth.Session()
	if sess == nil {
		return auth.ErrNotAuthenticated
	}

	port := realm.Port
	if b.cfg.World.Port != 0 {
		port = b.cfg.World.Port
	}

	if err := b.world.Connect(ctx, sess.Username, realm.Host, sess.Key, port); err != nil {
		return fmt.Errorf("world connect to %s: %w", realm.Name, err)
	}

	b.mu.Lock()
	b.realm = realm
	b.sessionRow = b.journal.SessionStart(realm.Name)
	b.mu.Unlock()

	slog.Info("realm session up", "realm", realm.Name, "host", realm.Host, "port", port)
	return nil
}

// Run performs the full sequence: login, realm list, realm selection, world
// connect. On an unexpected world disconnect it repeats the sequence under
// the configured backoff policy until the attempt cap is exhausted or ctx
// ends.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.sequence(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-b.disconnects:
			if err == nil {
				// Graceful close ends the run.
				return nil
			}
			slog.Warn("world session lost", "error", err)
			rc := transport.NewReconnector(b.reconnectPolicy(), b.sequence)
			if rcErr := rc.Run(ctx); rcErr != nil {
				return fmt.Errorf("recovering session: %w", rcErr)
			}
		}
	}
}

// Send proxies one gameplay message to the world session.
func (b *Bot) Send(op protocol.Opcode, payload []byte) error {
	return b.world.SendOpcode(op, payload)
}

// Subscribe proxies an opcode subscription on the world session.
func (b *Bot) Subscribe(op protocol.Opcode) <-chan []byte {
	return b.world.Subscribe(op)
}

// AttackEvents proxies the decoded combat notification stream.
func (b *Bot) AttackEvents() <-chan serverpackets.AttackEvent {
	return b.world.AttackEvents()
}

// Close disposes both clients together.
func (b *Bot) Close() {
	b.world.Close()
	b.auth.Close()
}

// sequence is one full login→realm→world pass; it is also the reconnect
// unit, because the session key is only valid for the login that minted it.
func (b *Bot) sequence(ctx context.Context) error {
	if err := b.Login(ctx); err != nil {
		return err
	}
	realms, err := b.RealmList(ctx)
	if err != nil {
		return err
	}
	realm, err := b.SelectRealm(realms)
	if err != nil {
		return err
	}
	return b.ConnectToRealm(ctx, realm)
}

func (b *Bot) reconnectPolicy() transport.ReconnectPolicy {
	p := transport.DefaultReconnectPolicy()
	if b.cfg.Reconnect.MaxAttempts > 0 {
		p.MaxAttempts = b.cfg.Reconnect.MaxAttempts
	}
	if b.cfg.Reconnect.InitialDelay > 0 {
		p.InitialDelay = time.Duration(b.cfg.Reconnect.InitialDelay) * time.Second
	}
	if b.cfg.Reconnect.MaxDelay > 0 {
		p.MaxDelay = time.Duration(b.cfg.Reconnect.MaxDelay) * time.Second
	}
	return p
}

func (b *Bot) onWorldDisconnect(err error) {
	b.mu.Lock()
	row := b.sessionRow
	realm := b.realm.Name
	b.sessionRow = 0
	b.mu.Unlock()

	slog.Debug("world session closed", "realm", realm, "error", err)
	b.journal.SessionEnd(row, err)

	select {
	case b.disconnects <- err:
	default:
		slog.Debug("disconnect event dropped, no active run loop")
	}
}
