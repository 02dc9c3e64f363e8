package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/wowcli/internal/bot"
	"github.com/udisondev/wowcli/internal/config"
	"github.com/udisondev/wowcli/internal/journal"
)

const ConfigPath = "config/wowcli.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cancel); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc) error {
	// Configure slog
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	slog.Info("wowcli starting")

	// Load config
	cfgPath := ConfigPath
	if p := os.Getenv("WOWCLI_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadClient(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Credentials may come from the environment instead of the file
	if u := os.Getenv("WOWCLI_USERNAME"); u != "" {
		cfg.Account.Username = u
	}
	if p := os.Getenv("WOWCLI_PASSWORD"); p != "" {
		cfg.Account.Password = p
	}
	if cfg.Account.Username == "" || cfg.Account.Password == "" {
		return fmt.Errorf("account credentials missing (config or WOWCLI_USERNAME/WOWCLI_PASSWORD)")
	}
	slog.Info("config loaded", "auth", cfg.Auth.Host, "port", cfg.Auth.Port, "account", cfg.Account.Username)

	// Open the session journal when configured
	var j *journal.Journal
	if cfg.Journal.Path != "" {
		j, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer j.Close()
	}

	b := bot.New(cfg, j)
	defer b.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer stop() // a finished run ends the event loop too
		if err := b.Run(gctx); err != nil {
			return fmt.Errorf("client: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		events := b.AttackEvents()
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				slog.Info("combat", "action", ev.Action.String(), "attacker", ev.Attacker, "target", ev.Target)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
