package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eop-online/eop-client/internal/channel"
	"github.com/eop-online/eop-client/internal/config"
	"github.com/eop-online/eop-client/internal/gateway"
	"github.com/eop-online/eop-client/internal/session"
	"github.com/eop-online/eop-client/internal/state"
)

// logUI prints notices and redirects; this binary is the headless stand-in
// for the browser page.
type logUI struct {
	log    *zap.Logger
	cancel context.CancelFunc
}

func (u *logUI) Notify(text string) { u.log.Info("notice", zap.String("text", text)) }

func (u *logUI) Redirect(reason string) {
	u.log.Info("leaving game view", zap.String("reason", reason))
	u.cancel()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.GameID == "" {
		fmt.Fprintln(os.Stderr, "EOP_GAME_ID is required")
		os.Exit(1)
	}

	log, err := buildLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gw := gateway.New(cfg.ServerURL, log.Named("gateway"))
	store := state.NewStore(ctx, state.New(), log.Named("store"))
	defer store.Shutdown()

	ui := &logUI{log: log, cancel: cancel}
	ctrl := session.NewController(cfg.GameID, gw, nil, store, ui, log.Named("session"))

	channels := channel.NewManager(cfg.WebSocketURL, ctrl.OnConnected, log.Named("channel"))
	defer channels.CloseAll()
	ctrl.SetChannels(channels)

	log.Info("attaching to game",
		zap.String("server", cfg.ServerURL),
		zap.String("game", cfg.GameID))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctrl.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("session ended", zap.Error(err))
	}
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
