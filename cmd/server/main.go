package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jtafstn/webidle/internal/config"
	"github.com/jtafstn/webidle/internal/economy"
	"github.com/jtafstn/webidle/internal/game"
	"github.com/jtafstn/webidle/internal/live"
	"github.com/jtafstn/webidle/internal/serverapp"
	"github.com/jtafstn/webidle/internal/storage"
	"github.com/jtafstn/webidle/internal/telemetry"
)

func main() {
	envCfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: envCfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, envCfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

type app struct {
	cfg     *config.Config
	store   storage.Store
	session *game.Session
	loop    *game.Loop
	hub     *live.Hub
	handler http.Handler
	log     *slog.Logger
}

func newApp(envCfg config.Env, clock game.Clock, logger *slog.Logger) (*app, error) {
	cfg, err := config.Load(envCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	envCfg.Overlay(cfg)

	cat, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(envCfg.Store, envCfg.DataDir)
	if err != nil {
		return nil, err
	}

	events := telemetry.NewMemoryRepositoryWithClock(telemetry.DefaultCapacity, clock.Now)
	session := game.NewSession(game.Options{
		Engine:         economy.New(cat, events),
		Store:          store,
		SaveKey:        cfg.Game.SaveKey,
		Clock:          clock,
		Logger:         logger,
		Events:         events,
		TickInterval:   cfg.Game.TickInterval,
		OfflineCatchUp: cfg.Game.OfflineCatchUp,
	})

	hub := live.NewHub(logger)
	hub.Hello = func() live.Message {
		return live.Message{Type: live.MessageState, Payload: session.Snapshot()}
	}
	loop := game.NewLoop(session, game.LoopConfig{
		TickInterval:     cfg.Game.TickInterval,
		AutosaveInterval: cfg.Game.AutosaveInterval,
	}, serverapp.TickFeed(hub))

	handler, err := serverapp.NewHandler(serverapp.Options{
		Session: session,
		Store:   store,
		Hub:     hub,
		Events:  events,
		Lang:    envCfg.Lang,
		Logger:  logger,
		Now:     clock.Now,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build server: %w", err)
	}

	return &app{
		cfg:     cfg,
		store:   store,
		session: session,
		loop:    loop,
		hub:     hub,
		handler: handler,
		log:     logger,
	}, nil
}

// start loads the save and begins ticking.
func (a *app) start(ctx context.Context) {
	res := a.session.Load(ctx)
	a.log.Info("save loaded",
		"key", a.cfg.Game.SaveKey,
		"found", res.Found,
		"malformed", res.Report.Malformed,
		"offline_gold", res.Offline,
		"difficulty", a.cfg.Difficulty,
	)
	go a.hub.Run(ctx)
	a.loop.Start()
}

// shutdown stops ticking, writes a final save and releases the store.
func (a *app) shutdown(ctx context.Context) error {
	a.loop.Stop()
	saveErr := a.session.Save(ctx)
	closeErr := a.store.Close()
	return errors.Join(saveErr, closeErr)
}

func run(ctx context.Context, envCfg config.Env, logger *slog.Logger) error {
	a, err := newApp(envCfg, game.RealClock{}, logger)
	if err != nil {
		return err
	}
	a.start(ctx)

	srv := &http.Server{
		Addr:              envCfg.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", envCfg.Addr, "store", envCfg.Store, "data_dir", envCfg.DataDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = a.shutdown(context.Background())
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	return a.shutdown(shutdownCtx)
}
