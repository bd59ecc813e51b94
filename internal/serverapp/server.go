package serverapp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jtafstn/webidle/internal/api"
	"github.com/jtafstn/webidle/internal/game"
	"github.com/jtafstn/webidle/internal/httpmw"
	"github.com/jtafstn/webidle/internal/live"
	"github.com/jtafstn/webidle/internal/player"
	"github.com/jtafstn/webidle/internal/storage"
	"github.com/jtafstn/webidle/internal/telemetry"
)

type Options struct {
	Session *game.Session
	Store   storage.Store
	Hub     *live.Hub
	Events  telemetry.Repository
	Lang    string
	Logger  *slog.Logger
	Now     func() time.Time
}

func NewHandler(opts Options) (http.Handler, error) {
	if opts.Session == nil {
		return nil, errors.New("session is required")
	}
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "webidle",
			"time":    opts.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if _, err := opts.Store.Keys(ctx); err != nil {
			opts.Logger.Warn("readiness check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "save storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "webidle",
			"time":    opts.Now().UTC().Format(time.RFC3339),
		})
	})

	api.NewHandler(api.Options{
		Session: opts.Session,
		Events:  opts.Events,
		Lang:    opts.Lang,
		Logger:  opts.Logger,
		Now:     opts.Now,
	}).Register(mux)

	if opts.Hub != nil {
		mux.Handle("GET /ws", opts.Hub)
	}

	return httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Logger),
	), nil
}

// TickFeed returns loop hooks that mirror session activity onto the hub.
func TickFeed(hub *live.Hub) game.LoopHooks {
	return game.LoopHooks{
		OnTick: func(res game.TickResult, st player.State) {
			hub.Publish(live.MessageTick, map[string]any{"gained": res.Gained, "at": res.At, "state": st})
			if len(res.Unlocked) > 0 {
				hub.Publish(live.MessageUnlocked, res.Unlocked)
			}
		},
		OnSave: func(err error) {
			hub.Publish(live.MessageSaved, map[string]any{"ok": err == nil})
		},
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
