package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jtafstn/webidle/internal/player"
)

// LoopHooks are invoked from the loop goroutine.
type LoopHooks struct {
	OnTick func(TickResult, player.State)
	OnSave func(error)
}

type LoopConfig struct {
	TickInterval     time.Duration
	AutosaveInterval time.Duration
}

// Loop drives a session's production tick and autosave while running.
// It can be stopped and started again; state stays in the session.
type Loop struct {
	session *Session
	clock   Clock
	cfg     LoopConfig
	hooks   LoopHooks
	log     *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewLoop(s *Session, cfg LoopConfig, hooks LoopHooks) *Loop {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = s.tick
	}
	return &Loop{session: s, clock: s.clock, cfg: cfg, hooks: hooks, log: s.log}
}

// Start launches the loop. It reports false when already running.
func (l *Loop) Start() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		return false
	}
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.run(l.stop, l.done)
	l.log.Info("game loop started", "tick", l.cfg.TickInterval.String(), "autosave", l.cfg.AutosaveInterval.String())
	return true
}

// Stop halts the loop and waits for the goroutine to exit. It does not
// save; callers that shut down call Session.Save themselves.
func (l *Loop) Stop() {
	l.mu.Lock()
	stop, done := l.stop, l.done
	l.stop, l.done = nil, nil
	l.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
	l.log.Info("game loop stopped")
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stop != nil
}

func (l *Loop) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	tick := l.clock.NewTicker(l.cfg.TickInterval)
	defer tick.Stop()

	var autosave <-chan time.Time
	if l.cfg.AutosaveInterval > 0 {
		t := l.clock.NewTicker(l.cfg.AutosaveInterval)
		defer t.Stop()
		autosave = t.C()
	}

	for {
		select {
		case <-stop:
			return
		case <-tick.C():
			res, st := l.session.Tick()
			if len(res.Unlocked) > 0 {
				l.log.Debug("items unlocked", "ids", res.Unlocked)
			}
			if l.hooks.OnTick != nil {
				l.hooks.OnTick(res, st)
			}
		case <-autosave:
			err := l.session.Save(context.Background())
			if l.hooks.OnSave != nil {
				l.hooks.OnSave(err)
			}
		}
	}
}
