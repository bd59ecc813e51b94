// Package game owns the single live player session: it serializes every
// mutation, drives the production tick and persists the save blob.
package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jtafstn/webidle/internal/economy"
	"github.com/jtafstn/webidle/internal/player"
	"github.com/jtafstn/webidle/internal/storage"
	"github.com/jtafstn/webidle/internal/telemetry"
)

type Options struct {
	Engine  *economy.Engine
	Store   storage.Store
	SaveKey string
	Clock   Clock
	Logger  *slog.Logger
	Events  telemetry.Repository

	// TickInterval and OfflineCatchUp control how much production is
	// credited for time spent without a running session.
	TickInterval   time.Duration
	OfflineCatchUp time.Duration
}

// Session is the one logical thread that owns the player state. All
// methods are safe for concurrent use.
type Session struct {
	mu    sync.Mutex
	state player.State

	engine  *economy.Engine
	store   storage.Store
	key     string
	clock   Clock
	log     *slog.Logger
	events  telemetry.Repository
	tick    time.Duration
	offline time.Duration
}

// LoadResult summarizes what Load found in the store.
type LoadResult struct {
	Found   bool          `json:"found"`
	Report  player.Report `json:"report"`
	Offline int64         `json:"offline_gold"`
}

// TickResult is what one tick produced.
type TickResult struct {
	At       time.Time `json:"at"`
	Gained   int64     `json:"gained"`
	Unlocked []string  `json:"unlocked,omitempty"`
}

func NewSession(opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SaveKey == "" {
		opts.SaveKey = "webidle-save"
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	return &Session{
		state:   player.Default(opts.Clock.Now()),
		engine:  opts.Engine,
		store:   opts.Store,
		key:     opts.SaveKey,
		clock:   opts.Clock,
		log:     opts.Logger,
		events:  opts.Events,
		tick:    opts.TickInterval,
		offline: opts.OfflineCatchUp,
	}
}

func (s *Session) Engine() *economy.Engine { return s.engine }

// Load replaces the live state with the stored save. Store failures and
// malformed payloads are logged and degrade to a fresh default state.
func (s *Session) Load(ctx context.Context) LoadResult {
	now := s.clock.Now()
	var res LoadResult

	raw, found, err := s.store.Get(ctx, s.key)
	if err != nil {
		s.log.Warn("save load failed, using defaults", "key", s.key, "err", err)
		s.record(telemetry.EventSaveFailed, telemetry.EventMetadata{"op": "load", "err": err.Error()})
		raw, found = nil, false
	}
	res.Found = found

	st, rep := player.Reconcile(raw, now)
	res.Report = rep
	switch {
	case rep.Malformed:
		s.log.Warn("save payload malformed, using defaults", "key", s.key, "bytes", len(raw))
		s.record(telemetry.EventSaveMalformed, telemetry.EventMetadata{"bytes": len(raw)})
	case len(rep.Migrated) > 0:
		s.log.Info("save migrated", "key", s.key, "from", rep.FromVersion, "to", player.SchemaVersion)
		s.record(telemetry.EventSaveMigrated, telemetry.EventMetadata{"from": rep.FromVersion})
	}
	if len(rep.Coerced) > 0 {
		s.log.Info("save fields coerced", "key", s.key, "fields", rep.Coerced)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	if found && !rep.Malformed {
		res.Offline = s.catchUpLocked(now)
	}
	s.engine.SyncUnlocked(&s.state)
	s.record(telemetry.EventSaveLoaded, telemetry.EventMetadata{"found": found, "gold": s.state.Gold})
	return res
}

func (s *Session) catchUpLocked(now time.Time) int64 {
	if s.offline <= 0 {
		return 0
	}
	elapsed := now.Sub(time.UnixMilli(s.state.LastSeenMs))
	if elapsed <= 0 {
		return 0
	}
	if elapsed > s.offline {
		elapsed = s.offline
	}
	gained := s.engine.TickN(&s.state, int64(elapsed/s.tick))
	if gained > 0 {
		s.log.Info("offline production credited", "gold", gained, "elapsed", elapsed.String())
	}
	return gained
}

// Save stamps and writes the current state. The session keeps running
// when the store fails; the error is returned for callers that report it.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	s.state.Touch(s.clock.Now())
	b, err := json.Marshal(s.state)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}

	if err := s.store.Put(ctx, s.key, b); err != nil {
		s.log.Warn("save write failed", "key", s.key, "err", err)
		s.record(telemetry.EventSaveFailed, telemetry.EventMetadata{"op": "store", "err": err.Error()})
		return fmt.Errorf("store save: %w", err)
	}
	s.record(telemetry.EventSaveWritten, telemetry.EventMetadata{"bytes": len(b)})
	return nil
}

// Reset discards progress and persists the fresh record.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.state = player.Default(s.clock.Now())
	s.engine.SyncUnlocked(&s.state)
	s.mu.Unlock()
	s.record(telemetry.EventStateReset, nil)
	return s.Save(ctx)
}

// Snapshot returns a deep copy of the live state.
func (s *Session) Snapshot() player.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Do runs fn with exclusive access to the live state.
func (s *Session) Do(fn func(e *economy.Engine, st *player.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.engine, &s.state)
}

// Purchase buys an item and refreshes unlocks so the next listing is
// current.
func (s *Session) Purchase(id string) (economy.Result, player.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.engine.Purchase(&s.state, id)
	if res.Success {
		s.engine.SyncUnlocked(&s.state)
	}
	return res, s.state.Clone()
}

func (s *Session) Learn(id string) (economy.Result, player.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.engine.Learn(&s.state, id)
	if res.Success {
		s.engine.SyncUnlocked(&s.state)
	}
	return res, s.state.Clone()
}

func (s *Session) Act() (int64, player.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gained := s.engine.Act(&s.state)
	s.engine.SyncUnlocked(&s.state)
	return gained, s.state.Clone()
}

// Tick credits one production tick.
func (s *Session) Tick() (TickResult, player.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := TickResult{At: s.clock.Now()}
	res.Gained = s.engine.Tick(&s.state)
	res.Unlocked = s.engine.SyncUnlocked(&s.state)
	return res, s.state.Clone()
}

func (s *Session) record(event telemetry.EventType, md telemetry.EventMetadata) {
	if s.events == nil {
		return
	}
	_ = s.events.RecordEvent(event, md)
}
