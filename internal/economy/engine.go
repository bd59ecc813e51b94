// Package economy implements the purchase, learn and unlock protocol over a
// catalog and an explicitly passed player state.
package economy

import (
	"github.com/jtafstn/webidle/internal/catalog"
	"github.com/jtafstn/webidle/internal/player"
	"github.com/jtafstn/webidle/internal/telemetry"
)

// Engine is stateless apart from its catalog. Callers serialize access to
// the state they pass in.
type Engine struct {
	cat    *catalog.Catalog
	events telemetry.Repository
}

// New returns an engine over cat. events may be nil.
func New(cat *catalog.Catalog, events telemetry.Repository) *Engine {
	return &Engine{cat: cat, events: events}
}

func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Purchase buys an item. Preconditions are checked in order and the first
// failure aborts without touching s. On success the commit order is debit,
// effects, then mark owned, so effects observe the item as not yet owned.
func (e *Engine) Purchase(s *player.State, id string) Result {
	d, ok := e.cat.Item(id)
	if !ok {
		return e.refuse(telemetry.EventPurchaseFailed, id, ReasonUnknownItem, 0)
	}
	if !d.Repeatable && s.Upgrades.Has(id) {
		return e.refuse(telemetry.EventPurchaseFailed, id, ReasonAlreadyOwned, 0)
	}
	if !d.Unlocked(s) {
		return e.refuse(telemetry.EventPurchaseFailed, id, ReasonLocked, 0)
	}
	cost := d.Price(s)
	if cost < 0 || !s.Spend(cost) {
		return e.refuse(telemetry.EventPurchaseFailed, id, ReasonInsufficientFunds, cost)
	}
	d.Apply(s)
	if !d.Repeatable {
		s.Upgrades.Add(id)
	}
	s.RefreshMaxGold()

	e.record(telemetry.EventPurchase, telemetry.EventMetadata{"id": id, "cost": cost, "gold": s.Gold})
	return Result{ID: id, Success: true, Cost: cost}
}

// Learn acquires a skill. Unlike Purchase the skill is marked learned
// before its effects run, so effects counting learned skills include it.
func (e *Engine) Learn(s *player.State, id string) Result {
	d, ok := e.cat.Skill(id)
	if !ok {
		return e.refuse(telemetry.EventLearnFailed, id, ReasonUnknownItem, 0)
	}
	if s.LearnedSkills.Has(id) {
		return e.refuse(telemetry.EventLearnFailed, id, ReasonAlreadyOwned, 0)
	}
	if !d.Unlocked(s) {
		return e.refuse(telemetry.EventLearnFailed, id, ReasonLocked, 0)
	}
	cost := d.Price(s)
	if cost < 0 || !s.Spend(cost) {
		return e.refuse(telemetry.EventLearnFailed, id, ReasonInsufficientFunds, cost)
	}
	s.LearnedSkills.Add(id)
	d.Apply(s)
	s.RefreshMaxGold()

	e.record(telemetry.EventSkillLearned, telemetry.EventMetadata{"id": id, "cost": cost, "gold": s.Gold})
	return Result{ID: id, Success: true, Cost: cost}
}

// SyncUnlocked records every non-owned item whose predicate currently
// holds. It never removes ids and returns the ones added by this call.
func (e *Engine) SyncUnlocked(s *player.State) []string {
	var added []string
	for _, d := range e.cat.Items() {
		if s.Upgrades.Has(d.ID) || s.UnlockedItems.Has(d.ID) {
			continue
		}
		if d.Unlocked(s) && s.UnlockedItems.Add(d.ID) {
			added = append(added, d.ID)
			e.record(telemetry.EventItemUnlocked, telemetry.EventMetadata{"id": d.ID})
		}
	}
	return added
}

// Tick credits one tick of production and returns the whole gold added.
func (e *Engine) Tick(s *player.State) int64 {
	return s.Accrue(s.GPS)
}

// TickN credits n ticks at the current rate, used for offline catch-up.
func (e *Engine) TickN(s *player.State, n int64) int64 {
	if n <= 0 {
		return 0
	}
	return s.Accrue(s.GPS * float64(n))
}

// Act credits one manual action.
func (e *Engine) Act(s *player.State) int64 {
	gained := s.Accrue(s.GPC)
	e.record(telemetry.EventAction, telemetry.EventMetadata{"gained": gained})
	return gained
}

func (e *Engine) refuse(event telemetry.EventType, id string, reason Reason, cost int64) Result {
	e.record(event, telemetry.EventMetadata{"id": id, "reason": string(reason)})
	return Result{ID: id, Reason: reason, Cost: cost}
}

func (e *Engine) record(event telemetry.EventType, md telemetry.EventMetadata) {
	if e.events == nil {
		return
	}
	_ = e.events.RecordEvent(event, md)
}
