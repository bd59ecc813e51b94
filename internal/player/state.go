// Package player holds the persisted progress record and the logic that
// reconciles a loaded save blob against the current schema.
package player

import (
	"math"
	"sort"
	"time"
)

// SchemaVersion is stamped on every load and save.
const SchemaVersion = 2

// Well-known counter names used by the shipped catalog.
const (
	CounterRep           = "rep"
	CounterStaff         = "staff"
	CounterShopExpansion = "shop_expansion"
	CounterCoreLevel     = "core_level"
	CounterMeat          = "meat"
	CounterVeg           = "veg"
	CounterGrain         = "grain"
)

// Counters are free-form non-negative counters used by item effects.
type Counters map[string]int64

func (c Counters) Get(name string) int64 { return c[name] }

// Names returns the counter names in sorted order.
func (c Counters) Names() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// State is the single mutable progress aggregate.
type State struct {
	SaveVersion   int      `json:"saveVersion"`
	Gold          int64    `json:"gold"`
	MaxGold       int64    `json:"maxGold"`
	GPS           float64  `json:"gps"`
	GPC           float64  `json:"gpc"`
	Upgrades      IDSet    `json:"upgrades"`
	UnlockedItems IDSet    `json:"unlockedItems"`
	LearnedSkills IDSet    `json:"learnedSkills"`
	Counters      Counters `json:"counters"`
	LastSeenMs    int64    `json:"lastSeenMs"`

	// fractional gold not yet credited; in memory only
	carry float64
}

// Default returns the canonical fresh record.
func Default(now time.Time) State {
	return State{
		SaveVersion:   SchemaVersion,
		Upgrades:      NewIDSet(),
		UnlockedItems: NewIDSet(),
		LearnedSkills: NewIDSet(),
		Counters:      Counters{},
		LastSeenMs:    now.UnixMilli(),
	}
}

// Counter reads a counter; missing counters are zero.
func (s *State) Counter(name string) int64 {
	return s.Counters[name]
}

// SetCounter stores a counter, clamping at zero.
func (s *State) SetCounter(name string, v int64) {
	if s.Counters == nil {
		s.Counters = Counters{}
	}
	if v < 0 {
		v = 0
	}
	s.Counters[name] = v
}

func (s *State) AddCounter(name string, delta int64) {
	v := s.Counter(name)
	switch {
	case delta > 0 && v > math.MaxInt64-delta:
		v = math.MaxInt64
	case delta < 0 && v < math.MinInt64-delta:
		v = 0
	default:
		v += delta
	}
	s.SetCounter(name, v)
}

// AddGold credits gold and refreshes the high-water mark.
func (s *State) AddGold(amount int64) {
	if amount <= 0 {
		return
	}
	if s.Gold > math.MaxInt64-amount {
		s.Gold = math.MaxInt64
	} else {
		s.Gold += amount
	}
	s.RefreshMaxGold()
}

// Accrue credits a possibly fractional amount, carrying the remainder to
// the next call. It returns the whole gold credited.
func (s *State) Accrue(amount float64) int64 {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	total := s.carry + amount
	whole := math.Floor(total)
	s.carry = total - whole
	credit := int64(math.MaxInt64)
	if whole < math.MaxInt64 {
		credit = int64(whole)
	}
	before := s.Gold
	s.AddGold(credit)
	return s.Gold - before
}

// Spend debits gold if affordable.
func (s *State) Spend(amount int64) bool {
	if amount < 0 || s.Gold < amount {
		return false
	}
	s.Gold -= amount
	return true
}

func (s *State) RefreshMaxGold() {
	if s.Gold > s.MaxGold {
		s.MaxGold = s.Gold
	}
}

// Clone returns a deep copy that shares nothing with s.
func (s State) Clone() State {
	out := s
	out.Upgrades = s.Upgrades.Clone()
	out.UnlockedItems = s.UnlockedItems.Clone()
	out.LearnedSkills = s.LearnedSkills.Clone()
	out.Counters = make(Counters, len(s.Counters))
	for k, v := range s.Counters {
		out.Counters[k] = v
	}
	return out
}

// Touch stamps the save metadata before serialization.
func (s *State) Touch(now time.Time) {
	s.SaveVersion = SchemaVersion
	s.LastSeenMs = now.UnixMilli()
}
