package catalog

import (
	"fmt"
	"math"

	"github.com/jtafstn/webidle/internal/player"
)

type EffectKind string

const (
	EffAddGold            EffectKind = "add_gold"
	EffAddProduction      EffectKind = "add_production"
	EffAddCounter         EffectKind = "add_counter"
	EffSetCounter         EffectKind = "set_counter"
	EffProductionPerOwned EffectKind = "production_per_owned"
)

// Sources counted by production_per_owned.
const (
	SourceUpgrades = "upgrades"
	SourceSkills   = "skills"
)

// Effect is one state mutation applied on purchase or learn.
type Effect struct {
	Kind     EffectKind `yaml:"kind" json:"kind"`
	Amount   float64    `yaml:"amount,omitempty" json:"amount,omitempty"`
	Counter  string     `yaml:"counter,omitempty" json:"counter,omitempty"`
	Value    int64      `yaml:"value,omitempty" json:"value,omitempty"`
	CapTable string     `yaml:"cap_table,omitempty" json:"cap_table,omitempty"`
	Prefix   string     `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Ratio    float64    `yaml:"ratio,omitempty" json:"ratio,omitempty"`
	Source   string     `yaml:"source,omitempty" json:"source,omitempty"`
}

func (e Effect) apply(s *player.State, tables map[string]Table) {
	switch e.Kind {
	case EffAddGold:
		s.AddGold(int64(e.Amount))
	case EffAddProduction:
		s.GPS += e.Amount
	case EffAddCounter:
		limit, capped := int64(0), e.CapTable != ""
		if capped {
			limit = tables[e.CapTable].Lookup(s)
		}
		s.AddCounter(e.Counter, int64(e.Amount))
		if capped && s.Counter(e.Counter) > limit {
			s.SetCounter(e.Counter, limit)
		}
	case EffSetCounter:
		s.SetCounter(e.Counter, e.Value)
	case EffProductionPerOwned:
		s.GPS += perOwnedBonus(e.Ratio, countOwned(s, e.Source, e.Prefix))
	}
}

func perOwnedBonus(ratio float64, owned int) float64 {
	return math.Round(ratio * float64(owned))
}

func countOwned(s *player.State, source, prefix string) int {
	if source == SourceSkills {
		return s.LearnedSkills.CountPrefix(prefix)
	}
	return s.Upgrades.CountPrefix(prefix)
}

func (e Effect) validate(tables map[string]Table) error {
	switch e.Kind {
	case EffAddGold:
		if e.Amount < 0 || e.Amount != math.Trunc(e.Amount) {
			return fmt.Errorf("%w: add_gold amount must be a whole non-negative number", ErrInvalidDocument)
		}
	case EffAddProduction:
		if e.Amount < 0 {
			return fmt.Errorf("%w: negative production", ErrInvalidDocument)
		}
	case EffAddCounter:
		if e.Counter == "" {
			return fmt.Errorf("%w: add_counter without counter", ErrInvalidDocument)
		}
		if e.Amount != math.Trunc(e.Amount) {
			return fmt.Errorf("%w: add_counter amount must be whole", ErrInvalidDocument)
		}
		if e.CapTable != "" {
			if _, ok := tables[e.CapTable]; !ok {
				return fmt.Errorf("%w: unknown table %q", ErrInvalidDocument, e.CapTable)
			}
		}
	case EffSetCounter:
		if e.Counter == "" {
			return fmt.Errorf("%w: set_counter without counter", ErrInvalidDocument)
		}
	case EffProductionPerOwned:
		if e.Source != SourceUpgrades && e.Source != SourceSkills {
			return fmt.Errorf("%w: production_per_owned source %q", ErrInvalidDocument, e.Source)
		}
		if e.Ratio < 0 {
			return fmt.Errorf("%w: negative ratio", ErrInvalidDocument)
		}
	default:
		return fmt.Errorf("%w: unknown effect kind %q", ErrInvalidDocument, e.Kind)
	}
	return nil
}
