package catalog

import (
	"fmt"

	"github.com/jtafstn/webidle/internal/player"
)

type ConditionKind string

const (
	CondAlways            ConditionKind = "always"
	CondOwns              ConditionKind = "owns"
	CondMaxGoldAtLeast    ConditionKind = "max_gold_at_least"
	CondCounterEquals     ConditionKind = "counter_equals"
	CondCounterAtLeast    ConditionKind = "counter_at_least"
	CondCounterBelowTable ConditionKind = "counter_below_table"
	CondAll               ConditionKind = "all"
)

// Condition is an unlock predicate evaluated against live state. The zero
// value behaves as always.
type Condition struct {
	Kind       ConditionKind `yaml:"kind" json:"kind"`
	ID         string        `yaml:"id,omitempty" json:"id,omitempty"`
	Counter    string        `yaml:"counter,omitempty" json:"counter,omitempty"`
	Value      int64         `yaml:"value,omitempty" json:"value,omitempty"`
	Table      string        `yaml:"table,omitempty" json:"table,omitempty"`
	Conditions []Condition   `yaml:"conditions,omitempty" json:"conditions,omitempty"`
}

func Always() Condition              { return Condition{Kind: CondAlways} }
func Owns(id string) Condition       { return Condition{Kind: CondOwns, ID: id} }
func AllOf(c ...Condition) Condition { return Condition{Kind: CondAll, Conditions: c} }

func (c Condition) eval(s *player.State, tables map[string]Table) bool {
	switch c.Kind {
	case CondOwns:
		return s.Upgrades.Has(c.ID)
	case CondMaxGoldAtLeast:
		return s.MaxGold >= c.Value
	case CondCounterEquals:
		return s.Counter(c.Counter) == c.Value
	case CondCounterAtLeast:
		return s.Counter(c.Counter) >= c.Value
	case CondCounterBelowTable:
		return s.Counter(c.Counter) < tables[c.Table].Lookup(s)
	case CondAll:
		for _, sub := range c.Conditions {
			if !sub.eval(s, tables) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (c Condition) validate(tables map[string]Table) error {
	switch c.Kind {
	case "", CondAlways, CondMaxGoldAtLeast:
	case CondOwns:
		if c.ID == "" {
			return fmt.Errorf("%w: owns condition without id", ErrInvalidDocument)
		}
	case CondCounterEquals, CondCounterAtLeast:
		if c.Counter == "" {
			return fmt.Errorf("%w: %s condition without counter", ErrInvalidDocument, c.Kind)
		}
	case CondCounterBelowTable:
		if c.Counter == "" {
			return fmt.Errorf("%w: %s condition without counter", ErrInvalidDocument, c.Kind)
		}
		if _, ok := tables[c.Table]; !ok {
			return fmt.Errorf("%w: unknown table %q", ErrInvalidDocument, c.Table)
		}
	case CondAll:
		for _, sub := range c.Conditions {
			if err := sub.validate(tables); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown condition kind %q", ErrInvalidDocument, c.Kind)
	}
	return nil
}

// refs lists the item ids the condition depends on.
func (c Condition) refs() []string {
	switch c.Kind {
	case CondOwns:
		return []string{c.ID}
	case CondAll:
		var out []string
		for _, sub := range c.Conditions {
			out = append(out, sub.refs()...)
		}
		return out
	}
	return nil
}

func (c Condition) clone() Condition {
	if c.Conditions != nil {
		subs := make([]Condition, len(c.Conditions))
		for i, sub := range c.Conditions {
			subs[i] = sub.clone()
		}
		c.Conditions = subs
	}
	return c
}
