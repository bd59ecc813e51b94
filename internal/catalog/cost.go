package catalog

import (
	"fmt"
	"math"

	"github.com/jtafstn/webidle/internal/player"
)

type CostKind string

const (
	CostFixed  CostKind = "fixed"
	CostScaled CostKind = "scaled"
)

// Cost prices a descriptor. Scaled costs are Base + Step*counter,
// saturating at math.MaxInt64.
type Cost struct {
	Kind    CostKind `yaml:"kind" json:"kind"`
	Amount  int64    `yaml:"amount,omitempty" json:"amount,omitempty"`
	Counter string   `yaml:"counter,omitempty" json:"counter,omitempty"`
	Base    int64    `yaml:"base,omitempty" json:"base,omitempty"`
	Step    int64    `yaml:"step,omitempty" json:"step,omitempty"`
}

func Fixed(amount int64) Cost { return Cost{Kind: CostFixed, Amount: amount} }

func (c Cost) Price(s *player.State) int64 {
	switch c.Kind {
	case CostScaled:
		n := s.Counter(c.Counter)
		if c.Step > 0 && n > (math.MaxInt64-c.Base)/c.Step {
			return math.MaxInt64
		}
		return c.Base + c.Step*n
	default:
		return c.Amount
	}
}

func (c Cost) validate() error {
	switch c.Kind {
	case CostFixed:
		if c.Amount < 0 {
			return fmt.Errorf("%w: negative cost %d", ErrInvalidDocument, c.Amount)
		}
	case CostScaled:
		if c.Counter == "" {
			return fmt.Errorf("%w: scaled cost without counter", ErrInvalidDocument)
		}
		if c.Base < 0 || c.Step < 0 {
			return fmt.Errorf("%w: scaled cost must not be negative", ErrInvalidDocument)
		}
	default:
		return fmt.Errorf("%w: unknown cost kind %q", ErrInvalidDocument, c.Kind)
	}
	return nil
}
