// Package costcurve maps tier levels to purchase prices using piecewise
// exponential interpolation between a small set of calibration breakpoints.
package costcurve

import (
	"errors"
	"fmt"
	"math"
)

const (
	MinLevel = 1
	MaxLevel = 100
)

var ErrInvalidTable = errors.New("invalid breakpoint table")

// Breakpoint anchors the curve at one level.
type Breakpoint struct {
	Level int   `yaml:"level" json:"level"`
	Cost  int64 `yaml:"cost" json:"cost"`
}

// Curve is an immutable, validated breakpoint table.
type Curve struct {
	points []Breakpoint
}

// New validates the table and returns a curve. Tables must start at level 1,
// stay within MaxLevel and be strictly increasing in both level and cost.
func New(points []Breakpoint) (*Curve, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no breakpoints", ErrInvalidTable)
	}
	if points[0].Level != MinLevel {
		return nil, fmt.Errorf("%w: first breakpoint at level %d, want %d", ErrInvalidTable, points[0].Level, MinLevel)
	}
	for i, p := range points {
		if p.Level > MaxLevel {
			return nil, fmt.Errorf("%w: level %d exceeds %d", ErrInvalidTable, p.Level, MaxLevel)
		}
		if p.Cost <= 0 {
			return nil, fmt.Errorf("%w: level %d has non-positive cost %d", ErrInvalidTable, p.Level, p.Cost)
		}
		if i == 0 {
			continue
		}
		prev := points[i-1]
		if p.Level <= prev.Level {
			return nil, fmt.Errorf("%w: level %d does not follow %d", ErrInvalidTable, p.Level, prev.Level)
		}
		if p.Cost <= prev.Cost {
			return nil, fmt.Errorf("%w: cost at level %d (%d) not above level %d (%d)", ErrInvalidTable, p.Level, p.Cost, prev.Level, prev.Cost)
		}
	}
	out := make([]Breakpoint, len(points))
	copy(out, points)
	return &Curve{points: out}, nil
}

// MustNew is New for package-level tables known to be valid.
func MustNew(points []Breakpoint) *Curve {
	c, err := New(points)
	if err != nil {
		panic(err)
	}
	return c
}

// Breakpoints returns a copy of the calibration table.
func (c *Curve) Breakpoints() []Breakpoint {
	out := make([]Breakpoint, len(c.points))
	copy(out, c.points)
	return out
}

// FirstLevel and LastLevel bound the clamping range.
func (c *Curve) FirstLevel() int { return c.points[0].Level }
func (c *Curve) LastLevel() int  { return c.points[len(c.points)-1].Level }

// Cost returns the price of the given level.
func (c *Curve) Cost(level int) int64 {
	first, last := c.points[0], c.points[len(c.points)-1]
	if level <= first.Level {
		return first.Cost
	}
	if level >= last.Level {
		return last.Cost
	}

	for i := 0; i < len(c.points)-1; i++ {
		left, right := c.points[i], c.points[i+1]
		if level < left.Level || level > right.Level {
			continue
		}
		if level == left.Level {
			return left.Cost
		}
		if level == right.Level {
			return right.Cost
		}
		ratio := float64(level-left.Level) / float64(right.Level-left.Level)
		growth := float64(right.Cost) / float64(left.Cost)
		return int64(math.Round(float64(left.Cost) * math.Pow(growth, ratio)))
	}

	return last.Cost
}

// Ladder returns the costs for levels 1..maxLevel.
func (c *Curve) Ladder(maxLevel int) []int64 {
	if maxLevel < 0 {
		maxLevel = 0
	}
	out := make([]int64, maxLevel)
	for lv := 1; lv <= maxLevel; lv++ {
		out[lv-1] = c.Cost(lv)
	}
	return out
}

// MaxRelativeError compares the curve against a hand-tuned reference table
// (level -> cost) and returns the worst |curve-ref|/ref along with its level.
func (c *Curve) MaxRelativeError(reference map[int]int64) (float64, int) {
	worst, worstLevel := 0.0, 0
	for level, want := range reference {
		if want <= 0 {
			continue
		}
		got := c.Cost(level)
		rel := math.Abs(float64(got-want)) / float64(want)
		if rel > worst || (rel == worst && worstLevel != 0 && level < worstLevel) {
			worst, worstLevel = rel, level
		}
	}
	return worst, worstLevel
}
