package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jtafstn/webidle/internal/costcurve"
	"github.com/jtafstn/webidle/internal/player"
)

// Family is a generated ladder of single-purchase tiers sharing one cost
// curve. Ids are ID followed by the level number.
type Family struct {
	ID           string
	Name         string
	Area         string
	MaxLevel     int
	PerLevel     float64
	LevelCounter string
	Curve        *costcurve.Curve
	Reference    map[int]int64
}

func (f *Family) LevelID(level int) string {
	return f.ID + strconv.Itoa(level)
}

// LevelOf parses a generated id back into its level.
func (f *Family) LevelOf(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, f.ID)
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > f.MaxLevel || strconv.Itoa(n) != rest {
		return 0, false
	}
	return n, true
}

// Highest returns the highest owned level, 0 when none is owned.
func (f *Family) Highest(s *player.State) int {
	best := 0
	for _, id := range s.Upgrades.IDs() {
		if n, ok := f.LevelOf(id); ok && n > best {
			best = n
		}
	}
	return best
}

func newFamily(e Entry) (*Family, error) {
	fam := e.Family
	if fam.MaxLevel < costcurve.MinLevel || fam.MaxLevel > costcurve.MaxLevel {
		return nil, fmt.Errorf("%w: family %q max level %d out of range", ErrInvalidDocument, e.ID, fam.MaxLevel)
	}
	if fam.PerLevel < 0 {
		return nil, fmt.Errorf("%w: family %q has negative per-level gain", ErrInvalidDocument, e.ID)
	}
	curve, err := costcurve.New(fam.Breakpoints)
	if err != nil {
		return nil, fmt.Errorf("family %q: %w", e.ID, err)
	}
	return &Family{
		ID:           e.ID,
		Name:         e.Name,
		Area:         e.Area,
		MaxLevel:     fam.MaxLevel,
		PerLevel:     fam.PerLevel,
		LevelCounter: fam.LevelCounter,
		Curve:        curve,
		Reference:    fam.Reference,
	}, nil
}

// generate expands the family into one descriptor per level.
func (f *Family) generate(first Condition, tables map[string]Table) []*Descriptor {
	out := make([]*Descriptor, 0, f.MaxLevel)
	for lv := 1; lv <= f.MaxLevel; lv++ {
		unlock := first
		if lv > 1 {
			unlock = Owns(f.LevelID(lv - 1))
		}
		effects := []Effect{{Kind: EffAddProduction, Amount: f.PerLevel}}
		if f.LevelCounter != "" {
			effects = append(effects, Effect{Kind: EffSetCounter, Counter: f.LevelCounter, Value: int64(lv)})
		}
		out = append(out, &Descriptor{
			ID:      f.LevelID(lv),
			Kind:    KindItem,
			Name:    f.Name,
			Area:    f.Area,
			Family:  f.ID,
			Level:   lv,
			Cost:    Fixed(f.Curve.Cost(lv)),
			Unlock:  unlock,
			Effects: effects,
			Info:    Info{Kind: InfoFamilyOutput, Prefix: f.ID, PerLevel: f.PerLevel},
			tables:  tables,
		})
	}
	return out
}
