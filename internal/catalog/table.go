package catalog

import (
	"fmt"
	"sort"

	"github.com/jtafstn/webidle/internal/player"
)

// Step maps every input >= AtLeast to Value.
type Step struct {
	AtLeast int64 `yaml:"at_least" json:"at_least"`
	Value   int64 `yaml:"value" json:"value"`
}

// Table is a named step function over one counter. Steps are matched from
// the highest threshold down; Default applies below all of them.
type Table struct {
	Input   string `yaml:"input" json:"input"`
	Steps   []Step `yaml:"steps" json:"steps"`
	Default int64  `yaml:"default" json:"default"`
}

// At evaluates the table for an explicit input value.
func (t Table) At(v int64) int64 {
	for _, st := range t.Steps {
		if v >= st.AtLeast {
			return st.Value
		}
	}
	return t.Default
}

// Lookup evaluates the table against the state's input counter.
func (t Table) Lookup(s *player.State) int64 {
	return t.At(s.Counter(t.Input))
}

func (t Table) normalized(name string) (Table, error) {
	if t.Input == "" {
		return t, fmt.Errorf("%w: table %q has no input counter", ErrInvalidDocument, name)
	}
	steps := append([]Step(nil), t.Steps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].AtLeast > steps[j].AtLeast })
	for i := 1; i < len(steps); i++ {
		if steps[i].AtLeast == steps[i-1].AtLeast {
			return t, fmt.Errorf("%w: table %q repeats threshold %d", ErrInvalidDocument, name, steps[i].AtLeast)
		}
	}
	t.Steps = steps
	return t, nil
}
