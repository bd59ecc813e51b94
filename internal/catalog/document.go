package catalog

import (
	"github.com/jtafstn/webidle/internal/costcurve"
)

// Document is the serializable form of the catalog. It is what the YAML
// balance file carries and what Build turns into descriptors.
type Document struct {
	Version      int                          `yaml:"version" json:"version"`
	Tables       map[string]Table             `yaml:"tables" json:"tables"`
	Items        []Entry                      `yaml:"items" json:"items"`
	Skills       []Entry                      `yaml:"skills" json:"skills"`
	Translations map[string]map[string]string `yaml:"translations,omitempty" json:"translations,omitempty"`
}

// Entry declares either one hand-authored descriptor or, when Family is
// set, a generated tier ladder that expands in place.
type Entry struct {
	ID         string      `yaml:"id" json:"id"`
	Name       string      `yaml:"name" json:"name"`
	Area       string      `yaml:"area,omitempty" json:"area,omitempty"`
	Repeatable bool        `yaml:"repeatable,omitempty" json:"repeatable,omitempty"`
	Cost       Cost        `yaml:"cost" json:"cost"`
	Unlock     Condition   `yaml:"unlock" json:"unlock"`
	Effects    []Effect    `yaml:"effects" json:"effects"`
	Info       Info        `yaml:"info" json:"info"`
	Family     *FamilySpec `yaml:"family,omitempty" json:"family,omitempty"`
}

// FamilySpec parameterizes a generated ladder. Level n has id ID+n; level 1
// is gated by FirstUnlock, every later level by owning the previous one.
type FamilySpec struct {
	MaxLevel     int                    `yaml:"max_level" json:"max_level"`
	PerLevel     float64                `yaml:"per_level" json:"per_level"`
	Breakpoints  []costcurve.Breakpoint `yaml:"breakpoints" json:"breakpoints"`
	FirstUnlock  Condition              `yaml:"first_unlock" json:"first_unlock"`
	LevelCounter string                 `yaml:"level_counter,omitempty" json:"level_counter,omitempty"`
	// Reference is an optional hand-tuned ladder the breakpoints approximate.
	Reference map[int]int64 `yaml:"reference,omitempty" json:"reference,omitempty"`
}

// Clone returns a deep copy so callers can rescale a document without
// touching the original.
func (d Document) Clone() Document {
	out := d
	out.Tables = make(map[string]Table, len(d.Tables))
	for k, t := range d.Tables {
		t.Steps = append([]Step(nil), t.Steps...)
		out.Tables[k] = t
	}
	out.Items = cloneEntries(d.Items)
	out.Skills = cloneEntries(d.Skills)
	if d.Translations != nil {
		out.Translations = make(map[string]map[string]string, len(d.Translations))
		for lang, msgs := range d.Translations {
			m := make(map[string]string, len(msgs))
			for k, v := range msgs {
				m[k] = v
			}
			out.Translations[lang] = m
		}
	}
	return out
}

func cloneEntries(in []Entry) []Entry {
	if in == nil {
		return nil
	}
	out := make([]Entry, len(in))
	for i, e := range in {
		e.Unlock = e.Unlock.clone()
		e.Effects = append([]Effect(nil), e.Effects...)
		if e.Family != nil {
			f := *e.Family
			f.Breakpoints = append([]costcurve.Breakpoint(nil), f.Breakpoints...)
			f.FirstUnlock = f.FirstUnlock.clone()
			if f.Reference != nil {
				ref := make(map[int]int64, len(f.Reference))
				for k, v := range f.Reference {
					ref[k] = v
				}
				f.Reference = ref
			}
			e.Family = &f
		}
		out[i] = e
	}
	return out
}
