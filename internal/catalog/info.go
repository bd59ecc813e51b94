package catalog

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/message"

	"github.com/jtafstn/webidle/internal/player"
)

type InfoKind string

const (
	InfoText         InfoKind = "text"
	InfoFamilyOutput InfoKind = "family_output"
	InfoStock        InfoKind = "stock"
	InfoStaffing     InfoKind = "staffing"
	InfoExpansion    InfoKind = "expansion"
	InfoSkillBonus   InfoKind = "skill_bonus"
)

// Message keys for computed info text. English is the key itself.
const (
	msgFamilyOutput = "Produces %d gold per second"
	msgStock        = "Costs %d gold, %s +%d\nCurrent: %s %d"
	msgStaffing     = "Costs %d gold, staff +1\nCurrent: %d/%d"
	msgExpansion    = "Costs %d gold\nSeats: %d → %d\nMenu categories: %d → %d"
	msgSkillBonus   = "Learning now adds %d gold per second"
)

// Info describes how a descriptor's display text is computed from live
// state at render time.
type Info struct {
	Kind      InfoKind `yaml:"kind" json:"kind"`
	Text      string   `yaml:"text,omitempty" json:"text,omitempty"`
	Prefix    string   `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	PerLevel  float64  `yaml:"per_level,omitempty" json:"per_level,omitempty"`
	Label     string   `yaml:"label,omitempty" json:"label,omitempty"`
	Counter   string   `yaml:"counter,omitempty" json:"counter,omitempty"`
	Amount    int64    `yaml:"amount,omitempty" json:"amount,omitempty"`
	CapTable  string   `yaml:"cap_table,omitempty" json:"cap_table,omitempty"`
	To        int64    `yaml:"to,omitempty" json:"to,omitempty"`
	SeatTable string   `yaml:"seat_table,omitempty" json:"seat_table,omitempty"`
	MenuTable string   `yaml:"menu_table,omitempty" json:"menu_table,omitempty"`
	Note      string   `yaml:"note,omitempty" json:"note,omitempty"`
	Ratio     float64  `yaml:"ratio,omitempty" json:"ratio,omitempty"`
	Source    string   `yaml:"source,omitempty" json:"source,omitempty"`
}

func (in Info) render(d *Descriptor, s *player.State, p *message.Printer) string {
	switch in.Kind {
	case InfoFamilyOutput:
		levels := s.Upgrades.CountPrefix(in.Prefix)
		if !s.Upgrades.Has(d.ID) {
			levels++
		}
		return p.Sprintf(msgFamilyOutput, int64(math.Round(float64(levels)*in.PerLevel)))

	case InfoStock:
		label := p.Sprintf(in.Label)
		return p.Sprintf(msgStock, d.Price(s), label, in.Amount, label, s.Counter(in.Counter))

	case InfoStaffing:
		limit := d.tables[in.CapTable].Lookup(s)
		return p.Sprintf(msgStaffing, d.Price(s), s.Counter(in.Counter), limit)

	case InfoExpansion:
		cur := s.Counter(in.Counter)
		seats, menu := d.tables[in.SeatTable], d.tables[in.MenuTable]
		out := p.Sprintf(msgExpansion, d.Price(s), seats.At(cur), seats.At(in.To), menu.At(cur), menu.At(in.To))
		if in.Note != "" {
			out += "\n" + p.Sprintf(in.Note)
		}
		return out

	case InfoSkillBonus:
		var b strings.Builder
		if in.Text != "" {
			b.WriteString(p.Sprintf(in.Text))
		}
		if s.LearnedSkills.Has(d.ID) {
			return b.String()
		}
		owned := countOwned(s, in.Source, in.Prefix)
		if in.Source == SourceSkills && strings.HasPrefix(d.ID, in.Prefix) {
			// learned before effects run, so the skill counts itself
			owned++
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p.Sprintf(msgSkillBonus, int64(perOwnedBonus(in.Ratio, owned))))
		return b.String()

	default:
		return p.Sprintf(in.Text)
	}
}

func (in Info) validate(tables map[string]Table) error {
	need := func(names ...string) error {
		for _, n := range names {
			if _, ok := tables[n]; !ok {
				return fmt.Errorf("%w: unknown table %q", ErrInvalidDocument, n)
			}
		}
		return nil
	}
	switch in.Kind {
	case "", InfoText, InfoFamilyOutput:
		return nil
	case InfoStock:
		if in.Counter == "" {
			return fmt.Errorf("%w: stock info without counter", ErrInvalidDocument)
		}
		return nil
	case InfoStaffing:
		return need(in.CapTable)
	case InfoExpansion:
		return need(in.SeatTable, in.MenuTable)
	case InfoSkillBonus:
		if in.Source != SourceUpgrades && in.Source != SourceSkills {
			return fmt.Errorf("%w: skill_bonus source %q", ErrInvalidDocument, in.Source)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown info kind %q", ErrInvalidDocument, in.Kind)
	}
}
