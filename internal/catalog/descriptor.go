package catalog

import (
	"golang.org/x/text/message"

	"github.com/jtafstn/webidle/internal/player"
)

type Kind string

const (
	KindItem  Kind = "item"
	KindSkill Kind = "skill"
)

// Areas used by the shipped document.
const (
	AreaTown   = "town"
	AreaTavern = "tavern"
)

// Descriptor is an immutable catalog entry: an item or a skill.
type Descriptor struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Name       string    `json:"name"`
	Area       string    `json:"area"`
	Family     string    `json:"family,omitempty"`
	Level      int       `json:"level,omitempty"`
	Repeatable bool      `json:"repeatable"`
	Cost       Cost      `json:"cost"`
	Unlock     Condition `json:"unlock"`
	Effects    []Effect  `json:"effects"`
	Info       Info      `json:"info"`

	tables map[string]Table
}

// Price is the cost of acquiring the descriptor in the given state.
func (d *Descriptor) Price(s *player.State) int64 {
	return d.Cost.Price(s)
}

// Unlocked evaluates the unlock predicate against live state.
func (d *Descriptor) Unlocked(s *player.State) bool {
	return d.Unlock.eval(s, d.tables)
}

// Apply runs every effect in declaration order.
func (d *Descriptor) Apply(s *player.State) {
	for _, e := range d.Effects {
		e.apply(s, d.tables)
	}
}

// Title returns the localized display name.
func (d *Descriptor) Title(p *message.Printer) string {
	if d.Level > 0 {
		return p.Sprintf(d.Name, d.Level)
	}
	return p.Sprintf(d.Name)
}

// Describe renders the info text for the current state.
func (d *Descriptor) Describe(s *player.State, p *message.Printer) string {
	return d.Info.render(d, s, p)
}
