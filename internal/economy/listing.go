package economy

import (
	"golang.org/x/text/message"

	"github.com/jtafstn/webidle/internal/catalog"
	"github.com/jtafstn/webidle/internal/player"
)

// Quote is a display snapshot of one descriptor against live state.
type Quote struct {
	ID         string       `json:"id"`
	Kind       catalog.Kind `json:"kind"`
	Name       string       `json:"name"`
	Area       string       `json:"area"`
	Family     string       `json:"family,omitempty"`
	Level      int          `json:"level,omitempty"`
	Repeatable bool         `json:"repeatable"`
	Cost       int64        `json:"cost"`
	Affordable bool         `json:"affordable"`
	Unlocked   bool         `json:"unlocked"`
	Owned      bool         `json:"owned"`
	Info       string       `json:"info"`
}

// Descriptor resolves an id against items first, then skills.
func (e *Engine) Descriptor(id string) (*catalog.Descriptor, bool) {
	if d, ok := e.cat.Item(id); ok {
		return d, true
	}
	return e.cat.Skill(id)
}

func (e *Engine) Quote(s *player.State, d *catalog.Descriptor, p *message.Printer) Quote {
	cost := d.Price(s)
	owned := s.Upgrades.Has(d.ID)
	if d.Kind == catalog.KindSkill {
		owned = s.LearnedSkills.Has(d.ID)
	}
	return Quote{
		ID:         d.ID,
		Kind:       d.Kind,
		Name:       d.Title(p),
		Area:       d.Area,
		Family:     d.Family,
		Level:      d.Level,
		Repeatable: d.Repeatable,
		Cost:       cost,
		Affordable: s.Gold >= cost,
		Unlocked:   d.Unlocked(s),
		Owned:      owned,
		Info:       d.Describe(s, p),
	}
}

func (e *Engine) Quotes(s *player.State, ds []*catalog.Descriptor, p *message.Printer) []Quote {
	out := make([]Quote, 0, len(ds))
	for _, d := range ds {
		out = append(out, e.Quote(s, d, p))
	}
	return out
}

// Purchasable is unlockedItems minus owned items, in catalog order.
// Repeatable items stay here once unlocked.
func (e *Engine) Purchasable(s *player.State) []*catalog.Descriptor {
	var out []*catalog.Descriptor
	for _, d := range e.cat.Items() {
		if s.UnlockedItems.Has(d.ID) && !s.Upgrades.Has(d.ID) {
			out = append(out, d)
		}
	}
	return out
}

// Owned lists owned items in catalog order.
func (e *Engine) Owned(s *player.State) []*catalog.Descriptor {
	var out []*catalog.Descriptor
	for _, d := range e.cat.Items() {
		if s.Upgrades.Has(d.ID) {
			out = append(out, d)
		}
	}
	return out
}

// OwnedCollapsed is Owned with each family reduced to its highest owned
// level, placed where the family first appears.
func (e *Engine) OwnedCollapsed(s *player.State) []*catalog.Descriptor {
	owned := e.Owned(s)
	slot := map[string]int{}
	out := make([]*catalog.Descriptor, 0, len(owned))
	for _, d := range owned {
		if d.Family == "" {
			out = append(out, d)
			continue
		}
		i, seen := slot[d.Family]
		if !seen {
			slot[d.Family] = len(out)
			out = append(out, d)
			continue
		}
		if d.Level > out[i].Level {
			out[i] = d
		}
	}
	return out
}

// Learnable lists skills whose predicate holds and that are not learned.
func (e *Engine) Learnable(s *player.State) []*catalog.Descriptor {
	var out []*catalog.Descriptor
	for _, d := range e.cat.Skills() {
		if !s.LearnedSkills.Has(d.ID) && d.Unlocked(s) {
			out = append(out, d)
		}
	}
	return out
}

// Learned lists learned skills in catalog order.
func (e *Engine) Learned(s *player.State) []*catalog.Descriptor {
	var out []*catalog.Descriptor
	for _, d := range e.cat.Skills() {
		if s.LearnedSkills.Has(d.ID) {
			out = append(out, d)
		}
	}
	return out
}

// InArea filters descriptors by area; an empty area keeps everything.
func InArea(ds []*catalog.Descriptor, area string) []*catalog.Descriptor {
	if area == "" {
		return ds
	}
	out := make([]*catalog.Descriptor, 0, len(ds))
	for _, d := range ds {
		if d.Area == area {
			out = append(out, d)
		}
	}
	return out
}
