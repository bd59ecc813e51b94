// Package catalog builds the immutable registries of purchasable items and
// learnable skills from a declarative document.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/message"
)

var ErrInvalidDocument = errors.New("invalid catalog document")

// Catalog is built once and read concurrently.
type Catalog struct {
	items    []*Descriptor
	itemByID map[string]*Descriptor

	skills    []*Descriptor
	skillByID map[string]*Descriptor

	families   []*Family
	familyByID map[string]*Family

	tables map[string]Table
	text   *Localizer
}

// Build validates doc and produces the registries in declaration order.
func Build(doc Document) (*Catalog, error) {
	c := &Catalog{
		itemByID:   map[string]*Descriptor{},
		skillByID:  map[string]*Descriptor{},
		familyByID: map[string]*Family{},
		tables:     make(map[string]Table, len(doc.Tables)),
	}

	for name, t := range doc.Tables {
		nt, err := t.normalized(name)
		if err != nil {
			return nil, err
		}
		c.tables[name] = nt
	}

	for _, e := range doc.Items {
		if e.Family != nil {
			if err := c.addFamily(e); err != nil {
				return nil, err
			}
			continue
		}
		d, err := c.descriptor(e, KindItem)
		if err != nil {
			return nil, err
		}
		if _, dup := c.itemByID[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate item id %q", ErrInvalidDocument, d.ID)
		}
		c.items = append(c.items, d)
		c.itemByID[d.ID] = d
	}

	for _, e := range doc.Skills {
		if e.Family != nil {
			return nil, fmt.Errorf("%w: skill %q cannot declare a family", ErrInvalidDocument, e.ID)
		}
		d, err := c.descriptor(e, KindSkill)
		if err != nil {
			return nil, err
		}
		if _, dup := c.skillByID[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate skill id %q", ErrInvalidDocument, d.ID)
		}
		c.skills = append(c.skills, d)
		c.skillByID[d.ID] = d
	}

	for _, d := range append(append([]*Descriptor(nil), c.items...), c.skills...) {
		for _, ref := range d.Unlock.refs() {
			if _, ok := c.itemByID[ref]; !ok {
				return nil, fmt.Errorf("%w: %s %q requires unknown item %q", ErrInvalidDocument, d.Kind, d.ID, ref)
			}
		}
	}

	text, err := newLocalizer(doc.Translations)
	if err != nil {
		return nil, err
	}
	c.text = text
	return c, nil
}

// MustBuild is Build for documents known to be valid.
func MustBuild(doc Document) *Catalog {
	c, err := Build(doc)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) addFamily(e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("%w: family without id", ErrInvalidDocument)
	}
	if e.Area == "" {
		e.Area = AreaTown
	}
	if _, dup := c.familyByID[e.ID]; dup {
		return fmt.Errorf("%w: duplicate family %q", ErrInvalidDocument, e.ID)
	}
	if e.Family.FirstUnlock.Kind == "" {
		return fmt.Errorf("%w: family %q without first_unlock", ErrInvalidDocument, e.ID)
	}
	if err := e.Family.FirstUnlock.validate(c.tables); err != nil {
		return fmt.Errorf("family %q: %w", e.ID, err)
	}
	f, err := newFamily(e)
	if err != nil {
		return err
	}
	for _, d := range f.generate(e.Family.FirstUnlock, c.tables) {
		if _, dup := c.itemByID[d.ID]; dup {
			return fmt.Errorf("%w: duplicate item id %q", ErrInvalidDocument, d.ID)
		}
		c.items = append(c.items, d)
		c.itemByID[d.ID] = d
	}
	c.families = append(c.families, f)
	c.familyByID[f.ID] = f
	return nil
}

func (c *Catalog) descriptor(e Entry, kind Kind) (*Descriptor, error) {
	if e.ID == "" {
		return nil, fmt.Errorf("%w: %s without id", ErrInvalidDocument, kind)
	}
	if e.Area == "" {
		e.Area = AreaTown
	}
	wrap := func(err error) error { return fmt.Errorf("%s %q: %w", kind, e.ID, err) }

	if err := e.Cost.validate(); err != nil {
		return nil, wrap(err)
	}
	if err := e.Unlock.validate(c.tables); err != nil {
		return nil, wrap(err)
	}
	for _, eff := range e.Effects {
		if err := eff.validate(c.tables); err != nil {
			return nil, wrap(err)
		}
	}
	if err := e.Info.validate(c.tables); err != nil {
		return nil, wrap(err)
	}

	return &Descriptor{
		ID:         e.ID,
		Kind:       kind,
		Name:       e.Name,
		Area:       e.Area,
		Repeatable: e.Repeatable,
		Cost:       e.Cost,
		Unlock:     e.Unlock.clone(),
		Effects:    append([]Effect(nil), e.Effects...),
		Info:       e.Info,
		tables:     c.tables,
	}, nil
}

// Items returns every item in catalog order.
func (c *Catalog) Items() []*Descriptor { return append([]*Descriptor(nil), c.items...) }

// Skills returns every skill in catalog order.
func (c *Catalog) Skills() []*Descriptor { return append([]*Descriptor(nil), c.skills...) }

func (c *Catalog) Item(id string) (*Descriptor, bool) {
	d, ok := c.itemByID[id]
	return d, ok
}

func (c *Catalog) Skill(id string) (*Descriptor, bool) {
	d, ok := c.skillByID[id]
	return d, ok
}

func (c *Catalog) Families() []*Family { return append([]*Family(nil), c.families...) }

func (c *Catalog) Family(id string) (*Family, bool) {
	f, ok := c.familyByID[id]
	return f, ok
}

func (c *Catalog) Table(name string) (Table, bool) {
	t, ok := c.tables[name]
	return t, ok
}

// TableNames lists the named tables in sorted order.
func (c *Catalog) TableNames() []string {
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Printer returns a localized printer for display text.
func (c *Catalog) Printer(lang string) *message.Printer { return c.text.Printer(lang) }

func (c *Catalog) Localizer() *Localizer { return c.text }
