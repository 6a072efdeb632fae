package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ItemSpec is one member of an item group.
type ItemSpec struct {
	Kind          string `mapstructure:"kind"`
	Variant       int    `mapstructure:"variant"`
	RelativeValue int    `mapstructure:"relative_value"` // 0 is read as 1
}

// GroupSpec declares goods that share one price track. The first item is
// the group's prototype: every member maps to it.
type GroupSpec struct {
	Name        string     `mapstructure:"-"`
	AllVariants bool       `mapstructure:"all_variants"` // apply to every variant of each member
	Items       []ItemSpec `mapstructure:"items"`
}

// Entry is the catalog's answer for a single good.
type Entry struct {
	Representative CanonicalGood
	RelativeValue  int
	Group          string
	AllVariants    bool
}

// Catalog holds item groups and resolves goods against them.
// It is immutable after New and safe for concurrent use.
type Catalog struct {
	entries map[itemKey]Entry
	groups  []string
}

// New builds a catalog from group declarations.
func New(specs []GroupSpec) (*Catalog, error) {
	c := &Catalog{entries: make(map[itemKey]Entry)}

	specs = slices.Clone(specs)
	sort.SliceStable(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })

	for _, g := range specs {
		if g.Name == "" {
			return nil, errors.New("item group name must not be empty")
		}
		if len(g.Items) == 0 {
			continue
		}

		proto := NewCanonical(g.Items[0].Kind, g.Items[0].Variant)
		for i, it := range g.Items {
			if normalizeKind(it.Kind) == "" {
				return nil, fmt.Errorf("item_groups.%s.items[%d]: kind is required", g.Name, i)
			}
			rel := it.RelativeValue
			if rel == 0 {
				rel = 1
			}
			if rel < 1 {
				return nil, fmt.Errorf("item_groups.%s.items[%d]: relative_value must be at least 1", g.Name, i)
			}

			key := itemKey{kind: normalizeKind(it.Kind), variant: it.Variant}
			if prev, dup := c.entries[key]; dup {
				return nil, fmt.Errorf("item_groups.%s.items[%d]: %s already belongs to group %s",
					g.Name, i, NewCanonical(it.Kind, it.Variant), prev.Group)
			}
			c.entries[key] = Entry{
				Representative: proto,
				RelativeValue:  rel,
				Group:          g.Name,
				AllVariants:    g.AllVariants,
			}
		}
		c.groups = append(c.groups, g.Name)
	}

	return c, nil
}

// Lookup returns the entry for the exact good, variant and wear included.
func (c *Catalog) Lookup(g RawGood) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.entries[g.key()]
	return e, ok
}

// LookupBare returns the entry for the good with variant and wear stripped.
func (c *Catalog) LookupBare(g RawGood) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.entries[g.bare()]
	return e, ok
}

// Groups returns the declared group names in sorted order.
func (c *Catalog) Groups() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.groups...)
}

// Len returns the number of catalogued goods.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}
