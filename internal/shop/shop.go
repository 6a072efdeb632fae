// Package shop keeps the registry of player-run shops: who may manage each
// one and which goods it lists in which slot.
package shop

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/talgya/econsim/internal/catalog"
)

// Shop layout limits, in rows of SlotsPerRow.
const (
	SlotsPerRow       = 9
	DefaultNumBuyRows = 4
	MaxNumBuyRows     = 6
)

var (
	ErrShopExists   = errors.New("shop already exists")
	ErrShopNotFound = errors.New("shop not found")
	ErrLastOwner    = errors.New("cannot remove the last owner")
	ErrNotOwner     = errors.New("not an owner of this shop")
	ErrShopFull     = errors.New("no free slot")
	ErrInvalidSlot  = errors.New("slot out of range")
	ErrInvalidRows  = errors.New("buy rows must be between 1 and 6")
)

// Shop is a named storefront listing goods by slot.
type Shop struct {
	Name        string                  `json:"name"`
	DisplayName string                  `json:"display_name"`
	Owners      []uuid.UUID             `json:"owners"`
	NumBuyRows  int                     `json:"num_buy_rows"`
	Goods       map[int]catalog.RawGood `json:"goods"` // slot → listed good
}

// New creates an empty shop. An empty display name defaults to the name.
func New(name, displayName string) *Shop {
	if displayName == "" {
		displayName = name
	}
	return &Shop{
		Name:        name,
		DisplayName: displayName,
		NumBuyRows:  DefaultNumBuyRows,
		Goods:       make(map[int]catalog.RawGood),
	}
}

// CanManage reports whether the actor may edit the shop.
func (s *Shop) CanManage(actor uuid.UUID, admin bool) bool {
	return admin || s.IsOwner(actor)
}

// IsOwner reports whether id is among the owners.
func (s *Shop) IsOwner(id uuid.UUID) bool {
	return slices.Contains(s.Owners, id)
}

// AddOwner adds id as an owner. Returns false if it already was one.
func (s *Shop) AddOwner(id uuid.UUID) bool {
	if s.IsOwner(id) {
		return false
	}
	s.Owners = append(s.Owners, id)
	return true
}

// RemoveOwner removes target from the owners. Only an admin may remove
// the last owner.
func (s *Shop) RemoveOwner(target uuid.UUID, admin bool) error {
	if len(s.Owners) <= 1 && !admin {
		return ErrLastOwner
	}
	i := slices.Index(s.Owners, target)
	if i < 0 {
		return ErrNotOwner
	}
	s.Owners = slices.Delete(s.Owners, i, i+1)
	return nil
}

// Slots is the number of goods the shop can list.
func (s *Shop) Slots() int {
	return s.NumBuyRows * SlotsPerRow
}

// SetNumBuyRows resizes the shop. Goods beyond the new size stay stored
// but are not listed until the shop grows again.
func (s *Shop) SetNumBuyRows(n int) error {
	if n < 1 || n > MaxNumBuyRows {
		return fmt.Errorf("%w: %d", ErrInvalidRows, n)
	}
	s.NumBuyRows = n
	return nil
}

// AddGood lists a good in the first free slot and returns that slot.
func (s *Shop) AddGood(g catalog.RawGood) (int, error) {
	for slot := 0; slot < s.Slots(); slot++ {
		if _, taken := s.Goods[slot]; !taken {
			s.Goods[slot] = g
			return slot, nil
		}
	}
	return -1, ErrShopFull
}

// SetGood lists a good in a given slot, replacing what was there.
func (s *Shop) SetGood(slot int, g catalog.RawGood) error {
	if slot < 0 || slot >= s.Slots() {
		return fmt.Errorf("%w: %d of %d", ErrInvalidSlot, slot, s.Slots())
	}
	s.Goods[slot] = g
	return nil
}

// RemoveGood clears a slot. Returns false if it was empty.
func (s *Shop) RemoveGood(slot int) bool {
	if _, ok := s.Goods[slot]; !ok {
		return false
	}
	delete(s.Goods, slot)
	return true
}

// Listed returns the goods in visible slots, ordered by slot.
func (s *Shop) Listed() []Listing {
	var out []Listing
	for slot, g := range s.Goods {
		if slot < s.Slots() {
			out = append(out, Listing{Slot: slot, Good: g})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// Listing is one occupied slot.
type Listing struct {
	Slot int
	Good catalog.RawGood
}
