// Package catalog canonicalizes raw in-game goods into the tradeable units
// the pricing engine keeps ledgers for.
package catalog

import (
	"strconv"
	"strings"
)

// RawGood is a stack of goods as the host server hands it over.
// Variant carries colour/wood-type style data; Wear carries durability used up.
type RawGood struct {
	Kind          string `mapstructure:"kind" json:"kind"`
	Variant       int    `mapstructure:"variant" json:"variant,omitempty"`
	Wear          int    `mapstructure:"wear" json:"wear,omitempty"`
	MaxDurability int    `mapstructure:"max_durability" json:"max_durability,omitempty"` // 0 = no durability concept
	Count         int    `mapstructure:"count" json:"count"`
}

// Durable reports whether the good has a durability concept.
func (g RawGood) Durable() bool {
	return g.MaxDurability > 0
}

// Condition returns the fraction of durability remaining, 1.0 for goods
// without durability. Clamped to [0,1].
func (g RawGood) Condition() float64 {
	if !g.Durable() {
		return 1.0
	}
	c := float64(g.MaxDurability-g.Wear) / float64(g.MaxDurability)
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Canonical returns the good's own identity: kind plus variant. Wear is
// condition, not identity, and never takes part.
func (g RawGood) Canonical() CanonicalGood {
	return NewCanonical(g.Kind, g.Variant)
}

// key is the exact-match identity used for catalog lookups.
func (g RawGood) key() itemKey {
	return itemKey{kind: normalizeKind(g.Kind), variant: g.Variant, wear: g.Wear}
}

// bare strips variant and wear data.
func (g RawGood) bare() itemKey {
	return itemKey{kind: normalizeKind(g.Kind)}
}

type itemKey struct {
	kind    string
	variant int
	wear    int
}

// CanonicalGood is the immutable ledger key for a good, e.g. "oak_log" or "wool:14".
type CanonicalGood string

// NewCanonical builds a CanonicalGood from a kind and a variant.
func NewCanonical(kind string, variant int) CanonicalGood {
	kind = normalizeKind(kind)
	if variant == 0 {
		return CanonicalGood(kind)
	}
	return CanonicalGood(kind + ":" + strconv.Itoa(variant))
}

// Kind returns the kind part of the canonical good.
func (c CanonicalGood) Kind() string {
	kind, _, _ := strings.Cut(string(c), ":")
	return kind
}

// Variant returns the variant part, 0 when absent.
func (c CanonicalGood) Variant() int {
	_, v, ok := strings.Cut(string(c), ":")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// RawGood returns one pristine unit of the canonical good.
func (c CanonicalGood) RawGood() RawGood {
	return RawGood{Kind: c.Kind(), Variant: c.Variant(), Count: 1}
}

func (c CanonicalGood) String() string { return string(c) }

// GoodMapping is what a raw good counts as for pricing purposes.
// It is comparable and used directly as an aggregation key.
type GoodMapping struct {
	Representative CanonicalGood `json:"representative"`
	RelativeValue  int           `json:"relative_value"` // units of Representative per raw unit
	Condition      float64       `json:"condition"`      // 0.0–1.0, multiplies price only
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}
