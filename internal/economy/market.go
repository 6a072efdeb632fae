package economy

import (
	"sort"
	"sync"

	"github.com/talgya/econsim/internal/catalog"
)

// ItemMapper resolves raw goods to the goods they are priced as.
type ItemMapper interface {
	Map(g catalog.RawGood) catalog.GoodMapping
}

// bucket is a run of raw goods that share one mapping.
type bucket struct {
	mapping catalog.GoodMapping
	count   int // raw items, before relative value
}

// units is the pressure the bucket moves on its representative.
func (b bucket) units() float64 {
	return float64(b.count) * float64(b.mapping.RelativeValue)
}

// aggregate maps and merges goods into buckets, keeping first-appearance
// order so that summing prices is deterministic. Empty stacks are skipped.
func aggregate(mapper ItemMapper, goods []catalog.RawGood) []bucket {
	index := make(map[catalog.GoodMapping]int, len(goods))
	var buckets []bucket

	for _, g := range goods {
		if g.Count <= 0 {
			continue
		}
		m := mapper.Map(g)
		if i, ok := index[m]; ok {
			buckets[i].count += g.Count
			continue
		}
		index[m] = len(buckets)
		buckets = append(buckets, bucket{mapping: m, count: g.Count})
	}

	return buckets
}

// Market holds the ledgers of one market group. Every method that touches
// ledgers expects mu to be held by the caller.
type Market struct {
	Group string

	mu      sync.Mutex
	ledgers map[catalog.CanonicalGood]*Ledger
}

func newMarket(group string) *Market {
	return &Market{
		Group:   group,
		ledgers: make(map[catalog.CanonicalGood]*Ledger),
	}
}

// ledger returns the ledger for a good, creating an empty one on first use.
func (m *Market) ledger(good catalog.CanonicalGood) *Ledger {
	l, ok := m.ledgers[good]
	if !ok {
		l = &Ledger{}
		m.ledgers[good] = l
	}
	return l
}

// quote prices the buckets against current demand. Buckets that share a
// representative are priced in sequence on a working copy of its demand;
// ledgers are left untouched.
func (m *Market) quote(buckets []bucket, t TransactionType, p CurveParams) float64 {
	working := make(map[catalog.CanonicalGood]float64, len(buckets))
	total := 0.0

	for _, b := range buckets {
		good := b.mapping.Representative
		demand, ok := working[good]
		if !ok {
			demand = m.ledger(good).Demand()
		}

		units := b.units()
		total += PriceOf(t, units, demand, p) * b.mapping.Condition

		if t == Buy {
			demand += units
		} else {
			demand -= units
		}
		working[good] = demand
	}

	return total
}

// commit records the buckets' movement on their ledgers.
func (m *Market) commit(buckets []bucket, t TransactionType) float64 {
	moved := 0.0
	for _, b := range buckets {
		units := b.units()
		m.ledger(b.mapping.Representative).AddMovement(units, t)
		moved += units
	}
	return moved
}

// decay applies per-interval rates to every ledger.
func (m *Market) decay(rates DecayRates) {
	for _, l := range m.ledgers {
		l.Decay(rates.Buy, rates.Sale)
	}
}

func (m *Market) snapshot() map[catalog.CanonicalGood]Ledger {
	out := make(map[catalog.CanonicalGood]Ledger, len(m.ledgers))
	for good, l := range m.ledgers {
		out[good] = *l
	}
	return out
}

func (m *Market) restore(ledgers map[catalog.CanonicalGood]Ledger) {
	m.ledgers = make(map[catalog.CanonicalGood]*Ledger, len(ledgers))
	for good, l := range ledgers {
		l := l
		m.ledgers[good] = &l
	}
}

// goods returns the market's ledger keys in sorted order.
func (m *Market) goods() []catalog.CanonicalGood {
	out := make([]catalog.CanonicalGood, 0, len(m.ledgers))
	for good := range m.ledgers {
		out = append(out, good)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
