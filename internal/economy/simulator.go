package economy

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/talgya/econsim/internal/catalog"
)

// ParamSource supplies the curve parameters of a market group.
type ParamSource interface {
	CurveParams(group string) CurveParams
}

// ParamsFunc adapts a function to ParamSource.
type ParamsFunc func(group string) CurveParams

func (f ParamsFunc) CurveParams(group string) CurveParams { return f(group) }

// Simulator owns every market group. Groups are independent: each has its
// own lock, held across quote+commit and across a decay sweep.
type Simulator struct {
	mapper ItemMapper
	params ParamSource

	mu      sync.RWMutex // guards the markets map, not the markets
	markets map[string]*Market

	journal journal
}

// NewSimulator creates an empty simulator.
func NewSimulator(mapper ItemMapper, params ParamSource) *Simulator {
	return &Simulator{
		mapper:  mapper,
		params:  params,
		markets: make(map[string]*Market),
	}
}

// market returns the market for a group, creating it on first use.
func (s *Simulator) market(group string) *Market {
	s.mu.RLock()
	m, ok := s.markets[group]
	s.mu.RUnlock()
	if ok {
		return m
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok = s.markets[group]; !ok {
		m = newMarket(group)
		s.markets[group] = m
	}
	return m
}

// allMarkets returns the current markets sorted by group.
func (s *Simulator) allMarkets() []*Market {
	s.mu.RLock()
	out := make([]*Market, 0, len(s.markets))
	for _, m := range s.markets {
		out = append(out, m)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

// Quote returns the total price of trading goods in a group. It does not
// change demand: quoting twice against the same state gives the same price.
func (s *Simulator) Quote(group string, goods []catalog.RawGood, t TransactionType) float64 {
	buckets := aggregate(s.mapper, goods)
	if len(buckets) == 0 {
		return 0
	}

	m := s.market(group)
	p := s.params.CurveParams(group)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quote(buckets, t, p)
}

// Commit records an executed trade. The price must already have been
// quoted and paid; Transact does both under one lock.
func (s *Simulator) Commit(group string, goods []catalog.RawGood, t TransactionType) {
	buckets := aggregate(s.mapper, goods)
	if len(buckets) == 0 {
		return
	}

	m := s.market(group)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.commit(buckets, t)
}

// ApplyDecay decays all pressure by one interval of the given length.
// Rates are converted once per group before any ledger is touched; an
// invalid interval or rate leaves every ledger unchanged.
func (s *Simulator) ApplyDecay(intervalSeconds float64) error {
	if _, err := IntervalsPerDay(intervalSeconds); err != nil {
		return err
	}

	markets := s.allMarkets()
	rates := make([]DecayRates, len(markets))
	for i, m := range markets {
		r, err := IntervalRates(s.params.CurveParams(m.Group), intervalSeconds)
		if err != nil {
			return fmt.Errorf("group %s: %w", m.Group, err)
		}
		rates[i] = r
	}

	for i, m := range markets {
		m.mu.Lock()
		m.decay(rates[i])
		m.mu.Unlock()
	}

	slog.Debug("decay applied", "groups", len(markets), "interval_seconds", intervalSeconds)
	return nil
}

// Ledger returns a copy of a good's ledger without creating it.
func (s *Simulator) Ledger(group string, good catalog.CanonicalGood) (Ledger, bool) {
	s.mu.RLock()
	m, ok := s.markets[group]
	s.mu.RUnlock()
	if !ok {
		return Ledger{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.ledgers[good]
	if !ok {
		return Ledger{}, false
	}
	return *l, true
}

// Demand returns a good's current demand, 0 for goods never traded.
func (s *Simulator) Demand(group string, good catalog.CanonicalGood) float64 {
	l, _ := s.Ledger(group, good)
	return l.Demand()
}

// Groups returns the market groups seen so far, sorted.
func (s *Simulator) Groups() []string {
	markets := s.allMarkets()
	out := make([]string, len(markets))
	for i, m := range markets {
		out[i] = m.Group
	}
	return out
}

// Goods returns the goods with a ledger in a group, sorted.
func (s *Simulator) Goods(group string) []catalog.CanonicalGood {
	s.mu.RLock()
	m, ok := s.markets[group]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.goods()
}
