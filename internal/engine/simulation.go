// Simulation ties the market simulator to the tick layers.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/econsim/internal/economy"
	"github.com/talgya/econsim/internal/shop"
	"github.com/talgya/econsim/internal/traffic"
)

// Simulation holds the complete economy state and wires systems together.
type Simulation struct {
	Economy  *economy.Simulator
	Shops    *shop.List
	Traffic  *traffic.Generator // nil unless soak traffic is enabled
	LastTick uint64             // Most recent tick processed

	// Decimals is the display precision for prices in reports.
	Decimals int32

	// Statistics tracked per day.
	Stats SimStats
}

// SimStats tracks aggregate market statistics since the last daily report.
type SimStats struct {
	Groups   int     `json:"groups"`
	Ledgers  int     `json:"ledgers"`
	Buys     int     `json:"buys"`
	Sells    int     `json:"sells"`
	Rejected int     `json:"rejected"`
	Volume   float64 `json:"volume"`
}

// NewSimulation creates a Simulation around an economy and its shops.
func NewSimulation(econ *economy.Simulator, shops *shop.List) *Simulation {
	sim := &Simulation{
		Economy:  econ,
		Shops:    shops,
		Decimals: 2,
	}
	sim.updateStats()
	return sim
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	return s.LastTick
}

// TickMinute runs every tick (1 sim-minute): synthetic traffic.
func (s *Simulation) TickMinute(tick uint64) {
	s.LastTick = tick
	if s.Traffic == nil {
		return
	}

	st := s.Traffic.Step(tick, s.Economy)
	s.Stats.Buys += st.Buys
	s.Stats.Sells += st.Sells
	s.Stats.Rejected += st.Rejected
	s.Stats.Volume += st.Volume
}

// TickDay runs every sim-day: statistics, daily summary.
func (s *Simulation) TickDay(tick uint64) {
	s.updateStats()

	slog.Info("daily report",
		"tick", tick,
		"time", SimTime(tick),
		"groups", s.Stats.Groups,
		"ledgers", s.Stats.Ledgers,
		"shops", s.Shops.Len(),
		"buys", s.Stats.Buys,
		"sells", s.Stats.Sells,
		"rejected", s.Stats.Rejected,
		"volume", economy.FormatPrice(s.Stats.Volume, s.Decimals),
	)

	// Demand of the most pressured good per group.
	for _, group := range s.Economy.Groups() {
		good, demand := s.peakDemand(group)
		if good == "" {
			continue
		}
		slog.Info("market", "group", group, "peak_good", good, "demand", fmt.Sprintf("%.2f", demand))
	}

	s.Stats.Buys, s.Stats.Sells, s.Stats.Rejected, s.Stats.Volume = 0, 0, 0, 0
}

func (s *Simulation) peakDemand(group string) (string, float64) {
	best, bestDemand := "", 0.0
	for _, good := range s.Economy.Goods(group) {
		d := s.Economy.Demand(group, good)
		if best == "" || abs(d) > abs(bestDemand) {
			best, bestDemand = string(good), d
		}
	}
	return best, bestDemand
}

func (s *Simulation) updateStats() {
	groups := s.Economy.Groups()
	ledgers := 0
	for _, g := range groups {
		ledgers += len(s.Economy.Goods(g))
	}
	s.Stats.Groups = len(groups)
	s.Stats.Ledgers = ledgers
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
