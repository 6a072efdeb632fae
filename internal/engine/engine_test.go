package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/econsim/internal/catalog"
	"github.com/talgya/econsim/internal/economy"
	"github.com/talgya/econsim/internal/shop"
	"github.com/talgya/econsim/internal/traffic"
)

type identityMapper struct{}

func (identityMapper) Map(g catalog.RawGood) catalog.GoodMapping {
	return catalog.GoodMapping{Representative: g.Canonical(), RelativeValue: 1, Condition: g.Condition()}
}

func bundle(kind string, count int) []catalog.RawGood {
	return []catalog.RawGood{{Kind: kind, Count: count}}
}

type fakeDecayer struct {
	calls     []float64
	failAfter int
}

func (f *fakeDecayer) ApplyDecay(intervalSeconds float64) error {
	if f.failAfter > 0 && len(f.calls) >= f.failAfter {
		return errors.New("boom")
	}
	f.calls = append(f.calls, intervalSeconds)
	return nil
}

func TestEngine_Layers(t *testing.T) {
	e := NewEngine()
	var ticks, hours, days int
	e.OnTick = func(uint64) { ticks++ }
	e.OnHour = func(uint64) { hours++ }
	e.OnDay = func(uint64) { days++ }

	var every []uint64
	e.Every(90, func(tick uint64) { every = append(every, tick) })
	e.Every(0, func(uint64) { t.Fatal("zero cadence must be ignored") })

	e.Advance(2 * TicksPerSimDay)

	assert.Equal(t, uint64(2*TicksPerSimDay), e.Tick)
	assert.Equal(t, 2*TicksPerSimDay, ticks)
	assert.Equal(t, 48, hours)
	assert.Equal(t, 2, days)
	assert.Len(t, every, 32)
	assert.Equal(t, uint64(90), every[0])
}

func TestEngine_RunStop(t *testing.T) {
	e := NewEngine()
	e.Interval = time.Millisecond
	e.OnTick = func(tick uint64) {
		if tick == 5 {
			e.Stop()
		}
	}

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.Equal(t, uint64(5), e.Tick)
	assert.False(t, e.Running())
}

func TestSimTime(t *testing.T) {
	assert.Equal(t, "Day 1, 0:00", SimTime(0))
	assert.Equal(t, "Day 1, 1:05", SimTime(65))
	assert.Equal(t, "Day 3, 0:01", SimTime(2*TicksPerSimDay+1))
}

func TestNewDecayScheduler_Invalid(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Minute, 90 * time.Second, time.Second} {
		_, err := NewDecayScheduler(&fakeDecayer{}, d)
		assert.ErrorIs(t, err, economy.ErrInvalidInterval, "interval %v", d)
	}
}

func TestDecayScheduler_Cadence(t *testing.T) {
	sim := &fakeDecayer{}
	d, err := NewDecayScheduler(sim, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), d.Ticks())

	var saves []uint64
	d.AfterDecay = func(tick uint64) { saves = append(saves, tick) }

	e := NewEngine()
	d.Attach(e)
	e.Advance(TicksPerSimDay)

	assert.Len(t, sim.calls, 288)
	assert.Equal(t, 300.0, sim.calls[0])
	assert.Equal(t, uint64(288), d.Runs())
	assert.Len(t, saves, 288)
	assert.Equal(t, uint64(TicksPerSimDay), saves[len(saves)-1])
}

func TestDecayScheduler_FailureSkipsHook(t *testing.T) {
	sim := &fakeDecayer{failAfter: 2}
	d, err := NewDecayScheduler(sim, time.Minute)
	require.NoError(t, err)

	hooks := 0
	d.AfterDecay = func(uint64) { hooks++ }

	e := NewEngine()
	d.Attach(e)
	e.Advance(5)

	assert.Equal(t, uint64(2), d.Runs())
	assert.Equal(t, 2, hooks)
}

func TestDecayScheduler_OneDayOnSimulator(t *testing.T) {
	p := economy.CurveParams{
		BasePrice: 10, SellSteepness: 0.01, BuySteepness: 0.01,
		SellPriceFactor: 1, BuyPriceFactor: 1,
		BuyDecayPerDay: 0.1, SaleDecayPerDay: 0.2,
	}
	sim := economy.NewSimulator(identityMapper{}, economy.ParamsFunc(func(string) economy.CurveParams { return p }))
	sim.Commit("default", bundle("diamond", 1000), economy.Buy)

	d, err := NewDecayScheduler(sim, 5*time.Minute)
	require.NoError(t, err)
	e := NewEngine()
	d.Attach(e)
	e.Advance(TicksPerSimDay)

	assert.InDelta(t, 900, sim.Demand("default", "diamond"), 1e-9)
}

func TestSimulation_TickMinuteRunsTraffic(t *testing.T) {
	p := economy.CurveParams{
		BasePrice: 10, SellSteepness: 0.01, BuySteepness: 0.01,
		SellPriceFactor: 1, BuyPriceFactor: 1,
		BuyDecayPerDay: 0.1, SaleDecayPerDay: 0.1,
	}
	econ := economy.NewSimulator(identityMapper{}, economy.ParamsFunc(func(string) economy.CurveParams { return p }))
	sim := NewSimulation(econ, shop.NewList())
	sim.Traffic = traffic.New(1, "default", 2, bundle("diamond", 1), traffic.NewWallet(1e6, 2))

	e := NewEngine()
	e.OnTick = sim.TickMinute
	e.OnDay = sim.TickDay
	e.Advance(120)

	assert.Equal(t, uint64(120), sim.CurrentTick())
	assert.Greater(t, sim.Stats.Buys+sim.Stats.Sells, 0)
	assert.Len(t, econ.DrainTrades(), sim.Stats.Buys+sim.Stats.Sells)

	sim.TickDay(e.Tick)
	assert.Equal(t, 1, sim.Stats.Groups)
	assert.Equal(t, 1, sim.Stats.Ledgers)
	assert.Zero(t, sim.Stats.Buys)
}

func TestSimulation_NoTraffic(t *testing.T) {
	econ := economy.NewSimulator(identityMapper{}, economy.ParamsFunc(func(string) economy.CurveParams { return economy.CurveParams{} }))
	sim := NewSimulation(econ, shop.NewList())

	sim.TickMinute(7)
	assert.Equal(t, uint64(7), sim.LastTick)
	assert.Zero(t, sim.Stats.Buys)
}
