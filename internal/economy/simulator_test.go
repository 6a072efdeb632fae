package economy

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/econsim/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.GroupSpec{
		{
			Name: "diamond",
			Items: []catalog.ItemSpec{
				{Kind: "diamond"},
				{Kind: "diamond_block", RelativeValue: 9},
			},
		},
		{
			Name:  "pickaxe",
			Items: []catalog.ItemSpec{{Kind: "iron_pickaxe"}},
		},
	})
	require.NoError(t, err)
	return c
}

func newTestSimulator(t *testing.T) *Simulator {
	t.Helper()
	p := defaultParams()
	return NewSimulator(testCatalog(t), ParamsFunc(func(string) CurveParams { return p }))
}

func goods(kind string, count int) []catalog.RawGood {
	return []catalog.RawGood{{Kind: kind, Count: count}}
}

func TestQuote_EmptyBundle(t *testing.T) {
	sim := newTestSimulator(t)

	assert.Equal(t, 0.0, sim.Quote("default", nil, Buy))
	assert.Equal(t, 0.0, sim.Quote("default", []catalog.RawGood{}, Sell))
	assert.Equal(t, 0.0, sim.Quote("nowhere", []catalog.RawGood{{Kind: "diamond", Count: 0}}, Buy))

	sim.Commit("default", nil, Buy)
	assert.Empty(t, sim.Goods("default"))
}

func TestQuote_DoesNotMutate(t *testing.T) {
	sim := newTestSimulator(t)

	first := sim.Quote("default", goods("diamond", 1), Buy)
	second := sim.Quote("default", goods("diamond", 1), Buy)

	assert.Greater(t, first, 0.0)
	assert.Less(t, first, 40.0)
	assert.Equal(t, first, second)
	assert.Equal(t, 0.0, sim.Demand("default", "diamond"))
}

func TestQuote_MatchesCurve(t *testing.T) {
	sim := newTestSimulator(t)
	sim.Commit("default", goods("diamond", 30), Sell)

	got := sim.Quote("default", goods("diamond", 50), Buy)
	assert.InDelta(t, PriceOf(Buy, 50, -30, defaultParams()), got, 1e-9)
}

func TestCommit_BuyThenSellRestoresDemand(t *testing.T) {
	sim := newTestSimulator(t)
	sim.Commit("default", goods("diamond", 17), Sell)
	before := sim.Demand("default", "diamond")

	bundle := []catalog.RawGood{
		{Kind: "diamond", Count: 5},
		{Kind: "diamond_block", Count: 2},
	}
	sim.Commit("default", bundle, Buy)
	assert.InDelta(t, before+23, sim.Demand("default", "diamond"), 1e-9)

	sim.Commit("default", bundle, Sell)
	assert.InDelta(t, before, sim.Demand("default", "diamond"), 1e-9)
}

func TestQuote_SellAfterBuyPressure(t *testing.T) {
	fresh := newTestSimulator(t)
	pressured := newTestSimulator(t)
	pressured.Commit("default", goods("diamond", 100), Buy)

	freshUnit := fresh.Quote("default", goods("diamond", 100), Sell) / 100
	pressuredUnit := pressured.Quote("default", goods("diamond", 100), Sell) / 100

	// Scarcity from earlier buys raises what sellers receive.
	assert.Greater(t, pressuredUnit, freshUnit)
	assert.Greater(t, pressuredUnit, 10.0)
	assert.Less(t, freshUnit, 10.0)
}

func TestQuote_RelativeValue(t *testing.T) {
	sim := newTestSimulator(t)

	block := sim.Quote("default", goods("diamond_block", 1), Buy)
	nine := sim.Quote("default", goods("diamond", 9), Buy)
	assert.InDelta(t, nine, block, 1e-9)

	sim.Commit("default", goods("diamond_block", 2), Buy)
	l, ok := sim.Ledger("default", "diamond")
	require.True(t, ok)
	assert.Equal(t, 18.0, l.BuyPressure)

	_, ok = sim.Ledger("default", "diamond_block")
	assert.False(t, ok, "blocks are priced on the diamond ledger")
}

func TestQuote_ConditionScalesPrice(t *testing.T) {
	sim := newTestSimulator(t)

	pristine := sim.Quote("default", []catalog.RawGood{{Kind: "iron_pickaxe", MaxDurability: 250, Count: 1}}, Sell)
	worn := sim.Quote("default", []catalog.RawGood{{Kind: "iron_pickaxe", Wear: 125, MaxDurability: 250, Count: 1}}, Sell)
	assert.InDelta(t, pristine*0.5, worn, 1e-9)

	// Condition never changes the pressure a trade moves.
	sim.Commit("default", []catalog.RawGood{{Kind: "iron_pickaxe", Wear: 200, MaxDurability: 250, Count: 3}}, Sell)
	assert.InDelta(t, -3, sim.Demand("default", "iron_pickaxe"), 1e-12)
}

func TestQuote_BucketsShareDemand(t *testing.T) {
	sim := newTestSimulator(t)
	p := defaultParams()

	bundle := []catalog.RawGood{
		{Kind: "iron_pickaxe", MaxDurability: 250, Count: 10},
		{Kind: "iron_pickaxe", Wear: 125, MaxDurability: 250, Count: 10},
		{Kind: "iron_pickaxe", MaxDurability: 250, Count: 5},
	}
	got := sim.Quote("default", bundle, Buy)

	// Stacks with equal condition merge; the worn bucket prices after them.
	want := PriceOf(Buy, 15, 0, p) + 0.5*PriceOf(Buy, 10, 15, p)
	assert.InDelta(t, want, got, 1e-9)
	assert.Equal(t, 0.0, sim.Demand("default", "iron_pickaxe"))
}

func TestMarketGroupsAreIndependent(t *testing.T) {
	sim := newTestSimulator(t)
	before := sim.Quote("nether", goods("diamond", 10), Buy)

	sim.Commit("overworld", goods("diamond", 500), Buy)

	assert.Equal(t, before, sim.Quote("nether", goods("diamond", 10), Buy))
	assert.Equal(t, 500.0, sim.Demand("overworld", "diamond"))
	assert.Equal(t, []string{"nether", "overworld"}, sim.Groups())
}

func TestTransact(t *testing.T) {
	sim := newTestSimulator(t)
	bundle := goods("diamond_block", 2)
	quoted := sim.Quote("default", bundle, Buy)

	var paid float64
	r, err := sim.Transact("default", bundle, Buy, func(price float64) error {
		paid = price
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, quoted, paid)
	assert.Equal(t, quoted, r.Price)
	assert.Equal(t, 18.0, r.Units)
	assert.Equal(t, Buy, r.Type)
	assert.Equal(t, "default", r.Group)
	assert.NotEmpty(t, r.ID.String())
	assert.Equal(t, 18.0, sim.Demand("default", "diamond"))

	trades := sim.DrainTrades()
	require.Len(t, trades, 1)
	assert.Equal(t, r.ID, trades[0].ID)
	assert.Empty(t, sim.DrainTrades())
}

func TestTransact_SettleFailure(t *testing.T) {
	sim := newTestSimulator(t)
	insufficient := errors.New("insufficient funds")

	_, err := sim.Transact("default", goods("diamond", 4), Buy, func(float64) error { return insufficient })
	require.ErrorIs(t, err, insufficient)

	assert.Equal(t, 0.0, sim.Demand("default", "diamond"))
	assert.Empty(t, sim.DrainTrades())
}

func TestTransact_Empty(t *testing.T) {
	sim := newTestSimulator(t)
	_, err := sim.Transact("default", nil, Sell, nil)
	assert.ErrorIs(t, err, ErrEmptyTrade)
}

func TestTransact_Concurrent(t *testing.T) {
	sim := newTestSimulator(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			group := "a"
			if i%2 == 0 {
				group = "b"
			}
			_, err := sim.Transact(group, goods("diamond", 2), Buy, nil)
			assert.NoError(t, err)
			sim.Quote(group, goods("diamond", 1), Sell)
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			assert.NoError(t, sim.ApplyDecay(300))
		}
	}()
	wg.Wait()

	assert.Len(t, sim.DrainTrades(), 50)
	for _, g := range []string{"a", "b"} {
		l, ok := sim.Ledger(g, "diamond")
		require.True(t, ok)
		assert.LessOrEqual(t, l.BuyPressure, 50.0)
		assert.Greater(t, l.BuyPressure, 0.0)
	}
}

func TestJournalIsBounded(t *testing.T) {
	sim := newTestSimulator(t)
	for i := 0; i < maxJournal+25; i++ {
		_, err := sim.Transact("default", goods("diamond", 1), Sell, nil)
		require.NoError(t, err)
	}
	assert.Len(t, sim.DrainTrades(), maxJournal)
}

func TestRoundPrice(t *testing.T) {
	assert.Equal(t, 2.35, RoundPrice(2.345, 2))
	assert.Equal(t, -2.35, RoundPrice(-2.345, 2))
	assert.Equal(t, 10.0, RoundPrice(9.9999, 2))
	assert.Equal(t, "10.00", FormatPrice(10, 2))
	assert.Equal(t, "3.142", FormatPrice(3.14159, 3))
}

func TestRequeueTrades(t *testing.T) {
	sim := newTestSimulator(t)
	first, err := sim.Transact("default", goods("diamond", 1), Buy, nil)
	require.NoError(t, err)

	drained := sim.DrainTrades()
	require.Len(t, drained, 1)

	second, err := sim.Transact("default", goods("diamond", 1), Sell, nil)
	require.NoError(t, err)
	sim.RequeueTrades(drained)
	sim.RequeueTrades(nil)

	trades := sim.DrainTrades()
	require.Len(t, trades, 2)
	assert.Equal(t, first.ID, trades[0].ID)
	assert.Equal(t, second.ID, trades[1].ID)
}

func TestSettlementAmount(t *testing.T) {
	assert.Equal(t, "2.35", SettlementAmount(2.345, 2).String())
	assert.Equal(t, "-0.01", SettlementAmount(-0.005, 2).String())
	assert.Equal(t, "12", SettlementAmount(11.5, 0).String())
}
