package economy

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/econsim/internal/catalog"
)

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	sim := newTestSimulator(t)
	sim.Commit("overworld", goods("diamond", 40), Buy)
	sim.Commit("overworld", goods("iron_pickaxe", 3), Sell)
	sim.Commit("nether", goods("diamond_block", 1), Sell)

	st := sim.Snapshot()
	assert.Equal(t, StateVersion, st.Version)

	raw, err := json.Marshal(st)
	require.NoError(t, err)
	var decoded State
	require.NoError(t, json.Unmarshal(raw, &decoded))

	restored := newTestSimulator(t)
	require.NoError(t, restored.Restore(decoded))

	assert.Equal(t, st, restored.Snapshot())
	for _, group := range []string{"overworld", "nether"} {
		q := goods("diamond", 12)
		assert.Equal(t, sim.Quote(group, q, Buy), restored.Quote(group, q, Buy))
		assert.Equal(t, sim.Quote(group, q, Sell), restored.Quote(group, q, Sell))
	}
}

func TestRestore_ClearsAbsentGroups(t *testing.T) {
	sim := newTestSimulator(t)
	sim.Commit("stale", goods("diamond", 10), Buy)

	require.NoError(t, sim.Restore(State{
		Version: StateVersion,
		Markets: map[string]map[catalog.CanonicalGood]Ledger{
			"fresh": {"diamond": {BuyPressure: 5}},
		},
	}))

	assert.Equal(t, 0.0, sim.Demand("stale", "diamond"))
	assert.Empty(t, sim.Goods("stale"))
	assert.Equal(t, 5.0, sim.Demand("fresh", "diamond"))
}

func TestRestore_Rejects(t *testing.T) {
	tests := []struct {
		name string
		st   State
	}{
		{"newer version", State{Version: StateVersion + 1}},
		{"missing version", State{Markets: map[string]map[catalog.CanonicalGood]Ledger{
			"g": {"diamond": {BuyPressure: 1}},
		}}},
		{"negative version", State{Version: -1}},
		{"negative", State{Version: StateVersion, Markets: map[string]map[catalog.CanonicalGood]Ledger{
			"g": {"diamond": {BuyPressure: -1}},
		}}},
		{"nan", State{Version: StateVersion, Markets: map[string]map[catalog.CanonicalGood]Ledger{
			"g": {"diamond": {SalePressure: math.NaN()}},
		}}},
		{"inf", State{Version: StateVersion, Markets: map[string]map[catalog.CanonicalGood]Ledger{
			"g": {"diamond": {BuyPressure: math.Inf(1)}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newTestSimulator(t)
			sim.Commit("g", goods("diamond", 7), Buy)
			before := sim.Snapshot()

			err := sim.Restore(tt.st)
			assert.ErrorIs(t, err, ErrInvalidState)
			assert.Equal(t, before, sim.Snapshot())
		})
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	sim := newTestSimulator(t)
	sim.Commit("g", goods("diamond", 7), Buy)

	st := sim.Snapshot()
	sim.Commit("g", goods("diamond", 3), Buy)

	assert.Equal(t, 7.0, st.Markets["g"]["diamond"].BuyPressure)
	assert.Equal(t, 10.0, sim.Demand("g", "diamond"))
}
