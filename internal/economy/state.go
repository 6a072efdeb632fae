package economy

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/econsim/internal/catalog"
)

// StateVersion is bumped when State changes shape.
const StateVersion = 1

// ErrInvalidState is returned by Restore for states it cannot accept.
var ErrInvalidState = errors.New("invalid simulator state")

// State is a full copy of every ledger, keyed by group then good.
type State struct {
	Version int                                          `json:"version"`
	Markets map[string]map[catalog.CanonicalGood]Ledger `json:"markets"`
}

// Snapshot copies all ledgers. Each group is copied under its own lock.
func (s *Simulator) Snapshot() State {
	st := State{
		Version: StateVersion,
		Markets: make(map[string]map[catalog.CanonicalGood]Ledger),
	}
	for _, m := range s.allMarkets() {
		m.mu.Lock()
		st.Markets[m.Group] = m.snapshot()
		m.mu.Unlock()
	}
	return st
}

// Restore replaces all ledgers with the given state. Groups absent from the
// state are emptied. Negative or non-finite pressures are rejected before
// anything changes.
func (s *Simulator) Restore(st State) error {
	if st.Version < 1 {
		return fmt.Errorf("%w: missing or invalid version %d", ErrInvalidState, st.Version)
	}
	if st.Version > StateVersion {
		return fmt.Errorf("%w: version %d is newer than %d", ErrInvalidState, st.Version, StateVersion)
	}
	for group, ledgers := range st.Markets {
		for good, l := range ledgers {
			if !validPressure(l.BuyPressure) || !validPressure(l.SalePressure) {
				return fmt.Errorf("%w: %s/%s has pressure buy=%v sale=%v",
					ErrInvalidState, group, good, l.BuyPressure, l.SalePressure)
			}
		}
	}

	for group := range st.Markets {
		s.market(group)
	}
	for _, m := range s.allMarkets() {
		m.mu.Lock()
		m.restore(st.Markets[m.Group])
		m.mu.Unlock()
	}
	return nil
}

func validPressure(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
