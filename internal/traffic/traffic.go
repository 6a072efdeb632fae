// Package traffic generates synthetic player trades for soak runs.
// Buy and sell flow for each good follow independent simplex noise over
// sim time, so demand drifts in smooth waves instead of white noise.
package traffic

import (
	"errors"
	"log/slog"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/econsim/internal/catalog"
	"github.com/talgya/econsim/internal/economy"
)

// Noise sampling. One wave period is a few sim-hours.
const (
	timeFrequency = 0.004
	goodSpacing   = 17.3
	octaves       = 3
	persistence   = 0.5
)

// Trader executes trades; *economy.Simulator satisfies it.
type Trader interface {
	Transact(group string, goods []catalog.RawGood, t economy.TransactionType, settle economy.SettleFunc) (economy.Receipt, error)
}

// Order is one trade the generator wants to place.
type Order struct {
	Good catalog.RawGood
	Type economy.TransactionType
}

// Stats summarizes what a step did.
type Stats struct {
	Buys     int
	Sells    int
	Rejected int
	Spent    float64 // settled buy prices
	Earned   float64 // settled sell proceeds
	Volume   float64
}

// Generator turns noise into orders for a fixed set of goods.
type Generator struct {
	Group     string
	Intensity float64 // peak orders per good per tick

	goods  []catalog.RawGood
	buy    opensimplex.Noise
	sell   opensimplex.Noise
	carry  []flow
	wallet *Wallet
}

type flow struct{ buy, sell float64 }

// New creates a generator. The wallet settles every trade it places.
func New(seed int64, group string, intensity float64, goods []catalog.RawGood, wallet *Wallet) *Generator {
	return &Generator{
		Group:     group,
		Intensity: intensity,
		goods:     goods,
		buy:       opensimplex.NewNormalized(seed),
		sell:      opensimplex.NewNormalized(seed + 1),
		carry:     make([]flow, len(goods)),
		wallet:    wallet,
	}
}

// Orders returns the orders due at a tick. Fractional flow carries over to
// later ticks, so calling Orders advances the generator.
func (g *Generator) Orders(tick uint64) []Order {
	var out []Order
	y := float64(tick)

	for i, good := range g.goods {
		x := float64(i) * goodSpacing
		c := &g.carry[i]
		c.buy += g.Intensity * octaveNoise(g.buy, x, y, octaves, timeFrequency, persistence)
		c.sell += g.Intensity * octaveNoise(g.sell, x, y, octaves, timeFrequency, persistence)

		for ; c.buy >= 1; c.buy-- {
			out = append(out, Order{Good: good, Type: economy.Buy})
		}
		for ; c.sell >= 1; c.sell-- {
			out = append(out, Order{Good: good, Type: economy.Sell})
		}
	}

	return out
}

// Step places the orders due at a tick. Trades the wallet cannot afford
// are counted and dropped.
func (g *Generator) Step(tick uint64, t Trader) Stats {
	var st Stats
	for _, o := range g.Orders(tick) {
		settle := g.wallet.Withdraw
		if o.Type == economy.Sell {
			settle = g.wallet.Deposit
		}

		r, err := t.Transact(g.Group, []catalog.RawGood{o.Good}, o.Type, settle)
		if err != nil {
			if !errors.Is(err, ErrInsufficientFunds) {
				slog.Warn("traffic trade failed", "good", o.Good.Kind, "type", o.Type, "error", err)
			}
			st.Rejected++
			continue
		}

		settled := economy.RoundPrice(r.Price, g.wallet.decimals)
		if o.Type == economy.Buy {
			st.Buys++
			st.Spent += settled
		} else {
			st.Sells++
			st.Earned += settled
		}
		st.Volume += settled
	}
	return st
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
