// Package economy provides demand-pressure pricing for tradeable goods:
// the price curve, per-good ledgers, per-group markets and decay.
package economy

import "math"

// TransactionType is the direction of a trade from the player's side.
type TransactionType uint8

const (
	Sell TransactionType = iota // player sells, pressure pushes demand down
	Buy                         // player buys, pressure pushes demand up
)

func (t TransactionType) String() string {
	switch t {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// CurveParams shapes the unit-price curve of one market group.
// Steepness values must be positive; config validation enforces it.
type CurveParams struct {
	BasePrice         float64 `json:"base_price"`          // unit price at zero demand
	SellSteepness     float64 `json:"sell_steepness"`      // logistic steepness below zero demand
	BuySteepness      float64 `json:"buy_steepness"`       // logistic steepness above zero demand
	BuyAsymptoteSlope float64 `json:"buy_asymptote_slope"` // extra linear slope above zero demand
	SellPriceFactor   float64 `json:"sell_price_factor"`
	BuyPriceFactor    float64 `json:"buy_price_factor"`
	BuyDecayPerDay    float64 `json:"buy_decay_per_day"`  // 0–1
	SaleDecayPerDay   float64 `json:"sale_decay_per_day"` // 0–1
}

// PriceOf returns the price of moving demand by amount units starting at
// demand. A buy raises demand by amount, a sell lowers it.
//
// Unit price is a continuous function of demand d:
//
//	d ≤ 0: 2B·σ(ks·d)
//	d ≥ 0: 4B·σ(kb·d)² + a·d
//
// where σ is the logistic function. The price is its integral over the
// traversed interval. Above zero the result is scaled by the buy or sell
// price factor. An interval that crosses zero is split at zero and both
// halves are evaluated as buys.
func PriceOf(t TransactionType, amount, demand float64, p CurveParams) float64 {
	if amount <= 0 {
		return 0
	}

	start := demand
	end := demand - amount
	if t == Buy {
		end = demand + amount
	}
	low, high := math.Min(start, end), math.Max(start, end)

	if start*end < 0 {
		return segmentPrice(Buy, low, 0, p) + segmentPrice(Buy, 0, high, p)
	}
	return segmentPrice(t, low, high, p)
}

// segmentPrice integrates the unit price over [low, high], which must not
// straddle zero.
func segmentPrice(t TransactionType, low, high float64, p CurveParams) float64 {
	if high <= 0 {
		return sellSideIntegral(high, p) - sellSideIntegral(low, p)
	}

	price := buySideIntegral(high, p) - buySideIntegral(low, p)
	if t == Buy {
		return price * p.BuyPriceFactor
	}
	return price * p.SellPriceFactor
}

// sellSideIntegral is the antiderivative of 2B·σ(k·d): 2B·ln(1+e^{kd})/k.
func sellSideIntegral(d float64, p CurveParams) float64 {
	k := p.SellSteepness
	return softplus(k*d) / k * (p.BasePrice * 2)
}

// buySideIntegral is the antiderivative of 4B·σ(k·d)² + a·d:
// 4B·(ln(1+e^{kd}) + 1/(1+e^{kd}))/k + a/2·d².
func buySideIntegral(d float64, p CurveParams) float64 {
	k := p.BuySteepness
	z := k * d
	logistic := (softplus(z) + 1/(1+math.Exp(z))) / k * (p.BasePrice * 4)
	return logistic + p.BuyAsymptoteSlope/2*d*d
}

// softplus computes ln(1+e^z) without overflowing for large z.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
