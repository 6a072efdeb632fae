package economy

// Ledger holds the accumulated trade pressure for one good in one market group.
type Ledger struct {
	BuyPressure  float64 `json:"buy_pressure"`  // cumulative player purchases
	SalePressure float64 `json:"sale_pressure"` // cumulative player sales
}

// Demand returns net pressure: positive when goods are scarce, negative in surplus.
func (l *Ledger) Demand() float64 {
	return l.BuyPressure - l.SalePressure
}

// Supply is the inverse of Demand.
func (l *Ledger) Supply() float64 {
	return -l.Demand()
}

// AddMovement records units moved by a trade of the given type.
func (l *Ledger) AddMovement(units float64, t TransactionType) {
	if t == Buy {
		l.BuyPressure += units
	} else {
		l.SalePressure += units
	}
}

// Decay removes a fraction of each pressure. A rate of 0.05 removes 5%.
func (l *Ledger) Decay(buyRate, saleRate float64) {
	l.BuyPressure *= 1 - buyRate
	l.SalePressure *= 1 - saleRate
}
