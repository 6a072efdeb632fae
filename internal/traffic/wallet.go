package traffic

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/talgya/econsim/internal/economy"
)

// ErrInsufficientFunds is returned by Withdraw when the balance is too low.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Wallet is the money backend for synthetic players. Amounts are rounded
// to the display precision by economy.SettlementAmount before they move.
type Wallet struct {
	mu       sync.Mutex
	balance  decimal.Decimal
	decimals int32
}

// NewWallet creates a wallet holding an opening balance.
func NewWallet(balance float64, decimals int32) *Wallet {
	return &Wallet{
		balance:  economy.SettlementAmount(balance, decimals),
		decimals: decimals,
	}
}

// Withdraw takes a purchase price out of the wallet.
func (w *Wallet) Withdraw(price float64) error {
	amount := economy.SettlementAmount(price, w.decimals)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.balance.LessThan(amount) {
		return fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, amount, w.balance)
	}
	w.balance = w.balance.Sub(amount)
	return nil
}

// Deposit pays sale proceeds into the wallet.
func (w *Wallet) Deposit(price float64) error {
	amount := economy.SettlementAmount(price, w.decimals)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance = w.balance.Add(amount)
	return nil
}

// Balance returns the current balance.
func (w *Wallet) Balance() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance
}
