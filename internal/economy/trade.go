package economy

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/econsim/internal/catalog"
)

// ErrEmptyTrade is returned by Transact for bundles with nothing in them.
var ErrEmptyTrade = errors.New("trade has no goods")

// maxJournal bounds the in-memory trade journal between saves.
const maxJournal = 1000

// SettleFunc moves money for a quoted price: withdraw from the buyer or
// deposit to the seller. A non-nil error cancels the trade.
type SettleFunc func(price float64) error

// Receipt records one executed trade.
type Receipt struct {
	ID         uuid.UUID       `json:"id"`
	Group      string          `json:"group"`
	Type       TransactionType `json:"type"`
	Units      float64         `json:"units"` // pressure moved, relative value applied
	Price      float64         `json:"price"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// Transact quotes goods, settles the price and commits the trade, holding
// the group's lock throughout so no other trade can move demand in between.
// If settle fails nothing is recorded.
func (s *Simulator) Transact(group string, goods []catalog.RawGood, t TransactionType, settle SettleFunc) (Receipt, error) {
	buckets := aggregate(s.mapper, goods)
	if len(buckets) == 0 {
		return Receipt{}, ErrEmptyTrade
	}

	m := s.market(group)
	p := s.params.CurveParams(group)

	m.mu.Lock()
	defer m.mu.Unlock()

	price := m.quote(buckets, t, p)
	if settle != nil {
		if err := settle(price); err != nil {
			return Receipt{}, fmt.Errorf("settle %s of %.2f: %w", t, price, err)
		}
	}
	units := m.commit(buckets, t)

	r := Receipt{
		ID:         uuid.New(),
		Group:      group,
		Type:       t,
		Units:      units,
		Price:      price,
		ExecutedAt: time.Now(),
	}
	s.journal.add(r)

	slog.Debug("trade executed", "group", group, "type", t, "units", units, "price", price)
	return r, nil
}

// DrainTrades returns and clears the trades recorded since the last drain.
func (s *Simulator) DrainTrades() []Receipt {
	return s.journal.drain()
}

// RequeueTrades puts drained receipts back ahead of any recorded since,
// for when writing them out failed.
func (s *Simulator) RequeueTrades(rs []Receipt) {
	s.journal.requeue(rs)
}

// journal keeps the most recent receipts.
type journal struct {
	mu       sync.Mutex
	receipts []Receipt
	dropped  int
}

func (j *journal) add(r Receipt) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.receipts = append(j.receipts, r)
	j.trim()
}

func (j *journal) requeue(rs []Receipt) {
	if len(rs) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	j.receipts = append(append(make([]Receipt, 0, len(rs)+len(j.receipts)), rs...), j.receipts...)
	j.trim()
}

// trim drops the oldest receipts beyond maxJournal.
func (j *journal) trim() {
	if len(j.receipts) > maxJournal {
		over := len(j.receipts) - maxJournal
		j.receipts = j.receipts[over:]
		j.dropped += over
	}
}

func (j *journal) drain() []Receipt {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.dropped > 0 {
		slog.Warn("trade journal overflowed between saves", "dropped", j.dropped)
		j.dropped = 0
	}
	out := j.receipts
	j.receipts = nil
	return out
}
