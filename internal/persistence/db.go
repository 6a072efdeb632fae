// Package persistence provides SQLite-based economy state storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/econsim/internal/catalog"
	"github.com/talgya/econsim/internal/economy"
	"github.com/talgya/econsim/internal/engine"
	"github.com/talgya/econsim/internal/shop"
)

// DB wraps a SQLite connection for economy state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ledgers (
		market_group TEXT NOT NULL,
		good TEXT NOT NULL,
		buy_pressure REAL NOT NULL,
		sale_pressure REAL NOT NULL,
		PRIMARY KEY (market_group, good)
	);

	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		executed_at INTEGER NOT NULL,
		market_group TEXT NOT NULL,
		type INTEGER NOT NULL,
		units REAL NOT NULL,
		price REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shops (
		name TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		num_buy_rows INTEGER NOT NULL,
		owners_json TEXT NOT NULL,
		goods_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trades_executed ON trades(executed_at);
	CREATE INDEX IF NOT EXISTS idx_trades_group ON trades(market_group);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type ledgerRow struct {
	Group        string  `db:"market_group"`
	Good         string  `db:"good"`
	BuyPressure  float64 `db:"buy_pressure"`
	SalePressure float64 `db:"sale_pressure"`
}

// SaveLedgers writes every ledger to the database (full replace).
func (db *DB) SaveLedgers(st economy.State) error {
	return db.inTx(func(tx *sqlx.Tx) error { return saveLedgers(tx, st) })
}

func saveLedgers(tx *sqlx.Tx, st economy.State) error {
	if _, err := tx.Exec("DELETE FROM ledgers"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO ledgers
		(market_group, good, buy_pressure, sale_pressure)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for group, ledgers := range st.Markets {
		for good, l := range ledgers {
			if _, err := stmt.Exec(group, string(good), l.BuyPressure, l.SalePressure); err != nil {
				return fmt.Errorf("insert ledger %s/%s: %w", group, good, err)
			}
		}
	}

	return saveMeta(tx, "state_version", strconv.Itoa(st.Version))
}

// inTx runs fn in a transaction, committing only if it succeeds.
func (db *DB) inTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadState reads all ledgers back into a State.
func (db *DB) LoadState() (economy.State, error) {
	st := economy.State{
		Version: economy.StateVersion,
		Markets: make(map[string]map[catalog.CanonicalGood]economy.Ledger),
	}

	if v, err := db.GetMeta("state_version"); err == nil {
		n, err := strconv.Atoi(v)
		if err != nil {
			return st, fmt.Errorf("state_version %q: %w", v, err)
		}
		st.Version = n
	}

	var rows []ledgerRow
	if err := db.conn.Select(&rows,
		"SELECT market_group, good, buy_pressure, sale_pressure FROM ledgers ORDER BY market_group, good",
	); err != nil {
		return st, fmt.Errorf("select ledgers: %w", err)
	}

	for _, r := range rows {
		m, ok := st.Markets[r.Group]
		if !ok {
			m = make(map[catalog.CanonicalGood]economy.Ledger)
			st.Markets[r.Group] = m
		}
		m[catalog.CanonicalGood(r.Good)] = economy.Ledger{BuyPressure: r.BuyPressure, SalePressure: r.SalePressure}
	}

	return st, nil
}

type tradeRow struct {
	ID         string  `db:"id"`
	ExecutedAt int64   `db:"executed_at"` // unix nanoseconds
	Group      string  `db:"market_group"`
	Type       int     `db:"type"`
	Units      float64 `db:"units"`
	Price      float64 `db:"price"`
}

// SaveTrades appends receipts to the trade log.
func (db *DB) SaveTrades(trades []economy.Receipt) error {
	if len(trades) == 0 {
		return nil
	}
	return db.inTx(func(tx *sqlx.Tx) error { return saveTrades(tx, trades) })
}

func saveTrades(tx *sqlx.Tx, trades []economy.Receipt) error {
	for _, r := range trades {
		_, err := tx.Exec(
			`INSERT INTO trades (id, executed_at, market_group, type, units, price)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID.String(), r.ExecutedAt.UnixNano(), r.Group, int(r.Type), r.Units, r.Price,
		)
		if err != nil {
			return fmt.Errorf("insert trade %s: %w", r.ID, err)
		}
	}
	return nil
}

// RecentTrades returns the most recent N trades, newest first.
func (db *DB) RecentTrades(limit int) ([]economy.Receipt, error) {
	var rows []tradeRow
	err := db.conn.Select(&rows,
		"SELECT id, executed_at, market_group, type, units, price FROM trades ORDER BY executed_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}

	out := make([]economy.Receipt, 0, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, fmt.Errorf("trade id %q: %w", r.ID, err)
		}
		out = append(out, economy.Receipt{
			ID:         id,
			Group:      r.Group,
			Type:       economy.TransactionType(r.Type),
			Units:      r.Units,
			Price:      r.Price,
			ExecutedAt: time.Unix(0, r.ExecutedAt),
		})
	}
	return out, nil
}

// CountTrades returns the number of logged trades.
func (db *DB) CountTrades() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM trades")
	return n, err
}

type shopRow struct {
	Name        string `db:"name"`
	DisplayName string `db:"display_name"`
	NumBuyRows  int    `db:"num_buy_rows"`
	OwnersJSON  string `db:"owners_json"`
	GoodsJSON   string `db:"goods_json"`
}

// SaveShops writes all shops to the database (full replace).
func (db *DB) SaveShops(shops []*shop.Shop) error {
	return db.inTx(func(tx *sqlx.Tx) error { return saveShops(tx, shops) })
}

func saveShops(tx *sqlx.Tx, shops []*shop.Shop) error {
	if _, err := tx.Exec("DELETE FROM shops"); err != nil {
		return err
	}

	for _, s := range shops {
		ownersJSON, err := json.Marshal(s.Owners)
		if err != nil {
			return fmt.Errorf("encode owners of %s: %w", s.Name, err)
		}
		goodsJSON, err := json.Marshal(s.Goods)
		if err != nil {
			return fmt.Errorf("encode goods of %s: %w", s.Name, err)
		}

		_, err = tx.Exec(`INSERT INTO shops
			(name, display_name, num_buy_rows, owners_json, goods_json)
			VALUES (?, ?, ?, ?, ?)`,
			s.Name, s.DisplayName, s.NumBuyRows, string(ownersJSON), string(goodsJSON),
		)
		if err != nil {
			return fmt.Errorf("insert shop %s: %w", s.Name, err)
		}
	}
	return nil
}

// LoadShops reads all shops.
func (db *DB) LoadShops() ([]*shop.Shop, error) {
	var rows []shopRow
	if err := db.conn.Select(&rows,
		"SELECT name, display_name, num_buy_rows, owners_json, goods_json FROM shops ORDER BY name",
	); err != nil {
		return nil, err
	}

	out := make([]*shop.Shop, 0, len(rows))
	for _, r := range rows {
		s := shop.New(r.Name, r.DisplayName)
		s.NumBuyRows = r.NumBuyRows
		if err := json.Unmarshal([]byte(r.OwnersJSON), &s.Owners); err != nil {
			return nil, fmt.Errorf("decode owners of %s: %w", r.Name, err)
		}
		if err := json.Unmarshal([]byte(r.GoodsJSON), &s.Goods); err != nil {
			return nil, fmt.Errorf("decode goods of %s: %w", r.Name, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	return saveMeta(db.conn, key, value)
}

func saveMeta(x sqlx.Execer, key, value string) error {
	_, err := x.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasState reports whether a previous run saved state here.
func (db *DB) HasState() bool {
	_, err := db.GetMeta("last_tick")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		slog.Warn("failed to read saved state marker", "error", err)
	}
	return err == nil
}

// LastTick returns the tick of the last save, 0 if there is none.
func (db *DB) LastTick() uint64 {
	v, err := db.GetMeta("last_tick")
	if err != nil {
		return 0
	}
	t, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return t
}

// SavedAt returns when state was last saved.
func (db *DB) SavedAt() (time.Time, bool) {
	v, err := db.GetMeta("saved_at")
	if err != nil {
		return time.Time{}, false
	}
	ns, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, ns), true
}

// SaveWorldState performs a full save of all economy state in one
// transaction. Drained trades go back to the journal if it fails.
func (db *DB) SaveWorldState(sim *engine.Simulation) error {
	st := sim.Economy.Snapshot()
	trades := sim.Economy.DrainTrades()
	shops := sim.Shops.All()

	slog.Info("saving economy state", "groups", len(st.Markets), "trades", len(trades), "shops", len(shops))

	err := db.inTx(func(tx *sqlx.Tx) error {
		if err := saveLedgers(tx, st); err != nil {
			return fmt.Errorf("save ledgers: %w", err)
		}
		if err := saveTrades(tx, trades); err != nil {
			return fmt.Errorf("save trades: %w", err)
		}
		if err := saveShops(tx, shops); err != nil {
			return fmt.Errorf("save shops: %w", err)
		}
		if err := saveMeta(tx, "last_tick", strconv.FormatUint(sim.CurrentTick(), 10)); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
		if err := saveMeta(tx, "saved_at", strconv.FormatInt(time.Now().UnixNano(), 10)); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
		return nil
	})
	if err != nil {
		sim.Economy.RequeueTrades(trades)
		return err
	}

	slog.Info("economy state saved")
	return nil
}

// LoadWorldState restores ledgers and shops into a simulation.
func (db *DB) LoadWorldState(sim *engine.Simulation) error {
	st, err := db.LoadState()
	if err != nil {
		return fmt.Errorf("load ledgers: %w", err)
	}
	if err := sim.Economy.Restore(st); err != nil {
		return fmt.Errorf("restore ledgers: %w", err)
	}

	shops, err := db.LoadShops()
	if err != nil {
		return fmt.Errorf("load shops: %w", err)
	}
	sim.Shops.Replace(shops)

	sim.LastTick = db.LastTick()
	return nil
}
