package paper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"spot-trader/internal/logger"
	"spot-trader/internal/types"
)

// Fill is one executed paper order.
type Fill struct {
	OrderID  string
	Symbol   string
	Side     types.Action
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Fee      decimal.Decimal
	Tag      string
	FilledAt time.Time
}

// Journal persists fills to SQLite and serves the trade history.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (or creates) a SQLite journal database at path.
func OpenJournal(ctx context.Context, path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id   TEXT NOT NULL UNIQUE,
		symbol     TEXT NOT NULL,
		side       TEXT NOT NULL,
		qty        TEXT NOT NULL,
		price      TEXT NOT NULL,
		fee        TEXT NOT NULL DEFAULT '0',
		tag        TEXT,
		filled_at  INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol, id);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	logger.Info(ctx, "Opened trade journal", "path", path)
	return &Journal{db: db}, nil
}

func (j *Journal) RecordFill(ctx context.Context, f Fill) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO trades (order_id, symbol, side, qty, price, fee, tag, filled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.OrderID,
		f.Symbol,
		string(f.Side),
		f.Quantity.String(),
		f.Price.String(),
		f.Fee.String(),
		f.Tag,
		f.FilledAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record fill %s: %w", f.OrderID, err)
	}
	return nil
}

// Fills returns up to limit of the newest fills for symbol, oldest first.
func (j *Journal) Fills(ctx context.Context, symbol string, limit int) ([]Fill, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT order_id, symbol, side, qty, price, fee, COALESCE(tag, ''), filled_at
		 FROM trades WHERE symbol = ? ORDER BY id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query fills %s: %w", symbol, err)
	}
	defer rows.Close()

	var fills []Fill
	for rows.Next() {
		var (
			f               Fill
			side, q, p, fee string
			filledAt        int64
		)
		if err := rows.Scan(&f.OrderID, &f.Symbol, &side, &q, &p, &fee, &f.Tag, &filledAt); err != nil {
			return nil, fmt.Errorf("scan fill: %w", err)
		}
		f.Side = types.Action(side)
		if f.Quantity, err = decimal.NewFromString(q); err != nil {
			return nil, fmt.Errorf("fill %s qty: %w", f.OrderID, err)
		}
		if f.Price, err = decimal.NewFromString(p); err != nil {
			return nil, fmt.Errorf("fill %s price: %w", f.OrderID, err)
		}
		if f.Fee, err = decimal.NewFromString(fee); err != nil {
			return nil, fmt.Errorf("fill %s fee: %w", f.OrderID, err)
		}
		f.FilledAt = time.Unix(0, filledAt).UTC()
		fills = append(fills, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, k := 0, len(fills)-1; i < k; i, k = i+1, k-1 {
		fills[i], fills[k] = fills[k], fills[i]
	}
	return fills, nil
}

// Trades adapts Fills to the engine's trade history.
func (j *Journal) Trades(ctx context.Context, symbol string, n int) ([]types.TradeRecord, error) {
	fills, err := j.Fills(ctx, symbol, n)
	if err != nil {
		return nil, err
	}
	out := make([]types.TradeRecord, len(fills))
	for i, f := range fills {
		out[i] = types.TradeRecord{
			Time:     f.FilledAt,
			Side:     f.Side,
			Price:    f.Price.InexactFloat64(),
			Quantity: f.Quantity.InexactFloat64(),
		}
	}
	return out, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
