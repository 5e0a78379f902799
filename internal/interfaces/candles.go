package interfaces

import (
	"context"

	"spot-trader/internal/types"
)

// CandleSource is the read side of the candle store used by the engine.
type CandleSource interface {
	// Candles returns up to limit of the newest candles, oldest first.
	Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error)
}

// CandleStore is written by the feed and read by the engine.
type CandleStore interface {
	CandleSource
	// Append adds c to its series. A non-final tail candle with the same timestamp is replaced in place.
	Append(ctx context.Context, c types.Candle) error
	Latest(ctx context.Context, symbol, interval string) (types.Candle, bool, error)
}
