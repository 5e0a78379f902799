package interfaces

import (
	"context"

	"spot-trader/internal/types"
)

// Exchange supplies balances, trade history and an order book, and executes market orders.
type Exchange interface {
	Holdings(ctx context.Context, symbol string) (types.Holdings, error)
	// Trades returns up to n of the newest fills for symbol, oldest first.
	Trades(ctx context.Context, symbol string, n int) ([]types.TradeRecord, error)
	OrderBook(ctx context.Context, symbol string) (types.OrderBook, error)
	PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
}
