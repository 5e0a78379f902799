package exchangeobs

import (
	"context"

	"spot-trader/internal/interfaces"
	"spot-trader/internal/logger"
	"spot-trader/internal/trace"
	"spot-trader/internal/types"
)

// observableExchange wraps an Exchange with observability (logging & tracing)
type observableExchange struct {
	exchange interfaces.Exchange
}

// Compile-time interface check
var _ interfaces.Exchange = (*observableExchange)(nil)

// Wrap wraps an exchange with observability middleware
func Wrap(exchange interfaces.Exchange) interfaces.Exchange {
	return &observableExchange{
		exchange: exchange,
	}
}

func (oe *observableExchange) Holdings(ctx context.Context, symbol string) (types.Holdings, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.Holdings")
	defer span.End()

	h, err := oe.exchange.Holdings(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch holdings", err, "symbol", symbol)
		return types.Holdings{}, err
	}

	logger.DebugSkip(ctx, 1, "Holdings fetched", "symbol", symbol, "base", h.Base, "quote", h.Quote)
	return h, nil
}

func (oe *observableExchange) Trades(ctx context.Context, symbol string, n int) ([]types.TradeRecord, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.Trades")
	defer span.End()

	trades, err := oe.exchange.Trades(ctx, symbol, n)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch trade history", err, "symbol", symbol, "count", n)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Trade history fetched", "symbol", symbol, "count", len(trades))
	return trades, nil
}

func (oe *observableExchange) OrderBook(ctx context.Context, symbol string) (types.OrderBook, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.OrderBook")
	defer span.End()

	ob, err := oe.exchange.OrderBook(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch order book", err, "symbol", symbol)
		return types.OrderBook{}, err
	}

	logger.DebugSkip(ctx, 1, "Order book fetched", "symbol", symbol, "best_bid", ob.BestBid(), "best_ask", ob.BestAsk())
	return ob, nil
}

// PlaceOrder places an order with observability
func (oe *observableExchange) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.PlaceOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"symbol", req.Symbol,
		"side", string(req.Side),
		"qty", req.Quantity,
		"tag", req.Tag,
	)

	resp, err := oe.exchange.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"symbol", req.Symbol,
			"side", string(req.Side),
			"qty", req.Quantity,
		)
		return resp, err
	}

	logger.InfoSkip(ctx, 1, "Order placed successfully",
		"symbol", req.Symbol,
		"side", string(req.Side),
		"order_id", resp.OrderID,
		"status", resp.Status,
		"qty", resp.Quantity,
		"price", resp.Price,
	)
	return resp, nil
}
