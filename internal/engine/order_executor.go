package engine

import (
	"context"
	"fmt"

	"spot-trader/internal/interfaces"
	"spot-trader/internal/logger"
	"spot-trader/internal/metrics"
	"spot-trader/internal/store"
	"spot-trader/internal/tradelog"
	"spot-trader/internal/types"
)

// orderExecutor handles order placement and trade logging.
type orderExecutor struct {
	exchange interfaces.Exchange
	metrics  *metrics.Metrics
}

func newOrderExecutor(exchange interfaces.Exchange, m *metrics.Metrics) *orderExecutor {
	return &orderExecutor{
		exchange: exchange,
		metrics:  m,
	}
}

// place executes the decided market order and logs the trade.
//
// Parameters:
//   - ctx: Context for logging and tracing
//   - symbol: Trading symbol
//   - cfg: symbol configuration providing quantity and filter
//   - out: the cycle outcome; its Action is the side and Reference the expected price
//   - tag: what triggered the order (AGREEMENT, TAKE_PROFIT or STOP_LOSS)
//
// Returns:
//   - resp: Order response from the exchange
//   - err: Error if order placement failed
func (oe *orderExecutor) place(ctx context.Context, symbol string, cfg *store.SymbolConfig, out Outcome, tag string) (types.OrderResp, error) {
	req := types.OrderReq{
		Symbol:   symbol,
		Side:     out.Action,
		Quantity: cfg.Quantity,
		Price:    out.Reference,
		Filter:   cfg.Filter,
		Tag:      tag,
	}

	resp, err := oe.exchange.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErr(ctx, fmt.Sprintf("Failed to place %s order", out.Action), err,
			"symbol", symbol,
			"qty", req.Quantity,
			"price", req.Price,
			"tag", tag,
		)
		oe.metrics.Order(symbol, string(out.Action), "ERROR")
		return types.OrderResp{}, err
	}
	oe.metrics.Order(symbol, string(out.Action), resp.Status)

	logger.Trade(ctx, symbol, string(out.Action), resp.Quantity, resp.Price, resp.OrderID, "tag", tag)

	_ = tradelog.Append(tradelog.Entry{
		Symbol:  symbol,
		Side:    string(out.Action),
		Qty:     resp.Quantity,
		Price:   resp.Price,
		OrderID: resp.OrderID,
		Reason:  out.Reason,
		Tag:     tag,
	})

	return resp, nil
}

// logDecision appends the cycle outcome to the decision log.
func (oe *orderExecutor) logDecision(ctx context.Context, r types.StepResult, st SymbolState, tfs []TimeframeVotes) {
	scores := make(map[string]float64, len(r.Scores))
	for a, v := range r.Scores {
		scores[string(a)] = v
	}
	err := tradelog.AppendDecision(tradelog.DecisionEntry{
		Symbol:     r.Symbol,
		Action:     string(r.Action),
		Candidate:  string(r.Candidate),
		Gate:       string(r.Gate),
		Check:      string(r.Check),
		Lock:       st.LockLabel(),
		Reason:     r.Reason,
		Price:      r.Price,
		PNL:        r.PNL,
		TakeProfit: r.TakeProfit,
		StopLoss:   r.StopLoss,
		Scores:     scores,
		Votes:      flattenVotes(tfs),
	})
	if err != nil {
		logger.Warn(ctx, "Failed to write decision log", "symbol", r.Symbol, "error", err.Error())
	}
}
