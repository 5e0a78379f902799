package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"spot-trader/internal/indicator"
	"spot-trader/internal/interfaces"
	"spot-trader/internal/logger"
	"spot-trader/internal/metrics"
	"spot-trader/internal/store"
	"spot-trader/internal/types"
)

// ErrUnknownSymbol is returned for symbols that are not configured.
var ErrUnknownSymbol = errors.New("unknown symbol")

// tradeHistory is how many fills the overlay reads per cycle.
const tradeHistory = 2

// Options tune an Engine. The zero value uses the wall clock and records no metrics.
type Options struct {
	// Now is the decision clock. Backtests pass the candle time.
	Now     func() time.Time
	Metrics *metrics.Metrics
}

type symbolRuntime struct {
	cfg    *store.SymbolConfig
	bounds []indicator.Bound
}

type Engine struct {
	cfg     *store.Config
	candles interfaces.CandleSource
	exch    interfaces.Exchange
	advisor interfaces.Decider
	orders  *orderExecutor
	book    *stateBook
	symbols map[string]*symbolRuntime
	now     func() time.Time
	metrics *metrics.Metrics
}

func newEngine(cfg *store.Config, candles interfaces.CandleSource, exch interfaces.Exchange, advisor interfaces.Decider, opts Options) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if candles == nil || exch == nil {
		return nil, errors.New("candle source and exchange are required")
	}

	e := &Engine{
		cfg:     cfg,
		candles: candles,
		exch:    exch,
		advisor: advisor,
		book:    newStateBook(),
		symbols: make(map[string]*symbolRuntime, len(cfg.Symbols)),
		now:     opts.Now,
		metrics: opts.Metrics,
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.orders = newOrderExecutor(exch, opts.Metrics)

	for _, name := range cfg.SymbolNames() {
		sc := cfg.Symbols[name]
		bounds, err := indicator.Resolve(sc.Indicators)
		if err != nil {
			return nil, fmt.Errorf("symbol %s: %w", name, err)
		}
		e.symbols[name] = &symbolRuntime{cfg: sc, bounds: bounds}
	}
	return e, nil
}

// Step runs one decision cycle for symbol and places the resulting order, if any.
// A runtime fault inside the cycle is logged and reported as HOLD without an error.
func (e *Engine) Step(ctx context.Context, symbol string) (res *types.StepResult, err error) {
	rt, ok := e.symbols[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			fault := fmt.Errorf("cycle fault: %v", r)
			logger.ErrorWithErr(ctx, "Decision cycle aborted, holding", fault, "symbol", symbol)
			e.metrics.CycleFailed(symbol, "fault")
			res = &types.StepResult{Symbol: symbol, Action: types.ActionHold, Reason: fault.Error()}
			err = nil
		}
	}()

	release := e.book.acquire(symbol)
	defer release()

	cl := logger.NewCycleLog()
	st := e.book.get(symbol, rt.cfg)

	tfs, latest, found, err := e.collectVotes(ctx, symbol, rt, &st)
	if err != nil {
		e.metrics.CycleFailed(symbol, "candles")
		return nil, err
	}
	if !found {
		logger.Warn(ctx, "No candles available, holding", "symbol", symbol)
		r := types.StepResult{Symbol: symbol, Action: types.ActionHold, Candidate: types.ActionHold, Reason: "no candles"}
		e.book.setResult(symbol, r)
		return &r, nil
	}

	holdings, err := e.exch.Holdings(ctx, symbol)
	if err != nil {
		e.metrics.CycleFailed(symbol, "exchange")
		return nil, fmt.Errorf("holdings %s: %w", symbol, err)
	}
	trades, err := e.exch.Trades(ctx, symbol, tradeHistory)
	if err != nil {
		e.metrics.CycleFailed(symbol, "exchange")
		return nil, fmt.Errorf("trades %s: %w", symbol, err)
	}
	book, err := e.exch.OrderBook(ctx, symbol)
	if err != nil {
		e.metrics.CycleFailed(symbol, "exchange")
		return nil, fmt.Errorf("order book %s: %w", symbol, err)
	}

	in := CycleInput{
		Config:     rt.cfg,
		Variant:    e.cfg.Variant,
		Timeframes: tfs,
		Close:      latest.Close,
		Holdings:   holdings,
		Trades:     trades,
		OrderBook:  book,
		Now:        e.now(),
		Advisor: AdvisorPolicy{
			Mode:          e.cfg.Advisor.Mode,
			MinConfidence: e.cfg.Advisor.MinConfidence,
		},
	}
	in.Advice = e.consultAdvisor(ctx, symbol, latest, in)

	if err := ctx.Err(); err != nil {
		logger.Debug(ctx, "Cycle cancelled before commit", "symbol", symbol)
		return nil, err
	}

	out, next := Decide(in, st)
	switch out.Overlay.Check {
	case types.ActionTakeProfit, types.ActionStopLoss:
		logger.Risk(ctx, symbol, string(out.Overlay.Check),
			"pnl", out.Overlay.PNL,
			"take_profit", out.Overlay.TakeProfit,
			"stop_loss", out.Overlay.StopLoss,
			"gate", string(out.Gate),
		)
	}

	cl.Push("symbol", symbol)
	cl.Push("price", latest.Close)
	cl.Push("gate", out.Gate)
	cl.Push("check", out.Overlay.Check)
	cl.Push("pnl", out.Overlay.PNL)
	cl.Push("buy", out.Scores[types.ActionBuy])
	cl.Push("sell", out.Scores[types.ActionSell])
	cl.Push("hold", out.Scores[types.ActionHold])
	cl.Push("candidate", out.Candidate)
	cl.Push("lock", next.LockLabel())

	reason := out.Reason
	var orders []types.OrderResp
	if out.Action.IsTrade() {
		resp, oerr := e.orders.place(ctx, symbol, rt.cfg, out, orderTag(out))
		if oerr != nil {
			// The trade did not happen, so the lock must not record it.
			next.Locked, next.LockedSide, next.Target = st.Locked, st.LockedSide, st.Target
			reason += " | order_err:" + oerr.Error()
			cl.Push("order_err", oerr.Error())
		} else {
			orders = append(orders, resp)
			cl.Push("order_id", resp.OrderID)
		}
	}
	e.book.put(symbol, next)
	cl.Push("action", out.Action)

	r := types.StepResult{
		Symbol:     symbol,
		Action:     out.Action,
		Candidate:  out.Candidate,
		Gate:       out.Gate,
		Check:      out.Overlay.Check,
		Scores:     map[types.Action]float64(out.Scores),
		PNL:        out.Overlay.PNL,
		TakeProfit: out.Overlay.TakeProfit,
		StopLoss:   out.Overlay.StopLoss,
		Price:      out.Reference,
		Time:       latest.Timestamp,
		Orders:     orders,
		Reason:     reason,
	}
	e.book.setResult(symbol, r)

	e.orders.logDecision(ctx, r, next, tfs)
	logger.Decision(ctx, symbol, string(out.Action), out.Scores[out.Gate], reason)
	cl.Flush(ctx, "Cycle")

	e.metrics.Scores(symbol, scoreLabels(out.Scores), out.Overlay.PNL)
	e.metrics.ObserveCycle(symbol, string(out.Action), time.Since(start).Seconds())
	return &r, nil
}

// consultAdvisor asks the advisory classifier for the ALGORITHMIC variant.
// It is skipped when the gate leaves nothing to trade. Advisor errors are logged and ignored.
func (e *Engine) consultAdvisor(ctx context.Context, symbol string, latest types.Candle, in CycleInput) *types.Decision {
	if e.advisor == nil || in.Variant != store.VariantAlgorithmic {
		return nil
	}
	gate := Gate(GateInput{
		Close:    in.Close,
		Holdings: in.Holdings,
		Filter:   in.Config.Filter,
		LastSide: lastSide(in.Trades),
	})
	if !gate.IsTrade() {
		return nil
	}

	scores := Aggregate(in.Timeframes)
	d, err := e.advisor.Decide(ctx, symbol, latest, scores, map[string]any{
		"gate":      string(gate),
		"price":     in.Close,
		"threshold": in.Config.AgreementThreshold,
		"holdings":  in.Holdings,
	})
	if err != nil {
		logger.WarnSkip(ctx, 1, "Advisor failed, deciding without advice", "symbol", symbol, "error", err.Error())
		e.metrics.Advisor("error")
		return nil
	}
	e.metrics.Advisor("ok")
	return &d
}

func (e *Engine) Symbols() []string {
	return e.cfg.SymbolNames()
}

func (e *Engine) Snapshot(symbol string) (types.SymbolSnapshot, bool) {
	st, ok := e.book.peek(symbol)
	if !ok {
		rt, known := e.symbols[symbol]
		if !known {
			return types.SymbolSnapshot{}, false
		}
		st = NewSymbolState(rt.cfg)
	}
	return st.Snapshot(symbol), true
}

func (e *Engine) LastResult(symbol string) (types.StepResult, bool) {
	return e.book.result(symbol)
}

// SetTarget waits for any in-flight cycle of symbol, then replaces its lock target.
// An empty target disables trading in the CONSECUTIVE variant.
func (e *Engine) SetTarget(ctx context.Context, symbol string, target types.Action) error {
	rt, ok := e.symbols[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	target = types.Action(strings.ToUpper(string(target)))
	if target != "" && !target.IsTrade() {
		return fmt.Errorf("invalid target %q: must be BUY, SELL or empty", target)
	}

	release := e.book.acquire(symbol)
	defer release()
	if err := ctx.Err(); err != nil {
		return err
	}
	e.book.update(symbol, rt.cfg, func(st *SymbolState) {
		st.Target = target
	})
	logger.Info(ctx, "Lock target changed", "symbol", symbol, "target", string(target))
	return nil
}

// orderTag labels an order with what triggered it.
func orderTag(out Outcome) string {
	switch out.Overlay.Check {
	case types.ActionTakeProfit, types.ActionStopLoss:
		if out.Action == out.Gate {
			return string(out.Overlay.Check)
		}
	}
	return "AGREEMENT"
}

func scoreLabels(s Scores) map[string]float64 {
	out := make(map[string]float64, len(s))
	for a, v := range s {
		out[string(a)] = v
	}
	return out
}
