package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"spot-trader/internal/candles"
	"spot-trader/internal/engine"
	"spot-trader/internal/exchange/paper"
	"spot-trader/internal/interfaces"
	"spot-trader/internal/logger"
	"spot-trader/internal/metrics"
	"spot-trader/internal/store"
	"spot-trader/internal/types"
)

// SymbolSummary is the outcome of a replay for one symbol.
type SymbolSummary struct {
	Symbol      string
	Cycles      int
	Orders      int
	Actions     map[types.Action]int
	Start       types.Holdings
	End         types.Holdings
	FirstClose  float64
	LastClose   float64
	StartEquity float64
	EndEquity   float64
	ReturnPct   float64
}

type Summary struct {
	From    time.Time
	To      time.Time
	Symbols []SymbolSummary
}

// batch is every candle that closes at the same instant.
type batch struct {
	closeAt time.Time
	candles []types.Candle
}

// Replayer drives recorded candles through the live engine and paper exchange.
type Replayer struct {
	cfg     *store.Config
	journal *paper.Journal
	advisor interfaces.Decider
	metrics *metrics.Metrics
}

// New returns a Replayer. advisor and m may be nil.
func New(cfg *store.Config, journal *paper.Journal, advisor interfaces.Decider, m *metrics.Metrics) *Replayer {
	return &Replayer{cfg: cfg, journal: journal, advisor: advisor, metrics: m}
}

// Run replays series in close-time order. Each closed candle on the first configured
// timeframe runs one cycle for its symbol, with the decision clock at the candle close.
func (r *Replayer) Run(ctx context.Context, series []types.Candle) (Summary, error) {
	if len(r.cfg.Timeframes) == 0 {
		return Summary{}, errors.New("no timeframes configured")
	}
	batches, err := schedule(series)
	if err != nil {
		return Summary{}, err
	}

	var clock time.Time
	now := func() time.Time { return clock }

	cs := candles.NewMemory(r.cfg.MaxCandles)
	exch := paper.New(paper.Config{
		SpreadBps:     r.cfg.Paper.SpreadBps,
		FeePercentage: r.cfg.Paper.FeePercentage,
		Balances:      r.cfg.Paper.Balances,
		Interval:      r.cfg.Timeframes[0],
		Now:           now,
	}, cs, r.journal)

	eng, err := engine.New(r.cfg, cs, exch, r.advisor, engine.Options{Now: now, Metrics: r.metrics})
	if err != nil {
		return Summary{}, err
	}

	primary := r.cfg.Timeframes[0]
	sums := make(map[string]*SymbolSummary, len(r.cfg.Symbols))
	for _, name := range r.cfg.SymbolNames() {
		start, err := exch.Holdings(ctx, name)
		if err != nil {
			return Summary{}, err
		}
		sums[name] = &SymbolSummary{Symbol: name, Actions: map[types.Action]int{}, Start: start}
	}

	var out Summary
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		for _, c := range b.candles {
			if err := cs.Append(ctx, c); err != nil {
				return Summary{}, fmt.Errorf("append %s %s: %w", c.Symbol, c.Interval, err)
			}
		}

		clock = b.closeAt
		for _, c := range b.candles {
			sum, ok := sums[c.Symbol]
			if !ok || c.Interval != primary {
				continue
			}
			res, err := eng.Step(ctx, c.Symbol)
			if err != nil {
				return Summary{}, fmt.Errorf("step %s at %s: %w", c.Symbol, clock.Format(time.RFC3339), err)
			}
			if sum.Cycles == 0 {
				sum.FirstClose = c.Close
			}
			if out.From.IsZero() {
				out.From = clock
			}
			out.To = clock
			sum.Cycles++
			sum.LastClose = c.Close
			sum.Actions[res.Action]++
			sum.Orders += len(res.Orders)
		}
	}

	for _, name := range r.cfg.SymbolNames() {
		sum := sums[name]
		end, err := exch.Holdings(ctx, name)
		if err != nil {
			return Summary{}, err
		}
		sum.End = end
		sum.StartEquity = sum.Start.Base*sum.FirstClose + sum.Start.Quote
		sum.EndEquity = sum.End.Base*sum.LastClose + sum.End.Quote
		if sum.StartEquity > 0 {
			sum.ReturnPct = (sum.EndEquity - sum.StartEquity) / sum.StartEquity * 100
		}
		out.Symbols = append(out.Symbols, *sum)

		logger.Info(ctx, "Backtest symbol finished",
			"symbol", name,
			"cycles", sum.Cycles,
			"orders", sum.Orders,
			"start_equity", sum.StartEquity,
			"end_equity", sum.EndEquity,
			"return_pct", sum.ReturnPct,
		)
	}
	return out, nil
}

// schedule groups candles by close time. Within a close time, candles keep their input order.
func schedule(series []types.Candle) ([]batch, error) {
	type event struct {
		closeAt time.Time
		candle  types.Candle
	}
	events := make([]event, 0, len(series))
	for _, c := range series {
		d, err := IntervalDuration(c.Interval)
		if err != nil {
			return nil, err
		}
		events = append(events, event{closeAt: c.Time().Add(d), candle: c})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].closeAt.Before(events[j].closeAt)
	})

	var out []batch
	for _, e := range events {
		if n := len(out); n > 0 && out[n-1].closeAt.Equal(e.closeAt) {
			out[n-1].candles = append(out[n-1].candles, e.candle)
			continue
		}
		out = append(out, batch{closeAt: e.closeAt, candles: []types.Candle{e.candle}})
	}
	return out, nil
}
