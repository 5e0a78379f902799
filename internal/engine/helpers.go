package engine

import (
	"context"
	"fmt"

	"spot-trader/internal/indicator"
	"spot-trader/internal/logger"
	"spot-trader/internal/types"
)

// collectVotes evaluates every bound indicator on every configured timeframe.
// Weights in st are adjusted per vote before they are used.
//
// Parameters:
//   - ctx: Context for logging and tracing
//   - symbol: Trading symbol
//   - rt: resolved indicators and configuration of the symbol
//   - st: symbol state whose weights are read and adjusted
//
// Returns:
//   - tfs: votes grouped per timeframe, in configured order
//   - latest: newest candle of the first timeframe
//   - found: false when the first timeframe has no candles
//   - err: candle source error
func (e *Engine) collectVotes(ctx context.Context, symbol string, rt *symbolRuntime, st *SymbolState) ([]TimeframeVotes, types.Candle, bool, error) {
	var (
		latest types.Candle
		found  bool
	)
	tfs := make([]TimeframeVotes, 0, len(e.cfg.Timeframes))

	for i, tf := range e.cfg.Timeframes {
		candles, err := e.candles.Candles(ctx, symbol, tf, e.cfg.MaxCandles)
		if err != nil {
			return nil, types.Candle{}, false, fmt.Errorf("candles %s %s: %w", symbol, tf, err)
		}
		if i == 0 && len(candles) > 0 {
			latest = candles[len(candles)-1]
			found = true
		}

		votes := make([]Vote, 0, len(rt.bounds))
		points := make(map[string]int, len(rt.bounds))
		for _, b := range rt.bounds {
			action, bundle := b.Evaluate(candles)
			name := b.Config.Name
			points[name] = bundle.Len()
			st.Weights[name] = indicator.AdjustWeight(st.Weights[name], b.Config.Weight, action)
			votes = append(votes, Vote{Indicator: name, Action: action, Weight: st.weight(name)})
		}
		tfs = append(tfs, TimeframeVotes{Timeframe: tf, Votes: votes})

		if logger.IsDebugEnabled() {
			logger.Debug(ctx, "Timeframe votes", "symbol", symbol, "timeframe", tf, "candles", len(candles), "votes", voteLabels(votes), "points", points)
		}
	}
	return tfs, latest, found, nil
}

func voteLabels(votes []Vote) map[string]string {
	out := make(map[string]string, len(votes))
	for _, v := range votes {
		out[v.Indicator] = string(v.Action)
	}
	return out
}

// flattenVotes keys each vote as "timeframe/indicator".
func flattenVotes(tfs []TimeframeVotes) map[string]string {
	out := make(map[string]string)
	for _, tf := range tfs {
		for _, v := range tf.Votes {
			out[tf.Timeframe+"/"+v.Indicator] = string(v.Action)
		}
	}
	return out
}
