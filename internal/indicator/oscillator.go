package indicator

import (
	"math"

	"spot-trader/internal/ta"
	"spot-trader/internal/types"
)

// thresholdVote is BUY below oversold and SELL above overbought.
func thresholdVote(v, oversold, overbought float64) types.Action {
	switch {
	case v < oversold:
		return types.ActionBuy
	case v > overbought:
		return types.ActionSell
	}
	return types.ActionHold
}

type rsiIndicator struct{}

func (rsiIndicator) Name() string { return "RSI" }

func (rsiIndicator) Defaults() Config { return Config{Period: 14, Oversold: 30, Overbought: 70} }

func (i rsiIndicator) Compute(candles []types.Candle, cfg Config) Bundle {
	cfg = cfg.withDefaults(i.Defaults())
	s := extract(candles)
	rsi := ta.RSI(s.close, cfg.Period)
	if rsi == nil {
		return Bundle{}
	}
	return Bundle{Value: rsi, Close: tail(s.close, len(rsi))}
}

func (i rsiIndicator) Classify(b Bundle, cfg Config) types.Action {
	if skip(b, cfg) {
		return types.ActionSkip
	}
	cfg = cfg.withDefaults(i.Defaults())
	return thresholdVote(ta.Last(b.Value), cfg.Oversold, cfg.Overbought)
}

// stochIndicator votes on %K/%D crosses inside the oversold or overbought zone.
// Period is the fast %K length, Slow the %K smoothing and Signal the %D length.
type stochIndicator struct{}

func (stochIndicator) Name() string { return "STOCH" }

func (stochIndicator) Defaults() Config {
	return Config{Period: 14, Slow: 3, Signal: 3, Oversold: 20, Overbought: 80}
}

func (i stochIndicator) Compute(candles []types.Candle, cfg Config) Bundle {
	cfg = cfg.withDefaults(i.Defaults())
	s := extract(candles)
	k, d := ta.Stoch(s.high, s.low, s.close, cfg.Period, cfg.Slow, cfg.Signal)
	if k == nil {
		return Bundle{}
	}
	return Bundle{Value: k, Signal: d, Close: tail(s.close, len(k))}
}

func (i stochIndicator) Classify(b Bundle, cfg Config) types.Action {
	if skip(b, cfg) {
		return types.ActionSkip
	}
	cfg = cfg.withDefaults(i.Defaults())
	prev, cur := last2(b.Value)
	switch {
	case ta.CrossOver(b.Value, b.Signal) && math.Min(prev, cur) < cfg.Oversold:
		return types.ActionBuy
	case ta.CrossUnder(b.Value, b.Signal) && math.Max(prev, cur) > cfg.Overbought:
		return types.ActionSell
	}
	return types.ActionHold
}

// cciIndicator votes when CCI leaves the oversold zone upward or the overbought zone downward.
type cciIndicator struct{}

func (cciIndicator) Name() string { return "CCI" }

func (cciIndicator) Defaults() Config { return Config{Period: 20, Oversold: -100, Overbought: 100} }

func (i cciIndicator) Compute(candles []types.Candle, cfg Config) Bundle {
	cfg = cfg.withDefaults(i.Defaults())
	s := extract(candles)
	cci := ta.CCI(s.high, s.low, s.close, cfg.Period)
	if cci == nil {
		return Bundle{}
	}
	return Bundle{Value: cci, Close: tail(s.close, len(cci))}
}

func (i cciIndicator) Classify(b Bundle, cfg Config) types.Action {
	if skip(b, cfg) {
		return types.ActionSkip
	}
	cfg = cfg.withDefaults(i.Defaults())
	switch {
	case ta.CrossAbove(b.Value, cfg.Oversold):
		return types.ActionBuy
	case ta.CrossBelow(b.Value, cfg.Overbought):
		return types.ActionSell
	}
	return types.ActionHold
}

type willrIndicator struct{}

func (willrIndicator) Name() string { return "WILLR" }

func (willrIndicator) Defaults() Config { return Config{Period: 14, Oversold: -80, Overbought: -20} }

func (i willrIndicator) Compute(candles []types.Candle, cfg Config) Bundle {
	cfg = cfg.withDefaults(i.Defaults())
	s := extract(candles)
	wr := ta.WillR(s.high, s.low, s.close, cfg.Period)
	if wr == nil {
		return Bundle{}
	}
	return Bundle{Value: wr, Close: tail(s.close, len(wr))}
}

func (i willrIndicator) Classify(b Bundle, cfg Config) types.Action {
	if skip(b, cfg) {
		return types.ActionSkip
	}
	cfg = cfg.withDefaults(i.Defaults())
	return thresholdVote(ta.Last(b.Value), cfg.Oversold, cfg.Overbought)
}

// mfiIndicator is a volume-weighted RSI.
type mfiIndicator struct{}

func (mfiIndicator) Name() string { return "MFI" }

func (mfiIndicator) Defaults() Config { return Config{Period: 14, Oversold: 20, Overbought: 80} }

func (i mfiIndicator) Compute(candles []types.Candle, cfg Config) Bundle {
	cfg = cfg.withDefaults(i.Defaults())
	s := extract(candles)
	mfi := ta.MFI(s.high, s.low, s.close, s.volume, cfg.Period)
	if mfi == nil {
		return Bundle{}
	}
	return Bundle{Value: mfi, Close: tail(s.close, len(mfi))}
}

func (i mfiIndicator) Classify(b Bundle, cfg Config) types.Action {
	if skip(b, cfg) {
		return types.ActionSkip
	}
	cfg = cfg.withDefaults(i.Defaults())
	return thresholdVote(ta.Last(b.Value), cfg.Oversold, cfg.Overbought)
}
