package indicator

import (
	"spot-trader/internal/ta"
	"spot-trader/internal/types"
)

// smaIndicator votes for trend continuation: price above a rising SMA is BUY,
// price below a falling SMA is SELL.
type smaIndicator struct{}

func (smaIndicator) Name() string { return "SMA" }

func (smaIndicator) Defaults() Config { return Config{Period: 20} }

func (i smaIndicator) Compute(candles []types.Candle, cfg Config) Bundle {
	cfg = cfg.withDefaults(i.Defaults())
	s := extract(candles)
	sma := ta.SMA(s.close, cfg.Period)
	if sma == nil {
		return Bundle{}
	}
	return Bundle{Value: sma, Close: tail(s.close, len(sma))}
}

func (smaIndicator) Classify(b Bundle, cfg Config) types.Action {
	if skip(b, cfg) {
		return types.ActionSkip
	}
	prev, cur := last2(b.Value)
	price := ta.Last(b.Close)
	switch {
	case price > cur && cur > prev:
		return types.ActionBuy
	case price < cur && cur < prev:
		return types.ActionSell
	}
	return types.ActionHold
}

// emaIndicator votes on fast/slow EMA crossovers.
type emaIndicator struct{}

func (emaIndicator) Name() string { return "EMA" }

func (emaIndicator) Defaults() Config { return Config{Fast: 9, Slow: 21} }

func (i emaIndicator) Compute(candles []types.Candle, cfg Config) Bundle {
	cfg = cfg.withDefaults(i.Defaults())
	fast, slow := cfg.Fast, cfg.Slow
	if fast > slow {
		fast, slow = slow, fast
	}
	s := extract(candles)
	slowEMA := ta.EMA(s.close, slow)
	fastEMA := tail(ta.EMA(s.close, fast), len(slowEMA))
	if slowEMA == nil || fastEMA == nil {
		return Bundle{}
	}
	return Bundle{Value: fastEMA, Signal: slowEMA, Close: tail(s.close, len(slowEMA))}
}

func (emaIndicator) Classify(b Bundle, cfg Config) types.Action {
	if skip(b, cfg) {
		return types.ActionSkip
	}
	switch {
	case ta.CrossOver(b.Value, b.Signal):
		return types.ActionBuy
	case ta.CrossUnder(b.Value, b.Signal):
		return types.ActionSell
	}
	return types.ActionHold
}

// macdIndicator votes on histogram zero-line crosses.
type macdIndicator struct{}

func (macdIndicator) Name() string { return "MACD" }

func (macdIndicator) Defaults() Config { return Config{Fast: 12, Slow: 26, Signal: 9} }

func (i macdIndicator) Compute(candles []types.Candle, cfg Config) Bundle {
	cfg = cfg.withDefaults(i.Defaults())
	s := extract(candles)
	macd, sig, hist := ta.MACD(s.close, cfg.Fast, cfg.Slow, cfg.Signal)
	if macd == nil {
		return Bundle{}
	}
	return Bundle{Value: macd, Signal: sig, Histogram: hist, Close: tail(s.close, len(macd))}
}

func (macdIndicator) Classify(b Bundle, cfg Config) types.Action {
	if skip(b, cfg) {
		return types.ActionSkip
	}
	switch {
	case ta.CrossAbove(b.Histogram, 0):
		return types.ActionBuy
	case ta.CrossBelow(b.Histogram, 0):
		return types.ActionSell
	}
	return types.ActionHold
}

// adxIndicator votes with the dominant directional index once the trend is strong enough.
// Upper carries +DI and Lower carries -DI.
type adxIndicator struct{}

func (adxIndicator) Name() string { return "ADX" }

func (adxIndicator) Defaults() Config { return Config{Period: 14, Threshold: 25} }

func (i adxIndicator) Compute(candles []types.Candle, cfg Config) Bundle {
	cfg = cfg.withDefaults(i.Defaults())
	s := extract(candles)
	adx, plus, minus := ta.ADX(s.high, s.low, s.close, cfg.Period)
	if adx == nil {
		return Bundle{}
	}
	return Bundle{Value: adx, Upper: plus, Lower: minus, Close: tail(s.close, len(adx))}
}

func (i adxIndicator) Classify(b Bundle, cfg Config) types.Action {
	if skip(b, cfg) {
		return types.ActionSkip
	}
	cfg = cfg.withDefaults(i.Defaults())
	if ta.Last(b.Value) <= cfg.Threshold {
		return types.ActionHold
	}
	plus, minus := ta.Last(b.Upper), ta.Last(b.Lower)
	switch {
	case plus > minus:
		return types.ActionBuy
	case minus > plus:
		return types.ActionSell
	}
	return types.ActionHold
}

// rocIndicator votes on rate-of-change zero-line crosses.
type rocIndicator struct{}

func (rocIndicator) Name() string { return "ROC" }

func (rocIndicator) Defaults() Config { return Config{Period: 10} }

func (i rocIndicator) Compute(candles []types.Candle, cfg Config) Bundle {
	cfg = cfg.withDefaults(i.Defaults())
	s := extract(candles)
	roc := ta.ROC(s.close, cfg.Period)
	if roc == nil {
		return Bundle{}
	}
	return Bundle{Value: roc, Close: tail(s.close, len(roc))}
}

func (rocIndicator) Classify(b Bundle, cfg Config) types.Action {
	if skip(b, cfg) {
		return types.ActionSkip
	}
	switch {
	case ta.CrossAbove(b.Value, 0):
		return types.ActionBuy
	case ta.CrossBelow(b.Value, 0):
		return types.ActionSell
	}
	return types.ActionHold
}
