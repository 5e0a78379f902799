package indicator

import (
	"spot-trader/internal/ta"
	"spot-trader/internal/types"
)

// bbandsIndicator votes on Bollinger band breaches: close under the lower band is BUY,
// close over the upper band is SELL. Value carries the middle band.
type bbandsIndicator struct{}

func (bbandsIndicator) Name() string { return "BBANDS" }

func (bbandsIndicator) Defaults() Config { return Config{Period: 20, StdDev: 2} }

func (i bbandsIndicator) Compute(candles []types.Candle, cfg Config) Bundle {
	cfg = cfg.withDefaults(i.Defaults())
	s := extract(candles)
	upper, middle, lower := ta.BBands(s.close, cfg.Period, cfg.StdDev)
	if middle == nil {
		return Bundle{}
	}
	return Bundle{Value: middle, Upper: upper, Lower: lower, Close: tail(s.close, len(middle))}
}

func (bbandsIndicator) Classify(b Bundle, cfg Config) types.Action {
	if skip(b, cfg) {
		return types.ActionSkip
	}
	price := ta.Last(b.Close)
	switch {
	case price < ta.Last(b.Lower):
		return types.ActionBuy
	case price > ta.Last(b.Upper):
		return types.ActionSell
	}
	return types.ActionHold
}
