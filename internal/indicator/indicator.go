// Package indicator turns candle series into BUY/SELL/HOLD/SKIP votes.
package indicator

import (
	"math"

	"spot-trader/internal/ta"
	"spot-trader/internal/types"
)

// Config configures one indicator vote. Zero or negative periods and zero
// thresholds fall back to the indicator's defaults.
type Config struct {
	Name       string  `yaml:"name" json:"name"`
	Enabled    bool    `yaml:"enabled" json:"enabled"`
	Weight     float64 `yaml:"weight" json:"weight"`
	Period     int     `yaml:"period" json:"period,omitempty"`
	Fast       int     `yaml:"fast" json:"fast,omitempty"`
	Slow       int     `yaml:"slow" json:"slow,omitempty"`
	Signal     int     `yaml:"signal" json:"signal,omitempty"`
	StdDev     float64 `yaml:"stddev" json:"stddev,omitempty"`
	Overbought float64 `yaml:"overbought" json:"overbought,omitempty"`
	Oversold   float64 `yaml:"oversold" json:"oversold,omitempty"`
	Threshold  float64 `yaml:"threshold" json:"threshold,omitempty"`
}

// withDefaults returns c with every unset parameter taken from def.
func (c Config) withDefaults(def Config) Config {
	if c.Period <= 0 {
		c.Period = def.Period
	}
	if c.Fast <= 0 {
		c.Fast = def.Fast
	}
	if c.Slow <= 0 {
		c.Slow = def.Slow
	}
	if c.Signal <= 0 {
		c.Signal = def.Signal
	}
	if c.StdDev <= 0 || math.IsNaN(c.StdDev) {
		c.StdDev = def.StdDev
	}
	if c.Overbought == 0 || math.IsNaN(c.Overbought) {
		c.Overbought = def.Overbought
	}
	if c.Oversold == 0 || math.IsNaN(c.Oversold) {
		c.Oversold = def.Oversold
	}
	if c.Threshold == 0 || math.IsNaN(c.Threshold) {
		c.Threshold = def.Threshold
	}
	return c
}

// Bundle holds the computed series of one indicator in fixed slots.
// All non-empty slots have the same length and are aligned to the tail of the candle series.
type Bundle struct {
	Value     []float64
	Signal    []float64
	Histogram []float64
	Upper     []float64
	Lower     []float64
	Close     []float64
}

// Len returns the number of aligned points.
func (b Bundle) Len() int {
	return len(b.Value)
}

func (b Bundle) Empty() bool {
	return len(b.Value) == 0
}

// Indicator is a pure signal source.
type Indicator interface {
	Name() string
	// Defaults returns the parameters used for unset or invalid configuration.
	Defaults() Config
	// Compute returns an empty Bundle when candles do not cover the warm-up.
	Compute(candles []types.Candle, cfg Config) Bundle
	// Classify returns SKIP when cfg is disabled or b has fewer than two points.
	Classify(b Bundle, cfg Config) types.Action
}

// skip implements the shared SKIP rule for Classify.
func skip(b Bundle, cfg Config) bool {
	return !cfg.Enabled || b.Len() < ta.MinPoints
}

// AdjustWeight returns the weight an indicator carries after voting a.
// A BUY or SELL keeps a valid current weight and resets an invalid one to canonical.
func AdjustWeight(current, canonical float64, a types.Action) float64 {
	if !a.IsTrade() {
		return current
	}
	if current > 0 && !math.IsNaN(current) && !math.IsInf(current, 0) {
		return current
	}
	return canonical
}

type series struct {
	open, high, low, close, volume []float64
}

func extract(candles []types.Candle) series {
	s := series{
		open:   make([]float64, len(candles)),
		high:   make([]float64, len(candles)),
		low:    make([]float64, len(candles)),
		close:  make([]float64, len(candles)),
		volume: make([]float64, len(candles)),
	}
	for i, c := range candles {
		s.open[i] = c.Open
		s.high[i] = c.High
		s.low[i] = c.Low
		s.close[i] = c.Close
		s.volume[i] = c.Volume
	}
	return s
}

// tail returns the last n elements of xs, or nil when xs is shorter than n.
func tail(xs []float64, n int) []float64 {
	if n <= 0 || len(xs) < n {
		return nil
	}
	return xs[len(xs)-n:]
}

// last2 returns the previous and last values of xs. Callers check the length first.
func last2(xs []float64) (prev, cur float64) {
	return xs[len(xs)-2], xs[len(xs)-1]
}
