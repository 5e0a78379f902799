package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-trader/internal/types"
)

func candlesFromCloses(closes []float64) []types.Candle {
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		out[i] = types.Candle{
			Symbol:    "BTCUSDT",
			Interval:  "15m",
			Timestamp: int64(i) * 900_000,
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    10 + float64(i%3),
			IsFinal:   true,
		}
	}
	return out
}

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/4)
	}
	return out
}

func TestRegistryHasAllIndicators(t *testing.T) {
	assert.Equal(t,
		[]string{"ADX", "BBANDS", "CCI", "EMA", "MACD", "MFI", "ROC", "RSI", "SMA", "STOCH", "WILLR"},
		Names())

	ind, ok := Lookup("rsi")
	require.True(t, ok)
	assert.Equal(t, "RSI", ind.Name())
}

func TestResolveRejectsUnknownNames(t *testing.T) {
	_, err := Resolve([]Config{{Name: "SMA", Enabled: true}, {Name: "ICHIMOKU", Enabled: true}})
	assert.Error(t, err)

	bound, err := Resolve([]Config{{Name: "sma", Enabled: true}, {Name: "Rsi"}})
	require.NoError(t, err)
	require.Len(t, bound, 2)
	assert.Equal(t, "SMA", bound[0].Config.Name)
	assert.Equal(t, "RSI", bound[1].Name())
}

func TestDisabledAlwaysSkips(t *testing.T) {
	candles := candlesFromCloses(wave(200))
	for _, name := range Names() {
		ind, _ := Lookup(name)
		b := ind.Compute(candles, Config{Name: name, Enabled: true})
		require.False(t, b.Empty(), "%s should compute over 200 candles", name)

		assert.Equal(t, types.ActionSkip, ind.Classify(b, Config{Name: name, Enabled: false}), name)
	}
}

func TestShortInputComputesEmpty(t *testing.T) {
	for _, name := range Names() {
		ind, _ := Lookup(name)
		for n := 0; n < 5; n++ {
			candles := candlesFromCloses(ramp(n, 100, 1))
			var b Bundle
			assert.NotPanics(t, func() {
				b = ind.Compute(candles, Config{Name: name, Enabled: true})
			}, name)
			assert.True(t, b.Empty(), "%s with %d candles", name, n)
			assert.Equal(t, types.ActionSkip, ind.Classify(b, Config{Name: name, Enabled: true}), name)
		}
	}
}

func TestMalformedPeriodsFallBackToDefaults(t *testing.T) {
	candles := candlesFromCloses(wave(120))
	for _, name := range Names() {
		ind, _ := Lookup(name)
		bad := Config{Name: name, Enabled: true, Period: -3, Fast: 0, Slow: -1, Signal: 0, StdDev: -2}
		var got Bundle
		assert.NotPanics(t, func() { got = ind.Compute(candles, bad) }, name)
		want := ind.Compute(candles, Config{Name: name, Enabled: true})
		assert.Equal(t, want, got, name)
	}
}

func TestBundlesContainNoNaN(t *testing.T) {
	flat := make([]float64, 80)
	for i := range flat {
		flat[i] = 100
	}
	candles := candlesFromCloses(flat)
	for i := range candles {
		candles[i].High, candles[i].Low, candles[i].Volume = 100, 100, 0
	}
	for _, name := range Names() {
		ind, _ := Lookup(name)
		b := ind.Compute(candles, Config{Name: name, Enabled: true})
		for _, slot := range [][]float64{b.Value, b.Signal, b.Histogram, b.Upper, b.Lower, b.Close} {
			for _, v := range slot {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s produced %v", name, v)
			}
		}
	}
}

func TestSMATrendContinuation(t *testing.T) {
	ind, _ := Lookup("SMA")
	cfg := Config{Name: "SMA", Enabled: true, Period: 5}

	up := ind.Compute(candlesFromCloses(ramp(30, 100, 1)), cfg)
	assert.Equal(t, types.ActionBuy, ind.Classify(up, cfg))

	down := ind.Compute(candlesFromCloses(ramp(30, 200, -1)), cfg)
	assert.Equal(t, types.ActionSell, ind.Classify(down, cfg))

	flat := ind.Compute(candlesFromCloses(ramp(30, 100, 0)), cfg)
	assert.Equal(t, types.ActionHold, ind.Classify(flat, cfg))
}

func TestRSIThresholds(t *testing.T) {
	ind, _ := Lookup("RSI")
	cfg := Config{Name: "RSI", Enabled: true}

	rising := ind.Compute(candlesFromCloses(ramp(40, 100, 1)), cfg)
	assert.Equal(t, types.ActionSell, ind.Classify(rising, cfg))

	falling := ind.Compute(candlesFromCloses(ramp(40, 200, -1)), cfg)
	assert.Equal(t, types.ActionBuy, ind.Classify(falling, cfg))
}

func TestBBandsBreach(t *testing.T) {
	ind, _ := Lookup("BBANDS")
	cfg := Config{Name: "BBANDS", Enabled: true}

	closes := ramp(30, 100, 0)
	closes = append(closes, 120)
	b := ind.Compute(candlesFromCloses(closes), cfg)
	assert.Equal(t, types.ActionSell, ind.Classify(b, cfg))

	closes[len(closes)-1] = 80
	b = ind.Compute(candlesFromCloses(closes), cfg)
	assert.Equal(t, types.ActionBuy, ind.Classify(b, cfg))
}

func TestClassifyRules(t *testing.T) {
	on := func(name string) (Indicator, Config) {
		ind, ok := Lookup(name)
		require.True(t, ok)
		return ind, Config{Name: name, Enabled: true}
	}

	cases := []struct {
		name   string
		bundle Bundle
		want   types.Action
	}{
		{"EMA", Bundle{Value: []float64{9, 11}, Signal: []float64{10, 10}}, types.ActionBuy},
		{"EMA", Bundle{Value: []float64{11, 9}, Signal: []float64{10, 10}}, types.ActionSell},
		{"EMA", Bundle{Value: []float64{11, 12}, Signal: []float64{10, 10}}, types.ActionHold},
		{"MACD", Bundle{Value: []float64{1, 1}, Histogram: []float64{-0.5, 0.2}}, types.ActionBuy},
		{"MACD", Bundle{Value: []float64{1, 1}, Histogram: []float64{0.5, -0.2}}, types.ActionSell},
		{"MACD", Bundle{Value: []float64{1, 1}, Histogram: []float64{0.5, 0.2}}, types.ActionHold},
		{"STOCH", Bundle{Value: []float64{10, 18}, Signal: []float64{12, 15}}, types.ActionBuy},
		{"STOCH", Bundle{Value: []float64{90, 82}, Signal: []float64{88, 85}}, types.ActionSell},
		{"STOCH", Bundle{Value: []float64{45, 55}, Signal: []float64{50, 50}}, types.ActionHold},
		{"ADX", Bundle{Value: []float64{30, 31}, Upper: []float64{25, 28}, Lower: []float64{15, 12}}, types.ActionBuy},
		{"ADX", Bundle{Value: []float64{30, 31}, Upper: []float64{15, 12}, Lower: []float64{25, 28}}, types.ActionSell},
		{"ADX", Bundle{Value: []float64{18, 20}, Upper: []float64{25, 28}, Lower: []float64{15, 12}}, types.ActionHold},
		{"CCI", Bundle{Value: []float64{-130, -90}}, types.ActionBuy},
		{"CCI", Bundle{Value: []float64{130, 90}}, types.ActionSell},
		{"CCI", Bundle{Value: []float64{10, 20}}, types.ActionHold},
		{"WILLR", Bundle{Value: []float64{-70, -90}}, types.ActionBuy},
		{"WILLR", Bundle{Value: []float64{-30, -10}}, types.ActionSell},
		{"MFI", Bundle{Value: []float64{25, 15}}, types.ActionBuy},
		{"MFI", Bundle{Value: []float64{75, 85}}, types.ActionSell},
		{"ROC", Bundle{Value: []float64{-1, 1}}, types.ActionBuy},
		{"ROC", Bundle{Value: []float64{1, -1}}, types.ActionSell},
		{"ROC", Bundle{Value: []float64{1}}, types.ActionSkip},
	}
	for _, tc := range cases {
		ind, cfg := on(tc.name)
		assert.Equal(t, tc.want, ind.Classify(tc.bundle, cfg), "%s %v", tc.name, tc.bundle.Value)
	}
}

func TestBoundEvaluateSkipsWhenDisabled(t *testing.T) {
	bound, err := Resolve([]Config{{Name: "SMA", Enabled: false}})
	require.NoError(t, err)

	action, b := bound[0].Evaluate(candlesFromCloses(ramp(50, 100, 1)))
	assert.Equal(t, types.ActionSkip, action)
	assert.True(t, b.Empty())
}

func TestAdjustWeight(t *testing.T) {
	assert.Equal(t, 2.0, AdjustWeight(2, 1, types.ActionBuy))
	assert.Equal(t, 1.0, AdjustWeight(0, 1, types.ActionSell))
	assert.Equal(t, 1.0, AdjustWeight(math.NaN(), 1, types.ActionBuy))
	assert.Equal(t, 0.0, AdjustWeight(0, 1, types.ActionHold))
	assert.Equal(t, 3.0, AdjustWeight(3, 1, types.ActionSkip))
}
