// Package ta wraps go-talib with warm-up guards.
//
// Every function returns a series aligned to a suffix of its input: the
// warm-up prefix that talib fills with zeros is trimmed, NaN and Inf values
// are replaced by 0, and input shorter than the warm-up yields nil.
package ta

import (
	"math"

	talib "github.com/markcheno/go-talib"
)

// MinPoints is the number of aligned output points every series must have
// for a classification to compare the last value with the one before it.
const MinPoints = 2

func SMA(closes []float64, period int) []float64 {
	lookback := period - 1
	if !enough(len(closes), period, lookback) {
		return nil
	}
	return trim(talib.Sma(closes, period), lookback)
}

func EMA(closes []float64, period int) []float64 {
	lookback := period - 1
	if !enough(len(closes), period, lookback) {
		return nil
	}
	return trim(talib.Ema(closes, period), lookback)
}

func RSI(closes []float64, period int) []float64 {
	lookback := period
	if !enough(len(closes), period, lookback) {
		return nil
	}
	return trim(talib.Rsi(closes, period), lookback)
}

// MACD returns the macd line, its signal line and the histogram.
func MACD(closes []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return nil, nil, nil
	}
	if fast > slow {
		fast, slow = slow, fast
	}
	lookback := (slow - 1) + (signal - 1)
	if !enough(len(closes), 1, lookback) {
		return nil, nil, nil
	}
	m, s, h := talib.Macd(closes, fast, slow, signal)
	return trim(m, lookback), trim(s, lookback), trim(h, lookback)
}

// BBands returns the upper, middle and lower Bollinger bands around an SMA.
func BBands(closes []float64, period int, stddev float64) (upper, middle, lower []float64) {
	lookback := period - 1
	if stddev <= 0 || !enough(len(closes), period, lookback) {
		return nil, nil, nil
	}
	u, m, l := talib.BBands(closes, period, stddev, stddev, talib.SMA)
	return trim(u, lookback), trim(m, lookback), trim(l, lookback)
}

// Stoch returns slow %K and %D, both smoothed with an SMA.
func Stoch(highs, lows, closes []float64, fastK, slowK, slowD int) (k, d []float64) {
	if fastK <= 0 || slowK <= 0 || slowD <= 0 || !sameLen(highs, lows, closes) {
		return nil, nil
	}
	lookback := (fastK - 1) + (slowK - 1) + (slowD - 1)
	if !enough(len(closes), 1, lookback) {
		return nil, nil
	}
	sk, sd := talib.Stoch(highs, lows, closes, fastK, slowK, talib.SMA, slowD, talib.SMA)
	return trim(sk, lookback), trim(sd, lookback)
}

// ADX returns the average directional index together with +DI and -DI, all aligned to the ADX warm-up.
func ADX(highs, lows, closes []float64, period int) (adx, plusDI, minusDI []float64) {
	if !sameLen(highs, lows, closes) {
		return nil, nil, nil
	}
	lookback := 2*period - 1
	if !enough(len(closes), period, lookback) {
		return nil, nil, nil
	}
	adx = trim(talib.Adx(highs, lows, closes, period), lookback)
	plusDI = trim(talib.PlusDI(highs, lows, closes, period), lookback)
	minusDI = trim(talib.MinusDI(highs, lows, closes, period), lookback)
	return adx, plusDI, minusDI
}

func CCI(highs, lows, closes []float64, period int) []float64 {
	lookback := period - 1
	if !sameLen(highs, lows, closes) || !enough(len(closes), period, lookback) {
		return nil
	}
	return trim(talib.Cci(highs, lows, closes, period), lookback)
}

func WillR(highs, lows, closes []float64, period int) []float64 {
	lookback := period - 1
	if !sameLen(highs, lows, closes) || !enough(len(closes), period, lookback) {
		return nil
	}
	return trim(talib.WillR(highs, lows, closes, period), lookback)
}

func MFI(highs, lows, closes, volumes []float64, period int) []float64 {
	lookback := period
	if !sameLen(highs, lows, closes, volumes) || !enough(len(closes), period, lookback) {
		return nil
	}
	return trim(talib.Mfi(highs, lows, closes, volumes, period), lookback)
}

func ROC(closes []float64, period int) []float64 {
	lookback := period
	if !enough(len(closes), period, lookback) {
		return nil
	}
	return trim(talib.Roc(closes, period), lookback)
}

// Last returns the last value of a series, or 0 for an empty one.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// CrossOver reports whether a moved from below b to above b on the last bar.
// Both series must be aligned on their last element.
func CrossOver(a, b []float64) bool {
	if len(a) < 2 || len(b) < 2 {
		return false
	}
	return a[len(a)-2] <= b[len(b)-2] && a[len(a)-1] > b[len(b)-1]
}

// CrossUnder reports whether a moved from above b to below b on the last bar.
func CrossUnder(a, b []float64) bool {
	if len(a) < 2 || len(b) < 2 {
		return false
	}
	return a[len(a)-2] >= b[len(b)-2] && a[len(a)-1] < b[len(b)-1]
}

// CrossAbove reports whether a crossed above the constant level on the last bar.
func CrossAbove(a []float64, level float64) bool {
	if len(a) < 2 {
		return false
	}
	return a[len(a)-2] <= level && a[len(a)-1] > level
}

// CrossBelow reports whether a crossed below the constant level on the last bar.
func CrossBelow(a []float64, level float64) bool {
	if len(a) < 2 {
		return false
	}
	return a[len(a)-2] >= level && a[len(a)-1] < level
}

// enough reports whether n inputs produce at least MinPoints outputs after the warm-up.
func enough(n, period, lookback int) bool {
	if period <= 0 || lookback < 0 {
		return false
	}
	return n-lookback >= MinPoints
}

func sameLen(series ...[]float64) bool {
	for _, s := range series[1:] {
		if len(s) != len(series[0]) {
			return false
		}
	}
	return true
}

func trim(series []float64, lookback int) []float64 {
	if lookback >= len(series) {
		return nil
	}
	out := make([]float64, len(series)-lookback)
	copy(out, series[lookback:])
	return scrub(out)
}

// scrub replaces NaN and Inf with 0 so degenerate ratios cannot poison weighted sums.
func scrub(series []float64) []float64 {
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			series[i] = 0
		}
	}
	return series
}
