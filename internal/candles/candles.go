package candles

import (
	"errors"
	"fmt"

	"spot-trader/internal/types"
)

var (
	// ErrOutOfOrder is returned when a candle is older than the series tail.
	ErrOutOfOrder = errors.New("candle older than series tail")
	// ErrFinalized is returned when a candle would overwrite a final candle.
	ErrFinalized = errors.New("candle already final")
)

// DefaultMax is the retained series length when none is configured.
const DefaultMax = 500

// Key names one series: prefix:symbol:interval.
func Key(prefix, symbol, interval string) string {
	if prefix == "" {
		return symbol + ":" + interval
	}
	return prefix + ":" + symbol + ":" + interval
}

// placement decides how c joins a series whose newest candle is tail.
// It reports true when c replaces tail in place. A non-final tail never
// settled, so a newer candle replaces it instead of following it.
func placement(tail, c types.Candle) (bool, error) {
	switch {
	case c.Timestamp < tail.Timestamp:
		return false, fmt.Errorf("%w: %d < %d", ErrOutOfOrder, c.Timestamp, tail.Timestamp)
	case c.Timestamp == tail.Timestamp:
		if tail.IsFinal {
			return false, fmt.Errorf("%w: %s %s %d", ErrFinalized, c.Symbol, c.Interval, c.Timestamp)
		}
		return true, nil
	case !tail.IsFinal:
		return true, nil
	}
	return false, nil
}

func validate(c types.Candle) error {
	if c.Symbol == "" || c.Interval == "" {
		return errors.New("candle symbol and interval are required")
	}
	return nil
}
