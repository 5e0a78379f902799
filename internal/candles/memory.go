package candles

import (
	"context"
	"sync"

	"spot-trader/internal/interfaces"
	"spot-trader/internal/types"
)

var _ interfaces.CandleStore = (*Memory)(nil)

// Memory keeps the newest max candles of every series in process memory.
type Memory struct {
	mu     sync.RWMutex
	max    int
	series map[string][]types.Candle
}

func NewMemory(max int) *Memory {
	if max <= 0 {
		max = DefaultMax
	}
	return &Memory{max: max, series: make(map[string][]types.Candle)}
}

func (m *Memory) Append(_ context.Context, c types.Candle) error {
	if err := validate(c); err != nil {
		return err
	}
	key := Key("", c.Symbol, c.Interval)

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.series[key]
	if n := len(s); n > 0 {
		replace, err := placement(s[n-1], c)
		if err != nil {
			return err
		}
		if replace {
			s[n-1] = c
			return nil
		}
	}

	s = append(s, c)
	if len(s) > m.max {
		copy(s, s[len(s)-m.max:])
		s = s[:m.max]
	}
	m.series[key] = s
	return nil
}

// Candles returns a copy of up to limit newest candles, oldest first. A limit <= 0 returns all.
func (m *Memory) Candles(_ context.Context, symbol, interval string, limit int) ([]types.Candle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.series[Key("", symbol, interval)]
	if limit > 0 && len(s) > limit {
		s = s[len(s)-limit:]
	}
	out := make([]types.Candle, len(s))
	copy(out, s)
	return out, nil
}

func (m *Memory) Latest(_ context.Context, symbol, interval string) (types.Candle, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.series[Key("", symbol, interval)]
	if len(s) == 0 {
		return types.Candle{}, false, nil
	}
	return s[len(s)-1], true, nil
}
