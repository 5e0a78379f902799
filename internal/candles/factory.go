package candles

import (
	"context"
	"fmt"

	"spot-trader/internal/interfaces"
	"spot-trader/internal/store"
)

// New builds the candle store selected by cfg.CandleStore.Kind.
// The returned func releases its resources.
func New(ctx context.Context, cfg *store.Config) (interfaces.CandleStore, func() error, error) {
	switch cfg.CandleStore.Kind {
	case store.CandleStoreRedis:
		rc := cfg.CandleStore.Redis
		r, err := NewRedis(ctx, RedisConfig{
			Addr:      rc.Addr,
			Password:  rc.Password,
			DB:        rc.DB,
			KeyPrefix: rc.KeyPrefix,
			Max:       cfg.MaxCandles,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	case store.CandleStoreMemory, "":
		return NewMemory(cfg.MaxCandles), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown candle store %q", cfg.CandleStore.Kind)
}
