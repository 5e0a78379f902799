package candles

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-trader/internal/interfaces"
	"spot-trader/internal/types"
)

func bar(ts int64, close float64, final bool) types.Candle {
	return types.Candle{Symbol: "BTCUSDT", Interval: "1m", Timestamp: ts, Open: close, High: close, Low: close, Close: close, IsFinal: final}
}

// exerciseStore runs the shared store contract against any implementation.
func exerciseStore(t *testing.T, s interfaces.CandleStore, max int) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Latest(ctx, "BTCUSDT", "1m")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Append(ctx, bar(60_000, 1, false)))
	require.NoError(t, s.Append(ctx, bar(60_000, 2, false)), "partial candle updates in place")
	require.NoError(t, s.Append(ctx, bar(60_000, 3, true)))

	got, err := s.Candles(ctx, "BTCUSDT", "1m", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, got[0].Close)
	assert.True(t, got[0].IsFinal)

	assert.ErrorIs(t, s.Append(ctx, bar(60_000, 4, true)), ErrFinalized)
	assert.ErrorIs(t, s.Append(ctx, bar(0, 4, true)), ErrOutOfOrder)

	for i := int64(2); i <= int64(max)+5; i++ {
		require.NoError(t, s.Append(ctx, bar(i*60_000, float64(i), true)))
	}
	got, err = s.Candles(ctx, "BTCUSDT", "1m", 0)
	require.NoError(t, err)
	require.Len(t, got, max)
	assert.Equal(t, float64(max)+5, got[len(got)-1].Close)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Timestamp, got[i].Timestamp)
	}

	got, err = s.Candles(ctx, "BTCUSDT", "1m", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, float64(max)+5, got[2].Close)

	latest, ok, err := s.Latest(ctx, "BTCUSDT", "1m")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float64(max)+5, latest.Close)

	other, err := s.Candles(ctx, "BTCUSDT", "5m", 0)
	require.NoError(t, err)
	assert.Empty(t, other)

	// A partial bar whose closing update never arrived is dropped by the next bar.
	next := int64(max) + 6
	require.NoError(t, s.Append(ctx, bar(next*60_000, 1, false)))
	require.NoError(t, s.Append(ctx, bar((next+1)*60_000, 2, false)))
	got, err = s.Candles(ctx, "BTCUSDT", "1m", 0)
	require.NoError(t, err)
	require.Len(t, got, max)
	partial := 0
	for _, c := range got {
		if !c.IsFinal {
			partial++
		}
	}
	assert.Equal(t, 1, partial)
	assert.False(t, got[len(got)-1].IsFinal)
	assert.Equal(t, (next+1)*60_000, got[len(got)-1].Timestamp)
	assert.Equal(t, float64(max)+5, got[len(got)-2].Close)

	assert.Error(t, s.Append(ctx, types.Candle{Timestamp: 1}))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory(10), 10)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(5)
	require.NoError(t, m.Append(ctx, bar(1, 10, true)))

	got, _ := m.Candles(ctx, "BTCUSDT", "1m", 0)
	got[0].Close = 999

	again, _ := m.Candles(ctx, "BTCUSDT", "1m", 0)
	assert.Equal(t, 10.0, again[0].Close)
}

func TestMemoryDefaultMax(t *testing.T) {
	assert.Equal(t, DefaultMax, NewMemory(0).max)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(50)
	var wg sync.WaitGroup
	for _, iv := range []string{"1m", "5m", "15m", "1h"} {
		wg.Add(2)
		go func(iv string) {
			defer wg.Done()
			for i := int64(0); i < 200; i++ {
				c := bar(i, float64(i), true)
				c.Interval = iv
				_ = m.Append(ctx, c)
			}
		}(iv)
		go func(iv string) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_, _ = m.Candles(ctx, "BTCUSDT", iv, 20)
			}
		}(iv)
	}
	wg.Wait()

	got, err := m.Candles(ctx, "BTCUSDT", "1h", 0)
	require.NoError(t, err)
	assert.Len(t, got, 50)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "candles:BTCUSDT:1m", Key("candles", "BTCUSDT", "1m"))
	assert.Equal(t, "BTCUSDT:1m", Key("", "BTCUSDT", "1m"))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	prefix := "test:" + t.Name()
	t.Cleanup(func() {
		client.Del(context.Background(), Key(prefix, "BTCUSDT", "1m"))
		_ = client.Close()
	})
	client.Del(context.Background(), Key(prefix, "BTCUSDT", "1m"))

	exerciseStore(t, NewRedisWithClient(client, prefix, 10), 10)
}
