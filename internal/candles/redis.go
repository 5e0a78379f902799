package candles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"spot-trader/internal/interfaces"
	"spot-trader/internal/logger"
	"spot-trader/internal/types"
)

var _ interfaces.CandleStore = (*Redis)(nil)

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	Max       int
}

// Redis stores every series as a list of JSON candles, oldest at the head.
// Only one writer per series is expected.
type Redis struct {
	client *redis.Client
	prefix string
	max    int
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info(ctx, "Connected to candle store", "kind", "redis", "addr", cfg.Addr)
	return NewRedisWithClient(client, cfg.KeyPrefix, cfg.Max), nil
}

func NewRedisWithClient(client *redis.Client, prefix string, max int) *Redis {
	if max <= 0 {
		max = DefaultMax
	}
	return &Redis{client: client, prefix: prefix, max: max}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Append(ctx context.Context, c types.Candle) error {
	if err := validate(c); err != nil {
		return err
	}
	key := Key(r.prefix, c.Symbol, c.Interval)
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode candle: %w", err)
	}

	tail, ok, err := r.tail(ctx, key)
	if err != nil {
		return err
	}
	if ok {
		replace, err := placement(tail, c)
		if err != nil {
			return err
		}
		if replace {
			if err := r.client.LSet(ctx, key, -1, data).Err(); err != nil {
				return fmt.Errorf("redis LSET %s: %w", key, err)
			}
			return nil
		}
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, int64(-r.max), -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis RPUSH %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error) {
	key := Key(r.prefix, symbol, interval)
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raw, err := r.client.LRange(ctx, key, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis LRANGE %s: %w", key, err)
	}

	out := make([]types.Candle, 0, len(raw))
	for _, s := range raw {
		var c types.Candle
		if err := json.Unmarshal([]byte(s), &c); err != nil {
			return nil, fmt.Errorf("decode candle in %s: %w", key, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *Redis) Latest(ctx context.Context, symbol, interval string) (types.Candle, bool, error) {
	return r.tail(ctx, Key(r.prefix, symbol, interval))
}

func (r *Redis) tail(ctx context.Context, key string) (types.Candle, bool, error) {
	s, err := r.client.LIndex(ctx, key, -1).Result()
	if errors.Is(err, redis.Nil) {
		return types.Candle{}, false, nil
	}
	if err != nil {
		return types.Candle{}, false, fmt.Errorf("redis LINDEX %s: %w", key, err)
	}
	var c types.Candle
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return types.Candle{}, false, fmt.Errorf("decode candle in %s: %w", key, err)
	}
	return c, true, nil
}
