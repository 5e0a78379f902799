package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"spot-trader/internal/api"
	"spot-trader/internal/feed"
	"spot-trader/internal/logger"
	"spot-trader/internal/trace"
	"spot-trader/internal/types"
)

const (
	eodCheckInterval = 60 * time.Second
	feedRetryDelay   = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		logger.ErrorWithErr(ctx, "Bot stopped with error", err)
		_ = trace.Shutdown(context.Background())
		os.Exit(1)
	}
	_ = trace.Shutdown(context.Background())
}

func run(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}
	compressOldLogs(ctx)

	rt, err := bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	var wg sync.WaitGroup

	if cfg.APIAddr != "" {
		srv := api.NewServer(rt.engine, rt.registry)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx, cfg.APIAddr); err != nil {
				logger.ErrorWithErr(ctx, "API server failed", err)
			}
		}()
	}

	if cfg.Feed.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runFeed(ctx, rt)
		}()
	}

	logger.Info(ctx, "Bot started",
		"symbols", rt.engine.Symbols(),
		"variant", cfg.Variant,
		"timeframes", cfg.Timeframes,
		"poll_seconds", cfg.PollSeconds,
	)

	tick := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer tick.Stop()
	eodTick := time.NewTicker(eodCheckInterval)
	defer eodTick.Stop()

	for {
		select {
		case <-tick.C:
			stepAll(ctx, rt)
		case <-eodTick.C:
			if ok, _ := rt.eod.ShouldRunNow(ctx); ok {
				_, _ = rt.eod.SummarizeToday(ctx)
			}
		case <-ctx.Done():
			logger.Info(ctx, "Shutting down...")
			wg.Wait()
			if _, err := rt.eod.SummarizeToday(context.Background()); err != nil {
				logger.Warn(ctx, "Final EOD summary failed", "error", err.Error())
			}
			return nil
		}
	}
}

// stepAll runs one cycle for every symbol concurrently and waits for all of them.
func stepAll(ctx context.Context, rt *app) {
	var wg sync.WaitGroup
	for _, sym := range rt.engine.Symbols() {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			step(ctx, rt, sym)
		}(sym)
	}
	wg.Wait()
}

func step(ctx context.Context, rt *app, symbol string) {
	res, err := rt.engine.Step(ctx, symbol)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn(ctx, "Step failed", "symbol", symbol, "error", err.Error())
		}
		return
	}
	if res != nil && res.Action.IsTrade() {
		b, _ := json.Marshal(res)
		fmt.Println(string(b))
	}
}

// runFeed keeps the kline stream connected until ctx is done.
// A closed candle on the first timeframe triggers an immediate cycle for its symbol.
func runFeed(ctx context.Context, rt *app) {
	url := feed.StreamURL(rt.cfg.Feed.URL, rt.engine.Symbols(), rt.cfg.Timeframes)
	primary := rt.cfg.Timeframes[0]

	f := feed.New(url, rt.candles, feed.Options{
		Metrics: rt.metrics,
		OnFinal: func(ctx context.Context, c types.Candle) {
			if c.Interval == primary {
				step(ctx, rt, c.Symbol)
			}
		},
	})

	for {
		err := f.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		logger.Warn(ctx, "Kline feed disconnected, retrying", "error", fmt.Sprint(err), "delay", feedRetryDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(feedRetryDelay):
		}
	}
}
