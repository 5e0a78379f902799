package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"spot-trader/internal/candles"
	"spot-trader/internal/engine"
	"spot-trader/internal/engine/engineobs"
	"spot-trader/internal/eod"
	"spot-trader/internal/eod/eodobs"
	"spot-trader/internal/exchange/exchangeobs"
	"spot-trader/internal/exchange/paper"
	"spot-trader/internal/interfaces"
	"spot-trader/internal/llm/llmobs"
	"spot-trader/internal/llm/noop"
	"spot-trader/internal/llm/openai"
	"spot-trader/internal/logger"
	"spot-trader/internal/metrics"
	"spot-trader/internal/store"
	"spot-trader/internal/trace"
	"spot-trader/internal/tradelog"
)

// app holds everything main wires together. close releases it in reverse order.
type app struct {
	cfg      *store.Config
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	candles  interfaces.CandleStore
	engine   interfaces.Engine
	eod      interfaces.EodSummarizer
	closers  []func() error
}

func (rt *app) close(ctx context.Context) {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			logger.Warn(ctx, "Shutdown step failed", "error", err.Error())
		}
	}
}

// initializeSystem initializes logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	// Tracer first so the logger can attach span ids
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old tradelog files if retention is configured
func compressOldLogs(ctx context.Context) {
	v := os.Getenv("TRADER_LOG_RETENTION_DAYS")
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn(ctx, "Invalid TRADER_LOG_RETENTION_DAYS", "value", v)
		return
	}
	if err := tradelog.CompressOlder(n); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err.Error())
	}
}

// initializeMetrics creates the registry served on /metrics
func initializeMetrics() (*prometheus.Registry, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.New(reg)
}

// initializeExchange opens the fill journal and the paper exchange with observability
func initializeExchange(ctx context.Context, cfg *store.Config, prices interfaces.CandleSource) (interfaces.Exchange, func() error, error) {
	journal, err := paper.OpenJournal(ctx, cfg.JournalPath)
	if err != nil {
		return nil, nil, err
	}

	exch := paper.New(paper.Config{
		SpreadBps:     cfg.Paper.SpreadBps,
		FeePercentage: cfg.Paper.FeePercentage,
		Balances:      cfg.Paper.Balances,
		Interval:      cfg.Timeframes[0],
	}, prices, journal)

	logger.Info(ctx, "Paper exchange ready",
		"journal", cfg.JournalPath,
		"spread_bps", cfg.Paper.SpreadBps,
		"fee_percentage", cfg.Paper.FeePercentage,
	)
	return exchangeobs.Wrap(exch), journal.Close, nil
}

// initializeDecider returns the advisory classifier with observability, or nil for the CONSECUTIVE variant
func initializeDecider(ctx context.Context, cfg *store.Config) interfaces.Decider {
	if cfg.Variant != store.VariantAlgorithmic {
		return nil
	}

	var decider interfaces.Decider
	switch cfg.Advisor.Provider {
	case store.AdvisorOpenAI:
		decider = openai.NewOpenAIDecider(cfg)
	default:
		decider = noop.NewNoopDecider()
		logger.Warn(ctx, "No advisor provider configured - using Noop advisor (never overrides)")
	}
	return llmobs.Wrap(decider)
}

// bootstrap builds the full runtime from cfg
func bootstrap(ctx context.Context, cfg *store.Config) (*app, error) {
	rt := &app{cfg: cfg}
	rt.registry, rt.metrics = initializeMetrics()

	cs, closeStore, err := candles.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("candle store: %w", err)
	}
	rt.candles = cs
	rt.closers = append(rt.closers, closeStore)

	exch, closeExch, err := initializeExchange(ctx, cfg, cs)
	if err != nil {
		rt.close(ctx)
		return nil, fmt.Errorf("exchange: %w", err)
	}
	rt.closers = append(rt.closers, closeExch)

	eng, err := engine.New(cfg, cs, exch, initializeDecider(ctx, cfg), engine.Options{Metrics: rt.metrics})
	if err != nil {
		rt.close(ctx)
		return nil, fmt.Errorf("engine: %w", err)
	}
	rt.engine = engineobs.Wrap(eng)
	rt.eod = eodobs.Wrap(eod.NewSummarizer(eod.Options{}))
	return rt, nil
}
