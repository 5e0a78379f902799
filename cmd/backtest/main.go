package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"spot-trader/internal/backtest"
	"spot-trader/internal/exchange/paper"
	"spot-trader/internal/interfaces"
	"spot-trader/internal/llm/llmobs"
	"spot-trader/internal/llm/openai"
	"spot-trader/internal/logger"
	"spot-trader/internal/store"
	"spot-trader/internal/trace"
	"spot-trader/internal/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	dataDir := flag.String("data", "data/klines", "directory of SYMBOL_INTERVAL.csv files")
	journalPath := flag.String("journal", "", "fill journal path (default: a fresh file in the log dir)")
	useAdvisor := flag.Bool("advisor", false, "consult the configured advisor in the ALGORITHMIC variant")
	flag.Parse()

	_ = godotenv.Load()
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, *configPath, *dataDir, *journalPath, *useAdvisor)
	_ = trace.Shutdown(context.Background())
	if err != nil {
		logger.ErrorWithErr(ctx, "Backtest failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, dataDir, journalPath string, useAdvisor bool) error {
	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		return err
	}

	var series []types.Candle
	for _, sym := range cfg.SymbolNames() {
		for _, tf := range cfg.Timeframes {
			cs, err := backtest.LoadCSV(backtest.SeriesPath(dataDir, sym, tf), sym, tf)
			if err != nil {
				return err
			}
			series = append(series, cs...)
		}
	}

	if journalPath == "" {
		dir, err := os.MkdirTemp("", "backtest-journal-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		journalPath = filepath.Join(dir, "journal.db")
	}
	journal, err := paper.OpenJournal(ctx, journalPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	var advisor interfaces.Decider
	if useAdvisor && cfg.Variant == store.VariantAlgorithmic && cfg.Advisor.Provider == store.AdvisorOpenAI {
		advisor = llmobs.Wrap(openai.NewOpenAIDecider(cfg))
	}

	op := logger.StartOperation(ctx, "backtest", "candles", len(series), "symbols", len(cfg.Symbols))
	sum, err := backtest.New(cfg, journal, advisor, nil).Run(op.GetContext(), series)
	if err != nil {
		op.EndWithError(err)
		return err
	}
	op.End("from", sum.From, "to", sum.To)

	fmt.Printf("Backtest %s -> %s\n", sum.From.Format("2006-01-02 15:04"), sum.To.Format("2006-01-02 15:04"))
	fmt.Printf("%-10s %7s %6s %6s %6s %12s %12s %8s\n", "SYMBOL", "CYCLES", "ORDERS", "BUY", "SELL", "START", "END", "RETURN")
	for _, s := range sum.Symbols {
		fmt.Printf("%-10s %7d %6d %6d %6d %12.2f %12.2f %7.2f%%\n",
			s.Symbol, s.Cycles, s.Orders, s.Actions[types.ActionBuy], s.Actions[types.ActionSell],
			s.StartEquity, s.EndEquity, s.ReturnPct)
	}
	return nil
}
