package eod

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"

	"spot-trader/internal/logger"
	"spot-trader/internal/tradelog"
	"spot-trader/internal/types"
)

type eodSummarizer struct {
	now    func() time.Time
	cutoff time.Duration
}

func eodCSVPath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(tradelog.LogDir(), "eod", d+".csv")
}

// SummarizeDay aggregates the trade log of t's UTC day into a CSV report.
// It returns an empty path and no error when the day has no trades.
//
// Realized P/L matches bought against sold quantity at the average prices.
func (s *eodSummarizer) SummarizeDay(ctx context.Context, t time.Time) (string, error) {
	inPath := tradelog.DailyFilepath(t)
	aggs, err := readTrades(ctx, inPath)
	if err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]*summaryRow, 0, len(keys)+1)
	var totalBuy, totalSell, totalPnL float64
	var totalTrades int
	for _, k := range keys {
		r := aggs[k]
		var buyAvg, sellAvg float64
		if r.BuyQty > 0 {
			buyAvg = r.BuyValue / r.BuyQty
		}
		if r.SellQty > 0 {
			sellAvg = r.SellValue / r.SellQty
		}
		pnl := min(r.BuyQty, r.SellQty) * (sellAvg - buyAvg)

		rows = append(rows, &summaryRow{
			Symbol:         r.Symbol,
			Trades:         strconv.Itoa(r.Trades),
			BuyQty:         formatQty(r.BuyQty),
			BuyAvg:         fmt.Sprintf("%.4f", buyAvg),
			SellQty:        formatQty(r.SellQty),
			SellAvg:        fmt.Sprintf("%.4f", sellAvg),
			RealizedPnL:    fmt.Sprintf("%.2f", pnl),
			GrossBuyValue:  fmt.Sprintf("%.2f", r.BuyValue),
			GrossSellValue: fmt.Sprintf("%.2f", r.SellValue),
		})
		totalTrades += r.Trades
		totalBuy += r.BuyValue
		totalSell += r.SellValue
		totalPnL += pnl
	}
	rows = append(rows, &summaryRow{
		Symbol:         "TOTAL",
		Trades:         strconv.Itoa(totalTrades),
		RealizedPnL:    fmt.Sprintf("%.2f", totalPnL),
		GrossBuyValue:  fmt.Sprintf("%.2f", totalBuy),
		GrossSellValue: fmt.Sprintf("%.2f", totalSell),
	})

	outPath := eodCSVPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if err := gocsv.MarshalFile(&rows, out); err != nil {
		return "", fmt.Errorf("write %s: %w", outPath, err)
	}
	return outPath, nil
}

func (s *eodSummarizer) SummarizeToday(ctx context.Context) (string, error) {
	return s.SummarizeDay(ctx, s.now())
}

// ShouldRunNow reports whether today's cutoff has passed and the report is not written yet.
func (s *eodSummarizer) ShouldRunNow(_ context.Context) (bool, string) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	outPath := eodCSVPath(now)
	if now.After(dayStart.Add(s.cutoff)) {
		if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
			return true, outPath
		}
	}
	return false, outPath
}

// readTrades aggregates a JSONL trade log per symbol. A missing file is an empty day.
func readTrades(ctx context.Context, path string) (map[string]*aggRow, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		var tl tradeLine
		if err := json.Unmarshal(sc.Bytes(), &tl); err != nil {
			logger.Warn(ctx, "Skipping malformed trade log line", "path", path, "line", lineNo, "error", err.Error())
			continue
		}
		side := types.Action(tl.Side)
		if !side.IsTrade() {
			continue
		}
		row := aggs[tl.Symbol]
		if row == nil {
			row = &aggRow{Symbol: tl.Symbol}
			aggs[tl.Symbol] = row
		}
		if side == types.ActionBuy {
			row.BuyQty += tl.Qty
			row.BuyValue += tl.Qty * tl.Price
		} else {
			row.SellQty += tl.Qty
			row.SellValue += tl.Qty * tl.Price
		}
		row.Trades++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return aggs, nil
}

func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
