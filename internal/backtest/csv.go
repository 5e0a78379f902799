package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"spot-trader/internal/types"
)

// Row is one kline in an exchange-style CSV export. OpenTime is unix milliseconds.
type Row struct {
	OpenTime    int64   `csv:"open_time"`
	Open        float64 `csv:"open"`
	High        float64 `csv:"high"`
	Low         float64 `csv:"low"`
	Close       float64 `csv:"close"`
	Volume      float64 `csv:"volume"`
	QuoteVolume float64 `csv:"quote_volume"`
	Trades      int64   `csv:"trades"`
}

// SeriesPath is where the CSV of symbol on interval lives under dir.
func SeriesPath(dir, symbol, interval string) string {
	return filepath.Join(dir, strings.ToUpper(symbol)+"_"+interval+".csv")
}

// LoadCSV reads one symbol/interval series. Rows must be in ascending time order.
func LoadCSV(path, symbol, interval string) ([]types.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []*Row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]types.Candle, 0, len(rows))
	for i, r := range rows {
		if i > 0 && r.OpenTime <= rows[i-1].OpenTime {
			return nil, fmt.Errorf("%s row %d: open_time %d not after %d", path, i+2, r.OpenTime, rows[i-1].OpenTime)
		}
		out = append(out, types.Candle{
			Symbol:      strings.ToUpper(symbol),
			Interval:    interval,
			Timestamp:   r.OpenTime,
			Open:        r.Open,
			High:        r.High,
			Low:         r.Low,
			Close:       r.Close,
			Volume:      r.Volume,
			QuoteVolume: r.QuoteVolume,
			TradeCount:  r.Trades,
			IsFinal:     true,
		})
	}
	return out, nil
}

// IntervalDuration converts a kline interval such as 15m, 4h, 1d or 1w to a duration.
func IntervalDuration(interval string) (time.Duration, error) {
	if len(interval) < 2 {
		return 0, fmt.Errorf("invalid interval %q", interval)
	}
	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid interval %q", interval)
	}
	unit := map[byte]time.Duration{
		's': time.Second,
		'm': time.Minute,
		'h': time.Hour,
		'd': 24 * time.Hour,
		'w': 7 * 24 * time.Hour,
	}[interval[len(interval)-1]]
	if unit == 0 {
		return 0, fmt.Errorf("invalid interval unit in %q", interval)
	}
	return time.Duration(n) * unit, nil
}
