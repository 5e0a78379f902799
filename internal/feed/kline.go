package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"spot-trader/internal/types"
)

// klineEvent is a Binance kline stream payload. Prices and volumes arrive as strings.
type klineEvent struct {
	Event  string `json:"e"`
	Symbol string `json:"s"`
	Kline  struct {
		Start          int64  `json:"t"`
		Symbol         string `json:"s"`
		Interval       string `json:"i"`
		Open           string `json:"o"`
		High           string `json:"h"`
		Low            string `json:"l"`
		Close          string `json:"c"`
		Volume         string `json:"v"`
		QuoteVolume    string `json:"q"`
		Trades         int64  `json:"n"`
		Final          bool   `json:"x"`
		BuyVolume      string `json:"V"`
		QuoteBuyVolume string `json:"Q"`
	} `json:"k"`
}

// combinedEvent wraps payloads of the /stream?streams= endpoint.
type combinedEvent struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// ParseKline decodes a raw or combined-stream kline message.
// ok is false for well-formed messages that are not klines.
func ParseKline(raw []byte) (c types.Candle, ok bool, err error) {
	var wrapped combinedEvent
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Data) > 0 {
		raw = wrapped.Data
	}

	var ev klineEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return types.Candle{}, false, fmt.Errorf("decode kline: %w", err)
	}
	if ev.Event != "kline" {
		return types.Candle{}, false, nil
	}

	k := ev.Kline
	symbol := k.Symbol
	if symbol == "" {
		symbol = ev.Symbol
	}
	c = types.Candle{
		Symbol:     strings.ToUpper(symbol),
		Interval:   k.Interval,
		Timestamp:  k.Start,
		TradeCount: k.Trades,
		IsFinal:    k.Final,
	}

	fields := []struct {
		name string
		src  string
		dst  *float64
	}{
		{"o", k.Open, &c.Open},
		{"h", k.High, &c.High},
		{"l", k.Low, &c.Low},
		{"c", k.Close, &c.Close},
		{"v", k.Volume, &c.Volume},
		{"q", k.QuoteVolume, &c.QuoteVolume},
		{"V", k.BuyVolume, &c.BuyVolume},
		{"Q", k.QuoteBuyVolume, &c.QuoteBuyVolume},
	}
	for _, f := range fields {
		if f.src == "" {
			continue
		}
		v, err := strconv.ParseFloat(f.src, 64)
		if err != nil {
			return types.Candle{}, false, fmt.Errorf("kline field %s: %w", f.name, err)
		}
		*f.dst = v
	}
	if c.Symbol == "" || c.Interval == "" {
		return types.Candle{}, false, fmt.Errorf("kline without symbol or interval")
	}
	return c, true, nil
}

// StreamURL builds a combined-stream URL subscribing every symbol to every interval.
func StreamURL(base string, symbols, intervals []string) string {
	streams := make([]string, 0, len(symbols)*len(intervals))
	for _, s := range symbols {
		for _, iv := range intervals {
			streams = append(streams, strings.ToLower(s)+"@kline_"+iv)
		}
	}
	return strings.TrimRight(base, "/") + "/stream?streams=" + strings.Join(streams, "/")
}
