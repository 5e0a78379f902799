package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"spot-trader/internal/candles"
	"spot-trader/internal/interfaces"
	"spot-trader/internal/logger"
	"spot-trader/internal/metrics"
	"spot-trader/internal/types"
)

const pingInterval = 30 * time.Second

type Options struct {
	// OnCandle runs after every stored candle, partial or final.
	OnCandle func(ctx context.Context, c types.Candle)
	// OnFinal runs after a final candle is stored.
	OnFinal func(ctx context.Context, c types.Candle)
	Metrics *metrics.Metrics
}

// Feed streams klines from a websocket into a candle store.
type Feed struct {
	url    string
	store  interfaces.CandleStore
	opts   Options
	dialer websocket.Dialer
}

func New(url string, store interfaces.CandleStore, opts Options) *Feed {
	return &Feed{
		url:    url,
		store:  store,
		opts:   opts,
		dialer: websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Run reads the stream until ctx is cancelled or the connection fails.
// It does not reconnect; the caller decides whether to call Run again.
func (f *Feed) Run(ctx context.Context) error {
	conn, resp, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed, status=%d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	defer conn.Close()
	logger.Info(ctx, "Candle feed connected", "url", f.url)

	done := make(chan struct{})
	defer close(done)
	go f.pingLoop(ctx, conn, done)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client shutdown"),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("websocket read: %w", err)
		}
		f.handle(ctx, raw)
	}
}

func (f *Feed) handle(ctx context.Context, raw []byte) {
	c, ok, err := ParseKline(raw)
	if err != nil {
		logger.Warn(ctx, "Dropping malformed feed message", "error", err.Error())
		return
	}
	if !ok {
		return
	}

	if err := f.store.Append(ctx, c); err != nil {
		if errors.Is(err, candles.ErrFinalized) || errors.Is(err, candles.ErrOutOfOrder) {
			logger.Debug(ctx, "Ignoring stale candle", "symbol", c.Symbol, "interval", c.Interval, "error", err.Error())
			return
		}
		logger.ErrorWithErr(ctx, "Failed to store candle", err, "symbol", c.Symbol, "interval", c.Interval)
		return
	}
	f.opts.Metrics.FeedCandle(c.Interval, c.IsFinal)

	if f.opts.OnCandle != nil {
		f.opts.OnCandle(ctx, c)
	}
	if c.IsFinal && f.opts.OnFinal != nil {
		f.opts.OnFinal(ctx, c)
	}
}

func (f *Feed) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-t.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				logger.Warn(ctx, "Feed ping failed", "error", err.Error())
				return
			}
		}
	}
}
