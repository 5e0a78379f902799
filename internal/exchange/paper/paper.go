package paper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spot-trader/internal/interfaces"
	"spot-trader/internal/logger"
	"spot-trader/internal/types"
)

var (
	ErrNoPrice             = errors.New("no price available")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBelowMinNotional    = errors.New("order below minimum notional")
	ErrInvalidSide         = errors.New("order side must be BUY or SELL")
)

// bookDepth is the quantity quoted on each side of the synthetic book.
const bookDepth = 1_000_000

type Config struct {
	// SpreadBps is the half-spread around the mark price, in basis points.
	SpreadBps     float64
	FeePercentage float64
	Balances      map[string]types.Holdings
	// Interval is the candle series whose latest close marks the price.
	Interval string
	Now      func() time.Time
}

type wallet struct {
	base, quote decimal.Decimal
}

var _ interfaces.Exchange = (*Exchange)(nil)

// Exchange simulates spot market orders against the latest candle close.
// Fills are recorded in the journal, which also serves the trade history.
type Exchange struct {
	mu       sync.Mutex
	prices   interfaces.CandleSource
	journal  *Journal
	interval string
	spread   decimal.Decimal
	fee      decimal.Decimal
	wallets  map[string]*wallet
	now      func() time.Time
}

func New(cfg Config, prices interfaces.CandleSource, journal *Journal) *Exchange {
	e := &Exchange{
		prices:   prices,
		journal:  journal,
		interval: cfg.Interval,
		spread:   decimal.NewFromFloat(cfg.SpreadBps).Div(decimal.NewFromInt(10_000)),
		fee:      decimal.NewFromFloat(cfg.FeePercentage).Div(decimal.NewFromInt(100)),
		wallets:  make(map[string]*wallet, len(cfg.Balances)),
		now:      cfg.Now,
	}
	if e.now == nil {
		e.now = time.Now
	}
	for symbol, h := range cfg.Balances {
		e.wallets[symbol] = &wallet{
			base:  decimal.NewFromFloat(h.Base),
			quote: decimal.NewFromFloat(h.Quote),
		}
	}
	return e
}

func (e *Exchange) Holdings(_ context.Context, symbol string) (types.Holdings, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w := e.wallet(symbol)
	return types.Holdings{Base: w.base.InexactFloat64(), Quote: w.quote.InexactFloat64()}, nil
}

func (e *Exchange) Trades(ctx context.Context, symbol string, n int) ([]types.TradeRecord, error) {
	return e.journal.Trades(ctx, symbol, n)
}

// OrderBook returns a one-level book around the latest close. It is empty when no price is known.
func (e *Exchange) OrderBook(ctx context.Context, symbol string) (types.OrderBook, error) {
	mark, err := e.mark(ctx, symbol)
	if errors.Is(err, ErrNoPrice) {
		return types.OrderBook{}, nil
	}
	if err != nil {
		return types.OrderBook{}, err
	}
	bid, ask := e.quotes(mark)
	return types.OrderBook{
		Bids: map[float64]float64{bid.InexactFloat64(): bookDepth},
		Asks: map[float64]float64{ask.InexactFloat64(): bookDepth},
	}, nil
}

// PlaceOrder fills a market order at the synthetic bid or ask.
// A zero quantity spends the whole free balance, limited by the order's MaxNotional.
func (e *Exchange) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	if !req.Side.IsTrade() {
		return types.OrderResp{}, fmt.Errorf("%w: %q", ErrInvalidSide, req.Side)
	}
	mark, err := e.mark(ctx, req.Symbol)
	if err != nil {
		return types.OrderResp{}, err
	}
	bid, ask := e.quotes(mark)

	e.mu.Lock()
	defer e.mu.Unlock()
	w := e.wallet(req.Symbol)

	var fill Fill
	switch req.Side {
	case types.ActionBuy:
		fill, err = e.buy(w, req, ask)
	case types.ActionSell:
		fill, err = e.sell(w, req, bid)
	}
	if err != nil {
		return types.OrderResp{Status: "REJECTED", Message: err.Error()}, err
	}

	fill.OrderID = uuid.NewString()
	fill.Symbol = req.Symbol
	fill.Side = req.Side
	fill.Tag = req.Tag
	fill.FilledAt = e.now().UTC()

	if err := e.journal.RecordFill(ctx, fill); err != nil {
		return types.OrderResp{}, err
	}
	e.apply(w, fill)

	logger.Debug(ctx, "Paper order filled",
		"symbol", req.Symbol,
		"side", string(req.Side),
		"qty", fill.Quantity.String(),
		"price", fill.Price.String(),
		"fee", fill.Fee.String(),
		"base", w.base.String(),
		"quote", w.quote.String(),
	)

	return types.OrderResp{
		OrderID:  fill.OrderID,
		Status:   "FILLED",
		Price:    fill.Price.InexactFloat64(),
		Quantity: fill.Quantity.InexactFloat64(),
	}, nil
}

// buy spends quote for base. The fee is charged in the quote currency.
func (e *Exchange) buy(w *wallet, req types.OrderReq, ask decimal.Decimal) (Fill, error) {
	var spend decimal.Decimal
	if req.Quantity > 0 {
		spend = decimal.NewFromFloat(req.Quantity).Mul(ask)
	} else {
		spend = w.quote
		if req.Filter.MaxNotional > 0 {
			spend = decimal.Min(spend, decimal.NewFromFloat(req.Filter.MaxNotional))
		}
	}
	if spend.LessThan(decimal.NewFromFloat(req.Filter.MinNotional)) || !spend.IsPositive() {
		return Fill{}, fmt.Errorf("%w: %s", ErrBelowMinNotional, spend.StringFixed(8))
	}

	fee := spend.Mul(e.fee)
	if spend.Add(fee).GreaterThan(w.quote) {
		// Spending the whole balance leaves the fee inside the amount.
		if req.Quantity > 0 {
			return Fill{}, fmt.Errorf("%w: need %s, have %s", ErrInsufficientBalance, spend.Add(fee).StringFixed(8), w.quote.StringFixed(8))
		}
		spend = spend.Div(decimal.NewFromInt(1).Add(e.fee))
		fee = spend.Mul(e.fee)
	}
	return Fill{Quantity: spend.Div(ask), Price: ask, Fee: fee}, nil
}

// sell spends base for quote. The fee is charged from the proceeds.
func (e *Exchange) sell(w *wallet, req types.OrderReq, bid decimal.Decimal) (Fill, error) {
	qty := w.base
	if req.Quantity > 0 {
		qty = decimal.NewFromFloat(req.Quantity)
		if qty.GreaterThan(w.base) {
			return Fill{}, fmt.Errorf("%w: need %s, have %s", ErrInsufficientBalance, qty.String(), w.base.String())
		}
	} else if req.Filter.MaxNotional > 0 {
		maxQty := decimal.NewFromFloat(req.Filter.MaxNotional).Div(bid)
		qty = decimal.Min(qty, maxQty)
	}

	notional := qty.Mul(bid)
	if notional.LessThan(decimal.NewFromFloat(req.Filter.MinNotional)) || !notional.IsPositive() {
		return Fill{}, fmt.Errorf("%w: %s", ErrBelowMinNotional, notional.StringFixed(8))
	}
	return Fill{Quantity: qty, Price: bid, Fee: notional.Mul(e.fee)}, nil
}

func (e *Exchange) apply(w *wallet, f Fill) {
	notional := f.Quantity.Mul(f.Price)
	switch f.Side {
	case types.ActionBuy:
		w.quote = w.quote.Sub(notional).Sub(f.Fee)
		w.base = w.base.Add(f.Quantity)
	case types.ActionSell:
		w.base = w.base.Sub(f.Quantity)
		w.quote = w.quote.Add(notional).Sub(f.Fee)
	}
}

func (e *Exchange) wallet(symbol string) *wallet {
	w, ok := e.wallets[symbol]
	if !ok {
		w = &wallet{}
		e.wallets[symbol] = w
	}
	return w
}

func (e *Exchange) mark(ctx context.Context, symbol string) (decimal.Decimal, error) {
	cs, err := e.prices.Candles(ctx, symbol, e.interval, 1)
	if err != nil {
		return decimal.Zero, fmt.Errorf("mark price %s: %w", symbol, err)
	}
	if len(cs) == 0 || cs[len(cs)-1].Close <= 0 {
		return decimal.Zero, fmt.Errorf("%w for %s", ErrNoPrice, symbol)
	}
	return decimal.NewFromFloat(cs[len(cs)-1].Close), nil
}

func (e *Exchange) quotes(mark decimal.Decimal) (bid, ask decimal.Decimal) {
	one := decimal.NewFromInt(1)
	return mark.Mul(one.Sub(e.spread)), mark.Mul(one.Add(e.spread))
}
