package types

import (
	"math"
	"time"
)

// Action is a classification or decision emitted by the engine.
type Action string

const (
	ActionBuy        Action = "BUY"
	ActionSell       Action = "SELL"
	ActionHold       Action = "HOLD"
	ActionSkip       Action = "SKIP"
	ActionTakeProfit Action = "TAKE_PROFIT"
	ActionStopLoss   Action = "STOP_LOSS"
)

func (a Action) String() string { return string(a) }

// IsTrade reports whether the action moves funds (BUY or SELL).
func (a Action) IsTrade() bool {
	return a == ActionBuy || a == ActionSell
}

// Opposite returns SELL for BUY and BUY for SELL. Other actions are returned unchanged.
func (a Action) Opposite() Action {
	switch a {
	case ActionBuy:
		return ActionSell
	case ActionSell:
		return ActionBuy
	}
	return a
}

// Candle is an OHLCV bar. Timestamp is the bar open time in unix milliseconds.
type Candle struct {
	Symbol         string  `json:"symbol"`
	Interval       string  `json:"interval"`
	Timestamp      int64   `json:"timestamp"`
	Open           float64 `json:"open"`
	High           float64 `json:"high"`
	Low            float64 `json:"low"`
	Close          float64 `json:"close"`
	Volume         float64 `json:"volume"`
	QuoteVolume    float64 `json:"quote_volume"`
	TradeCount     int64   `json:"trade_count"`
	BuyVolume      float64 `json:"buy_volume"`
	QuoteBuyVolume float64 `json:"quote_buy_volume"`
	IsFinal        bool    `json:"is_final"`
}

// Time returns the candle open time in UTC.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// TradeRecord is a single fill in a symbol's trade history.
type TradeRecord struct {
	Time     time.Time `json:"time"`
	Side     Action    `json:"side"`
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
}

// Filter holds exchange order size constraints in quote currency.
// A zero MaxNotional means no upper bound.
type Filter struct {
	MinNotional float64 `yaml:"min_notional" json:"min_notional"`
	MaxNotional float64 `yaml:"max_notional" json:"max_notional"`
}

// Contains reports whether v lies within [MinNotional, MaxNotional].
func (f Filter) Contains(v float64) bool {
	if v < f.MinNotional {
		return false
	}
	return f.MaxNotional <= 0 || v <= f.MaxNotional
}

// Holdings are the free balances of a pair's base and quote assets.
type Holdings struct {
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// OrderBook holds price -> quantity levels.
type OrderBook struct {
	Bids map[float64]float64 `json:"bids"`
	Asks map[float64]float64 `json:"asks"`
}

// BestBid returns the highest bid price, or 0 when there are no bids.
func (ob OrderBook) BestBid() float64 {
	best := 0.0
	for p, q := range ob.Bids {
		if q > 0 && p > best {
			best = p
		}
	}
	return best
}

// BestAsk returns the lowest ask price, or 0 when there are no asks.
func (ob OrderBook) BestAsk() float64 {
	best := math.Inf(1)
	for p, q := range ob.Asks {
		if q > 0 && p < best {
			best = p
		}
	}
	if math.IsInf(best, 1) {
		return 0
	}
	return best
}

// Decision is the advisory classifier's answer.
type Decision struct {
	Action     Action  `json:"action"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// OrderReq asks the exchange to fill a market order. A zero Quantity means
// "use the default size" (whole free balance clamped to Filter.MaxNotional).
type OrderReq struct {
	Symbol   string  `json:"symbol"`
	Side     Action  `json:"side"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Filter   Filter  `json:"filter"`
	Tag      string  `json:"tag"`
}

type OrderResp struct {
	OrderID  string  `json:"order_id"`
	Status   string  `json:"status"`
	Message  string  `json:"message,omitempty"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// StepResult summarises one decision cycle for a symbol.
type StepResult struct {
	Symbol     string             `json:"symbol"`
	Action     Action             `json:"action"`
	Candidate  Action             `json:"candidate"`
	Gate       Action             `json:"gate"`
	Check      Action             `json:"check"`
	Scores     map[Action]float64 `json:"scores"`
	PNL        float64            `json:"pnl"`
	TakeProfit float64            `json:"take_profit"`
	StopLoss   float64            `json:"stop_loss"`
	Price      float64            `json:"price"`
	Time       int64              `json:"time"`
	Orders     []OrderResp        `json:"orders"`
	Reason     string             `json:"reason"`
}

// SymbolSnapshot is a read-only view of a symbol's runtime trading state.
type SymbolSnapshot struct {
	Symbol        string             `json:"symbol"`
	Trend         string             `json:"trend"`
	MinimumBuy    float64            `json:"minimum_buy"`
	MinimumSell   float64            `json:"minimum_sell"`
	Lock          string             `json:"lock"`
	Target        Action             `json:"target"`
	HighWaterMark float64            `json:"high_water_mark"`
	EntryTime     time.Time          `json:"entry_time"`
	Weights       map[string]float64 `json:"weights"`
	LastAction    Action             `json:"last_action"`
	LastCycle     time.Time          `json:"last_cycle"`
}
