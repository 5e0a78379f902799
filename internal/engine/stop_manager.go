package engine

import (
	"math"
	"time"

	"spot-trader/internal/store"
	"spot-trader/internal/types"
)

// OverlayInput holds the profit/loss overlay inputs for one cycle.
type OverlayInput struct {
	// Trades are the last fills, oldest first. Only the last two are read.
	Trades []types.TradeRecord
	// Reference is the price the position would close at: the best opposing
	// book price when available, otherwise the latest close.
	Reference float64
	Now       time.Time
	Gate      types.Action
	Config    *store.SymbolConfig
}

// OverlayResult is the overlay's action plus the values it was derived from.
// TakeProfit is the high-water-mark PNL and StopLoss the effective stop threshold, both in percent.
type OverlayResult struct {
	Check       types.Action `json:"check"`
	TakeProfit  float64      `json:"take_profit"`
	StopLoss    float64      `json:"stop_loss"`
	PNL         float64      `json:"pnl"`
	RealizedPNL float64      `json:"realized_pnl"`
	HoursHeld   float64      `json:"hours_held"`
}

// Overlay applies take-profit, stop-loss and minimum-profit rules on top of the gate.
//
// Parameters:
//   - in: trades, reference price, clock, gate action and symbol configuration
//   - st: current symbol state (trend, minimum thresholds, high-water-mark)
//
// Returns:
//   - result: overlay check (TAKE_PROFIT, STOP_LOSS, BUY, SELL or HOLD) and echoed thresholds
//   - next: state with updated trend, swapped thresholds and high-water-mark
func Overlay(in OverlayInput, st SymbolState) (OverlayResult, SymbolState) {
	cfg := in.Config
	if len(in.Trades) == 0 {
		return OverlayResult{Check: in.Gate}, st
	}

	entry := in.Trades[len(in.Trades)-1]
	pnl := unrealizedPNL(entry, in.Reference, in.Gate)
	realized := realizedPNL(in.Trades)

	st = applyTrend(st, entry.Side)

	if !st.EntryTime.Equal(entry.Time) {
		st.EntryTime = entry.Time
		st.HighWaterMark = pnl
	}
	st.HighWaterMark = math.Max(st.HighWaterMark, pnl)

	hours := 0.0
	if !in.Now.IsZero() && in.Now.After(entry.Time) {
		hours = in.Now.Sub(entry.Time).Hours()
	}
	stop := stopThreshold(st.HighWaterMark, cfg.StopLoss, hours)

	res := OverlayResult{
		TakeProfit:  st.HighWaterMark,
		StopLoss:    stop,
		PNL:         pnl,
		RealizedPNL: realized,
		HoursHeld:   hours,
	}

	switch {
	case hours < cfg.MinHoldHours:
		res.Check = types.ActionHold
	case cfg.TakeProfit.Enabled && pnl > 0 && pnl >= cfg.TakeProfit.Percent:
		res.Check = types.ActionTakeProfit
	case cfg.StopLoss.Enabled && pnl < 0 && pnl <= stop:
		res.Check = types.ActionStopLoss
	default:
		res.Check = profitFloor(in.Gate, pnl, st, cfg.TradeFeePercentage)
	}

	// After a losing round trip a losing position only moves on STOP_LOSS or BUY.
	if realized < 0 && pnl < 0 && res.Check != types.ActionStopLoss && res.Check != types.ActionBuy {
		res.Check = types.ActionHold
	}
	return res, st
}

// unrealizedPNL is the percent PNL of the entry marked to ref. A long entry
// gains when ref rises and a short entry when it falls. When the next action
// repeats the entry side the sign is reversed, measuring PNL of adding rather than closing.
func unrealizedPNL(entry types.TradeRecord, ref float64, next types.Action) float64 {
	if entry.Price <= 0 || ref <= 0 {
		return 0
	}
	pnl := (ref - entry.Price) / entry.Price * 100
	if entry.Side == types.ActionSell {
		pnl = -pnl
	}
	if next == entry.Side {
		pnl = -pnl
	}
	return pnl
}

// realizedPNL is the percent result of the last closed round trip, or 0 when
// the last two fills are not opposite sides.
func realizedPNL(trades []types.TradeRecord) float64 {
	if len(trades) < 2 {
		return 0
	}
	open, exit := trades[len(trades)-2], trades[len(trades)-1]
	if open.Side == exit.Side || open.Price <= 0 {
		return 0
	}
	pnl := (exit.Price - open.Price) / open.Price * 100
	if open.Side == types.ActionSell {
		pnl = -pnl
	}
	return pnl
}

// applyTrend sets the trend implied by the entry side. On a flip the buy and
// sell minimum-profit thresholds are swapped because they are direction relative.
func applyTrend(st SymbolState, entrySide types.Action) SymbolState {
	trend := store.TrendLong
	if entrySide == types.ActionSell {
		trend = store.TrendShort
	}
	if st.Trend != trend {
		st.MinimumBuy, st.MinimumSell = st.MinimumSell, st.MinimumBuy
		st.Trend = trend
	}
	return st
}

// stopThreshold is hwm + offset + agingPerHour*hours, capped at 0.
func stopThreshold(hwm float64, cfg store.StopLossConfig, hours float64) float64 {
	aging := math.Max(cfg.AgingPerHour, 0) * math.Max(hours, 0)
	return math.Min(hwm+cfg.Offset+aging, 0)
}

// profitFloor confirms the gate action only when pnl clears the side's minimum plus fees.
func profitFloor(gate types.Action, pnl float64, st SymbolState, fee float64) types.Action {
	switch gate {
	case types.ActionSell:
		if pnl > st.MinimumSell+fee {
			return types.ActionSell
		}
		return types.ActionHold
	case types.ActionBuy:
		if pnl > st.MinimumBuy+fee {
			return types.ActionBuy
		}
		return types.ActionHold
	}
	return types.ActionHold
}
