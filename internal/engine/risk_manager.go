package engine

import "spot-trader/internal/types"

// GateInput is what the balance gate needs to decide the permitted next action.
type GateInput struct {
	Close    float64
	Holdings types.Holdings
	Filter   types.Filter
	// LastSide is the side of the last fill. Empty means no trade yet and is treated as SELL.
	LastSide types.Action
}

// Gate returns the action the balances permit next.
//
// After a SELL the gate prefers BUY while the quote balance exceeds MinNotional,
// then SELL while the base value still does. After a BUY the order is reversed.
// A SELL is then downgraded to HOLD when the base value is outside the filter
// band, and a BUY when the quote balance is.
func Gate(in GateInput) types.Action {
	baseValue := in.Holdings.Base * in.Close
	quote := in.Holdings.Quote
	min := in.Filter.MinNotional

	var action types.Action
	if in.LastSide == types.ActionBuy {
		switch {
		case baseValue > min:
			action = types.ActionSell
		case quote > min:
			action = types.ActionBuy
		default:
			action = types.ActionHold
		}
	} else {
		switch {
		case quote > min:
			action = types.ActionBuy
		case baseValue > min:
			action = types.ActionSell
		default:
			action = types.ActionHold
		}
	}

	switch action {
	case types.ActionSell:
		if !in.Filter.Contains(baseValue) {
			return types.ActionHold
		}
	case types.ActionBuy:
		if !in.Filter.Contains(quote) {
			return types.ActionHold
		}
	}
	return action
}

// lastSide returns the side of the newest trade, or "" when there is none.
func lastSide(trades []types.TradeRecord) types.Action {
	if len(trades) == 0 {
		return ""
	}
	return trades[len(trades)-1].Side
}
