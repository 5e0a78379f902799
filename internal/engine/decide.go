package engine

import (
	"fmt"
	"time"

	"spot-trader/internal/store"
	"spot-trader/internal/types"
)

// AdvisorPolicy controls how the advisory classifier affects the ALGORITHMIC variant.
type AdvisorPolicy struct {
	// Mode is FORCE (the advice replaces the candidate) or VETO (disagreement demotes to HOLD).
	Mode          string
	MinConfidence float64
}

// CycleInput carries everything one decision needs. It holds no references to collaborators.
type CycleInput struct {
	Config     *store.SymbolConfig
	Variant    string
	Timeframes []TimeframeVotes
	Close      float64
	Holdings   types.Holdings
	Trades     []types.TradeRecord
	OrderBook  types.OrderBook
	Now        time.Time
	Advice     *types.Decision
	Advisor    AdvisorPolicy
}

// Outcome is the result of one decision cycle.
type Outcome struct {
	Action    types.Action  `json:"action"`
	Candidate types.Action  `json:"candidate"`
	Gate      types.Action  `json:"gate"`
	Scores    Scores        `json:"scores"`
	Overlay   OverlayResult `json:"overlay"`
	Reference float64       `json:"reference"`
	Reason    string        `json:"reason"`
}

// Decide runs gate, overlay, aggregation and the variant's final rule.
// It is pure: st is not modified and the next state is returned.
func Decide(in CycleInput, st SymbolState) (Outcome, SymbolState) {
	st = st.Clone()
	cfg := in.Config

	gate := Gate(GateInput{
		Close:    in.Close,
		Holdings: in.Holdings,
		Filter:   cfg.Filter,
		LastSide: lastSide(in.Trades),
	})
	ref := ReferencePrice(in.OrderBook, gate, in.Close)

	overlay, st := Overlay(OverlayInput{
		Trades:    in.Trades,
		Reference: ref,
		Now:       in.Now,
		Gate:      gate,
		Config:    cfg,
	}, st)

	scores := Aggregate(in.Timeframes)

	out := Outcome{
		Gate:      gate,
		Scores:    scores,
		Overlay:   overlay,
		Reference: ref,
	}

	override := gate.IsTrade() && (overlay.Check == types.ActionTakeProfit || overlay.Check == types.ActionStopLoss)
	switch {
	case override:
		out.Candidate = gate
		out.Reason = string(overlay.Check)
	case !gate.IsTrade():
		out.Candidate = types.ActionHold
		out.Reason = "gate"
	case overlay.Check == types.ActionHold:
		out.Candidate = types.ActionHold
		out.Reason = "overlay"
	case scores[gate] >= cfg.AgreementThreshold:
		out.Candidate = gate
		out.Reason = fmt.Sprintf("agreement %.1f%% >= %.1f%%", scores[gate], cfg.AgreementThreshold)
	default:
		out.Candidate = types.ActionHold
		out.Reason = fmt.Sprintf("agreement %.1f%% < %.1f%%", scores[gate], cfg.AgreementThreshold)
	}

	switch in.Variant {
	case store.VariantAlgorithmic:
		out.Action = advise(out.Candidate, gate, override, in.Advice, in.Advisor)
		if out.Action != out.Candidate {
			out.Reason += "; advisor " + string(in.Advice.Action)
		}
	default:
		prev := st.LockLabel()
		out.Action, st = applyLock(out.Candidate, st, cfg.Consecutive.FlipTarget)
		if out.Candidate.IsTrade() && !out.Action.IsTrade() {
			out.Reason += "; lock " + prev
		}
	}

	st.LastAction = out.Action
	if !in.Now.IsZero() {
		st.LastCycle = in.Now
	}
	return out, st
}

// advise applies the advisory decision to an agreement-qualified candidate.
// Advice below the confidence floor is ignored, and overlay overrides are never demoted.
func advise(candidate, gate types.Action, override bool, advice *types.Decision, p AdvisorPolicy) types.Action {
	if advice == nil || override || advice.Confidence < p.MinConfidence {
		return candidate
	}
	switch p.Mode {
	case store.AdvisorModeForce:
		// The advice may only pick the gate's side or stand aside.
		if advice.Action == gate && gate.IsTrade() {
			return gate
		}
		return types.ActionHold
	default:
		if candidate.IsTrade() && advice.Action != candidate {
			return types.ActionHold
		}
		return candidate
	}
}

// ReferencePrice is the best opposing book price for the permitted action,
// falling back to close when the book side is empty.
func ReferencePrice(ob types.OrderBook, gate types.Action, close float64) float64 {
	var p float64
	switch gate {
	case types.ActionSell:
		p = ob.BestBid()
	case types.ActionBuy:
		p = ob.BestAsk()
	}
	if p > 0 {
		return p
	}
	return close
}
