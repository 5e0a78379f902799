package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-trader/internal/indicator"
	"spot-trader/internal/store"
	"spot-trader/internal/types"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func symCfg() *store.SymbolConfig {
	return &store.SymbolConfig{
		Base:               "BTC",
		Quote:              "USDT",
		AgreementThreshold: 50,
		Trend:              store.TrendLong,
		Filter:             types.Filter{MinNotional: 10},
		Consecutive:        store.ConsecutiveConfig{Target: types.ActionBuy},
		Indicators: []indicator.Config{
			{Name: "SMA", Enabled: true, Weight: 1, Period: 20},
		},
	}
}

func oneTF(actions ...types.Action) TimeframeVotes {
	tf := TimeframeVotes{Timeframe: "1m"}
	for i, a := range actions {
		tf.Votes = append(tf.Votes, Vote{Indicator: string(rune('A' + i)), Action: a, Weight: 1})
	}
	return tf
}

func TestAggregateSingleTimeframe(t *testing.T) {
	s := Aggregate([]TimeframeVotes{oneTF(types.ActionBuy, types.ActionBuy, types.ActionSell, types.ActionSkip)})

	assert.InDelta(t, 200.0/3, s[types.ActionBuy], 1e-9)
	assert.InDelta(t, 100.0/3, s[types.ActionSell], 1e-9)
	assert.Equal(t, 0.0, s[types.ActionHold])
}

func TestAggregateEqualTimeframeInfluence(t *testing.T) {
	s := Aggregate([]TimeframeVotes{
		oneTF(types.ActionBuy),
		oneTF(types.ActionSell, types.ActionSell, types.ActionSell),
	})
	assert.InDelta(t, 50, s[types.ActionBuy], 1e-9)
	assert.InDelta(t, 50, s[types.ActionSell], 1e-9)
}

func TestAggregateZeroWeightTimeframeContributesNothing(t *testing.T) {
	dead := TimeframeVotes{Timeframe: "5m", Votes: []Vote{
		{Indicator: "A", Action: types.ActionSkip, Weight: 1},
		{Indicator: "B", Action: types.ActionBuy, Weight: 0},
		{Indicator: "C", Action: types.ActionSell, Weight: math.NaN()},
	}}
	s := Aggregate([]TimeframeVotes{oneTF(types.ActionBuy), dead})

	assert.InDelta(t, 50, s[types.ActionBuy], 1e-9)
	assert.Equal(t, 0.0, s[types.ActionSell])
	for _, v := range s {
		assert.False(t, math.IsNaN(v))
	}
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)
	assert.Len(t, s, 3)
	assert.Equal(t, 0.0, s[types.ActionBuy]+s[types.ActionSell]+s[types.ActionHold])
}

func TestAggregateIdempotentAndBounded(t *testing.T) {
	tfs := []TimeframeVotes{
		{Timeframe: "1m", Votes: []Vote{
			{Indicator: "RSI", Action: types.ActionBuy, Weight: 0.3},
			{Indicator: "MACD", Action: types.ActionHold, Weight: 1.7},
			{Indicator: "SMA", Action: types.ActionSell, Weight: 0.1},
		}},
		{Timeframe: "15m", Votes: []Vote{
			{Indicator: "RSI", Action: types.ActionSell, Weight: 2.2},
			{Indicator: "ADX", Action: types.ActionSkip, Weight: 5},
		}},
		{Timeframe: "1h", Votes: []Vote{
			{Indicator: "CCI", Action: types.ActionBuy, Weight: 1.0 / 3},
			{Indicator: "MFI", Action: types.ActionBuy, Weight: 2.0 / 3},
		}},
	}

	first := Aggregate(tfs)
	second := Aggregate(tfs)
	assert.Equal(t, first, second)

	limit := 100 / float64(len(tfs))
	for _, tf := range tfs {
		s := Aggregate([]TimeframeVotes{tf, {}, {}})
		sum := s[types.ActionBuy] + s[types.ActionSell] + s[types.ActionHold]
		assert.LessOrEqual(t, sum, limit+1e-9, "timeframe %s", tf.Timeframe)
	}
}

func TestGateAfterSellPrefersBuy(t *testing.T) {
	in := GateInput{Close: 100, Holdings: types.Holdings{Base: 1, Quote: 500}, Filter: types.Filter{MinNotional: 10}, LastSide: types.ActionSell}
	assert.Equal(t, types.ActionBuy, Gate(in))

	in.Holdings.Quote = 5
	assert.Equal(t, types.ActionSell, Gate(in))

	in.Holdings.Base = 0.01
	assert.Equal(t, types.ActionHold, Gate(in))
}

func TestGateAfterBuyPrefersSell(t *testing.T) {
	in := GateInput{Close: 100, Holdings: types.Holdings{Base: 1, Quote: 500}, Filter: types.Filter{MinNotional: 10}, LastSide: types.ActionBuy}
	assert.Equal(t, types.ActionSell, Gate(in))

	in.Holdings.Base = 0
	assert.Equal(t, types.ActionBuy, Gate(in))
}

func TestGateNoHistoryTreatedAsSell(t *testing.T) {
	in := GateInput{Close: 100, Holdings: types.Holdings{Base: 1, Quote: 500}, Filter: types.Filter{MinNotional: 10}}
	assert.Equal(t, types.ActionBuy, Gate(in))
}

func TestGateMaxNotionalClamp(t *testing.T) {
	in := GateInput{Close: 100, Holdings: types.Holdings{Base: 5, Quote: 0}, Filter: types.Filter{MinNotional: 10, MaxNotional: 400}, LastSide: types.ActionBuy}
	assert.Equal(t, types.ActionHold, Gate(in), "base value 500 above ceiling")

	in.Holdings = types.Holdings{Quote: 1000}
	in.LastSide = types.ActionSell
	assert.Equal(t, types.ActionHold, Gate(in), "quote 1000 above ceiling")

	in.Holdings = types.Holdings{Quote: 300}
	assert.Equal(t, types.ActionBuy, Gate(in))
}

func TestGateSymmetry(t *testing.T) {
	balances := []float64{0, 5, 10, 10.5, 50, 300, 1000}
	filters := []types.Filter{{MinNotional: 10}, {MinNotional: 10, MaxNotional: 400}}

	for _, f := range filters {
		for _, a := range balances {
			for _, b := range balances {
				sell := Gate(GateInput{Close: 1, Holdings: types.Holdings{Base: a, Quote: b}, Filter: f, LastSide: types.ActionSell})
				buy := Gate(GateInput{Close: 1, Holdings: types.Holdings{Base: b, Quote: a}, Filter: f, LastSide: types.ActionBuy})
				assert.Equal(t, sell.Opposite(), buy, "base=%v quote=%v filter=%+v", a, b, f)
			}
		}
	}
}

func overlayCfg() *store.SymbolConfig {
	cfg := symCfg()
	cfg.TakeProfit = store.TakeProfitConfig{Enabled: true, Percent: 5}
	cfg.StopLoss = store.StopLossConfig{Enabled: true, Offset: -5}
	return cfg
}

func TestOverlayNoTradesPassesGate(t *testing.T) {
	cfg := overlayCfg()
	res, _ := Overlay(OverlayInput{Reference: 100, Now: t0, Gate: types.ActionBuy, Config: cfg}, NewSymbolState(cfg))
	assert.Equal(t, types.ActionBuy, res.Check)
}

func TestOverlayTakeProfit(t *testing.T) {
	cfg := overlayCfg()
	trades := []types.TradeRecord{{Time: t0, Side: types.ActionBuy, Price: 100, Quantity: 1}}

	res, st := Overlay(OverlayInput{Trades: trades, Reference: 110, Now: t0.Add(time.Hour), Gate: types.ActionSell, Config: cfg}, NewSymbolState(cfg))

	assert.Equal(t, types.ActionTakeProfit, res.Check)
	assert.InDelta(t, 10, res.PNL, 1e-9)
	assert.InDelta(t, 10, res.TakeProfit, 1e-9)
	assert.InDelta(t, 10, st.HighWaterMark, 1e-9)
	assert.True(t, st.EntryTime.Equal(t0))
}

func TestOverlayTrailingStopLoss(t *testing.T) {
	cfg := overlayCfg()
	cfg.TakeProfit.Percent = 50
	trades := []types.TradeRecord{{Time: t0, Side: types.ActionBuy, Price: 100, Quantity: 1}}
	st := NewSymbolState(cfg)

	res, st := Overlay(OverlayInput{Trades: trades, Reference: 106, Now: t0.Add(time.Hour), Gate: types.ActionSell, Config: cfg}, st)
	require.NotEqual(t, types.ActionStopLoss, res.Check)
	assert.InDelta(t, 6, st.HighWaterMark, 1e-9)

	res, st = Overlay(OverlayInput{Trades: trades, Reference: 99, Now: t0.Add(2 * time.Hour), Gate: types.ActionSell, Config: cfg}, st)
	assert.Equal(t, types.ActionStopLoss, res.Check)
	assert.InDelta(t, 0, res.StopLoss, 1e-9, "hwm 6 with offset -5 is capped at 0")
	assert.InDelta(t, 6, st.HighWaterMark, 1e-9, "high-water mark never falls")
}

func TestOverlayHighWaterMarkResetsOnNewEntry(t *testing.T) {
	cfg := overlayCfg()
	st := NewSymbolState(cfg)
	st.EntryTime = t0
	st.HighWaterMark = 8

	trades := []types.TradeRecord{
		{Time: t0, Side: types.ActionBuy, Price: 100},
		{Time: t0.Add(time.Hour), Side: types.ActionSell, Price: 101},
	}
	_, st = Overlay(OverlayInput{Trades: trades, Reference: 100, Now: t0.Add(2 * time.Hour), Gate: types.ActionBuy, Config: cfg}, st)

	assert.True(t, st.EntryTime.Equal(t0.Add(time.Hour)))
	assert.Less(t, st.HighWaterMark, 8.0)
}

func TestOverlayMinHold(t *testing.T) {
	cfg := overlayCfg()
	cfg.MinHoldHours = 4
	trades := []types.TradeRecord{{Time: t0, Side: types.ActionBuy, Price: 100}}

	res, _ := Overlay(OverlayInput{Trades: trades, Reference: 120, Now: t0.Add(time.Hour), Gate: types.ActionSell, Config: cfg}, NewSymbolState(cfg))
	assert.Equal(t, types.ActionHold, res.Check)
	assert.InDelta(t, 1, res.HoursHeld, 1e-9)
}

func TestOverlayProfitFloor(t *testing.T) {
	cfg := symCfg()
	cfg.TradeFeePercentage = 0.1
	cfg.MinimumSell = 1
	trades := []types.TradeRecord{{Time: t0, Side: types.ActionBuy, Price: 100}}
	st := NewSymbolState(cfg)

	res, _ := Overlay(OverlayInput{Trades: trades, Reference: 101, Now: t0.Add(time.Hour), Gate: types.ActionSell, Config: cfg}, st)
	assert.Equal(t, types.ActionHold, res.Check, "1% does not clear 1% + 0.1% fee")

	res, _ = Overlay(OverlayInput{Trades: trades, Reference: 101.2, Now: t0.Add(time.Hour), Gate: types.ActionSell, Config: cfg}, st)
	assert.Equal(t, types.ActionSell, res.Check)
}

func TestOverlaySameSideReversesPNL(t *testing.T) {
	cfg := symCfg()
	trades := []types.TradeRecord{{Time: t0, Side: types.ActionBuy, Price: 100}}

	res, _ := Overlay(OverlayInput{Trades: trades, Reference: 90, Now: t0, Gate: types.ActionBuy, Config: cfg}, NewSymbolState(cfg))
	assert.InDelta(t, 10, res.PNL, 1e-9)

	res, _ = Overlay(OverlayInput{Trades: trades, Reference: 90, Now: t0, Gate: types.ActionSell, Config: cfg}, NewSymbolState(cfg))
	assert.InDelta(t, -10, res.PNL, 1e-9)
}

func TestOverlayShortEntryMirrorsPNL(t *testing.T) {
	cfg := symCfg()
	trades := []types.TradeRecord{{Time: t0, Side: types.ActionSell, Price: 100}}

	res, _ := Overlay(OverlayInput{Trades: trades, Reference: 90, Now: t0, Gate: types.ActionBuy, Config: cfg}, NewSymbolState(cfg))
	assert.InDelta(t, 10, res.PNL, 1e-9)
}

func TestOverlayLosingGuard(t *testing.T) {
	cfg := symCfg()
	cfg.Trend = store.TrendShort
	cfg.MinimumSell = -20
	trades := []types.TradeRecord{
		{Time: t0, Side: types.ActionBuy, Price: 100},
		{Time: t0.Add(time.Hour), Side: types.ActionSell, Price: 90},
	}

	res, _ := Overlay(OverlayInput{Trades: trades, Reference: 85, Now: t0.Add(2 * time.Hour), Gate: types.ActionSell, Config: cfg}, NewSymbolState(cfg))

	assert.InDelta(t, -10, res.RealizedPNL, 1e-9)
	assert.Less(t, res.PNL, 0.0)
	assert.Equal(t, types.ActionHold, res.Check)
}

func TestOverlayTrendFlipSwapsMinimums(t *testing.T) {
	cfg := symCfg()
	cfg.MinimumBuy = 1
	cfg.MinimumSell = 2
	st := NewSymbolState(cfg)
	trades := []types.TradeRecord{{Time: t0, Side: types.ActionSell, Price: 100}}

	_, st = Overlay(OverlayInput{Trades: trades, Reference: 100, Now: t0, Gate: types.ActionBuy, Config: cfg}, st)
	assert.Equal(t, store.TrendShort, st.Trend)
	assert.Equal(t, 2.0, st.MinimumBuy)
	assert.Equal(t, 1.0, st.MinimumSell)

	_, st = Overlay(OverlayInput{Trades: trades, Reference: 100, Now: t0, Gate: types.ActionBuy, Config: cfg}, st)
	assert.Equal(t, 2.0, st.MinimumBuy, "no second swap without a flip")
}

func TestStopThresholdMonotonicInHours(t *testing.T) {
	cfgs := []store.StopLossConfig{
		{Enabled: true, Offset: -5, AgingPerHour: 0.5},
		{Enabled: true, Offset: -1, AgingPerHour: 0},
		{Enabled: true, Offset: -30, AgingPerHour: 2},
		{Enabled: true, Offset: -3, AgingPerHour: -1},
	}
	for _, c := range cfgs {
		for _, hwm := range []float64{-4, 0, 2.5, 12} {
			prev := math.Inf(-1)
			for h := 0.0; h <= 48; h += 0.5 {
				got := stopThreshold(hwm, c, h)
				assert.GreaterOrEqual(t, got, prev, "cfg=%+v hwm=%v h=%v", c, hwm, h)
				assert.LessOrEqual(t, got, 0.0)
				prev = got
			}
		}
	}
}

func TestOverlayStopMonotonicInElapsedTime(t *testing.T) {
	cfg := overlayCfg()
	cfg.StopLoss.AgingPerHour = 0.25
	trades := []types.TradeRecord{{Time: t0, Side: types.ActionBuy, Price: 100}}

	prev := math.Inf(-1)
	for h := 0; h < 24; h++ {
		st := NewSymbolState(cfg)
		res, _ := Overlay(OverlayInput{Trades: trades, Reference: 97, Now: t0.Add(time.Duration(h) * time.Hour), Gate: types.ActionSell, Config: cfg}, st)
		assert.GreaterOrEqual(t, res.StopLoss, prev)
		prev = res.StopLoss
	}
}

func TestApplyLockTransitions(t *testing.T) {
	st := SymbolState{Target: types.ActionBuy}

	a, st := applyLock(types.ActionBuy, st, false)
	assert.Equal(t, types.ActionBuy, a)
	assert.Equal(t, "LOCKED(BUY)", st.LockLabel())

	a, st = applyLock(types.ActionBuy, st, false)
	assert.Equal(t, types.ActionHold, a)
	assert.Equal(t, "LOCKED(BUY)", st.LockLabel())

	a, st = applyLock(types.ActionHold, st, false)
	assert.Equal(t, types.ActionHold, a)
	assert.Equal(t, "LOCKED(BUY)", st.LockLabel())

	a, st = applyLock(types.ActionSkip, st, false)
	assert.Equal(t, types.ActionHold, a)
	assert.Equal(t, "LOCKED(BUY)", st.LockLabel())

	a, st = applyLock(types.ActionSell, st, false)
	assert.Equal(t, types.ActionHold, a, "reversal unlocks but SELL is not the target")
	assert.Equal(t, "IDLE", st.LockLabel())

	a, st = applyLock(types.ActionBuy, st, false)
	assert.Equal(t, types.ActionBuy, a)
	assert.Equal(t, "LOCKED(BUY)", st.LockLabel())
}

func TestApplyLockEmptyTargetNeverFires(t *testing.T) {
	st := SymbolState{}
	for _, c := range []types.Action{types.ActionBuy, types.ActionSell, types.ActionHold} {
		a, next := applyLock(c, st, true)
		assert.Equal(t, types.ActionHold, a)
		assert.False(t, next.Locked)
	}
}

func TestApplyLockFlipTarget(t *testing.T) {
	st := SymbolState{Target: types.ActionBuy}

	a, st := applyLock(types.ActionBuy, st, true)
	require.Equal(t, types.ActionBuy, a)
	assert.Equal(t, types.ActionSell, st.Target)

	a, st = applyLock(types.ActionBuy, st, true)
	assert.Equal(t, types.ActionHold, a)

	a, st = applyLock(types.ActionSell, st, true)
	assert.Equal(t, types.ActionSell, a)
	assert.Equal(t, "LOCKED(SELL)", st.LockLabel())
	assert.Equal(t, types.ActionBuy, st.Target)
}

func buyInput(cfg *store.SymbolConfig, tfs ...TimeframeVotes) CycleInput {
	return CycleInput{
		Config:     cfg,
		Variant:    store.VariantConsecutive,
		Timeframes: tfs,
		Close:      100,
		Holdings:   types.Holdings{Quote: 1000},
		Now:        t0,
	}
}

func TestDecideSingleIndicatorBuy(t *testing.T) {
	cfg := symCfg()
	out, st := Decide(buyInput(cfg, oneTF(types.ActionBuy)), NewSymbolState(cfg))

	assert.Equal(t, types.ActionBuy, out.Gate)
	assert.Equal(t, 100.0, out.Scores[types.ActionBuy])
	assert.Equal(t, types.ActionBuy, out.Candidate)
	assert.Equal(t, types.ActionBuy, out.Action)
	assert.Equal(t, "LOCKED(BUY)", st.LockLabel())
	assert.Equal(t, types.ActionBuy, st.LastAction)
	assert.True(t, st.LastCycle.Equal(t0))
}

func TestDecideSplitTimeframesHold(t *testing.T) {
	cfg := symCfg()
	cfg.AgreementThreshold = 60
	out, st := Decide(buyInput(cfg, oneTF(types.ActionBuy), oneTF(types.ActionSell)), NewSymbolState(cfg))

	assert.InDelta(t, 50, out.Scores[types.ActionBuy], 1e-9)
	assert.InDelta(t, 50, out.Scores[types.ActionSell], 1e-9)
	assert.Equal(t, types.ActionHold, out.Candidate)
	assert.Equal(t, types.ActionHold, out.Action)
	assert.False(t, st.Locked)
}

func stopLossInput(cfg *store.SymbolConfig) (CycleInput, SymbolState) {
	in := CycleInput{
		Config:     cfg,
		Variant:    store.VariantAlgorithmic,
		Timeframes: []TimeframeVotes{oneTF(types.ActionBuy)},
		Close:      90,
		Holdings:   types.Holdings{Base: 1},
		Trades:     []types.TradeRecord{{Time: t0, Side: types.ActionBuy, Price: 100, Quantity: 1}},
		Now:        t0.Add(2 * time.Hour),
	}
	st := NewSymbolState(cfg)
	st.EntryTime = t0
	st.HighWaterMark = 2
	return in, st
}

func TestDecideStopLossBypassesAgreement(t *testing.T) {
	cfg := overlayCfg()
	cfg.TakeProfit.Enabled = false
	in, st := stopLossInput(cfg)

	out, _ := Decide(in, st)

	assert.Equal(t, types.ActionSell, out.Gate)
	assert.Equal(t, types.ActionStopLoss, out.Overlay.Check)
	assert.Equal(t, 0.0, out.Scores[types.ActionSell])
	assert.Equal(t, types.ActionSell, out.Action)
	assert.Equal(t, string(types.ActionStopLoss), out.Reason)
}

func TestDecideStopLossWithConsecutiveLock(t *testing.T) {
	cfg := overlayCfg()
	cfg.Consecutive.Target = types.ActionSell
	in, st := stopLossInput(cfg)
	in.Variant = store.VariantConsecutive

	out, next := Decide(in, st)
	assert.Equal(t, types.ActionSell, out.Action)
	assert.Equal(t, "LOCKED(SELL)", next.LockLabel())
}

func TestDecideAdvisorNeverDemotesOverride(t *testing.T) {
	cfg := overlayCfg()
	in, st := stopLossInput(cfg)
	in.Advice = &types.Decision{Action: types.ActionHold, Confidence: 1}
	in.Advisor = AdvisorPolicy{Mode: store.AdvisorModeVeto}

	out, _ := Decide(in, st)
	assert.Equal(t, types.ActionSell, out.Action)
}

func TestDecideConsecutiveLockScenario(t *testing.T) {
	cfg := symCfg()
	cfg.Consecutive.FlipTarget = true
	st := NewSymbolState(cfg)

	out, st := Decide(buyInput(cfg, oneTF(types.ActionBuy)), st)
	require.Equal(t, types.ActionBuy, out.Action)
	require.Equal(t, "LOCKED(BUY)", st.LockLabel())

	out, st = Decide(buyInput(cfg, oneTF(types.ActionBuy)), st)
	assert.Equal(t, types.ActionBuy, out.Candidate)
	assert.Equal(t, types.ActionHold, out.Action)
	assert.Equal(t, "LOCKED(BUY)", st.LockLabel())

	sell := CycleInput{
		Config:     cfg,
		Variant:    store.VariantConsecutive,
		Timeframes: []TimeframeVotes{oneTF(types.ActionSell)},
		Close:      100,
		Holdings:   types.Holdings{Base: 1},
		Now:        t0,
	}
	out, st = Decide(sell, st)
	assert.Equal(t, types.ActionSell, out.Gate)
	assert.Equal(t, types.ActionSell, out.Action)
	assert.Equal(t, "LOCKED(SELL)", st.LockLabel())
}

func TestDecideGateHoldWins(t *testing.T) {
	cfg := symCfg()
	in := buyInput(cfg, oneTF(types.ActionBuy))
	in.Holdings = types.Holdings{}

	out, _ := Decide(in, NewSymbolState(cfg))
	assert.Equal(t, types.ActionHold, out.Gate)
	assert.Equal(t, types.ActionHold, out.Action)
	assert.Equal(t, "gate", out.Reason)
}

func TestDecideIsPure(t *testing.T) {
	cfg := symCfg()
	st := NewSymbolState(cfg)
	st.Weights["SMA"] = 3
	before := st.Clone()

	_, next := Decide(buyInput(cfg, oneTF(types.ActionBuy)), st)
	next.Weights["SMA"] = 9

	assert.Equal(t, before, st)
}

func TestDecideAlgorithmicAdvisor(t *testing.T) {
	cfg := symCfg()
	tests := []struct {
		name   string
		policy AdvisorPolicy
		advice *types.Decision
		votes  types.Action
		want   types.Action
	}{
		{"no advice", AdvisorPolicy{Mode: store.AdvisorModeVeto}, nil, types.ActionBuy, types.ActionBuy},
		{"veto agrees", AdvisorPolicy{Mode: store.AdvisorModeVeto}, &types.Decision{Action: types.ActionBuy, Confidence: 0.9}, types.ActionBuy, types.ActionBuy},
		{"veto disagrees", AdvisorPolicy{Mode: store.AdvisorModeVeto}, &types.Decision{Action: types.ActionSell, Confidence: 0.9}, types.ActionBuy, types.ActionHold},
		{"veto low confidence", AdvisorPolicy{Mode: store.AdvisorModeVeto, MinConfidence: 0.95}, &types.Decision{Action: types.ActionSell, Confidence: 0.9}, types.ActionBuy, types.ActionBuy},
		{"force gate side", AdvisorPolicy{Mode: store.AdvisorModeForce}, &types.Decision{Action: types.ActionBuy, Confidence: 0.9}, types.ActionSell, types.ActionBuy},
		{"force hold", AdvisorPolicy{Mode: store.AdvisorModeForce}, &types.Decision{Action: types.ActionHold, Confidence: 0.9}, types.ActionBuy, types.ActionHold},
		{"force off-gate side", AdvisorPolicy{Mode: store.AdvisorModeForce}, &types.Decision{Action: types.ActionSell, Confidence: 0.9}, types.ActionBuy, types.ActionHold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := buyInput(cfg, oneTF(tt.votes))
			in.Variant = store.VariantAlgorithmic
			in.Advice = tt.advice
			in.Advisor = tt.policy

			out, st := Decide(in, NewSymbolState(cfg))
			assert.Equal(t, tt.want, out.Action)
			assert.False(t, st.Locked, "algorithmic variant never locks")
		})
	}
}

func TestReferencePrice(t *testing.T) {
	ob := types.OrderBook{
		Bids: map[float64]float64{99: 1, 98.5: 2},
		Asks: map[float64]float64{101: 1, 102: 3},
	}
	assert.Equal(t, 99.0, ReferencePrice(ob, types.ActionSell, 100))
	assert.Equal(t, 101.0, ReferencePrice(ob, types.ActionBuy, 100))
	assert.Equal(t, 100.0, ReferencePrice(ob, types.ActionHold, 100))
	assert.Equal(t, 100.0, ReferencePrice(types.OrderBook{}, types.ActionBuy, 100))
}
