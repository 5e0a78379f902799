package engine

import (
	"math"
	"sync"
	"time"

	"spot-trader/internal/store"
	"spot-trader/internal/types"
)

// SymbolState is the mutable trading state of one symbol. The decision
// functions take it by value and return the next state; the engine stores it.
type SymbolState struct {
	Weights       map[string]float64 `json:"weights"`
	Trend         string             `json:"trend"`
	MinimumBuy    float64            `json:"minimum_buy"`
	MinimumSell   float64            `json:"minimum_sell"`
	Locked        bool               `json:"locked"`
	LockedSide    types.Action       `json:"locked_side,omitempty"`
	Target        types.Action       `json:"target,omitempty"`
	HighWaterMark float64            `json:"high_water_mark"`
	EntryTime     time.Time          `json:"entry_time"`
	LastAction    types.Action       `json:"last_action,omitempty"`
	LastCycle     time.Time          `json:"last_cycle"`
}

// NewSymbolState seeds state from configuration. The lock starts IDLE.
func NewSymbolState(cfg *store.SymbolConfig) SymbolState {
	st := SymbolState{
		Weights:     make(map[string]float64, len(cfg.Indicators)),
		Trend:       cfg.Trend,
		MinimumBuy:  cfg.MinimumBuy,
		MinimumSell: cfg.MinimumSell,
		Target:      cfg.Consecutive.Target,
	}
	if st.Trend == "" {
		st.Trend = store.TrendLong
	}
	for _, ic := range cfg.Indicators {
		st.Weights[ic.Name] = ic.Weight
	}
	return st
}

// LockLabel renders the lock as IDLE or LOCKED(side).
func (s SymbolState) LockLabel() string {
	if !s.Locked {
		return "IDLE"
	}
	return "LOCKED(" + string(s.LockedSide) + ")"
}

// Clone returns a deep copy so callers can mutate it freely.
func (s SymbolState) Clone() SymbolState {
	out := s
	out.Weights = make(map[string]float64, len(s.Weights))
	for k, v := range s.Weights {
		out.Weights[k] = v
	}
	return out
}

// Snapshot renders the state for symbol as a read-only view.
func (s SymbolState) Snapshot(symbol string) types.SymbolSnapshot {
	c := s.Clone()
	return types.SymbolSnapshot{
		Symbol:        symbol,
		Trend:         c.Trend,
		MinimumBuy:    c.MinimumBuy,
		MinimumSell:   c.MinimumSell,
		Lock:          c.LockLabel(),
		Target:        c.Target,
		HighWaterMark: c.HighWaterMark,
		EntryTime:     c.EntryTime,
		Weights:       c.Weights,
		LastAction:    c.LastAction,
		LastCycle:     c.LastCycle,
	}
}

// weight returns the usable vote weight for name, treating invalid values as 0.
func (s SymbolState) weight(name string) float64 {
	w := s.Weights[name]
	if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return 0
	}
	return w
}

// stateBook owns the per-symbol state. Each symbol has its own mutex so
// cycles for different symbols run in parallel while one symbol is serialised.
type stateBook struct {
	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	states map[string]SymbolState
	last   map[string]types.StepResult
}

func newStateBook() *stateBook {
	return &stateBook{
		locks:  make(map[string]*sync.Mutex),
		states: make(map[string]SymbolState),
		last:   make(map[string]types.StepResult),
	}
}

// acquire blocks until the caller owns symbol's cycle. Call the returned func to release.
func (b *stateBook) acquire(symbol string) func() {
	b.mu.Lock()
	l, ok := b.locks[symbol]
	if !ok {
		l = &sync.Mutex{}
		b.locks[symbol] = l
	}
	b.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// get returns a copy of the state for symbol, seeding it from cfg on first use.
func (b *stateBook) get(symbol string, cfg *store.SymbolConfig) SymbolState {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[symbol]
	if !ok {
		st = NewSymbolState(cfg)
		b.states[symbol] = st
	}
	return st.Clone()
}

func (b *stateBook) peek(symbol string) (SymbolState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[symbol]
	if !ok {
		return SymbolState{}, false
	}
	return st.Clone(), true
}

func (b *stateBook) put(symbol string, st SymbolState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states[symbol] = st
}

func (b *stateBook) update(symbol string, cfg *store.SymbolConfig, fn func(*SymbolState)) SymbolState {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[symbol]
	if !ok {
		st = NewSymbolState(cfg)
	}
	st = st.Clone()
	fn(&st)
	b.states[symbol] = st
	return st.Clone()
}

func (b *stateBook) setResult(symbol string, r types.StepResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last[symbol] = r
}

func (b *stateBook) result(symbol string) (types.StepResult, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.last[symbol]
	return r, ok
}
