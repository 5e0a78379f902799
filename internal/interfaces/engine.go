package interfaces

import (
	"context"

	"spot-trader/internal/types"
)

type Engine interface {
	Step(ctx context.Context, symbol string) (*types.StepResult, error)
	Symbols() []string
	Snapshot(symbol string) (types.SymbolSnapshot, bool)
	LastResult(symbol string) (types.StepResult, bool)
	// SetTarget changes the persisted target direction of the consecutive lock.
	SetTarget(ctx context.Context, symbol string, target types.Action) error
}
