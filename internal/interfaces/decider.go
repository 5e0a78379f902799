package interfaces

import (
	"context"

	"spot-trader/internal/types"
)

// Decider is the optional advisory classifier consulted by the ALGORITHMIC variant.
type Decider interface {
	Decide(ctx context.Context, symbol string, latest types.Candle, scores map[types.Action]float64, contextData map[string]any) (types.Decision, error)
}
