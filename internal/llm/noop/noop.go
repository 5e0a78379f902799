package noop

import (
	"context"

	"spot-trader/internal/logger"
	"spot-trader/internal/types"
)

// NoopDecider is the advisor used when no provider is configured
type NoopDecider struct{}

// NewNoopDecider returns a new instance that always decides HOLD
func NewNoopDecider() *NoopDecider {
	return &NoopDecider{}
}

// Decide always returns HOLD with 0 confidence, which the engine ignores
func (d *NoopDecider) Decide(ctx context.Context, symbol string, _ types.Candle, _ map[types.Action]float64, _ map[string]any) (types.Decision, error) {
	logger.Debug(ctx, "Noop advisor called - always returns HOLD", "symbol", symbol)
	return types.Decision{
		Action:     types.ActionHold,
		Reason:     "noop_advisor",
		Confidence: 0.0,
	}, nil
}
