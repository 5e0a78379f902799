package llmobs

import (
	"context"

	"spot-trader/internal/interfaces"
	"spot-trader/internal/logger"
	"spot-trader/internal/trace"
	"spot-trader/internal/types"
)

// observableDecider wraps a Decider with observability (logging & tracing)
type observableDecider struct {
	decider interfaces.Decider
}

// Compile-time interface check
var _ interfaces.Decider = (*observableDecider)(nil)

// Wrap wraps a decider with observability middleware
func Wrap(decider interfaces.Decider) interfaces.Decider {
	return &observableDecider{
		decider: decider,
	}
}

// Decide requests advice with observability
func (od *observableDecider) Decide(
	ctx context.Context,
	symbol string,
	latest types.Candle,
	scores map[types.Action]float64,
	contextData map[string]any,
) (types.Decision, error) {
	ctx, span := trace.StartSpan(ctx, "advisor.Decide")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting advice",
		"symbol", symbol,
		"price", latest.Close,
		"buy", scores[types.ActionBuy],
		"sell", scores[types.ActionSell],
	)

	decision, err := od.decider.Decide(ctx, symbol, latest, scores, contextData)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to get advice", err,
			"symbol", symbol,
			"price", latest.Close,
		)
		return types.Decision{}, err
	}

	logger.InfoSkip(ctx, 1, "Advice received",
		"symbol", symbol,
		"action", string(decision.Action),
		"reason", decision.Reason,
		"confidence", decision.Confidence,
	)

	return decision, nil
}
