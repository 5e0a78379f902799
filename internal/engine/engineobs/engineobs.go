package engineobs

import (
	"context"
	"time"

	"spot-trader/internal/interfaces"
	"spot-trader/internal/logger"
	"spot-trader/internal/trace"
	"spot-trader/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Step(ctx context.Context, symbol string) (*types.StepResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Step")
	defer span.End()

	start := time.Now()

	logger.DebugSkip(ctx, 1, "Starting decision cycle",
		"symbol", symbol,
	)

	result, err := oe.engine.Step(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Decision cycle failed", err,
			"symbol", symbol,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Decision cycle completed",
		"symbol", symbol,
		"action", string(result.Action),
		"gate", string(result.Gate),
		"check", string(result.Check),
		"orders", len(result.Orders),
		"reason", result.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

func (oe *observableEngine) Symbols() []string {
	return oe.engine.Symbols()
}

func (oe *observableEngine) Snapshot(symbol string) (types.SymbolSnapshot, bool) {
	return oe.engine.Snapshot(symbol)
}

func (oe *observableEngine) LastResult(symbol string) (types.StepResult, bool) {
	return oe.engine.LastResult(symbol)
}

func (oe *observableEngine) SetTarget(ctx context.Context, symbol string, target types.Action) error {
	ctx, span := trace.StartSpan(ctx, "engine.SetTarget")
	defer span.End()

	if err := oe.engine.SetTarget(ctx, symbol, target); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Set target failed", err, "symbol", symbol, "target", string(target))
		return err
	}
	return nil
}
