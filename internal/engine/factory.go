package engine

import (
	"spot-trader/internal/interfaces"
	"spot-trader/internal/store"
)

// New builds an engine for every symbol in cfg. Unknown indicator names fail here.
func New(cfg *store.Config, candles interfaces.CandleSource, exch interfaces.Exchange, advisor interfaces.Decider, opts Options) (interfaces.Engine, error) {
	e, err := newEngine(cfg, candles, exch, advisor, opts)
	if err != nil {
		return nil, err
	}
	return e, nil
}
