package engine

import (
	"math"

	"spot-trader/internal/types"
)

// Vote is one indicator's classification on one timeframe.
type Vote struct {
	Indicator string       `json:"indicator"`
	Action    types.Action `json:"action"`
	Weight    float64      `json:"weight"`
}

// TimeframeVotes groups the votes cast on one timeframe.
type TimeframeVotes struct {
	Timeframe string `json:"timeframe"`
	Votes     []Vote `json:"votes"`
}

// Scores maps BUY, SELL and HOLD to an agreement percentage.
type Scores map[types.Action]float64

func newScores() Scores {
	return Scores{types.ActionBuy: 0, types.ActionSell: 0, types.ActionHold: 0}
}

// Aggregate combines weighted votes across timeframes. Each timeframe
// contributes at most 100/len(tfs) percent in total; SKIP votes do not count
// and a timeframe whose voting weight is zero contributes nothing.
func Aggregate(tfs []TimeframeVotes) Scores {
	scores := newScores()
	if len(tfs) == 0 {
		return scores
	}
	share := 100 / float64(len(tfs))

	for _, tf := range tfs {
		total := 0.0
		for _, v := range tf.Votes {
			if counts(v) {
				total += v.Weight
			}
		}
		if total <= 0 {
			continue
		}
		for _, v := range tf.Votes {
			if counts(v) {
				scores[v.Action] += v.Weight / total * share
			}
		}
	}
	return scores
}

func counts(v Vote) bool {
	switch v.Action {
	case types.ActionBuy, types.ActionSell, types.ActionHold:
	default:
		return false
	}
	return v.Weight > 0 && !math.IsNaN(v.Weight) && !math.IsInf(v.Weight, 0)
}
