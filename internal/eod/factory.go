package eod

import (
	"time"

	"spot-trader/internal/interfaces"
)

// DefaultCutoff is the UTC time of day after which the daily report is due.
const DefaultCutoff = 23*time.Hour + 55*time.Minute

// Options tune a summarizer. The zero value uses the wall clock and DefaultCutoff.
type Options struct {
	Now    func() time.Time
	Cutoff time.Duration
}

func NewSummarizer(opts Options) interfaces.EodSummarizer {
	s := &eodSummarizer{now: opts.Now, cutoff: opts.Cutoff}
	if s.now == nil {
		s.now = time.Now
	}
	if s.cutoff <= 0 {
		s.cutoff = DefaultCutoff
	}
	return s
}
