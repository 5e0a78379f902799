package interfaces

import (
	"context"
	"time"
)

// EodSummarizer turns a day of the trade log into a per-symbol CSV report.
type EodSummarizer interface {
	SummarizeDay(ctx context.Context, t time.Time) (csvPath string, err error)
	SummarizeToday(ctx context.Context) (csvPath string, err error)
	ShouldRunNow(ctx context.Context) (shouldRun bool, csvPath string)
}
