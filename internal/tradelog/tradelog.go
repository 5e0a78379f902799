package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var mu sync.Mutex

// TimeLayout is the timestamp format of every log line. Times are UTC.
const TimeLayout = "2006-01-02 15:04:05"

// Entry is one executed order.
type Entry struct {
	Time, Symbol, Side, OrderID, Reason, Tag string
	Qty                                      float64
	Price                                    float64
	Extra                                    map[string]any `json:"extra,omitempty"`
}

// DecisionEntry is one completed decision cycle, traded or not.
type DecisionEntry struct {
	Time, Symbol, Action, Candidate, Gate, Check, Lock, Reason string
	Price                                                      float64
	PNL                                                        float64
	TakeProfit                                                 float64
	StopLoss                                                   float64
	Scores                                                     map[string]float64
	Votes                                                      map[string]string
	Extra                                                      map[string]any `json:"extra,omitempty"`
}

// LogDir is the root of the trade and decision logs (TRADER_LOG_DIR, default "logs").
func LogDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

// DailyFilepath is the trade log for the UTC day of t.
func DailyFilepath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(LogDir(), d+".txt")
}

func decisionsFilepath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(LogDir(), "decisions", d+".txt")
}

func Append(e Entry) error {
	now := time.Now().UTC()
	e.Time = now.Format(TimeLayout)
	return appendLine(DailyFilepath(now), e)
}

func AppendDecision(e DecisionEntry) error {
	now := time.Now().UTC()
	e.Time = now.Format(TimeLayout)
	return appendLine(decisionsFilepath(now), e)
}

func appendLine(p string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal log line: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips .txt logs last modified more than retentionDays ago and removes the originals.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(LogDir(), func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err == nil {
			_ = os.Remove(p)
		}
		return nil
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	_, cerr := io.Copy(gw, in)
	gerr := gw.Close()
	ferr := out.Close()
	for _, e := range []error{cerr, gerr, ferr} {
		if e != nil {
			_ = os.Remove(dst)
			return e
		}
	}
	return nil
}
