package logger

import (
	"context"
	"log/slog"
	"sync"
)

// CycleLog buffers key/value pairs for one decision cycle.
// The first Push of a key wins; later pushes of the same key are ignored until Flush.
type CycleLog struct {
	mu   sync.Mutex
	keys []string
	vals map[string]any
}

func NewCycleLog() *CycleLog {
	return &CycleLog{vals: make(map[string]any)}
}

// Push records val under key unless key was already pushed this cycle.
// It reports whether the value was stored.
func (c *CycleLog) Push(key string, val any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.vals[key]; ok {
		return false
	}
	c.keys = append(c.keys, key)
	c.vals[key] = val
	return true
}

// Get returns the value pushed for key in the current cycle.
func (c *CycleLog) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vals[key]
	return v, ok
}

// Len returns the number of buffered keys.
func (c *CycleLog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

// Fields returns the buffered pairs in push order, flattened for slog.
func (c *CycleLog) Fields() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, 0, len(c.keys)*2)
	for _, k := range c.keys {
		out = append(out, k, c.vals[k])
	}
	return out
}

// Flush writes all buffered pairs as a single INFO line and clears the buffer.
func (c *CycleLog) Flush(ctx context.Context, msg string) {
	fields := c.Fields()
	c.Reset()
	if len(fields) == 0 {
		return
	}
	logWithTrace(ctx, slog.LevelInfo, msg, 2, fields...)
}

// Reset drops buffered pairs without logging them.
func (c *CycleLog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = c.keys[:0]
	c.vals = make(map[string]any)
}
