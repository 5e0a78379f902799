package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleLogFirstWriteWins(t *testing.T) {
	c := NewCycleLog()

	assert.True(t, c.Push("check", "BUY"))
	assert.False(t, c.Push("check", "SELL"))

	v, ok := c.Get("check")
	require.True(t, ok)
	assert.Equal(t, "BUY", v)
	assert.Equal(t, 1, c.Len())
}

func TestCycleLogFlushClears(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithConfig(LogConfig{Level: "INFO", Format: "json", Output: &buf}))

	c := NewCycleLog()
	c.Push("symbol", "BTCUSDT")
	c.Push("score_buy", 62.5)
	c.Flush(context.Background(), "cycle")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "cycle", line["msg"])
	assert.Equal(t, "BTCUSDT", line["symbol"])
	assert.Equal(t, 62.5, line["score_buy"])

	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Push("symbol", "ETHUSDT"), "key must be writable again after flush")
}

func TestCycleLogFlushEmptyWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithConfig(LogConfig{Level: "INFO", Format: "json", Output: &buf}))

	NewCycleLog().Flush(context.Background(), "cycle")
	assert.Zero(t, buf.Len())
}

func TestFieldsKeepPushOrder(t *testing.T) {
	c := NewCycleLog()
	c.Push("b", 1)
	c.Push("a", 2)
	c.Push("b", 3)

	assert.Equal(t, []any{"b", 1, "a", 2}, c.Fields())
}
