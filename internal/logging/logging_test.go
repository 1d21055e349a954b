package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := WithLogger(context.Background(), WithRun(logger, "run-1"))
	l := WithStrategy(WithSymbol(FromContext(ctx), "AAPL"), "cash_secured_put")
	l.Info().Msg("hello")

	line := decodeLine(t, &buf)
	assert.Equal(t, "run-1", line["run_id"])
	assert.Equal(t, "AAPL", line["symbol"])
	assert.Equal(t, "cash_secured_put", line["strategy"])
}

func TestFromContextWithoutLogger(t *testing.T) {
	l := FromContext(context.Background())
	assert.Equal(t, zerolog.Disabled, l.GetLevel())
}

func TestLogRunFailure(t *testing.T) {
	var buf bytes.Buffer
	LogRun(zerolog.New(&buf), "run-2", "FAILED", 0, time.Second, errors.New("boom"))

	line := decodeLine(t, &buf)
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "FAILED", line["status"])
	assert.Equal(t, "boom", line["error"])
}

func TestLogCandidateUsesScopedFields(t *testing.T) {
	var buf bytes.Buffer
	l := WithOperation(WithStrategy(WithSymbol(zerolog.New(&buf), "KO"), "covered_call"), "generate")
	LogCandidate(l, 61, 120, 5880)

	line := decodeLine(t, &buf)
	assert.Equal(t, "candidate", line["event"])
	assert.Equal(t, "KO", line["symbol"])
	assert.Equal(t, "covered_call", line["strategy"])
	assert.Equal(t, "generate", line["operation"])
	assert.Equal(t, float64(61), line["score"])
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"strategy"`)))
}

func TestSetDebugLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	SetDebugLevel()
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}
