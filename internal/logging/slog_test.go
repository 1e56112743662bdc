package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level slog.Level) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	for i, want := range []string{"level=DEBUG msg=dbg a=1", "level=INFO msg=inf b=2", "level=WARN msg=wrn c=3", "level=ERROR msg=err d=4"} {
		assert.Contains(t, lines[i], want)
	}
}

func TestSlogLogger_SkipsDisabledLevels(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelInfo)

	log.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())
}

func TestSlogLogger_WithAddsAttributes(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelDebug)

	log.With("component", "outbox").Info(context.Background(), "replaying queue", "entries", 3)

	assert.Contains(t, buf.String(), "msg=\"replaying queue\" component=outbox entries=3")
}

func TestSlogLogger_ContextPairsComeFirst(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelDebug)

	ctx := ContextWith(context.Background(), "run_id", "r1")
	ctx = ContextWith(ctx, "attempt", 2)
	log.Info(ctx, "sync started", "synced", 0)

	assert.Contains(t, buf.String(), "run_id=r1 attempt=2 synced=0")
}

func TestContextWith_DoesNotLeakIntoParent(t *testing.T) {
	parent := ContextWith(context.Background(), "run_id", "r1")
	_ = ContextWith(parent, "extra", true)

	assert.Equal(t, []any{"run_id", "r1"}, fromContext(parent))
	assert.Nil(t, fromContext(context.Background()))
	assert.Equal(t, []any{"k", "v"}, withContext(context.Background(), []any{"k", "v"}))
}
