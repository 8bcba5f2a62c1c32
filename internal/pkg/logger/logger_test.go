package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = ParseLevel("trace")
	assert.Error(t, err)
}

func TestNew_InvalidEncoding(t *testing.T) {
	_, err := New("bot", &Config{Encoding: "xml"})
	assert.Error(t, err)
}

func TestContextHandler_AddsContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(&contextHandler{handler: slog.NewTextHandler(&buf, nil)})

	ctx := ContextWith(context.Background(), "chat_id", int64(42))
	ctx = ContextWith(ctx, "order_id", int64(7))
	log.InfoContext(ctx, "hello")

	out := buf.String()
	assert.Contains(t, out, "chat_id=42")
	assert.Contains(t, out, "order_id=7")
	assert.Contains(t, out, "msg=hello")
}
