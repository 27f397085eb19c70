package xlog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/omeyang/xquota/pkg/observability/xlog"
)

func testCleanup(t *testing.T, cleanup func() error) {
	t.Helper()
	t.Cleanup(func() {
		if err := cleanup(); err != nil {
			t.Errorf("cleanup error: %v", err)
		}
	})
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().SetOutput(&buf).SetLevel(xlog.LevelWarn).Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	ctx := context.Background()
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")

	logger.SetLevel(xlog.LevelDebug)
	assert.Equal(t, xlog.LevelDebug, logger.GetLevel())
	assert.True(t, logger.Enabled(ctx, xlog.LevelDebug))
	logger.Debug(ctx, "debug after change")
	assert.Contains(t, buf.String(), "debug after change")
}

func TestLogger_JSONAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().
		SetOutput(&buf).
		SetFormat("JSON").
		SetAttrs(xlog.Component("xquota")).
		Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	logger.Warn(context.Background(), "rate limit reached",
		xlog.LimitName("Connector:3_every_60"),
		xlog.Hits(3),
		xlog.Allow(3),
		xlog.RemainingSeconds(42),
		xlog.Phase("preflight"),
		xlog.Err(errors.New("boom")),
		xlog.Err(nil),
	)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "rate limit reached", rec["msg"])
	assert.Equal(t, "xquota", rec[xlog.KeyComponent])
	assert.Equal(t, "Connector:3_every_60", rec[xlog.KeyLimit])
	assert.EqualValues(t, 3, rec[xlog.KeyHits])
	assert.EqualValues(t, 3, rec[xlog.KeyAllow])
	assert.EqualValues(t, 42, rec[xlog.KeyRemainingSeconds])
	assert.Equal(t, "preflight", rec[xlog.KeyPhase])
	assert.Equal(t, "boom", rec[xlog.KeyError])
}

func TestLogger_WithAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().SetOutput(&buf).SetFormat("json").Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	derived := logger.With(slog.String("scope", "Connector")).WithGroup("quota")
	derived.Info(context.Background(), "saved", xlog.Hits(1))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Connector", rec["scope"])
	group, ok := rec["quota"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, group[xlog.KeyHits])

	// 空参数返回自身
	assert.Same(t, logger, logger.With())
	assert.Same(t, logger, logger.WithGroup(""))
}

func TestLogger_EnrichTrace(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().SetOutput(&buf).SetFormat("json").Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.Info(ctx, "traced")
	span.End()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, span.SpanContext().TraceID().String(), rec[xlog.KeyTraceID])
	assert.Equal(t, span.SpanContext().SpanID().String(), rec[xlog.KeySpanID])
}

func TestLogger_NoEnrich(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().SetOutput(&buf).SetEnrich(false).Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	logger.Info(ctx, "plain")
	assert.NotContains(t, buf.String(), xlog.KeyTraceID)
}

func TestBuilder_Errors(t *testing.T) {
	_, _, err := xlog.New().SetFormat("xml").Build()
	assert.Error(t, err)

	_, _, err = xlog.New().SetLevelString("verbose").Build()
	assert.Error(t, err)

	_, _, err = xlog.New().SetRotation("", xlog.RotationConfig{}).Build()
	assert.ErrorIs(t, err, xlog.ErrInvalidRotation)

	_, _, err = xlog.New().SetRotation("x.log", xlog.RotationConfig{MaxSizeMB: -1}).Build()
	assert.ErrorIs(t, err, xlog.ErrInvalidRotation)
}

func TestBuilder_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota.log")
	logger, cleanup, err := xlog.New().
		SetRotation(path, xlog.RotationConfig{MaxSizeMB: 1}).
		Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "written to file")
	require.NoError(t, cleanup())
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "written to file"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    xlog.Level
		wantErr bool
	}{
		{in: "debug", want: xlog.LevelDebug},
		{in: " INFO ", want: xlog.LevelInfo},
		{in: "", want: xlog.LevelInfo},
		{in: "warning", want: xlog.LevelWarn},
		{in: "Warn", want: xlog.LevelWarn},
		{in: "error", want: xlog.LevelError},
		{in: "trace", want: xlog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := xlog.ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevel_UnmarshalText(t *testing.T) {
	var l xlog.Level
	require.NoError(t, l.UnmarshalText([]byte("warn")))
	assert.Equal(t, xlog.LevelWarn, l)
	assert.Equal(t, "WARN", l.String())
	assert.Error(t, l.UnmarshalText([]byte("nope")))
}

func TestNop(t *testing.T) {
	l := xlog.Nop()
	ctx := context.Background()
	l.Debug(ctx, "x")
	l.Info(ctx, "x")
	l.Warn(ctx, "x")
	l.Error(ctx, "x")
	assert.NotNil(t, l.With(xlog.Hits(1)))
	assert.NotNil(t, l.WithGroup("g"))
	assert.False(t, l.Enabled(ctx, xlog.LevelError))
	assert.Zero(t, xlog.ErrorCount(l))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestErrorCount(t *testing.T) {
	logger, cleanup, err := xlog.New().SetOutput(failingWriter{}).Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	logger.Info(context.Background(), "lost")
	logger.Info(context.Background(), "lost")
	assert.Equal(t, uint64(2), xlog.ErrorCount(logger))
}
