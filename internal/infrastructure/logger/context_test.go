package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newCaptureLogger returns a logger writing JSON lines into buf.
func newCaptureLogger(buf *bytes.Buffer) *zap.Logger {
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(buf), zapcore.DebugLevel)
	return zap.New(core)
}

func TestWithContext(t *testing.T) {
	t.Run("round-trips a logger through context", func(t *testing.T) {
		base := zap.NewNop()
		ctx := WithContext(context.Background(), base)

		assert.Same(t, base, FromContext(ctx))
	})

	t.Run("missing logger yields a no-op logger", func(t *testing.T) {
		logger := FromContext(context.Background())

		require.NotNil(t, logger)
		// Must not panic.
		logger.Info("ignored")
	})
}

func TestContextEnrichment(t *testing.T) {
	t.Run("request id is stored and logged", func(t *testing.T) {
		var buf bytes.Buffer
		base := newCaptureLogger(&buf)

		ctx, enriched := WithRequestID(context.Background(), base, "req-123")
		enriched.Info("handling")

		assert.Equal(t, "req-123", GetRequestID(ctx))
		assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	})

	t.Run("owner id is stored and logged", func(t *testing.T) {
		var buf bytes.Buffer
		base := newCaptureLogger(&buf)

		ctx, enriched := WithOwnerID(context.Background(), base, "owner-9")
		enriched.Info("handling")

		assert.Equal(t, "owner-9", GetOwnerID(ctx))
		assert.Contains(t, buf.String(), `"owner_id":"owner-9"`)
	})

	t.Run("batch id is stored and logged", func(t *testing.T) {
		var buf bytes.Buffer
		base := newCaptureLogger(&buf)

		ctx, enriched := WithBatchID(context.Background(), base, "batch-7")
		enriched.Info("handling")

		assert.Equal(t, "batch-7", GetBatchID(ctx))
		assert.Contains(t, buf.String(), `"batch_id":"batch-7"`)
	})

	t.Run("getters return empty strings for bare contexts", func(t *testing.T) {
		ctx := context.Background()

		assert.Empty(t, GetRequestID(ctx))
		assert.Empty(t, GetOwnerID(ctx))
		assert.Empty(t, GetBatchID(ctx))
	})
}

func TestL(t *testing.T) {
	t.Run("injects context fields into every entry", func(t *testing.T) {
		var buf bytes.Buffer
		base := newCaptureLogger(&buf)

		ctx := WithContext(context.Background(), base)
		ctx = context.WithValue(ctx, RequestIDKey, "req-55")
		ctx = context.WithValue(ctx, OwnerIDKey, "owner-1")

		L(ctx).Info("pushed", zap.Int("count", 3))

		out := buf.String()
		assert.Contains(t, out, `"request_id":"req-55"`)
		assert.Contains(t, out, `"owner_id":"owner-1"`)
		assert.Contains(t, out, `"count":3`)
	})

	t.Run("nil-safe on bare context", func(t *testing.T) {
		// Must not panic even without a logger in context.
		L(context.Background()).Info("ignored")
	})

	t.Run("With adds persistent fields", func(t *testing.T) {
		var buf bytes.Buffer
		base := newCaptureLogger(&buf)

		cl := WithLogger(context.Background(), base).With(zap.String("market", "COUPANG"))
		cl.Warn("slow response")

		assert.Contains(t, buf.String(), `"market":"COUPANG"`)
	})
}
