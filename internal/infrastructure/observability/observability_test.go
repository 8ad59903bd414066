package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
)

func TestInitMetrics_NoopProvider(t *testing.T) {
	metrics, err := InitMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		metrics.RecordPrediction(ctx, "model")
		metrics.RecordTraining(ctx, "historical", "success", 12*time.Millisecond)
		RecordCacheHit(ctx, metrics, "doctor")
		RecordCacheMiss(ctx, metrics, "doctor")
		RecordRequestMetric(ctx, metrics, "GET", "/health", 200, time.Millisecond)
	})
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		metrics.RecordPrediction(ctx, "fallback")
		metrics.RecordTraining(ctx, "synthetic", "failed", 0)
		RecordCacheHit(ctx, nil, "doctor")
		RecordRequestMetric(ctx, nil, "GET", "/", 500, 0)
	})
}

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, otellog.SeverityInfo, severityFor(zerolog.InfoLevel))
	assert.Equal(t, otellog.SeverityWarn, severityFor(zerolog.WarnLevel))
	assert.Equal(t, otellog.SeverityError, severityFor(zerolog.ErrorLevel))
	assert.Equal(t, otellog.SeverityFatal, severityFor(zerolog.PanicLevel))
}

func TestOTELHook_DoesNotAlterLocalOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(NewOTELHook("test"))

	logger.Info().Str("k", "v").Msg("hello")

	assert.Contains(t, buf.String(), `"message":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestLoggerFromContext_NoSpan(t *testing.T) {
	logger := LoggerFromContext(context.Background())
	require.NotNil(t, logger)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestInitLogger_SetsGlobalLevel(t *testing.T) {
	prevLevel, prevLogger := zerolog.GlobalLevel(), log.Logger
	defer func() {
		zerolog.SetGlobalLevel(prevLevel)
		log.Logger = prevLogger
	}()

	InitLogger("doctor-backend-test", "test", "error")
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
}
