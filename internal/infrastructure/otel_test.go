package infrastructure

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventaperdida/internal/config"
	"ventaperdida/internal/shared/testutil"
)

func TestNewTelemetry_Metrics(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)

	tel, err := NewTelemetry(config.TelemetryConfig{ServiceName: "ventaperdida", MetricsEnabled: true}, "test", logger)
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	require.NotNil(t, tel.PrometheusHTTP)
	require.NotNil(t, tel.Metrics)
	assert.Nil(t, tel.TracerProvider)
	assert.True(t, logs.ContainsMessage("Telemetry initialized"))

	ctx := context.Background()
	tel.Metrics.FilesIngested.Add(ctx, 2)
	tel.Metrics.CacheHits.Add(ctx, 1)
	ObserveDuration(ctx, tel.Metrics.LoadDuration, time.Now().Add(-time.Second))

	w := httptest.NewRecorder()
	tel.PrometheusHTTP.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "files_ingested_total")
	assert.Contains(t, body, "cache_hits_total")
	assert.Contains(t, body, "pipeline_load_duration_seconds")
}

func TestNewTelemetry_TwiceDoesNotCollide(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cfg := config.TelemetryConfig{ServiceName: "ventaperdida", MetricsEnabled: true}

	first, err := NewTelemetry(cfg, "test", logger)
	require.NoError(t, err)
	defer first.Shutdown(context.Background())

	second, err := NewTelemetry(cfg, "test", logger)
	require.NoError(t, err)
	defer second.Shutdown(context.Background())
}

func TestNewTelemetry_Disabled(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tel, err := NewTelemetry(config.TelemetryConfig{ServiceName: "ventaperdida"}, "test", logger)
	require.NoError(t, err)

	assert.Nil(t, tel.PrometheusHTTP)
	assert.Nil(t, tel.MeterProvider)
	require.NotNil(t, tel.Metrics)
	// no-op instruments must accept writes
	tel.Metrics.RowsDropped.Add(context.Background(), 5)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "pipeline.load")
	require.NotNil(t, ctx)
	EndSpan(span, errors.New("list failed"))
	EndSpan(span, nil)
}

func TestNoopPipelineMetrics(t *testing.T) {
	m := NoopPipelineMetrics()
	require.NotNil(t, m)
	m.FilesSkipped.Add(context.Background(), 1)
}
