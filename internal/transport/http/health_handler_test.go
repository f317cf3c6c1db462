package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventaperdida/internal/services"
	"ventaperdida/internal/shared/testutil"
	"ventaperdida/pkg/contracts/domain"
)

type stubLoads struct {
	ds  *domain.Dataset
	err error
}

func (s stubLoads) LastLoad() (*domain.Dataset, error) { return s.ds, s.err }

func TestHealthHandler(t *testing.T) {
	loaded := &domain.Dataset{Version: "v1", Files: 2, FilesLoaded: 2, LoadedAt: time.Now()}

	tests := []struct {
		name       string
		loads      stubLoads
		call       func(*HealthHandler) http.HandlerFunc
		wantStatus int
		wantBody   string
	}{
		{
			name:       "ready after load",
			loads:      stubLoads{ds: loaded},
			call:       func(h *HealthHandler) http.HandlerFunc { return h.ReadinessCheck },
			wantStatus: http.StatusOK,
			wantBody:   services.StatusReady,
		},
		{
			name:       "not ready before first load",
			loads:      stubLoads{},
			call:       func(h *HealthHandler) http.HandlerFunc { return h.ReadinessCheck },
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   services.StatusNotReady,
		},
		{
			name:       "health always answers",
			loads:      stubLoads{},
			call:       func(h *HealthHandler) http.HandlerFunc { return h.HealthCheck },
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			svc := services.NewHealthService("1.0.0", "2024-07-15", "local", t.TempDir(), tt.loads, logger)
			h := NewHealthHandler(svc, logger)

			rec := httptest.NewRecorder()
			tt.call(h)(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body services.HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, body.Status)
			}
		})
	}
}

func TestHealthHandler_Version(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewHealthHandler(services.NewHealthService("1.2.3", "now", "s3", t.TempDir(), stubLoads{}, logger), logger)

	rec := httptest.NewRecorder()
	h.Version(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, "s3", body["backend"])
}

func TestMetricsHandler(t *testing.T) {
	exposition := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("venta_perdida_files_ingested_total 3\n"))
	})

	rec := serve(NewMetricsHandler(exposition).Routes(), http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "files_ingested")

	rec = serve(NewMetricsHandler(nil).Routes(), http.MethodGet, "/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
