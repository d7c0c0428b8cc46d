package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndLive(t *testing.T) {
	s := NewServer(Config{ServiceName: "machinery-pricer", Version: "1.0.0"})
	h := s.Handler()

	rec := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "1.0.0", body.Version)

	assert.Equal(t, http.StatusOK, get(t, h, "/live").Code)
}

func TestReadyRequiresSetReady(t *testing.T) {
	s := NewServer(Config{ServiceName: "machinery-pricer"})
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s.Handler(), "/ready").Code)

	s.SetReady(true)
	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/ready").Code)
}

func TestReadyReportsFailingDependency(t *testing.T) {
	s := NewServer(Config{
		ServiceName: "machinery-pricer",
		Dependencies: map[string]Pinger{
			"database": PingerFunc(func(ctx context.Context) error { return nil }),
			"redis":    PingerFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
		},
	})
	s.SetReady(true)

	rec := get(t, s.Handler(), "/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, "ok", body.Checks["database"])
	assert.Equal(t, "error: connection refused", body.Checks["redis"])
}

func TestMetricsHandlerMounted(t *testing.T) {
	s := NewServer(Config{
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("scraped"))
		}),
	})

	rec := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "scraped", rec.Body.String())
}
