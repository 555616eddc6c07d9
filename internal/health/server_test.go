package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

type fakeRuns struct {
	at  time.Time
	err error
}

func (f fakeRuns) LastRun() (time.Time, error) { return f.at, f.err }

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s := NewServer(Config{ServiceName: "oddsedge", Version: "1.2.0"})

	rec := serve(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "1.2.0", body.Version)

	assert.Equal(t, http.StatusOK, serve(t, s, "/live").Code)
}

func TestReadyRequiresSetReady(t *testing.T) {
	s := NewServer(Config{ServiceName: "oddsedge"})
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, s, "/ready").Code)

	s.SetReady(true)
	assert.Equal(t, http.StatusOK, serve(t, s, "/ready").Code)
}

func TestReadyChecksDatabase(t *testing.T) {
	s := NewServer(Config{ServiceName: "oddsedge", DB: fakePinger{err: errors.New("connection refused")}})
	s.SetReady(true)

	rec := serve(t, s, "/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Contains(t, body.Checks["database"], "connection refused")
}

func TestReadyReportsLastRun(t *testing.T) {
	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	s := NewServer(Config{ServiceName: "oddsedge", DB: fakePinger{}, Runs: fakeRuns{at: at, err: errors.New("invalid API key")}})
	s.SetReady(true)

	rec := serve(t, s, "/ready")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Checks["database"])
	assert.Equal(t, "failed at 2026-10-16T12:00:00Z: invalid API key", body.Checks["last_run"])

	s = NewServer(Config{Runs: fakeRuns{}})
	s.SetReady(true)
	require.NoError(t, json.Unmarshal(serve(t, s, "/ready").Body.Bytes(), &body))
	assert.Equal(t, "pending", body.Checks["last_run"])
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("oddsedge_runs_total 1\n"))
	})
	s := NewServer(Config{MetricsPath: "/prom", MetricsHandler: metrics})

	rec := serve(t, s, "/prom")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "oddsedge_runs_total")

	assert.Equal(t, http.StatusNotFound, serve(t, NewServer(Config{}), "/metrics").Code)
}
