package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordExclusions(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(ExclusionsTotal.WithLabelValues("max_odds_cap"))

	RecordExclusions(map[string]int{"max_odds_cap": 3, "z_score_ceiling": 1})

	assert.Equal(t, before+3, testutil.ToFloat64(ExclusionsTotal.WithLabelValues("max_odds_cap")))
}

func TestRecordRowsWritten(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(RowsWrittenTotal.WithLabelValues("latest_props", "orphan"))

	RecordRowsWritten("latest_props", 10, 2, 0)

	assert.Equal(t, before+2, testutil.ToFloat64(RowsWrittenTotal.WithLabelValues("latest_props", "orphan")))
}

func TestUpdateAnalysis(t *testing.T) {
	InitRegistry()

	UpdateAnalysis(12, 4, 1, 7.5, 2.31)

	assert.Equal(t, 12.0, testutil.ToFloat64(MarketsPriced))
	assert.Equal(t, 4.0, testutil.ToFloat64(EVCandidates))
	assert.Equal(t, 2.31, testutil.ToFloat64(BestArbitrageProfit))
}

func TestRecordProviderRequest(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordProviderRequest("odds", "200", 0.12)
		UpdateRequestsRemaining(480)
		RecordCircuitBreakerTrip()
		RecordUnitSkipped("sport")
		RecordQuotes("americanfootball_nfl", 120)
		RecordStage("fetch", 1.5)
		RecordRun("success", 12, 1.7e9)
	})
	assert.Equal(t, 480.0, testutil.ToFloat64(ProviderRequestsRemaining))
}

func TestHandler(t *testing.T) {
	InitRegistry()
	RecordRun("success", 1, 1.7e9)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "oddsedge_runs_total")
}

func TestPush(t *testing.T) {
	InitRegistry()

	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, Push(context.Background(), srv.URL, "oddsedge"))
	assert.True(t, strings.HasPrefix(path, "/metrics/job/oddsedge"))
}
