package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/K0NGR3SS/minewatch/internal/analytics"
	"github.com/K0NGR3SS/minewatch/internal/engine"
	"github.com/K0NGR3SS/minewatch/internal/kv"
	"github.com/K0NGR3SS/minewatch/internal/metrics"
	"github.com/K0NGR3SS/minewatch/internal/models"
	"github.com/K0NGR3SS/minewatch/internal/scanner"
	"github.com/K0NGR3SS/minewatch/internal/telemetry"
	"github.com/K0NGR3SS/minewatch/pkg/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	provider := telemetry.ProviderFunc(func(ctx context.Context, pkg string) (telemetry.Facts, error) {
		if strings.Contains(pkg, "miner") {
			return telemetry.Facts{AppName: "Miner", CPUUsagePercent: 35, MiningSignal: true}, nil
		}
		return telemetry.Facts{AppName: "Calm", CPUUsagePercent: 1}, nil
	})

	reg := prometheus.NewRegistry()
	history := analytics.NewStore(kv.NewMemory(), logger.Nop())
	scn := scanner.New(provider, history, logger.Nop(), scanner.Options{Metrics: metrics.New(reg)})

	srv := httptest.NewServer(NewRouter(engine.New(scn, history), reg, []string{"http://localhost:3000"}, logger.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func postScan(t *testing.T, srv *httptest.Server, body string) models.ScanSession {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/v1/scans", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var session models.ScanSession
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	return session
}

func getJSON(t *testing.T, srv *httptest.Server, path string, v any) int {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestScanAndQuery(t *testing.T) {
	srv := newTestServer(t)

	first := postScan(t, srv, `{"packages": ["com.calm"]}`)
	second := postScan(t, srv, `{"packages": ["com.miner", "com.calm"]}`)
	assert.Equal(t, 1, second.HighRiskApps)
	assert.Equal(t, models.RiskHigh, second.ScanResults[0].RiskLevel)

	var sessions []models.ScanSession
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/v1/sessions", &sessions))
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID)

	var stats models.DashboardStats
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/v1/stats", &stats))
	assert.Equal(t, 2, stats.TotalScans)
	assert.Equal(t, 2, stats.TotalAppsScanned)

	var heatmap []models.RiskHeatmapItem
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/v1/heatmap", &heatmap))
	require.Len(t, heatmap, 2)
	assert.Equal(t, "com.miner", heatmap[0].PackageName)

	var cpu []models.CPUUsageSample
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/v1/cpu-history?package=com.calm", &cpu))
	assert.Len(t, cpu, 2)

	var net []models.NetworkActivitySample
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/v1/network-history", &net))
	assert.Len(t, net, 3)

	var dist []models.RiskDistribution
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/v1/distribution", &dist))
	require.Len(t, dist, 2)
	assert.Equal(t, first.ID, dist[0].SessionID)

	var cmp models.ScanComparison
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/v1/compare?from="+first.ID+"&to="+second.ID, &cmp))
	require.Len(t, cmp.NewHighRiskApps, 1)
	assert.Equal(t, "com.miner", cmp.NewHighRiskApps[0].PackageName)
}

func TestCompareNotFound(t *testing.T) {
	srv := newTestServer(t)
	session := postScan(t, srv, `{"packages": ["com.calm"]}`)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv, "/api/v1/compare?from="+session.ID+"&to=missing", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv, "/api/v1/compare?from="+session.ID, nil))
}

func TestScanRejectsBadBodies(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{`{"packages": []}`, `not json`} {
		resp, err := http.Post(srv.URL+"/api/v1/scans", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	postScan(t, srv, `{"packages": ["com.miner"]}`)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `minewatch_packages_scanned_total{risk_level="HIGH"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
