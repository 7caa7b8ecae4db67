package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/K0NGR3SS/minewatch/internal/models"
)

func captureServer(t *testing.T, status int) (*httptest.Server, *slackMessage) {
	t.Helper()
	var got slackMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestSendSessionWithFindings(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK)
	n := NewSlackNotifier(srv.URL, "#security")

	var results []models.ScanResult
	for i := 0; i < 7; i++ {
		results = append(results, models.ScanResult{
			PackageName: fmt.Sprintf("com.miner%d", i),
			AppName:     fmt.Sprintf("Miner %d", i),
			RiskLevel:   models.RiskHigh,
			RiskScore:   9,
		})
	}
	results = append(results, models.ScanResult{PackageName: "com.meh", AppName: "Meh", RiskLevel: models.RiskMedium})

	session := models.ScanSession{ID: "abc", TotalApps: 8, HighRiskApps: 7, MediumRiskApps: 1, ScanResults: results}
	require.NoError(t, n.SendSession(context.Background(), session))

	assert.Equal(t, "#security", got.Channel)
	assert.Contains(t, got.Text, "*7* of 8 apps")
	require.Len(t, got.Attachments, 3)
	assert.Contains(t, got.Attachments[0].Title, "abc")
	assert.Contains(t, got.Attachments[1].Text, "_...and 2 more_")
	assert.Contains(t, got.Attachments[2].Text, "com.meh")
}

func TestSendSessionClean(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK)
	n := NewSlackNotifier(srv.URL, "")

	session := models.ScanSession{ID: "abc", TotalApps: 2, LowRiskApps: 2}
	require.NoError(t, n.SendSession(context.Background(), session))

	assert.Contains(t, got.Text, "No mining behavior found in 2 apps")
	assert.Empty(t, got.Attachments)
}

func TestSendSessionNon200(t *testing.T) {
	srv, _ := captureServer(t, http.StatusForbidden)
	n := NewSlackNotifier(srv.URL, "")

	err := n.SendSession(context.Background(), models.ScanSession{})
	assert.ErrorContains(t, err, "403")
}
