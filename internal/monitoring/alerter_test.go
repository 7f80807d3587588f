package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanika/leadsync/internal/config"
)

func snapshot(total, failed int) *MetricsSnapshot {
	snap := &MetricsSnapshot{
		Total:         total,
		Failed:        failed,
		Synced:        total - failed,
		LookbackHours: 24,
		CollectedAt:   time.Now().UTC(),
	}
	if total > 0 {
		snap.FailRate = float64(failed) / float64(total)
	}
	return snap
}

func TestEvaluate(t *testing.T) {
	alerter := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.25})

	tests := []struct {
		name   string
		snap   *MetricsSnapshot
		alerts int
	}{
		{"failure rate above threshold", snapshot(10, 5), 1},
		{"failure rate at threshold", snapshot(8, 2), 0},
		{"all synced", snapshot(10, 0), 0},
		{"too few submissions to judge", snapshot(2, 2), 0},
		{"empty window", snapshot(0, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := alerter.Evaluate(tt.snap)
			assert.Len(t, alerts, tt.alerts)
			if tt.alerts > 0 {
				assert.Equal(t, AlertSubmissionFailureRate, alerts[0].Type)
				assert.Equal(t, "high", alerts[0].Severity)
			}
		})
	}
}

func TestSendAlerts(t *testing.T) {
	var received []Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var alert Alert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&alert))
		received = append(received, alert)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	alerter := NewAlerter(config.MonitoringConfig{
		WebhookURL:           srv.URL,
		FailureRateThreshold: 0.25,
	})

	alerts := alerter.Evaluate(snapshot(10, 5))
	require.Len(t, alerts, 1)

	sent := alerter.SendAlerts(context.Background(), alerts)
	assert.Equal(t, 1, sent)
	require.Len(t, received, 1)
	assert.Equal(t, AlertSubmissionFailureRate, received[0].Type)
	assert.Contains(t, received[0].Message, "50.0%")
}

func TestSendAlerts_WebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	alerter := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	sent := alerter.SendAlerts(context.Background(), []Alert{{Type: AlertSubmissionFailureRate}})
	assert.Zero(t, sent)
}

func TestSendAlerts_NoWebhookConfigured(t *testing.T) {
	alerter := NewAlerter(config.MonitoringConfig{})
	sent := alerter.SendAlerts(context.Background(), []Alert{{Type: AlertSubmissionFailureRate}})
	assert.Zero(t, sent)
}
