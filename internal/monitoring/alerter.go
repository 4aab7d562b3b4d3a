package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertCircuitOpen      AlertType = "circuit_open"
	AlertProviderErrors   AlertType = "provider_error_rate"
	AlertCacheUnreachable AlertType = "cache_unreachable"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// AlerterConfig holds alert thresholds and the delivery webhook.
type AlerterConfig struct {
	WebhookURL         string
	ErrorRateThreshold float64 // provider error rate that warrants an alert
	MinRequests        int     // samples required before the rate is trusted
}

// Alerter evaluates snapshots against thresholds and sends alerts via
// webhook when they are breached.
type Alerter struct {
	cfg    AlerterConfig
	client *http.Client
}

// NewAlerter creates an Alerter with the given thresholds.
func NewAlerter(cfg AlerterConfig) *Alerter {
	if cfg.ErrorRateThreshold <= 0 {
		cfg.ErrorRateThreshold = 0.5
	}
	if cfg.MinRequests <= 0 {
		cfg.MinRequests = 10
	}
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	for _, p := range snap.OpenCircuits {
		alerts = append(alerts, Alert{
			Type:      AlertCircuitOpen,
			Severity:  "high",
			Message:   fmt.Sprintf("Circuit breaker open for provider %s", p),
			Details:   map[string]any{"provider": p},
			Timestamp: now,
		})
	}

	for _, m := range snap.Providers {
		if m.State == "open" {
			continue // already covered by the circuit-open alert
		}
		if m.Total >= a.cfg.MinRequests && m.ErrorRate > a.cfg.ErrorRateThreshold {
			alerts = append(alerts, Alert{
				Type:     AlertProviderErrors,
				Severity: "medium",
				Message: fmt.Sprintf(
					"Provider %s error rate %.1f%% exceeds threshold %.1f%% (%d/%d failed)",
					m.Provider, m.ErrorRate*100, a.cfg.ErrorRateThreshold*100,
					m.Failed, m.Total,
				),
				Details: map[string]any{
					"provider":   m.Provider,
					"error_rate": m.ErrorRate,
					"threshold":  a.cfg.ErrorRateThreshold,
					"failed":     m.Failed,
					"total":      m.Total,
				},
				Timestamp: now,
			})
		}
	}

	if !snap.CacheRemoteOK {
		alerts = append(alerts, Alert{
			Type:      AlertCacheUnreachable,
			Severity:  "medium",
			Message:   "Remote cache unreachable; serving from the in-process fallback",
			Details:   map[string]any{"remote_errors": snap.Cache.RemoteErrors},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
