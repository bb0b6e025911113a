// Package delivery posts canonical events to the configured exploration
// API. Sends are fire and forget: the journal tail never waits on the
// network, and a failed send is logged and recorded, not retried.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"stellarelay/internal/config"
	"stellarelay/internal/constants"
	"stellarelay/internal/logger"
	"stellarelay/internal/settings"
	"stellarelay/pkg/metrics"
	"stellarelay/pkg/models"
)

// Recorder receives a Result per attempted send for the payload log.
type Recorder interface {
	Record(entryType string, v interface{}) error
}

// Result describes one completed delivery attempt.
type Result struct {
	EventType  models.EventType `json:"event_type"`
	URL        string           `json:"url"`
	Success    bool             `json:"success"`
	StatusCode int              `json:"status_code,omitempty"`
	Error      string           `json:"error,omitempty"`
	DurationMS int64            `json:"duration_ms"`
}

type Client struct {
	httpClient   *http.Client
	recorder     Recorder
	logger       logger.Logger
	drainTimeout time.Duration

	wg sync.WaitGroup
}

func NewClient(cfg config.DeliveryConfig, recorder Recorder, log logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		recorder:     recorder,
		logger:       log,
		drainTimeout: cfg.DrainTimeout,
	}
}

// Send dispatches one event using the settings snapshot taken when the
// event was processed. It returns immediately; the HTTP exchange runs in
// a tracked goroutine so Close can drain in-flight sends.
func (c *Client) Send(ctx context.Context, event *models.CanonicalEvent, snap settings.Settings) {
	if !snap.Enabled {
		metrics.DeliveriesTotal.WithLabelValues("disabled").Inc()
		c.logger.DebugwCtx(ctx, "Delivery disabled, dropping event", "event_type", event.EventType)
		return
	}

	endpoint, err := deliveryURL(snap.APIURL)
	if err != nil {
		metrics.DeliveriesTotal.WithLabelValues("skipped").Inc()
		c.logger.WarnwCtx(ctx, "Delivery skipped, API URL not usable",
			"event_type", event.EventType,
			"api_url", snap.APIURL,
			"error", err,
		)
		return
	}

	// The API accepts a batch array; the relay always sends batches of one.
	body, err := json.Marshal([]*models.CanonicalEvent{event})
	if err != nil {
		metrics.DeliveriesTotal.WithLabelValues("error").Inc()
		c.logger.ErrorwCtx(ctx, "Failed to encode event", "event_type", event.EventType, "error", err)
		return
	}

	// Shutdown drains via Close, not via the per-event context.
	sendCtx := context.WithoutCancel(ctx)

	c.wg.Add(1)
	metrics.DeliveriesInFlight.Inc()
	go func() {
		defer c.wg.Done()
		defer metrics.DeliveriesInFlight.Dec()
		c.post(sendCtx, endpoint, body, event.EventType, snap.APIKey)
	}()
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte, eventType models.EventType, apiKey string) {
	start := time.Now()
	result := Result{
		EventType: eventType,
		URL:       endpoint,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		result.Error = err.Error()
		c.finish(ctx, result, start)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", constants.RelayName+"/"+constants.RelayVersion)
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Error = err.Error()
		c.finish(ctx, result, start)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	result.StatusCode = resp.StatusCode
	result.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !result.Success {
		result.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	c.finish(ctx, result, start)
}

func (c *Client) finish(ctx context.Context, result Result, start time.Time) {
	result.DurationMS = time.Since(start).Milliseconds()

	status := "error"
	if result.Success {
		status = "success"
	}
	metrics.DeliveriesTotal.WithLabelValues(status).Inc()
	metrics.ObserveDeliveryDuration(time.Since(start), status)

	if c.recorder != nil {
		if err := c.recorder.Record("delivery", result); err != nil {
			c.logger.WarnwCtx(ctx, "Failed to record delivery result", "error", err)
		}
	}

	if result.Success {
		c.logger.InfowCtx(ctx, "Event delivered",
			"event_type", result.EventType,
			"status_code", result.StatusCode,
			"duration_ms", result.DurationMS,
		)
	} else {
		c.logger.WarnwCtx(ctx, "Event delivery failed",
			"event_type", result.EventType,
			"status_code", result.StatusCode,
			"error", result.Error,
		)
	}
}

// Close waits for in-flight sends up to the drain timeout. Sends still
// running after that are abandoned; their results are lost.
func (c *Client) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	timeout := c.drainTimeout
	if timeout <= 0 {
		timeout = constants.DeliveryDrainTimeout
	}

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timed out draining deliveries after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deliveryURL joins the configured base with the events endpoint and
// rejects anything non-absolute. Settings validation already enforces
// this for the admin API; delivery re-checks because settings files can
// be hand-edited.
func deliveryURL(base string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("api_url is empty")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("api_url %q is not an absolute http(s) URL", base)
	}
	return strings.TrimRight(base, "/") + constants.DeliveryEndpointPath, nil
}
