// Package lookup resolves whether a star system was already discovered,
// asking EDSM first and falling back to the journal's own flag when the
// network is unavailable.
package lookup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"stellarelay/internal/config"
	"stellarelay/internal/constants"
	"stellarelay/internal/logger"
	"stellarelay/pkg/circuitbreaker"
	"stellarelay/pkg/metrics"
	"stellarelay/pkg/retry"
)

// Client queries the EDSM system endpoint. EDSM answers an empty JSON
// document for systems it has never heard of, so "known" is decided by
// body shape rather than status code.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
	breaker    *circuitbreaker.Wrapper
	logger     logger.Logger
}

func NewClient(cfg config.LookupConfig, log logger.Logger) *Client {
	policy := retry.Policy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
		Multiplier:      cfg.Retry.Multiplier,
		MaxElapsedTime:  cfg.Retry.MaxElapsedTime,
	}

	var breaker *circuitbreaker.Wrapper
	if cfg.CircuitBreaker.Enabled {
		breakerCfg := circuitbreaker.DefaultConfig("edsm-lookup")
		if cfg.CircuitBreaker.MaxRequests > 0 {
			breakerCfg.MaxRequests = cfg.CircuitBreaker.MaxRequests
		}
		if cfg.CircuitBreaker.Interval > 0 {
			breakerCfg.Interval = cfg.CircuitBreaker.Interval
		}
		if cfg.CircuitBreaker.Timeout > 0 {
			breakerCfg.Timeout = cfg.CircuitBreaker.Timeout
		}
		breaker = circuitbreaker.NewWrapper(breakerCfg)
	}

	return &Client{
		baseURL: cfg.EDSMBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		policy:  policy,
		breaker: breaker,
		logger:  log,
	}
}

// SystemKnown reports whether EDSM has a record of the named system.
func (c *Client) SystemKnown(ctx context.Context, system string, address int64) (bool, error) {
	start := time.Now()

	var known bool
	err := retry.Retry(ctx, c.policy, func() error {
		var qerr error
		known, qerr = c.querySystem(ctx, system, address)
		return qerr
	})

	metrics.ObserveLookupDuration(time.Since(start), constants.DiscoverySourceEDSM)
	if err != nil {
		metrics.LookupRequestsTotal.WithLabelValues(constants.DiscoverySourceEDSM, "error").Inc()
		return false, err
	}

	metrics.LookupRequestsTotal.WithLabelValues(constants.DiscoverySourceEDSM, "success").Inc()
	return known, nil
}

func (c *Client) querySystem(ctx context.Context, system string, address int64) (bool, error) {
	// Scan events carry only the address; EDSM accepts either identifier.
	query := url.Values{}
	if system != "" {
		query.Set("systemName", system)
	}
	if address != 0 {
		query.Set("systemId64", strconv.FormatInt(address, 10))
	}
	if len(query) == 0 {
		return false, retry.NewFatalError(fmt.Errorf("no system identifier to look up"))
	}
	endpoint := c.baseURL + constants.EDSMSystemPath + "?" + query.Encode()

	call := func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, retry.NewFatalError(err)
		}
		req.Header.Set("User-Agent", constants.RelayName+"/"+constants.RelayVersion)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return systemBodyKnown(body), nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return nil, fmt.Errorf("EDSM returned status %d", resp.StatusCode)
		default:
			return nil, retry.NewFatalError(fmt.Errorf("EDSM returned status %d", resp.StatusCode))
		}
	}

	var result interface{}
	var err error
	if c.breaker != nil {
		result, err = c.breaker.ExecuteWithContext(ctx, call)
		c.breaker.RecordRequest(err == nil)
	} else {
		result, err = call()
	}
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// systemBodyKnown decides on body shape: EDSM sends "{}" or "[]" when it
// has nothing for the query.
func systemBodyKnown(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return false
	}
	if bytes.Equal(trimmed, []byte("{}")) || bytes.Equal(trimmed, []byte("[]")) {
		return false
	}
	return true
}
