// Package clientcheck validates goal→client references against the live
// client-service before a goal is created.
package clientcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Checker reports whether a client currently exists in client-service.
type Checker interface {
	Exists(ctx context.Context, clientID int64) bool
}

// HTTPChecker performs a blocking GET against client-service's read endpoint.
//
// A 404, a 5xx, a timeout and a refused connection all collapse to false, so
// no goal is ever created against an unverifiable client and all goal
// creations are refused while client-service is unreachable. Only the log
// line tells the causes apart.
type HTTPChecker struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewHTTPChecker builds a checker against baseURL with a bounded per-call
// timeout.
func NewHTTPChecker(baseURL string, timeout time.Duration, log *slog.Logger) *HTTPChecker {
	return &HTTPChecker{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// NewHTTPCheckerWithClient injects the transport, so tests can simulate
// outages deterministically.
func NewHTTPCheckerWithClient(baseURL string, client *http.Client, log *slog.Logger) *HTTPChecker {
	return &HTTPChecker{baseURL: baseURL, client: client, log: log}
}

func (c *HTTPChecker) Exists(ctx context.Context, clientID int64) bool {
	url := fmt.Sprintf("%s/clients/%d", c.baseURL, clientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.log.Error("client check request build failed", slog.Any("error", err))
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("client check failed", slog.Int64("clientId", clientID), slog.Any("error", err))
		return false
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true
	case http.StatusNotFound:
		c.log.Info("client not found", slog.Int64("clientId", clientID))
		return false
	default:
		c.log.Error("client check returned unexpected status",
			slog.Int64("clientId", clientID),
			slog.Int("status", resp.StatusCode),
		)
		return false
	}
}
