package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"mcp-gateway/internal/logger"
)

// APIError is a descriptive upstream failure carrying the HTTP status.
type APIError struct {
	Service string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.Status, e.Message)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// httpAPI is the shared authenticated JSON client every collaborator wrapper
// builds on. All calls go through a per-service circuit breaker.
type httpAPI struct {
	service   string
	base      string
	client    *http.Client
	authorize func(*http.Request)
	breaker   *Breaker[[]byte]
	logger    *logger.Logger
}

func newHTTPAPI(service, base string, authorize func(*http.Request), log *logger.Logger) *httpAPI {
	return &httpAPI{
		service:   service,
		base:      base,
		client:    &http.Client{Timeout: 30 * time.Second},
		authorize: authorize,
		breaker:   NewBreaker[[]byte](service, DefaultBreakerConfig()),
		logger:    log,
	}
}

// do performs one authenticated request and returns the response body.
// Non-2xx statuses become APIError values.
func (a *httpAPI) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	return a.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s request body: %w", a.service, err)
			}
			reader = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, a.base+path, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s request: %w", a.service, err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		a.authorize(req)

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s request failed: %w", a.service, err)
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s response: %w", a.service, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			message := string(payload)
			if len(message) > 512 {
				message = message[:512]
			}
			return nil, &APIError{Service: a.service, Status: resp.StatusCode, Message: message}
		}
		return payload, nil
	})
}

// getJSON performs a GET and decodes the response into out.
func (a *httpAPI) getJSON(ctx context.Context, path string, out interface{}) error {
	payload, err := a.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", a.service, err)
	}
	return nil
}

// sendJSON performs a mutating request and decodes the response into out
// when provided.
func (a *httpAPI) sendJSON(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := a.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", a.service, err)
	}
	return nil
}

// warnListFailure logs a degraded listing call. Listing feeds auto-complete,
// where an empty candidate list is an acceptable degraded state, so list
// failures never propagate.
func (a *httpAPI) warnListFailure(what string, err error) {
	a.logger.Warn("list call degraded to empty result",
		"service", a.service,
		"entity", what,
		"error", err,
	)
}
