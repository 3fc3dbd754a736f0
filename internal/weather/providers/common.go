package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-proxy/internal/weather"
)

// maxErrorBody caps how much of an upstream error body is read.
const maxErrorBody = 64 << 10

var (
	errUnexpected   = errors.New("unexpected result type from circuit breaker")
	errNoHTTPClient = errors.New("http client not configured")
)

// BreakerConfig controls the circuit breaker around upstream calls.
type BreakerConfig struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig returns the settings used when none are given.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         5,
		Interval:            1 * time.Minute,
		Timeout:             2 * time.Minute,
		ConsecutiveFailures: 5,
	}
}

func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultBreakerConfig().ConsecutiveFailures
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: isBreakerSuccess,
	})
}

// isBreakerSuccess treats upstream client errors (unknown city, bad key) as
// healthy answers so they never open the circuit.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var statusErr *weather.UpstreamStatusError
	return errors.As(err, &statusErr) && statusErr.Status < http.StatusInternalServerError
}

// doRequest executes a single upstream request through the circuit breaker.
// Non-2xx replies are returned as *weather.UpstreamStatusError with the
// response body already consumed. No retries are attempted.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	req, err := buildRequest()
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			defer resp.Body.Close()
			return nil, statusError(resp)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", weather.ErrUpstreamUnavailable, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, errUnexpected
	}
	return resp, nil
}

// statusError builds an UpstreamStatusError, pulling the message from a
// {"message": "..."} JSON body when there is one.
func statusError(resp *http.Response) *weather.UpstreamStatusError {
	e := &weather.UpstreamStatusError{
		Status:  resp.StatusCode,
		Message: http.StatusText(resp.StatusCode),
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return e
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		if text := strings.TrimSpace(string(raw)); text != "" {
			e.Message = text
		}
		return e
	}
	e.Body = body
	if msg, ok := body["message"].(string); ok && msg != "" {
		e.Message = msg
	}
	return e
}
