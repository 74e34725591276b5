// Package ai implements the outbound call to the language-model
// provider: one HTTP POST per turn, JSON in, structured JSON out.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"clarityos-backend/application/ports"
	apperrors "clarityos-backend/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// maxResponseBytes caps how much of a model response we read. Valid
// structured responses are a few kilobytes.
const maxResponseBytes = 1 << 20

// Client calls the model provider endpoint, wrapped in a circuit
// breaker so a degraded provider fails fast into the fallback path
// instead of stacking up slow requests.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

// NewClient creates a model client.
func NewClient(endpoint, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "model-provider",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("model provider breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
		breaker:  breaker,
		logger:   logger,
	}
}

// CreateTurn POSTs the turn request and returns the raw response body.
// Transport failures, non-2xx statuses and an open breaker all surface
// as retryable model-unavailable errors; contract validation of the
// body belongs to the caller.
func (c *Client) CreateTurn(ctx context.Context, req ports.ModelRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode model request").WithCause(err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		switch err {
		case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
			return nil, apperrors.NewModelUnavailableError("model provider circuit open", err)
		}
		if appErr := apperrors.GetAppError(err); appErr != nil {
			return nil, appErr
		}
		return nil, apperrors.NewModelUnavailableError("model call failed", err)
	}

	return result.([]byte), nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build model request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewModelUnavailableError("model request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.NewModelUnavailableError("failed to read model response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("model provider returned non-2xx",
			zap.Int("status", resp.StatusCode),
		)
		return nil, apperrors.NewModelUnavailableError(
			fmt.Sprintf("model provider returned status %d", resp.StatusCode), nil)
	}

	return data, nil
}
