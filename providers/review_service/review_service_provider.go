package review_service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/meysamhadeli/reviewmentor/providers/contracts"
	"github.com/meysamhadeli/reviewmentor/providers/models"
	"github.com/meysamhadeli/reviewmentor/utils"
	"github.com/pterm/pterm"
)

var (
	ErrBackendUnreachable = errors.New("review backend unreachable")
	ErrBackendTimeout     = errors.New("review backend timed out")
	ErrBackendFailed      = errors.New("review backend failed")
	ErrBackendCanceled    = errors.New("review request canceled")
)

const (
	defaultBaseURL    = "http://localhost:8000/review"
	defaultTimeout    = 15 * time.Minute
	defaultRetryDelay = 2 * time.Second
	maxErrorBodyBytes = 64 * 1024
)

// ReviewServiceConfig implements IReviewBackend over the local HTTP review
// service.
type ReviewServiceConfig struct {
	BaseURL    string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	HTTPClient *http.Client
	Logger     *pterm.Logger
}

// NewReviewServiceProvider fills in defaults. Retries < 0 disables retrying.
func NewReviewServiceProvider(config *ReviewServiceConfig) contracts.IReviewBackend {
	provider := &ReviewServiceConfig{
		BaseURL:    config.BaseURL,
		Timeout:    config.Timeout,
		Retries:    config.Retries,
		RetryDelay: config.RetryDelay,
		HTTPClient: config.HTTPClient,
		Logger:     config.Logger,
	}
	if provider.BaseURL == "" {
		provider.BaseURL = defaultBaseURL
	}
	if provider.Timeout <= 0 {
		provider.Timeout = defaultTimeout
	}
	if provider.Retries < 0 {
		provider.Retries = 0
	}
	if provider.RetryDelay <= 0 {
		provider.RetryDelay = defaultRetryDelay
	}
	if provider.HTTPClient == nil {
		provider.HTTPClient = &http.Client{}
	}
	if provider.Logger == nil {
		provider.Logger = utils.DisabledLogger()
	}
	return provider
}

// RequestReview posts the request and waits for the service to answer. Each
// attempt is bounded by Timeout. Only connection-level failures are retried:
// a timed-out review may still be writing files, so it is never repeated.
func (p *ReviewServiceConfig) RequestReview(ctx context.Context, request models.ReviewRequest) (models.Completion, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return models.Completion{Status: models.StatusFailed}, fmt.Errorf("error marshalling request body: %w", err)
	}

	start := time.Now()
	var completion models.Completion

	for attempt := 1; attempt <= p.Retries+1; attempt++ {
		completion, err = p.attempt(ctx, jsonData)
		completion.Attempts = attempt
		completion.Elapsed = time.Since(start)

		if completion.Status != models.StatusUnreachable || attempt > p.Retries {
			break
		}

		p.Logger.Warn("review backend unreachable, retrying", p.Logger.Args(
			"url", p.BaseURL,
			"attempt", attempt,
			"delay", p.RetryDelay.String(),
			"error", err,
		))

		select {
		case <-ctx.Done():
			completion.Status = models.StatusCanceled
			return completion, fmt.Errorf("%w: %v", ErrBackendCanceled, ctx.Err())
		case <-time.After(p.RetryDelay):
		}
	}

	if err == nil {
		p.Logger.Debug("review backend completed", p.Logger.Args(
			"status_code", completion.StatusCode,
			"attempts", completion.Attempts,
			"elapsed", completion.Elapsed.String(),
		))
	}
	return completion, err
}

func (p *ReviewServiceConfig) attempt(ctx context.Context, body []byte) (models.Completion, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, p.BaseURL, bytes.NewReader(body))
	if err != nil {
		return models.Completion{Status: models.StatusFailed}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return models.Completion{Status: models.StatusCanceled}, fmt.Errorf("%w: %v", ErrBackendCanceled, ctx.Err())
		case errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
			return models.Completion{Status: models.StatusTimeout}, fmt.Errorf("%w after %s", ErrBackendTimeout, p.Timeout)
		default:
			return models.Completion{Status: models.StatusUnreachable}, fmt.Errorf("%w at %s: %v", ErrBackendUnreachable, p.BaseURL, err)
		}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if readErr != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return models.Completion{Status: models.StatusTimeout, StatusCode: resp.StatusCode}, fmt.Errorf("%w after %s", ErrBackendTimeout, p.Timeout)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := errorDetail(respBody)
		return models.Completion{Status: models.StatusFailed, StatusCode: resp.StatusCode, Detail: detail},
			fmt.Errorf("%w with status code '%d' - %s", ErrBackendFailed, resp.StatusCode, detail)
	}

	return models.Completion{Status: models.StatusCompleted, StatusCode: resp.StatusCode}, nil
}

// errorDetail extracts a message from a FastAPI-style error body, falling
// back to the raw text.
func errorDetail(body []byte) string {
	var apiError models.BackendError
	if err := json.Unmarshal(body, &apiError); err == nil {
		if apiError.Detail != "" {
			return apiError.Detail
		}
		if apiError.Message != "" {
			return apiError.Message
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "no detail"
	}
	return text
}
