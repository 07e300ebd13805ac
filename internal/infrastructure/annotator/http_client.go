package annotator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ector/backend/internal/domain"
	"github.com/ector/backend/internal/logger"
	"github.com/ector/backend/internal/metrics"
)

const httpAnnotatorName = "http"

// HTTPAnnotatorConfig holds the connection settings for the NLP service
type HTTPAnnotatorConfig struct {
	BaseURL           string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	Burst             int
}

// HTTPAnnotator handles communication with an external NLP annotation service
type HTTPAnnotator struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	maxRetries  int
	debug       bool
	log         logger.Logger
	tracer      trace.Tracer
}

// NewHTTPAnnotator creates a new NLP service client
func NewHTTPAnnotator(cfg HTTPAnnotatorConfig, log logger.Logger) *HTTPAnnotator {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &HTTPAnnotator{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter: rate.NewLimiter(limit, burst),
		maxRetries:  maxRetries,
		log:         log,
		tracer:      otel.Tracer("github.com/ector/backend/internal/infrastructure/annotator"),
	}
}

// SetDebug enables or disables request logging
func (c *HTTPAnnotator) SetDebug(debug bool) {
	c.debug = debug
}

// Ready checks the service health endpoint.
func (c *HTTPAnnotator) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Ector/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAnnotatorUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", domain.ErrAnnotatorUnavailable, resp.StatusCode)
	}
	return nil
}

// doRequest executes a JSON POST with proper headers and error handling
func (c *HTTPAnnotator) doRequest(ctx context.Context, reqURL string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Ector/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnnotatorUnavailable, err)
	}

	return resp, nil
}

// Segment sends text to the NLP service and maps its sentences to clauses.
func (c *HTTPAnnotator) Segment(ctx context.Context, text, language string) ([]domain.Clause, error) {
	ctx, span := c.tracer.Start(ctx, "HTTPAnnotator.Segment", trace.WithAttributes(
		attribute.String("language", language),
	))
	defer span.End()

	clauses, err := c.segment(ctx, text, language)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "annotate failed")
		metrics.AnnotatorRequests.WithLabelValues(httpAnnotatorName, "error").Inc()
		return nil, err
	}

	metrics.AnnotatorRequests.WithLabelValues(httpAnnotatorName, "ok").Inc()
	return clauses, nil
}

func (c *HTTPAnnotator) segment(ctx context.Context, text, language string) ([]domain.Clause, error) {
	body, err := json.Marshal(annotateRequest{Text: text, Lang: language})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	reqURL := c.baseURL + "/v1/annotate"

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, exponentialBackoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		resp, err := c.doRequest(ctx, reqURL, body)
		if err != nil {
			c.debugf("request error", attempt, err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: read body: %v", domain.ErrAnnotatorUnavailable, err)
			continue
		}

		// Retry on 5xx and 429, fail fast on other errors
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("%w: status %d", domain.ErrAnnotatorUnavailable, resp.StatusCode)
			if resp.StatusCode == http.StatusTooManyRequests {
				lastErr = fmt.Errorf("%w: %w", domain.ErrRateLimited, lastErr)
			}
			c.debugf("unexpected status", attempt, lastErr)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				continue
			}
			return nil, lastErr
		}

		var annotated annotateResponse
		if err := json.Unmarshal(respBody, &annotated); err != nil {
			return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrAnnotatorResponse, err)
		}

		return MapToClauses(&annotated), nil
	}

	return nil, lastErr
}

func (c *HTTPAnnotator) debugf(msg string, attempt int, err error) {
	if !c.debug {
		return
	}
	c.log.Debug("annotator "+msg, map[string]interface{}{
		"attempt": attempt,
		"error":   err.Error(),
	})
}

// exponentialBackoff returns the wait before retry number attempt.
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
