package catalogsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kpcalc/backend/internal/domain"
)

const (
	maxAttempts  = 3
	maxBodyBytes = 10 << 20
	// error bodies are only logged, so keep them short
	maxErrorBodyBytes = 512

	costCatalogPath = "/v1/catalog/costs"
	competitorPath  = "/v1/catalog/competitors"
)

// Client fetches cost and competitor catalogs from the remote catalog service
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	logger      *zap.Logger
}

// NewClient creates a new catalog service client.
// requestsPerSecond limits outbound calls; a value <= 0 uses 1 request per second.
func NewClient(apiKey, baseURL string, requestsPerSecond float64, logger *zap.Logger) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 5),
		backoff:     exponentialBackoff,
		logger:      logger.Named("catalogsource"),
	}
}

// FetchCostCatalog downloads the cost catalog and keeps the cheapest supplier offer per product
func (c *Client) FetchCostCatalog(ctx context.Context) ([]domain.CatalogRecord, error) {
	var resp CostCatalogResponse
	if err := c.getJSON(ctx, costCatalogPath, &resp); err != nil {
		return nil, err
	}

	records := MapCostCatalog(resp.Products)
	c.logger.Info("cost catalog fetched",
		zap.Int("products", len(resp.Products)),
		zap.Int("records", len(records)))

	if len(records) == 0 {
		return nil, domain.ErrEmptyCostCatalog
	}
	return records, nil
}

// FetchCompetitorRecords downloads the competitor proposal lines
func (c *Client) FetchCompetitorRecords(ctx context.Context) ([]domain.CompetitorRecord, error) {
	var resp CompetitorResponse
	if err := c.getJSON(ctx, competitorPath, &resp); err != nil {
		return nil, err
	}

	records := MapCompetitorRecords(resp.Records)
	c.logger.Info("competitor records fetched", zap.Int("records", len(records)))

	if len(records) == 0 {
		return nil, domain.ErrEmptyCompetitorCatalog
	}
	return records, nil
}

// getJSON performs a GET with rate limiting and retries transient failures
// (network errors, 429 and 5xx) up to maxAttempts times
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	reqURL := c.baseURL + path

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		body, retry, err := c.doRequest(ctx, reqURL)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("%w: failed to decode response: %v", domain.ErrCatalogSourceFailure, err)
			}
			return nil
		}

		lastErr = err
		if !retry || attempt == maxAttempts {
			break
		}

		c.logger.Warn("catalog request failed, retrying",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff(attempt)):
		}
	}

	c.logger.Error("catalog request failed", zap.String("path", path), zap.Error(lastErr))
	return lastErr
}

// doRequest executes one GET and reports whether a failure is worth retrying
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "kpcalc/1.0")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, false, err
		}
		return nil, true, fmt.Errorf("%w: %v", domain.ErrCatalogSourceFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := readLimitedBody(resp.Body, maxErrorBodyBytes)
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, fmt.Errorf("%w: status %d, body: %s", domain.ErrCatalogSourceFailure, resp.StatusCode, string(body))
	}

	body, err := readLimitedBody(resp.Body, maxBodyBytes)
	if err != nil {
		return nil, true, fmt.Errorf("%w: read body: %v", domain.ErrCatalogSourceFailure, err)
	}
	return body, false, nil
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
