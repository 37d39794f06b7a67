package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hydroplan-hq/techsheet-backend/internal/logging"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
)

const (
	// DefaultTimeout is the standard timeout for data API operations
	DefaultTimeout = 30 * time.Second

	maxAttempts    = 3
	initialBackoff = 250 * time.Millisecond
)

// APIError is a structured HTTP error response from the data API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("data api status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("data api status %d", e.Status)
}

// APIClient persists technical data against the upstream REST data API.
// Retries are bounded with exponential backoff for retryable failures
// (network errors, 429 and 5xx); the store above never retries.
type APIClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewAPIClient creates a data API client. The limiter caps outbound request
// rate per process so burst mutation traffic cannot flood the upstream.
func NewAPIClient(baseURL, apiKey string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(20), 40),
	}
}

type sectionsDoc struct {
	Sections []domain.Section `json:"sections"`
}

// Load fetches the persisted sections for a project. A 404 means the
// project has no technical data yet, which is not an error.
func (c *APIClient) Load(ctx context.Context, projectID string) ([]domain.Section, bool, error) {
	reqURL := c.baseURL + "/projects/" + projectID + "/technical-data"

	body, status, err := c.do(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, err
	}
	if status == http.StatusNotFound {
		return nil, false, nil
	}
	if status != http.StatusOK {
		return nil, false, decodeAPIError(status, body)
	}

	var doc sectionsDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, false, fmt.Errorf("decode technical data: %w", err)
	}
	return doc.Sections, true, nil
}

// Save writes the full section list. Replace mode swaps the server-side
// document wholesale; merge mode lets the server PATCH-merge it.
func (c *APIClient) Save(ctx context.Context, projectID string, sections []domain.Section, mode domain.MergeMode) error {
	reqURL := c.baseURL + "/projects/" + projectID + "/technical-data"
	if mode == domain.MergeModeReplace {
		reqURL += "?replace=true"
	}

	payload, err := json.Marshal(sectionsDoc{Sections: sections})
	if err != nil {
		return fmt.Errorf("marshal technical data: %w", err)
	}

	body, status, err := c.do(ctx, http.MethodPatch, reqURL, payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return decodeAPIError(status, body)
	}
	return nil
}

// do runs one request with bounded retries. Only network failures and
// retryable statuses (429, 5xx) are retried; 4xx responses are returned
// to the caller immediately.
func (c *APIClient) do(ctx context.Context, method, reqURL string, payload []byte) ([]byte, int, error) {
	logger := logging.NewLogger(ctx)

	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("rate limit wait: %w", err)
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
		if err != nil {
			return nil, 0, fmt.Errorf("create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("X-Api-Key", c.apiKey)
		}

		start := time.Now()
		resp, err := c.client.Do(req)
		duration := time.Since(start)
		if err != nil {
			recordRemoteCall(duration, err)
			lastErr = fmt.Errorf("data api request failed: %w", err)
			logger.LogWarnf("data_api", "attempt %d/%d failed: %v", attempt, maxAttempts, err)
			if attempt < maxAttempts {
				recordRetry()
				if serr := sleepCtx(ctx, backoff); serr != nil {
					return nil, 0, serr
				}
				backoff *= 2
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			recordRemoteCall(duration, readErr)
			return nil, 0, fmt.Errorf("read response: %w", readErr)
		}

		if retryableStatus(resp.StatusCode) && attempt < maxAttempts {
			recordRemoteCall(duration, fmt.Errorf("status %d", resp.StatusCode))
			lastErr = decodeAPIError(resp.StatusCode, body)
			logger.LogWarnf("data_api", "attempt %d/%d got status %d", attempt, maxAttempts, resp.StatusCode)
			recordRetry()
			if serr := sleepCtx(ctx, backoff); serr != nil {
				return nil, 0, serr
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode >= 400 {
			recordRemoteCall(duration, fmt.Errorf("status %d", resp.StatusCode))
		} else {
			recordRemoteCall(duration, nil)
		}
		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	// body may carry a structured {code, message}; plain text is fine too
	if len(body) > 0 {
		_ = json.Unmarshal(body, apiErr)
	}
	return apiErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
