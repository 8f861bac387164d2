package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Lutefd/currency-dashboard/internal/commons"
	"github.com/Lutefd/currency-dashboard/internal/logger"
	"github.com/Lutefd/currency-dashboard/internal/model"
)

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// RetryClient issues GET requests, retrying transient failures with
// exponential backoff.
type RetryClient struct {
	client     *http.Client
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration
	userAgent  string
	log        *logger.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

type ClientOption func(*RetryClient)

func WithMaxRetries(maxRetries int) ClientOption {
	return func(c *RetryClient) {
		c.maxRetries = maxRetries
	}
}

func WithBaseDelay(delay time.Duration) ClientOption {
	return func(c *RetryClient) {
		c.baseDelay = delay
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *RetryClient) {
		c.timeout = timeout
	}
}

func WithUserAgent(userAgent string) ClientOption {
	return func(c *RetryClient) {
		c.userAgent = userAgent
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *RetryClient) {
		c.client = client
	}
}

func WithClientLogger(log *logger.Logger) ClientOption {
	return func(c *RetryClient) {
		c.log = log
	}
}

func NewRetryClient(opts ...ClientOption) *RetryClient {
	c := &RetryClient{
		client:     &http.Client{},
		maxRetries: commons.ExternalClientMaxRetries,
		baseDelay:  commons.ExternalClientBaseDelay,
		timeout:    commons.ExternalClientTimeout,
		userAgent:  commons.UserAgent,
		log:        logger.Nop(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the body of a successful (2xx) response. At most
// maxRetries+1 attempts are made; failures are reported as *model.NetworkError.
func (c *RetryClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	var (
		lastStatus int
		lastErr    error
	)

	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.calculateBackoff(attempt-1)); err != nil {
				return nil, &model.NetworkError{URL: url, LastStatus: lastStatus, LastErr: err, Attempts: attempt - 1}
			}
		}

		body, status, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}
		lastStatus, lastErr = status, err

		if ctx.Err() != nil || !c.shouldRetry(err, status) {
			return nil, &model.NetworkError{URL: url, LastStatus: status, LastErr: err, Attempts: attempt}
		}
		if attempt <= c.maxRetries {
			c.log.Warnf("request to %s failed (attempt %d/%d): %v", url, attempt, c.maxRetries+1, err)
		}
	}

	c.log.Errorf("request failed for %s: %v", url, lastErr)
	return nil, &model.NetworkError{URL: url, LastStatus: lastStatus, LastErr: lastErr, Attempts: c.maxRetries + 1}
}

func (c *RetryClient) do(ctx context.Context, url string) ([]byte, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("request failed with status code: %d", resp.StatusCode)
	}

	return body, resp.StatusCode, nil
}

func (c *RetryClient) shouldRetry(err error, status int) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if status >= 200 && status <= 299 {
		// body read failure on a good status
		return true
	}
	if status != 0 {
		return retryableStatus[status]
	}
	return true
}

// calculateBackoff returns the delay before retry n (1-indexed):
// baseDelay * 2^(n-1).
func (c *RetryClient) calculateBackoff(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	return c.baseDelay * time.Duration(1<<uint(retry-1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
