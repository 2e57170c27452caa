package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientConfig configures HTTPClient.
type ClientConfig struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond int
	RetryCount    int
	RetryDelay    time.Duration
	// Consecutive failures before the breaker opens, and how long it stays open.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// HTTPClient talks to the market data REST API.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	retryCount int
	retryDelay time.Duration
	logger     *zap.Logger
}

type barsResponse struct {
	Bars []Bar `json:"bars"`
}

type newsResponse struct {
	Articles []Headline `json:"articles"`
}

func NewClient(cfg ClientConfig, logger *zap.Logger) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:       100,
		MaxConnsPerHost:    10,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: false,
	}

	ratePerSec := cfg.RatePerSecond
	if ratePerSec < 1 {
		ratePerSec = 1
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	c := &HTTPClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		retryCount: cfg.RetryCount,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "marketdata",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Not-found and throttling are answers from a healthy provider.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || IsRateLimited(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("market data breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c
}

func (c *HTTPClient) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	var q Quote
	if err := c.getJSON(ctx, "/v1/quotes/"+url.PathEscape(symbol), nil, &q); err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	return &q, nil
}

func (c *HTTPClient) GetOptionChain(ctx context.Context, symbol, expiration string) (*OptionChain, error) {
	query := url.Values{}
	query.Set("expiration", expiration)

	var chain OptionChain
	if err := c.getJSON(ctx, "/v1/options/"+url.PathEscape(symbol)+"/chain", query, &chain); err != nil {
		return nil, fmt.Errorf("option chain %s %s: %w", symbol, expiration, err)
	}
	if chain.Symbol == "" {
		chain.Symbol = symbol
	}
	if chain.Expiration == "" {
		chain.Expiration = expiration
	}
	return &chain, nil
}

func (c *HTTPClient) GetHistoricalBars(ctx context.Context, symbol string, from, to time.Time, timeframe Timeframe) ([]Bar, error) {
	query := url.Values{}
	query.Set("from", from.Format(ExpirationLayout))
	query.Set("to", to.Format(ExpirationLayout))
	query.Set("timeframe", string(timeframe))

	var resp barsResponse
	if err := c.getJSON(ctx, "/v1/bars/"+url.PathEscape(symbol), query, &resp); err != nil {
		return nil, fmt.Errorf("bars %s: %w", symbol, err)
	}
	return resp.Bars, nil
}

func (c *HTTPClient) GetNews(ctx context.Context, symbol string, limit int) ([]Headline, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var resp newsResponse
	if err := c.getJSON(ctx, "/v1/news/"+url.PathEscape(symbol), query, &resp); err != nil {
		return nil, fmt.Errorf("news %s: %w", symbol, err)
	}
	return resp.Articles, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.doWithRetry(ctx, path, query, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrMarketData, err)
	}
	return err
}

func (c *HTTPClient) doWithRetry(ctx context.Context, path string, query url.Values, out any) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	c.logger.Debug("requesting", zap.String("url", u))

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // Exponential backoff
			c.logger.Debug("retrying request", zap.Int("attempt", attempt), zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		// Read body before closing for error messages
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if readErr != nil {
			lastErr = readErr
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrNotFound
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return ErrAuthFailed
		case resp.StatusCode == http.StatusTooManyRequests:
			return &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())}
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("%w: unexpected status %d: %s", ErrMarketData, resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: decoding response: %v", ErrMarketData, err)
		}
		return nil
	}

	return fmt.Errorf("%w: max retries exceeded: %v", ErrMarketData, lastErr)
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(header string, now time.Time) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

// Compile-time interface verification
var _ Source = (*HTTPClient)(nil)
