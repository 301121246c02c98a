package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when the API answers 429 Too Many Requests.
var ErrRateLimited = errors.New("twitter: rate limited")

// APIError is a non-2xx response other than 429.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("twitter api error: status=%d code=%d message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("twitter api error: status=%d message=%s", e.StatusCode, e.Message)
}

// Transient reports whether the same request may succeed later.
func (e *APIError) Transient() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusRequestTimeout
}

// ClientOption allows for customization of the client
type ClientOption func(*TwitterClient)

// WithHTTPClient replaces the authenticated HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *TwitterClient) {
		c.httpClient = httpClient
	}
}

// WithBaseURL points the client at another API host.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *TwitterClient) {
		c.baseURL = baseURL
	}
}

// WithLimiter replaces the client-side request limiter. nil disables it.
func WithLimiter(limiter *rate.Limiter) ClientOption {
	return func(c *TwitterClient) {
		c.limiter = limiter
	}
}

type TwitterClient struct {
	config     *TwitterConfig
	auth       *Authenticator
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewTwitterClient creates a new Twitter API client. Requests are spaced by a
// limiter matching the configured rate limit, with the full window as burst.
func NewTwitterClient(config *TwitterConfig, opts ...ClientOption) (*TwitterClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	auth, err := NewAuthenticator(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	window := time.Duration(config.RateWindow) * time.Minute
	client := &TwitterClient{
		config:     config,
		auth:       auth,
		httpClient: auth.GetClient(),
		baseURL:    config.BaseURL,
		limiter:    rate.NewLimiter(rate.Every(window/time.Duration(config.RateLimit)), config.RateLimit),
		logger:     config.Logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// handleResponse maps a non-2xx response onto ErrRateLimited or *APIError.
func (c *TwitterClient) handleResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"reset":       resp.Header.Get("x-rate-limit-reset"),
		}).Warn("Twitter API rate limit hit")
		return ErrRateLimited
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read error response: %w", err)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(body)}

	var errResp struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Errors []struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case len(errResp.Errors) > 0:
			apiErr.Code = errResp.Errors[0].Code
			apiErr.Message = errResp.Errors[0].Message
		case errResp.Detail != "":
			apiErr.Message = errResp.Detail
		case errResp.Title != "":
			apiErr.Message = errResp.Title
		}
	}

	c.logger.WithFields(logrus.Fields{
		"status_code": apiErr.StatusCode,
		"error_code":  apiErr.Code,
		"message":     apiErr.Message,
	}).Error("Twitter API error")

	return apiErr
}

// getJSON issues a GET and decodes a 2xx body into out.
func (c *TwitterClient) getJSON(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	fullURL := c.baseURL + endpoint
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.auth.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if err := c.handleResponse(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
