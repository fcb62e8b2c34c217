package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-civitai-mirror/internal/models"
	"go-civitai-mirror/internal/retry"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// Custom error types, classified for the retry policy.
var (
	ErrRateLimited  = errors.New("API rate limit exceeded")
	ErrUnauthorized = errors.New("API request unauthorized (check API token)")
	ErrNotFound     = errors.New("API resource not found")
	ErrServerError  = errors.New("API server error")
	ErrBadNextURL   = errors.New("invalid pagination URL")
)

const CivitaiApiBaseUrl = "https://civitai.com/api/v1"

// Client talks to the catalog listing API. One instance is shared by the
// paginator across a whole run; page requests are paced through the rate
// limiter because the API penalizes bursts.
type Client struct {
	BaseURL    string
	Token      string
	HttpClient *http.Client

	limiter ratelimit.Limiter
	policy  retry.Policy
}

// NewClient creates an API client. requestsPerSecond <= 0 disables pacing.
func NewClient(token string, httpClient *http.Client, requestsPerSecond int, policy retry.Policy) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	limiter := ratelimit.NewUnlimited()
	if requestsPerSecond > 0 {
		limiter = ratelimit.New(requestsPerSecond)
	}
	return &Client{
		BaseURL:    CivitaiApiBaseUrl,
		Token:      token,
		HttpClient: httpClient,
		limiter:    limiter,
		policy:     policy,
	}
}

// ListingURL constructs the first-page listing endpoint for a username.
func (c *Client) ListingURL(username string) string {
	values := url.Values{}
	values.Set("username", username)
	values.Set("nsfw", "true")
	return fmt.Sprintf("%s/models?%s", c.BaseURL, values.Encode())
}

// ValidateNextPageURL checks a "next page" URL supplied by the API before it
// is followed: it must share the listing endpoint's scheme and host and stay
// under its path. A malformed or foreign URL halts traversal.
func (c *Client) ValidateNextPageURL(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	next, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadNextURL, err)
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("%w: bad base URL: %v", ErrBadNextURL, err)
	}
	if next.Scheme != base.Scheme {
		return "", fmt.Errorf("%w: unexpected scheme %q", ErrBadNextURL, next.Scheme)
	}
	if next.Host != base.Host && next.Host != "www."+base.Host {
		return "", fmt.Errorf("%w: unexpected host %q", ErrBadNextURL, next.Host)
	}
	if !strings.HasPrefix(next.Path, base.Path) {
		return "", fmt.Errorf("%w: unexpected path %q", ErrBadNextURL, next.Path)
	}
	return raw, nil
}

// GetModelsPage fetches and decodes one listing page. Transient failures
// (network errors, 429, 5xx) are retried by the shared policy; 401/403 and
// 404 fail immediately.
func (c *Client) GetModelsPage(pageURL string) (models.ApiResponse, error) {
	var response models.ApiResponse

	err := c.policy.Do("catalog page fetch", func() error {
		c.limiter.Take()

		req, err := http.NewRequest(http.MethodGet, pageURL, nil)
		if err != nil {
			return retry.Terminal(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		if c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
		}

		resp, err := c.HttpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request failed: %w", err)
		}
		defer resp.Body.Close()

		if err := classifyStatus(resp.StatusCode); err != nil {
			io.Copy(io.Discard, resp.Body)
			return err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}
		if err := json.Unmarshal(body, &response); err != nil {
			log.WithError(err).Debugf("Response body causing unmarshal error: %.200s", string(body))
			return fmt.Errorf("unmarshalling response JSON: %w", err)
		}
		return nil
	})

	if err != nil {
		return models.ApiResponse{}, err
	}
	return response, nil
}

// classifyStatus converts an HTTP status into nil, a retryable error, or a
// terminal one.
func classifyStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return retry.Terminal(ErrUnauthorized)
	case code == http.StatusNotFound:
		return retry.Terminal(ErrNotFound)
	case code >= 500:
		return fmt.Errorf("%w (status code %d)", ErrServerError, code)
	default:
		return retry.Terminal(fmt.Errorf("API request failed with status %d", code))
	}
}
