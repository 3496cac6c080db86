package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"

	defaultTimeout = 10 * time.Second
	maxDelay       = 8 * time.Second
	maxErrorBody   = 4 << 10
)

// Options configures a Client. Zero values fall back to sane defaults.
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration // covers every attempt of one call
	MaxRetries int
	RetryDelay time.Duration
	RateLimit  float64 // requests per second, <= 0 disables throttling
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client talks to the TMDb v3 API with throttling and bounded retries.
type Client struct {
	baseURL     string
	apiKey      string
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	log         *log.Entry
}

// NewClient creates a new TMDb API client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), int(opts.RateLimit)+1)
	}

	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		timeout:     opts.Timeout,
		maxRetries:  opts.MaxRetries,
		retryDelay:  opts.RetryDelay,
		httpClient:  opts.HTTPClient,
		rateLimiter: limiter,
		log:         opts.Logger.WithField("component", "tmdb"),
	}
}

// SearchMovies looks movies up by title. No match is an empty slice.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)

	var response SearchResponse
	if err := c.doRequest(ctx, "/search/movie", params, &response); err != nil {
		return nil, errors.Wrapf(err, "search movies %q", query)
	}
	if response.Results == nil {
		return []SearchResult{}, nil
	}
	return response.Results, nil
}

// GetMovie fetches the details of one movie by its TMDb id.
func (c *Client) GetMovie(ctx context.Context, id int64) (*MovieDetail, error) {
	var detail MovieDetail
	if err := c.doRequest(ctx, fmt.Sprintf("/movie/%d", id), url.Values{}, &detail); err != nil {
		return nil, errors.Wrapf(err, "get movie %d", id)
	}
	return &detail, nil
}

// doRequest performs a GET with rate limiting and retry logic
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	bearer := isJWTToken(c.apiKey)
	if !bearer && c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	fullURL := c.baseURL + endpoint + "?" + params.Encode()

	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.log.WithFields(log.Fields{
				"endpoint": endpoint,
				"attempt":  attempt + 1,
				"delay":    delay,
			}).WithError(lastErr).Warn("retrying TMDb request")

			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "waiting to retry")
			case <-time.After(delay):
			}
			delay = minDuration(delay*2, maxDelay)
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return errors.Wrap(ctx.Err(), "rate limiter")
			}
			// the limiter refuses up front when the wait would outlast the deadline
			return errors.Wrap(fmt.Errorf("%w: %v", context.DeadlineExceeded, err), "rate limiter")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return errors.Wrap(err, "create request")
		}
		req.Header.Set("Accept", "application/json")
		if bearer {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return errors.Wrap(err, "request failed")
			}
			lastErr = err
			continue
		}

		retry, err := c.handleResponse(resp, result)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	return errors.Wrapf(lastErr, "request failed after %d attempts", c.maxRetries+1)
}

// handleResponse decodes a successful body into result, or turns the
// response into an *APIError and reports whether it is worth retrying.
func (c *Client) handleResponse(resp *http.Response, result interface{}) (bool, error) {
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var parsed errorResponse
		if json.Unmarshal(body, &parsed) == nil && parsed.StatusMessage != "" {
			apiErr.Message = parsed.StatusMessage
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return shouldRetry(resp.StatusCode), apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return false, errors.Wrap(err, "decode response")
	}
	return false, nil
}

// IsTimeout reports whether err comes from a call that ran out of time.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// shouldRetry determines if an HTTP status code warrants a retry. 429 is
// reported to the caller as is.
func shouldRetry(statusCode int) bool {
	return statusCode >= 500
}

// isJWTToken reports whether the key is a v4 read access token rather than a v3 api key
func isJWTToken(apiKey string) bool {
	return strings.HasPrefix(apiKey, "eyJ") && strings.Count(apiKey, ".") == 2
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
