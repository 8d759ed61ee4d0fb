// Package client provides the rate-limited HTTP core shared by every typed
// API operation: URL building with session credentials, request pacing,
// status handling, response decoding and the optional response cache.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/woodpelt/booru621/pkg/cache"
	"github.com/woodpelt/booru621/pkg/logging"
	"github.com/woodpelt/booru621/pkg/ratelimit"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booru_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "booru_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booru_errors_total",
		Help: "Total API errors by kind",
	}, []string{"kind"})
)

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API, e.g. "https://e926.net".
	BaseURL string

	// UserAgent header sent with every request (REQUIRED by the API).
	// Format: "MyProject/1.0 (by username)". Default agents of HTTP
	// libraries are blocked upstream; pick something descriptive.
	UserAgent string

	// Cooldown between request starts. Zero means ratelimit.Cooldown.
	// Lowering it below the server's documented limit is a fast way to get
	// the client's IP banned.
	Cooldown time.Duration

	// Redis enables the response page cache when non-nil. Identical GET
	// requests within CacheTTL are then served without touching the API.
	Redis *redis.Client

	// CacheTTL bounds how long cached pages are served. Zero disables
	// caching even when Redis is configured.
	CacheTTL time.Duration

	// HTTPClient overrides the underlying HTTP client (for tests and
	// custom transports).
	HTTPClient *http.Client
}

// DefaultConfig returns a safe configuration for the given host.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
	}
}

// Client issues rate-limited requests against one API host. It is safe for
// concurrent use; all requests of one Client share its pacer, so the combined
// request rate stays within the server's limit no matter how many searches
// run at once.
type Client struct {
	httpClient *http.Client
	base       *url.URL
	userAgent  string
	pacer      *ratelimit.Pacer
	cache      *cache.Manager
	logger     zerolog.Logger

	mu    sync.RWMutex
	login url.Values // login + api_key pair, nil when logged out
}

// New creates a new API client. It fails without any network I/O when the
// configuration cannot produce valid requests.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.UserAgent) == "" {
		return nil, fmt.Errorf("create client: %w", ErrEmptyUserAgent)
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("create client: parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("create client: base URL %q has no scheme or host", cfg.BaseURL)
	}

	logger := logging.NewLogger("booru-client")

	var pageCache *cache.Manager
	if cfg.Redis != nil && cfg.CacheTTL > 0 {
		pageCache = cache.NewManager(cfg.Redis, cfg.CacheTTL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient: httpClient,
		base:       base,
		userAgent:  cfg.UserAgent,
		pacer:      ratelimit.New(cfg.Cooldown, logger),
		cache:      pageCache,
		logger:     logger,
	}, nil
}

// Login attaches the given username and API key to every subsequent request.
func (c *Client) Login(name, apiKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.login = url.Values{"login": {name}, "api_key": {apiKey}}
}

// Logout removes credentials previously set with Login.
func (c *Client) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.login = nil
}

// requestURL joins endpoint onto the base URL with the given query, appending
// session credentials when set.
func (c *Client) requestURL(endpoint string, query url.Values) *url.URL {
	u := c.base.JoinPath(endpoint)

	q := u.Query()
	for key, vals := range query {
		for _, v := range vals {
			q.Add(key, v)
		}
	}
	c.mu.RLock()
	for key, vals := range c.login {
		for _, v := range vals {
			q.Add(key, v)
		}
	}
	c.mu.RUnlock()
	u.RawQuery = q.Encode()

	return u
}

// Get performs one rate-limited GET and returns the raw 2xx body. The
// response cache, when enabled, is consulted first and refreshed on success;
// credentials are not part of the cache key, so do not enable caching for
// account-specific listings.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	key := cache.Key{Endpoint: endpoint, Query: query}

	if c.cache != nil {
		data, err := c.cache.Get(ctx, key)
		if err == nil {
			c.logger.Debug().Str("endpoint", endpoint).Msg("Serving page from cache")
			return data, nil
		}
		if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	body, err := c.send(ctx, http.MethodGet, c.requestURL(endpoint, query), nil)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache set error")
		}
	}

	return body, nil
}

// GetJSON performs one rate-limited GET and decodes the 2xx JSON body into v.
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, v any) error {
	body, err := c.Get(ctx, endpoint, query)
	if err != nil {
		return err
	}
	return Decode(body, v)
}

// PostForm performs one rate-limited POST with a form-encoded body and, when
// v is non-nil, decodes the 2xx JSON response into it. Write operations share
// the GET path's pacing and error handling.
func (c *Client) PostForm(ctx context.Context, endpoint string, form url.Values, v any) error {
	body, err := c.send(ctx, http.MethodPost, c.requestURL(endpoint, nil), form)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return Decode(body, v)
}

// send issues one request through the pacer. Failed attempts count against
// the cooldown exactly like successful ones.
func (c *Client) send(ctx context.Context, method string, u *url.URL, form url.Values) ([]byte, error) {
	endpoint := u.Path

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	var body []byte
	err := c.pacer.Do(ctx, func() error {
		var payload io.Reader
		if form != nil {
			payload = strings.NewReader(form.Encode())
		}

		req, err := http.NewRequestWithContext(ctx, method, u.String(), payload)
		if err != nil {
			return &TransportError{Err: err}
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("method", method).
			Msg("Executing API request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			errorsTotal.WithLabelValues("transport").Inc()
			requestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
			c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Request failed")
			return &TransportError{Err: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			errorsTotal.WithLabelValues("transport").Inc()
			requestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
			return &TransportError{Err: err}
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			errorsTotal.WithLabelValues("http").Inc()
			httpErr := &HTTPError{
				StatusCode: resp.StatusCode,
				Reason:     errorReason(resp.StatusCode, data),
			}
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("reason", httpErr.Reason).
				Msg("API request error")
			return httpErr
		}

		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	return body, nil
}

// Decode unmarshals an API response body into v, mapping failures to
// DecodeError.
func Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		errorsTotal.WithLabelValues("decode").Inc()
		return &DecodeError{Err: err}
	}
	return nil
}
