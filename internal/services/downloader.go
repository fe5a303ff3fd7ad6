package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/music-playlists/internal/models"
	"github.com/desertthunder/music-playlists/internal/shared"
)

// ResponseCache stores downloaded responses. Implemented by [repositories.ResponseRepository].
type ResponseCache interface {
	GetByKey(key string) (*models.CachedResponse, error)
	Put(resp *models.CachedResponse) error
}

// Request describes a single HTTP call made through a [Downloader].
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Header  http.Header
	Body    []byte
	Refresh bool // skip the cache read but still store the new response
	NoCache bool // neither read nor write the cache
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Cached     bool
}

// OK reports whether the status is one that the cache keeps (200 or 201).
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK || r.StatusCode == http.StatusCreated
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Downloader performs HTTP requests for the sources and services.
//
// GET and POST responses with status 200 or 201 are stored in the cache when one is configured.
// All requests, cached or not, share one rate limiter.
type Downloader struct {
	client      *http.Client
	limiter     *rate.Limiter
	cache       ResponseCache
	expireAfter time.Duration
	logger      *log.Logger
}

// DownloaderOption configures a [Downloader].
type DownloaderOption func(*Downloader)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) {
		if c != nil {
			d.client = c
		}
	}
}

// WithTimeout sets the timeout on the underlying HTTP client.
func WithTimeout(timeout time.Duration) DownloaderOption {
	return func(d *Downloader) {
		c := *d.client
		c.Timeout = timeout
		d.client = &c
	}
}

// WithRateLimit allows at most rps requests per second. Zero or less disables limiting.
func WithRateLimit(rps float64) DownloaderOption {
	return func(d *Downloader) {
		if rps <= 0 {
			d.limiter = nil
			return
		}
		d.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithCache stores responses in cache, expiring after expireAfter (zero never expires).
func WithCache(cache ResponseCache, expireAfter time.Duration) DownloaderOption {
	return func(d *Downloader) {
		d.cache = cache
		d.expireAfter = expireAfter
	}
}

// WithDownloaderLogger sets the logger.
func WithDownloaderLogger(l *log.Logger) DownloaderOption {
	return func(d *Downloader) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDownloader creates a [Downloader] with a 30 second timeout and no cache.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HTTPClient returns the client used for requests.
func (d *Downloader) HTTPClient() *http.Client {
	return d.client
}

// WithClient returns a copy that sends requests through c while sharing the cache and rate limiter.
// Used to wrap the transport with OAuth credentials.
func (d *Downloader) WithClient(c *http.Client) *Downloader {
	cp := *d
	cp.client = c
	return &cp
}

// Get performs a GET request and requires a 200 or 201 response with a non-empty body.
func (d *Downloader) Get(ctx context.Context, rawURL string, query url.Values, refresh bool) (*Response, error) {
	resp, err := d.Do(ctx, &Request{Method: http.MethodGet, URL: rawURL, Query: query, Refresh: refresh})
	if err != nil {
		return nil, err
	}
	if !resp.OK() || len(resp.Body) == 0 {
		return nil, fmt.Errorf("%w: GET %s returned status %d", shared.ErrAPIRequest, rawURL, resp.StatusCode)
	}
	return resp, nil
}

// GetJSON performs [Downloader.Get] and decodes the body into v.
func (d *Downloader) GetJSON(ctx context.Context, rawURL string, query url.Values, refresh bool, v any) error {
	resp, err := d.Get(ctx, rawURL, query, refresh)
	if err != nil {
		return err
	}
	return resp.JSON(v)
}

// Do performs req, consulting the cache first unless req.Refresh or req.NoCache is set.
// Non-2xx statuses are returned as a response, not an error.
func (d *Downloader) Do(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := buildURL(req.URL, req.Query)
	if err != nil {
		return nil, err
	}

	cacheable := d.cache != nil && !req.NoCache && (method == http.MethodGet || method == http.MethodPost)
	key := CacheKey(method, target, req.Body)

	if cacheable && !req.Refresh {
		if cached, err := d.cache.GetByKey(key); err == nil {
			d.logger.Debug("cache hit", "method", method, "url", target)
			return &Response{StatusCode: cached.StatusCode(), Body: cached.Body(), Header: http.Header{}, Cached: true}, nil
		}
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	d.logger.Debug("http request", "method", method, "url", target)
	httpResp, err := d.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s %s", shared.ErrTimeout, method, target)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}

	if cacheable && resp.OK() {
		entry := models.NewCachedResponse(key, method, target, resp.StatusCode, data, d.expireAfter)
		if err := d.cache.Put(entry); err != nil {
			d.logger.Warn("failed to cache response", "url", target, "error", err)
		}
	}
	return resp, nil
}

// CacheKey identifies a request by method, full URL and a hash of the body.
func CacheKey(method, target string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(target))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// buildURL merges query into rawURL. url.Values encodes keys in sorted order, so equal queries give equal URLs.
func buildURL(rawURL string, query url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid url %q: %v", shared.ErrInvalidInput, rawURL, err)
	}
	if len(query) > 0 {
		merged := u.Query()
		for k, values := range query {
			for _, v := range values {
				merged.Add(k, v)
			}
		}
		u.RawQuery = merged.Encode()
	}
	return u.String(), nil
}
