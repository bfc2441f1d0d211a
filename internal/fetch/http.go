package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/latebit/wikirace/internal/cache"
	"github.com/latebit/wikirace/internal/ratelimit"
)

// DefaultUserAgent identifies the solver to remote servers.
const DefaultUserAgent = "wikirace/1.0 (+https://github.com/latebit/wikirace)"

// maxBodySize bounds how much of a single page is read.
const maxBodySize = 32 << 20

// HTTPOptions configures an HTTPClient.
type HTTPOptions struct {
	Cache               *cache.Cache
	Limiter             *ratelimit.Limiter
	UserAgent           string
	RequestTimeout      time.Duration
	MaxIdleConnsPerHost int
	Attempts            int
	Backoff             time.Duration
	Logger              *slog.Logger
}

func (o *HTTPOptions) applyDefaults() {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = 15 * time.Second
	}
	if o.MaxIdleConnsPerHost == 0 {
		o.MaxIdleConnsPerHost = 32
	}
	if o.Attempts <= 0 {
		o.Attempts = defaultAttempts
	}
	if o.Backoff == 0 {
		o.Backoff = defaultBackoff
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// HTTPClient performs GET requests over a pooled connection set. It is safe
// for concurrent use.
type HTTPClient struct {
	opts   HTTPOptions
	client *http.Client
}

// NewHTTPClient creates an HTTP client with the given options.
func NewHTTPClient(opts HTTPOptions) *HTTPClient {
	opts.applyDefaults()
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = opts.MaxIdleConnsPerHost * 2
	transport.MaxIdleConnsPerHost = opts.MaxIdleConnsPerHost
	return &HTTPClient{
		opts:   opts,
		client: &http.Client{Transport: transport},
	}
}

// Close releases idle pooled connections.
func (c *HTTPClient) Close() {
	c.client.CloseIdleConnections()
}

// Get fetches rawURL. Non-2xx responses are returned as *StatusError.
func (c *HTTPClient) Get(ctx context.Context, rawURL string) (Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Result{}, fmt.Errorf("invalid URL: %w", err)
	}
	key := u.EscapedPath()
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}

	return withRetry(ctx, c.opts.Attempts, c.opts.Backoff, nil, func() (Result, error) {
		if err := c.opts.Limiter.Wait(ctx, u.Host); err != nil {
			return Result{}, err
		}
		return c.get(ctx, u, key)
	})
}

func (c *HTTPClient) get(ctx context.Context, u *url.URL, key string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	var cached *cache.Entry
	if c.opts.Cache != nil {
		cached, _ = c.opts.Cache.Get(u.Host, key)
		if cached != nil {
			if cached.ETag != "" {
				req.Header.Set("If-None-Match", cached.ETag)
			}
			if cached.LastModified != "" {
				req.Header.Set("If-Modified-Since", cached.LastModified)
			}
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		c.opts.Logger.Debug("served from cache", "url", u.String())
		return Result{URL: u.String(), Body: cached.Body, FromCache: true}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Result{}, &StatusError{URL: u.String(), Status: resp.Status, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Result{}, fmt.Errorf("read body: %w", err)
	}

	if c.opts.Cache != nil {
		entry := cache.Entry{
			Status:       strconv.Itoa(resp.StatusCode),
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			Body:         body,
		}
		if entry.ETag != "" || entry.LastModified != "" {
			if err := c.opts.Cache.Put(u.Host, key, entry); err != nil {
				c.opts.Logger.Warn("cache write failed", "url", u.String(), "error", err)
			}
		}
	}

	// Final URL after redirects.
	return Result{URL: resp.Request.URL.String(), Body: body}, nil
}
