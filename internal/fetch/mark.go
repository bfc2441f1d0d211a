package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/latebit/wikirace/internal/cache"
	"github.com/latebit/wikirace/internal/protocol"
	"github.com/latebit/wikirace/internal/ratelimit"
	"github.com/quic-go/quic-go"
)

// MarkOptions configures a MarkClient.
type MarkOptions struct {
	Cache          *cache.Cache
	Limiter        *ratelimit.Limiter
	Insecure       bool
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	Attempts       int
	Backoff        time.Duration
	Logger         *slog.Logger
}

func (o *MarkOptions) applyDefaults() {
	if o.DialTimeout == 0 {
		o.DialTimeout = 10 * time.Second
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = 10 * time.Second
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

// MarkClient fetches documents over the Mark Protocol. It keeps one QUIC
// connection per host and opens a stream per request, so it is safe for
// concurrent use.
type MarkClient struct {
	opts    MarkOptions
	tlsConf *tls.Config
	mu      sync.Mutex
	conns   map[string]*quic.Conn
}

// NewMarkClient creates a client with the given options.
func NewMarkClient(opts MarkOptions) *MarkClient {
	opts.applyDefaults()
	return &MarkClient{
		opts: opts,
		tlsConf: &tls.Config{
			InsecureSkipVerify: opts.Insecure,
			NextProtos:         []string{protocol.ALPN},
		},
		conns: make(map[string]*quic.Conn),
	}
}

// Close closes all pooled connections.
func (c *MarkClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for host, conn := range c.conns {
		conn.CloseWithError(0, "")
		delete(c.conns, host)
	}
}

// Fetch retrieves the document at path from host. A response whose status is
// not "ok" is returned as *StatusError.
func (c *MarkClient) Fetch(ctx context.Context, host, path string) (Result, error) {
	url := "mark://" + host + path
	reset := func() { c.removeConn(host) }

	return withRetry(ctx, c.opts.Attempts, c.opts.Backoff, reset, func() (Result, error) {
		if err := c.opts.Limiter.Wait(ctx, host); err != nil {
			return Result{}, err
		}
		conn, err := c.getConn(ctx, host)
		if err != nil {
			return Result{}, err
		}

		req := protocol.Request{Verb: protocol.VerbFetch, Path: path, Metadata: make(map[string]string)}

		var cached *cache.Entry
		if c.opts.Cache != nil {
			cached, _ = c.opts.Cache.Get(host, path)
			if cached != nil {
				if cached.ETag != "" {
					req.Metadata["if-none-match"] = cached.ETag
				}
				if cached.LastModified != "" {
					req.Metadata["if-modified-since"] = cached.LastModified
				}
			}
		}

		resp, err := c.requestOnConn(ctx, conn, req)
		if err != nil {
			return Result{}, err
		}

		switch {
		case resp.Status == protocol.StatusNotModified && cached != nil:
			c.opts.Logger.Debug("served from cache", "url", url)
			return Result{URL: url, Body: cached.Body, FromCache: true}, nil
		case resp.Status != protocol.StatusOK:
			return Result{}, &StatusError{URL: url, Status: resp.Status}
		}

		if c.opts.Cache != nil {
			entry := cache.Entry{
				Status:       resp.Status,
				ETag:         resp.Metadata["etag"],
				LastModified: resp.Metadata["modified"],
				Body:         []byte(resp.Body),
			}
			if err := c.opts.Cache.Put(host, path, entry); err != nil {
				c.opts.Logger.Warn("cache write failed", "url", url, "error", err)
			}
		}
		return Result{URL: url, Body: []byte(resp.Body)}, nil
	})
}

// requestOnConn opens a stream, sends a request, and reads the response.
func (c *MarkClient) requestOnConn(ctx context.Context, conn *quic.Conn, req protocol.Request) (protocol.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	deadline, _ := ctx.Deadline()
	stream.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { stream.SetDeadline(time.Now()) })
	defer stop()

	if _, err := req.WriteTo(stream); err != nil {
		return protocol.Response{}, fmt.Errorf("send request: %w", err)
	}
	stream.Close()

	resp, err := protocol.ParseResponse(stream)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}

func (c *MarkClient) getConn(ctx context.Context, host string) (*quic.Conn, error) {
	c.mu.Lock()
	conn, ok := c.conns[host]
	c.mu.Unlock()

	if ok {
		if conn.Context().Err() == nil {
			return conn, nil
		}
		c.removeConn(host)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	defer cancel()

	conn, err := quic.DialAddr(ctx, host, c.tlsConf, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", host, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.conns[host]; ok && existing.Context().Err() == nil {
		// Another request dialed first.
		conn.CloseWithError(0, "")
		return existing, nil
	}
	c.conns[host] = conn
	return conn, nil
}

func (c *MarkClient) removeConn(host string) {
	c.mu.Lock()
	delete(c.conns, host)
	c.mu.Unlock()
}
