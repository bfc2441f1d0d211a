// Package race wires a loaded configuration into a ready-to-run search:
// the transport for the configured source, the page cache, throttling,
// metrics and the search options. The command-line, MCP and terminal
// front ends all start a search through a Runner.
package race

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/latebit/wikirace/internal/cache"
	"github.com/latebit/wikirace/internal/config"
	"github.com/latebit/wikirace/internal/fetch"
	"github.com/latebit/wikirace/internal/graph"
	"github.com/latebit/wikirace/internal/metrics"
	"github.com/latebit/wikirace/internal/ratelimit"
	"github.com/latebit/wikirace/internal/source"
)

// Runner runs searches against one content source.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Recorder
	resolver graph.Resolver
	closer   func()
}

// Open builds the transport and source selected by cfg.
func Open(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var c *cache.Cache
	if cfg.CacheDir != "" {
		c = cache.New(cfg.CacheDir)
	}
	lim := ratelimit.New(cfg.Rate, cfg.Burst)

	var (
		src    graph.Source
		closer func()
	)
	switch cfg.Source {
	case config.SourceWiki:
		client := fetch.NewHTTPClient(fetch.HTTPOptions{
			Cache:          c,
			Limiter:        lim,
			UserAgent:      cfg.UserAgent,
			RequestTimeout: cfg.RequestTimeout,
			Logger:         logger,
		})
		src, closer = source.NewWiki(client, cfg.WikiBaseURL, cfg.LinkPrefix), client.Close
	case config.SourceMark:
		client := fetch.NewMarkClient(fetch.MarkOptions{
			Cache:          c,
			Limiter:        lim,
			Insecure:       cfg.Insecure,
			RequestTimeout: cfg.RequestTimeout,
			Logger:         logger,
		})
		src, closer = source.NewMark(client, cfg.MarkHost), client.Close
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}

	r := New(&graph.SourceResolver{Source: src}, cfg, logger)
	r.closer = closer
	return r, nil
}

// New returns a Runner over an existing resolver.
func New(resolver graph.Resolver, cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rec := metrics.New()
	return &Runner{
		cfg:      cfg,
		logger:   logger,
		metrics:  rec,
		resolver: rec.Instrument(resolver),
	}
}

// Close releases the transport's pooled connections.
func (r *Runner) Close() {
	if r.closer != nil {
		r.closer()
	}
}

// WithLimit returns a Runner that narrows each round to limit candidates.
// It shares the transport and metrics with r.
func (r *Runner) WithLimit(limit int) *Runner {
	cfg := *r.cfg
	cfg.Limit = limit
	c := *r
	c.cfg = &cfg
	c.closer = nil
	return &c
}

// Metrics returns the recorder every search reports to.
func (r *Runner) Metrics() *metrics.Recorder {
	return r.metrics
}

// Solve searches from start to end. onRound, if non-nil, is called after
// every round. When a metrics file is configured it is rewritten once the
// search ends, whatever the outcome.
func (r *Runner) Solve(ctx context.Context, start, end string, onRound func(graph.RoundStats)) (*graph.Result, error) {
	opts := r.options(onRound)
	res, err := graph.Solve(ctx, r.resolver, start, end, opts)

	if r.cfg.MetricsFile != "" {
		if werr := r.metrics.WriteTextfile(r.cfg.MetricsFile); werr != nil {
			r.logger.Warn("writing metrics file", "path", r.cfg.MetricsFile, "error", werr)
		}
	}
	if err != nil {
		return nil, err
	}
	r.logger.Info("search complete", "start", res.Start, "target", res.Target,
		"hops", len(res.Path)-1, "rounds", res.Rounds, "visited", res.Visited)
	return res, nil
}

// Links resolves a single node.
func (r *Runner) Links(ctx context.Context, id string) (graph.Resolution, error) {
	id = graph.Normalize(id)
	if id == "" {
		return graph.Resolution{}, fmt.Errorf("empty node id")
	}
	if r.cfg.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.ResolveTimeout)
		defer cancel()
	}
	return r.resolver.Resolve(ctx, id)
}

func (r *Runner) options(onRound func(graph.RoundStats)) graph.Options {
	return graph.Options{
		Limit:          r.cfg.Limit,
		Workers:        r.cfg.Workers,
		MaxRounds:      r.cfg.MaxRounds,
		ResolveTimeout: r.cfg.ResolveTimeout,
		Logger:         r.logger,
		OnRound: func(s graph.RoundStats) {
			r.metrics.ObserveRound(s)
			if onRound != nil {
				onRound(s)
			}
		},
	}
}
