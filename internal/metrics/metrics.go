// Package metrics records search and resolution metrics on a dedicated
// Prometheus registry. A run's metrics can be written out in the
// node-exporter textfile format when it ends.
package metrics

import (
	"context"
	"time"

	"github.com/latebit/wikirace/internal/graph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns a registry and the collectors registered on it.
type Recorder struct {
	reg *prometheus.Registry

	rounds      prometheus.Counter
	discovered  prometheus.Counter
	resolutions *prometheus.CounterVec
	latency     prometheus.Histogram
	links       prometheus.Histogram
	frontier    prometheus.Gauge
	visited     prometheus.Gauge
}

// New creates a Recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		rounds: f.NewCounter(prometheus.CounterOpts{
			Name: "wikirace_rounds_total",
			Help: "Search rounds completed",
		}),
		discovered: f.NewCounter(prometheus.CounterOpts{
			Name: "wikirace_discovered_total",
			Help: "Nodes seen for the first time",
		}),
		resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wikirace_resolutions_total",
			Help: "Node resolutions by result",
		}, []string{"result"}),
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wikirace_resolution_duration_seconds",
			Help:    "Time to fetch and parse one node",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		}),
		links: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wikirace_resolution_links",
			Help:    "Outgoing links per resolved node",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 2500},
		}),
		frontier: f.NewGauge(prometheus.GaugeOpts{
			Name: "wikirace_frontier_size",
			Help: "Nodes resolved in the latest round",
		}),
		visited: f.NewGauge(prometheus.GaugeOpts{
			Name: "wikirace_visited_size",
			Help: "Size of the visited set after the latest round",
		}),
	}
}

// Registry returns the registry the collectors are registered on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// Instrument wraps next so that every resolution is timed and counted.
func (r *Recorder) Instrument(next graph.Resolver) graph.Resolver {
	return graph.ResolverFunc(func(ctx context.Context, id string) (graph.Resolution, error) {
		start := time.Now()
		res, err := next.Resolve(ctx, id)
		r.latency.Observe(time.Since(start).Seconds())
		if err != nil {
			r.resolutions.WithLabelValues("error").Inc()
			return res, err
		}
		r.resolutions.WithLabelValues("ok").Inc()
		r.links.Observe(float64(len(res.Links)))
		return res, nil
	})
}

// ObserveRound records a completed round. It fits graph.Options.OnRound.
func (r *Recorder) ObserveRound(s graph.RoundStats) {
	r.rounds.Inc()
	r.discovered.Add(float64(s.Discovered))
	r.frontier.Set(float64(s.Frontier))
	r.visited.Set(float64(s.Visited))
}

// WriteTextfile writes the current values to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
