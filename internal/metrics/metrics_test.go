package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/latebit/wikirace/internal/graph"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrument(t *testing.T) {
	rec := New()
	inner := graph.ResolverFunc(func(_ context.Context, id string) (graph.Resolution, error) {
		if id == "Broken" {
			return graph.Resolution{ID: id}, &graph.FetchError{ID: id, Err: errors.New("boom")}
		}
		return graph.Resolution{ID: id, Name: id, Links: []string{"A", "B"}}, nil
	})
	r := rec.Instrument(inner)

	for _, id := range []string{"One", "Two", "Broken"} {
		r.Resolve(context.Background(), id)
	}

	if got := testutil.ToFloat64(rec.resolutions.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok resolutions: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(rec.resolutions.WithLabelValues("error")); got != 1 {
		t.Errorf("error resolutions: got %v, want 1", got)
	}
	if got := testutil.CollectAndCount(rec.latency); got != 1 {
		t.Errorf("latency series: got %d, want 1", got)
	}
}

func TestInstrumentPassesThroughErrors(t *testing.T) {
	rec := New()
	want := &graph.FetchError{ID: "X", Err: errors.New("boom")}
	r := rec.Instrument(graph.ResolverFunc(func(context.Context, string) (graph.Resolution, error) {
		return graph.Resolution{}, want
	}))

	_, err := r.Resolve(context.Background(), "X")
	if !errors.Is(err, want) {
		t.Errorf("err: got %v, want %v", err, want)
	}
}

func TestObserveRound(t *testing.T) {
	rec := New()
	rec.ObserveRound(graph.RoundStats{Round: 1, Frontier: 1, Discovered: 40, Visited: 41})
	rec.ObserveRound(graph.RoundStats{Round: 2, Frontier: 25, Discovered: 300, Visited: 341})

	if got := testutil.ToFloat64(rec.rounds); got != 2 {
		t.Errorf("rounds: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(rec.discovered); got != 340 {
		t.Errorf("discovered: got %v, want 340", got)
	}
	if got := testutil.ToFloat64(rec.frontier); got != 25 {
		t.Errorf("frontier: got %v, want 25", got)
	}
	if got := testutil.ToFloat64(rec.visited); got != 341 {
		t.Errorf("visited: got %v, want 341", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	rec := New()
	rec.ObserveRound(graph.RoundStats{Round: 1, Frontier: 1, Discovered: 3, Visited: 4})

	path := filepath.Join(t.TempDir(), "wikirace.prom")
	if err := rec.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, want := range []string{"wikirace_rounds_total 1", "wikirace_visited_size 4"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q:\n%s", want, data)
		}
	}
}
