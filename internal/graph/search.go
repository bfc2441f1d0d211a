package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is the number of candidates kept for the next round when
// Options.Limit is zero.
const DefaultLimit = 25

// Options configures a search.
type Options struct {
	Limit          int              // frontier size kept after each round (default: 25, negative: keep all)
	Workers        int              // concurrent resolutions per round (default: one per frontier node)
	MaxRounds      int              // give up after this many rounds (default: unbounded)
	ResolveTimeout time.Duration    // deadline for a single resolution (default: none)
	OnRound        func(RoundStats) // called after every round, may be nil
	Logger         *slog.Logger     // may be nil
}

func (o *Options) applyDefaults() {
	if o.Limit == 0 {
		o.Limit = DefaultLimit
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// RoundStats summarizes one completed round.
type RoundStats struct {
	Round      int
	Frontier   int  // nodes resolved concurrently in this round
	Resolved   int  // resolutions that succeeded
	Failed     int  // resolutions that returned an error
	Discovered int  // previously unseen nodes found in this round
	Visited    int  // size of the visited set after the round
	Found      bool // the target was among the discovered nodes
}

// Result is a successful search.
type Result struct {
	Start   string
	Target  string   // target as it was spelled by the link that reached it
	Path    []string // node ids from Start to Target
	Names   []string // display names for Path
	Rounds  int
	Visited int
	Records map[string]Record
}

// String renders the display path as "A -> B -> C".
func (r *Result) String() string {
	return strings.Join(r.Names, " -> ")
}

type outcome struct {
	res Resolution
	err error
}

// Solve searches for a chain of links from start to end. Every round resolves
// the whole frontier concurrently and waits for all of it before any state is
// touched, so the visited set and parent records need no locking. The next
// frontier is narrowed to the candidates that look most like the target.
//
// Solve returns ErrUnreachable when a round yields nothing new, ErrRoundLimit
// when opts.MaxRounds is exhausted, and the context's error on cancellation.
func Solve(ctx context.Context, r Resolver, start, end string, opts Options) (*Result, error) {
	opts.applyDefaults()

	start, end = Normalize(start), Normalize(end)
	if start == "" || end == "" {
		return nil, errors.New("start and end must not be empty")
	}

	s := newSession(start, end)
	if strings.EqualFold(start, end) {
		s.target = start
		s.found = true
		return s.result(0), nil
	}

	frontier := []string{start}
	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.MaxRounds > 0 && round > opts.MaxRounds {
			return nil, fmt.Errorf("%w: %q not reached from %q in %d rounds", ErrRoundLimit, end, start, opts.MaxRounds)
		}

		opts.Logger.Debug("round started", "round", round, "frontier", len(frontier))
		outcomes := resolveAll(ctx, r, frontier, opts)

		stats := RoundStats{Round: round, Frontier: len(frontier)}
		var lastErr error
		for _, o := range outcomes {
			if o.err != nil {
				stats.Failed++
				lastErr = o.err
				opts.Logger.Debug("resolution failed", "round", round, "id", o.res.ID, "error", o.err)
				continue
			}
			stats.Resolved++
		}

		visitedBefore := len(s.visited)
		var candidates []string
		for _, o := range outcomes {
			if o.err != nil {
				continue
			}
			candidates = append(candidates, s.merge(o.res)...)
			if s.found {
				break
			}
		}

		stats.Visited = len(s.visited)
		stats.Discovered = stats.Visited - visitedBefore
		stats.Found = s.found
		opts.Logger.Debug("round finished", "round", round, "resolved", stats.Resolved,
			"failed", stats.Failed, "discovered", stats.Discovered, "visited", stats.Visited)
		if opts.OnRound != nil {
			opts.OnRound(stats)
		}

		if s.found {
			return s.result(round), nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			if stats.Resolved == 0 && lastErr != nil {
				return nil, fmt.Errorf("%w: every resolution in round %d failed: %w", ErrUnreachable, round, lastErr)
			}
			return nil, fmt.Errorf("%w: no unvisited links left after round %d", ErrUnreachable, round)
		}

		frontier = Narrow(candidates, s.target, opts.Limit)
	}
}

// resolveAll resolves every id concurrently and returns once all of them have
// settled. outcomes[i] belongs to frontier[i].
func resolveAll(ctx context.Context, r Resolver, frontier []string, opts Options) []outcome {
	outcomes := make([]outcome, len(frontier))

	var g errgroup.Group
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i, id := range frontier {
		g.Go(func() error {
			rctx := ctx
			if opts.ResolveTimeout > 0 {
				var cancel context.CancelFunc
				rctx, cancel = context.WithTimeout(ctx, opts.ResolveTimeout)
				defer cancel()
			}

			res, err := r.Resolve(rctx, id)
			res.ID = id
			if err != nil {
				var fe *FetchError
				if !errors.As(err, &fe) {
					err = &FetchError{ID: id, Err: err}
				}
			}
			outcomes[i] = outcome{res: res, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (s *session) result(rounds int) *Result {
	records := s.snapshot()
	path := Reconstruct(records, s.start, s.target)
	return &Result{
		Start:   s.start,
		Target:  s.target,
		Path:    path,
		Names:   DisplayPath(records, path),
		Rounds:  rounds,
		Visited: len(s.visited),
		Records: records,
	}
}
