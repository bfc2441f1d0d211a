// Package ratelimit throttles outgoing requests per remote host.
package ratelimit

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per host. The zero rate means unlimited.
// A nil *Limiter never blocks.
type Limiter struct {
	rate  rate.Limit
	burst int
	hosts sync.Map // map[string]*rate.Limiter
}

// New creates a Limiter that allows r requests per second to each host with
// the given burst size. r <= 0 disables throttling.
func New(r float64, burst int) *Limiter {
	lim := rate.Limit(r)
	if r <= 0 {
		lim = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{rate: lim, burst: burst}
}

func (l *Limiter) bucket(host string) *rate.Limiter {
	v, _ := l.hosts.LoadOrStore(host, rate.NewLimiter(l.rate, l.burst))
	return v.(*rate.Limiter)
}

// Wait blocks until a request to host is permitted or ctx is done.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	if l == nil {
		return nil
	}
	return l.bucket(host).Wait(ctx)
}

// Allow reports whether a request to host may be sent now without waiting.
func (l *Limiter) Allow(host string) bool {
	if l == nil {
		return true
	}
	return l.bucket(host).Allow()
}

// HostOf returns the host (with port, if any) of rawURL, or rawURL itself if
// it does not parse.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
