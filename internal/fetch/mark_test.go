package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/latebit/wikirace/internal/cache"
	"github.com/latebit/wikirace/internal/marktest"
	"github.com/latebit/wikirace/internal/protocol"
)

func newTestMarkClient(t *testing.T, c *cache.Cache) *MarkClient {
	t.Helper()
	client := NewMarkClient(MarkOptions{
		Cache:          c,
		Insecure:       true,
		DialTimeout:    5 * time.Second,
		RequestTimeout: 5 * time.Second,
		Backoff:        time.Millisecond,
	})
	t.Cleanup(client.Close)
	return client
}

func TestMarkFetch(t *testing.T) {
	srv := marktest.Start(t, map[string]string{
		"/Fruit.md": "# Fruit\n\nSee [Apple](Apple.md).\n",
	})
	c := newTestMarkClient(t, nil)

	res, err := c.Fetch(context.Background(), srv.Addr, "/Fruit.md")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(res.Body) != "# Fruit\n\nSee [Apple](Apple.md).\n" {
		t.Errorf("body: got %q", res.Body)
	}
	if res.URL != "mark://"+srv.Addr+"/Fruit.md" {
		t.Errorf("url: got %q", res.URL)
	}
}

func TestMarkFetchNotFound(t *testing.T) {
	srv := marktest.Start(t, nil)
	c := newTestMarkClient(t, nil)

	_, err := c.Fetch(context.Background(), srv.Addr, "/Missing.md")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.Status != protocol.StatusNotFound {
		t.Errorf("status: got %q, want %q", se.Status, protocol.StatusNotFound)
	}
	if n := srv.Hits("/Missing.md"); n != 1 {
		t.Errorf("hits: got %d, want 1 (not-found is not retried)", n)
	}
}

func TestMarkFetchRevalidatesCache(t *testing.T) {
	srv := marktest.Start(t, map[string]string{"/Apple.md": "# Apple\n"})
	c := newTestMarkClient(t, cache.New(t.TempDir()))

	first, err := c.Fetch(context.Background(), srv.Addr, "/Apple.md")
	if err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	second, err := c.Fetch(context.Background(), srv.Addr, "/Apple.md")
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if first.FromCache || !second.FromCache {
		t.Errorf("FromCache: got %v then %v, want false then true", first.FromCache, second.FromCache)
	}
	if string(second.Body) != "# Apple\n" {
		t.Errorf("cached body: got %q", second.Body)
	}

	srv.SetPage("/Apple.md", "# Apple\n\nUpdated.\n")
	third, err := c.Fetch(context.Background(), srv.Addr, "/Apple.md")
	if err != nil {
		t.Fatalf("third Fetch: %v", err)
	}
	if third.FromCache || string(third.Body) != "# Apple\n\nUpdated.\n" {
		t.Errorf("changed page: got FromCache=%v body=%q", third.FromCache, third.Body)
	}
}

func TestMarkFetchConcurrent(t *testing.T) {
	pages := map[string]string{}
	for _, id := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		pages["/"+id+".md"] = "# " + id + "\n"
	}
	srv := marktest.Start(t, pages)
	c := newTestMarkClient(t, nil)

	var wg sync.WaitGroup
	errs := make(chan error, len(pages))
	for path, want := range pages {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.Fetch(context.Background(), srv.Addr, path)
			if err != nil {
				errs <- err
				return
			}
			if string(res.Body) != want {
				errs <- errors.New(path + ": unexpected body " + string(res.Body))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestMarkFetchUnreachableHost(t *testing.T) {
	c := NewMarkClient(MarkOptions{
		Insecure:    true,
		DialTimeout: 100 * time.Millisecond,
		Attempts:    1,
	})
	defer c.Close()

	if _, err := c.Fetch(context.Background(), "127.0.0.1:1", "/A.md"); err == nil {
		t.Fatal("expected error dialing a closed port")
	}
}
