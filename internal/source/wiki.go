// Package source implements the content sources the solver can race over.
// Each source fetches a node's raw content through a shared transport and
// parses it into a canonical name and outgoing links.
package source

import (
	"context"
	"net/url"

	"github.com/latebit/wikirace/internal/fetch"
	"github.com/latebit/wikirace/internal/graph"
	"github.com/latebit/wikirace/internal/links"
)

// Defaults for the wiki source.
const (
	DefaultWikiBaseURL = "https://en.wikipedia.org/wiki/"
	DefaultLinkPrefix  = "/wiki/"
)

// Getter fetches a URL. *fetch.HTTPClient satisfies it.
type Getter interface {
	Get(ctx context.Context, rawURL string) (fetch.Result, error)
}

// Wiki reads MediaWiki article pages over HTTP.
type Wiki struct {
	Client Getter
	// BaseURL is prepended to the escaped node id to form the page URL.
	BaseURL string
	// LinkPrefix selects content links among a page's anchors.
	LinkPrefix string
}

// NewWiki returns a wiki source. Empty arguments select the defaults.
func NewWiki(client Getter, baseURL, linkPrefix string) *Wiki {
	if baseURL == "" {
		baseURL = DefaultWikiBaseURL
	}
	if linkPrefix == "" {
		linkPrefix = DefaultLinkPrefix
	}
	return &Wiki{Client: client, BaseURL: baseURL, LinkPrefix: linkPrefix}
}

// URL returns the page URL for id.
func (w *Wiki) URL(id string) string {
	return w.BaseURL + url.PathEscape(id)
}

// Fetch downloads the page for id.
func (w *Wiki) Fetch(ctx context.Context, id string) (graph.Content, error) {
	res, err := w.Client.Get(ctx, w.URL(id))
	if err != nil {
		return graph.Content{}, err
	}
	return graph.Content{ID: id, URL: res.URL, Body: res.Body}, nil
}

// Parse extracts the page's canonical name and its article links.
func (w *Wiki) Parse(c graph.Content) graph.Page {
	return graph.Page{
		Name:  links.PageName(c.Body),
		Links: links.ContentLinks(links.Anchors(c.Body), w.LinkPrefix),
	}
}
