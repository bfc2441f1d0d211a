package source

import (
	"context"
	"net"
	"path"
	"strconv"
	"strings"

	"github.com/latebit/wikirace/internal/fetch"
	"github.com/latebit/wikirace/internal/graph"
	"github.com/latebit/wikirace/internal/links"
	"github.com/latebit/wikirace/internal/protocol"
)

// MarkFetcher fetches a Mark Protocol document. *fetch.MarkClient satisfies it.
type MarkFetcher interface {
	Fetch(ctx context.Context, host, path string) (fetch.Result, error)
}

// Mark reads markdown documents from a single Mark Protocol server. Node ids
// are document paths without the leading slash and the ".md" extension.
type Mark struct {
	Client MarkFetcher
	Host   string
}

// NewMark returns a Mark source for host. The default port is added when
// host has none.
func NewMark(client MarkFetcher, host string) *Mark {
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, strconv.Itoa(protocol.DefaultPort))
	}
	return &Mark{Client: client, Host: host}
}

// Path returns the request path for id.
func (m *Mark) Path(id string) string {
	return "/" + id + ".md"
}

// Fetch retrieves the document for id.
func (m *Mark) Fetch(ctx context.Context, id string) (graph.Content, error) {
	res, err := m.Client.Fetch(ctx, m.Host, m.Path(id))
	if err != nil {
		return graph.Content{}, err
	}
	return graph.Content{ID: id, URL: res.URL, Body: res.Body}, nil
}

// Parse takes the first level-1 heading as the name and keeps the links that
// name another markdown document on the same server.
func (m *Mark) Parse(c graph.Content) graph.Page {
	title, dests := links.Markdown(c.Body)

	base := c.URL
	if base == "" {
		base = "mark://" + m.Host + m.Path(c.ID)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, dest := range dests {
		if strings.Contains(dest, ":") && !strings.HasPrefix(dest, "mark://") {
			continue
		}
		id, ok := m.nodeID(links.Resolve(base, dest))
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return graph.Page{Name: title, Links: ids}
}

// nodeID maps an absolute mark:// URL on this server back to a node id.
func (m *Mark) nodeID(abs string) (string, bool) {
	host, p, err := fetch.ParseMarkURL(abs)
	if err != nil || host != m.Host {
		return "", false
	}
	p = path.Clean(p)
	if !strings.HasSuffix(p, ".md") {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(p, "/"), ".md")
	if id == "" || strings.Contains(id, ":") {
		return "", false
	}
	return id, true
}
