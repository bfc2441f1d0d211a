package graph

import "context"

// Content is the raw body of a node as returned by a Source.
type Content struct {
	ID   string
	URL  string
	Body []byte
}

// Page is what a Source extracts from Content. An empty Name means the
// content carried no canonical name.
type Page struct {
	Name  string
	Links []string
}

// Source abstracts one link-following content source: how to retrieve a node
// and how to read its name and outgoing links.
type Source interface {
	Fetch(ctx context.Context, id string) (Content, error)
	Parse(c Content) Page
}

// Resolution is the outcome of resolving one node.
type Resolution struct {
	ID    string
	Name  string
	Links []string
}

// Resolver produces the canonical name and outgoing links of a node.
// Implementations must be safe for concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, id string) (Resolution, error)
}

// ResolverFunc adapts an ordinary function to the Resolver interface.
type ResolverFunc func(ctx context.Context, id string) (Resolution, error)

// Resolve implements the Resolver interface.
func (f ResolverFunc) Resolve(ctx context.Context, id string) (Resolution, error) {
	return f(ctx, id)
}

// SourceResolver resolves nodes by fetching and parsing them with a Source.
type SourceResolver struct {
	Source Source
}

// Resolve implements the Resolver interface. Fetch failures are returned as
// *FetchError. A page without a canonical name is named after its id.
func (r *SourceResolver) Resolve(ctx context.Context, id string) (Resolution, error) {
	c, err := r.Source.Fetch(ctx, id)
	if err != nil {
		return Resolution{ID: id}, &FetchError{ID: id, Err: err}
	}

	page := r.Source.Parse(c)
	name := page.Name
	if name == "" {
		name = id
	}
	return Resolution{ID: id, Name: name, Links: page.Links}, nil
}
