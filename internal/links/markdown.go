// Package links pulls outgoing links and page names out of fetched documents:
// MediaWiki HTML for the wiki source and markdown for the Mark source.
package links

import (
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markdown parses body once and returns the text of its first level-1
// heading ("" if there is none) and every non-fragment link destination in
// document order.
func Markdown(body []byte) (title string, dests []string) {
	doc := goldmark.DefaultParser().Parse(text.NewReader(body))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			if n.Level == 1 && title == "" {
				title = string(n.Text(body))
			}
		case *ast.Link:
			dest := string(n.Destination)
			if dest != "" && !strings.HasPrefix(dest, "#") {
				dests = append(dests, dest)
			}
		}
		return ast.WalkContinue, nil
	})
	return title, dests
}

// Resolve resolves a possibly-relative link dest against baseURL.
func Resolve(baseURL, dest string) string {
	if strings.Contains(dest, "://") {
		return dest
	}
	base, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		return dest
	}
	ref, err := url.Parse(dest)
	if err != nil {
		return dest
	}
	return base.ResolveReference(ref).String()
}
