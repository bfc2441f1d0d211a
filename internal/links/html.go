package links

import (
	"bytes"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// MediaWiki embeds the canonical title of every page in its JS config block.
var pageNamePattern = regexp.MustCompile(`"wgPageName":"((?:[^"\\]|\\.)*)"`)

// PageName returns the canonical page name embedded in a MediaWiki page, or
// "" if the marker is missing.
func PageName(body []byte) string {
	m := pageNamePattern.FindSubmatch(body)
	if m == nil {
		return ""
	}
	var name string
	if err := json.Unmarshal([]byte(`"`+string(m[1])+`"`), &name); err != nil {
		return string(m[1])
	}
	return name
}

// Anchors returns the href of every <a> element in an HTML document, in
// document order. Entities in attribute values are decoded.
func Anchors(body []byte) []string {
	z := html.NewTokenizer(bytes.NewReader(body))

	var hrefs []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			return hrefs
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					hrefs = append(hrefs, string(val))
					break
				}
				if !more {
					break
				}
			}
		}
	}
}

// ContentLinks keeps the hrefs that point at content pages: those starting
// with prefix (e.g. "/wiki/") and not containing a namespace separator ":".
// The prefix, query and fragment are stripped and the rest is percent-decoded.
// The result has no duplicates and keeps first-seen order.
func ContentLinks(hrefs []string, prefix string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, href := range hrefs {
		if !strings.HasPrefix(href, prefix) || strings.Contains(href, ":") {
			continue
		}
		id := strings.TrimPrefix(href, prefix)
		id, _, _ = strings.Cut(id, "#")
		id, _, _ = strings.Cut(id, "?")
		if decoded, err := url.PathUnescape(id); err == nil {
			id = decoded
		}
		if id == "" || strings.Contains(id, ":") || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
