// Package graph implements the frontier-expansion search that finds a chain
// of links between two pages of a graph whose edges are only known after a
// page has been fetched and parsed.
package graph

import "strings"

// Record holds what the search knows about one discovered node.
type Record struct {
	Name   string // canonical display name, "" until the node itself is resolved
	Parent string // node whose links first contained this one, "" for the start node
}

// Normalize turns a free-form topic into a node identifier: surrounding
// whitespace is dropped and every inner run of whitespace becomes "_".
func Normalize(topic string) string {
	return strings.Join(strings.Fields(topic), "_")
}

// session is the traversal state owned by a single Solve call. It is only
// touched by the goroutine coordinating the rounds.
type session struct {
	start   string
	target  string
	visited map[string]struct{}
	records map[string]*Record
	found   bool
}

func newSession(start, target string) *session {
	return &session{
		start:   start,
		target:  target,
		visited: map[string]struct{}{start: {}},
		records: map[string]*Record{start: {}},
	}
}

func (s *session) record(id string) *Record {
	r, ok := s.records[id]
	if !ok {
		r = &Record{}
		s.records[id] = r
	}
	return r
}

// discover marks id as seen from parent. It reports false if id was already
// visited, in which case nothing changes.
func (s *session) discover(id, parent string) bool {
	if _, seen := s.visited[id]; seen {
		return false
	}
	s.visited[id] = struct{}{}
	s.record(id).Parent = parent
	return true
}

// merge applies one successful resolution. It returns the newly discovered
// ids that should be considered for the next frontier. When the target shows
// up among the links, the session is marked found and merging stops.
func (s *session) merge(res Resolution) []string {
	if res.Name != "" {
		s.record(res.ID).Name = res.Name
	}

	var fresh []string
	for _, link := range res.Links {
		if !s.discover(link, res.ID) {
			continue
		}
		if strings.EqualFold(link, s.target) {
			s.target = link
			s.found = true
			return fresh
		}
		fresh = append(fresh, link)
	}
	return fresh
}

// snapshot copies the records so callers can't mutate session state.
func (s *session) snapshot() map[string]Record {
	out := make(map[string]Record, len(s.records))
	for id, r := range s.records {
		out[id] = *r
	}
	return out
}
