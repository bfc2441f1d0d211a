package graph

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Narrow ranks candidates by how closely they resemble target and returns at
// most limit of them, best first. Similarity is the Ratcliff/Obershelp ratio
// of matching character blocks, so "Fruit_salad" beats "Apple" for target
// "Fruit". There is no minimum score. A limit <= 0 keeps every candidate.
//
// This is a heuristic: the link that actually leads to the target can score
// low and be dropped.
func Narrow(candidates []string, target string, limit int) []string {
	type scored struct {
		id    string
		score float64
	}

	m := difflib.NewMatcher(nil, chars(target))
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		m.SetSeq1(chars(c))
		ranked = append(ranked, scored{id: c, score: m.Ratio()})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id < ranked[j].id
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.id
	}
	return out
}

// chars splits s into its characters, the unit the matcher compares.
func chars(s string) []string {
	return strings.Split(s, "")
}
