package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/latebit/wikirace/internal/graph"
)

// pathMarkdown renders a found path as a numbered markdown list. Ids are
// shown next to display names when they differ.
func pathMarkdown(res *graph.Result) string {
	var b strings.Builder
	first, last := res.Start, res.Target
	if len(res.Names) > 0 {
		first, last = res.Names[0], res.Names[len(res.Names)-1]
	}
	fmt.Fprintf(&b, "# %s → %s\n\n", first, last)

	for i, id := range res.Path {
		name := id
		if i < len(res.Names) {
			name = res.Names[i]
		}
		if name != id {
			fmt.Fprintf(&b, "%d. **%s** (`%s`)\n", i+1, name, id)
		} else {
			fmt.Fprintf(&b, "%d. **%s**\n", i+1, name)
		}
	}
	return b.String()
}

// roundsMarkdown renders per-round stats as a markdown table.
func roundsMarkdown(rounds []graph.RoundStats) string {
	if len(rounds) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Rounds\n\n")
	b.WriteString("| Round | Fetched | Failed | New | Seen |\n")
	b.WriteString("|---:|---:|---:|---:|---:|\n")
	for _, s := range rounds {
		fmt.Fprintf(&b, "| %d | %d | %d | %d | %d |\n", s.Round, s.Resolved, s.Failed, s.Discovered, s.Visited)
	}
	return b.String()
}

// roundLog is the plain-text progress shown while a search runs.
func roundLog(rounds []graph.RoundStats) string {
	var b strings.Builder
	for _, s := range rounds {
		b.WriteString(roundLine(s))
		b.WriteByte('\n')
	}
	return b.String()
}

func roundLine(s graph.RoundStats) string {
	line := fmt.Sprintf("  round %d: fetched %d/%d pages, %d new, %d seen", s.Round, s.Resolved, s.Frontier, s.Discovered, s.Visited)
	if s.Failed > 0 {
		line += fmt.Sprintf(", %d failed", s.Failed)
	}
	if s.Found {
		line += ", target found"
	}
	return line
}

func renderMarkdown(body string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return "", err
	}
	return r.Render(body)
}
