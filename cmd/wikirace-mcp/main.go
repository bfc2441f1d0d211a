// Command wikirace-mcp is an MCP server that lets LLM agents run link races
// and inspect a page's links over stdio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/latebit/wikirace/internal/config"
	"github.com/latebit/wikirace/internal/graph"
	"github.com/latebit/wikirace/internal/logging"
	"github.com/latebit/wikirace/internal/race"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := flags.Load()
	if err != nil {
		log.Fatal(err)
	}
	// stdout carries the protocol, so logs go to stderr.
	logger := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	runner, err := race.Open(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer runner.Close()

	s := server.NewMCPServer("wikirace-mcp", "0.1.0")

	h := &handler{
		runner:    runner,
		source:    cfg.Source,
		withLimit: func(limit int) racer { return runner.WithLimit(limit) },
	}
	s.AddTool(raceSolveTool(cfg.Source), h.raceSolve)
	s.AddTool(raceLinksTool(cfg.Source), h.raceLinks)

	if err := server.ServeStdio(s); err != nil {
		log.Fatal(err)
	}
}

type racer interface {
	Solve(ctx context.Context, start, end string, onRound func(graph.RoundStats)) (*graph.Result, error)
	Links(ctx context.Context, id string) (graph.Resolution, error)
}

type handler struct {
	runner racer
	source string

	// withLimit returns a racer with a different narrowing limit.
	// Nil means limits cannot be changed.
	withLimit func(limit int) racer
}

// maxLimit caps the per-round frontier an agent may request.
const maxLimit = 200

// Tool definitions.

func topicHint(source string) string {
	if source == config.SourceMark {
		return "Topics are document paths without the .md extension, e.g. Fine_art."
	}
	return "Topics are article titles; spaces may be written as spaces or underscores, e.g. Fine art."
}

func raceSolveTool(source string) mcp.Tool {
	return mcp.NewTool("race_solve",
		mcp.WithDescription(
			"Find a chain of links from a start topic to an end topic by following "+
				"page links breadth-first. The path is short but not guaranteed to be the shortest. "+
				topicHint(source),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("topic to start from"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("topic to reach (matched case-insensitively)"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("candidates kept per round (default %d, max %d)", graph.DefaultLimit, maxLimit)),
		),
	)
}

func raceLinksTool(source string) mcp.Tool {
	return mcp.NewTool("race_links",
		mcp.WithDescription(
			"Fetch one page and return its canonical name and the topics it links to. "+
				topicHint(source),
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("topic to inspect"),
		),
	)
}

// Tool handlers.
// Handler signatures are dictated by mcp-go's ToolHandlerFunc type.

func (h *handler) raceSolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	start, err := req.RequireString("start")
	if err != nil {
		return mcp.NewToolResultError("start is required"), nil
	}
	end, err := req.RequireString("end")
	if err != nil {
		return mcp.NewToolResultError("end is required"), nil
	}

	r := h.runner
	if limit := req.GetInt("limit", 0); limit != 0 {
		if h.withLimit == nil {
			return mcp.NewToolResultError("limit cannot be changed on this server"), nil
		}
		r = h.withLimit(max(1, min(limit, maxLimit)))
	}

	var rounds []graph.RoundStats
	res, err := r.Solve(ctx, start, end, func(s graph.RoundStats) {
		rounds = append(rounds, s)
	})
	switch {
	case errors.Is(err, graph.ErrUnreachable):
		return mcp.NewToolResultError(fmt.Sprintf("no path found after %d rounds: %v", len(rounds), err)), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatResult(res, rounds)), nil
}

func (h *handler) raceLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	res, err := h.runner.Links(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetch failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatLinks(res)), nil
}

// formatResult renders a search result as plain text for LLM consumption.
func formatResult(res *graph.Result, rounds []graph.RoundStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", res)
	fmt.Fprintf(&b, "Hops: %d, rounds: %d, pages seen: %d\n", len(res.Path)-1, res.Rounds, res.Visited)

	if len(res.Path) > 0 {
		b.WriteString("\nPath ids:\n")
		for i, id := range res.Path {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, id)
		}
	}

	if len(rounds) > 0 {
		b.WriteString("\nRounds:\n")
		for _, s := range rounds {
			fmt.Fprintf(&b, "  %d: resolved %d/%d, discovered %d\n", s.Round, s.Resolved, s.Frontier, s.Discovered)
		}
	}
	return b.String()
}

func formatLinks(res graph.Resolution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) links to %d topics\n", res.Name, res.ID, len(res.Links))
	for _, l := range res.Links {
		fmt.Fprintf(&b, "  %s\n", l)
	}
	return b.String()
}
