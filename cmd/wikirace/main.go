// Command wikirace finds a chain of links from one topic to another by
// fetching pages on demand.
//
//	wikirace [flags] START END
//	wikirace links [flags] ID
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/latebit/wikirace/internal/config"
	"github.com/latebit/wikirace/internal/graph"
	"github.com/latebit/wikirace/internal/logging"
	"github.com/latebit/wikirace/internal/race"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if len(os.Args) > 1 && os.Args[1] == "links" {
		err = linksMain(ctx, os.Args[2:], os.Stdout)
	} else {
		err = solveMain(ctx, os.Args[1:], os.Stdout)
	}
	if err != nil {
		stop()
		log.Fatal(err)
	}
}

func solveMain(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("wikirace", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	quiet := fs.Bool("q", false, "print only the final path")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: wikirace [flags] START END\n")
		fmt.Fprintf(os.Stderr, "       wikirace links [flags] ID\n\n")
		fmt.Fprintf(os.Stderr, "Quote topics with spaces: wikirace \"Fine art\" Fruit\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(2)
	}

	runner, err := open(flags)
	if err != nil {
		return err
	}
	defer runner.Close()

	var onRound func(graph.RoundStats)
	if !*quiet {
		onRound = func(s graph.RoundStats) {
			fmt.Fprintln(stdout, progressLine(s))
		}
	}

	res, err := runner.Solve(ctx, fs.Arg(0), fs.Arg(1), onRound)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, res)
	return nil
}

func linksMain(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("links", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: wikirace links [flags] ID\n\n")
		fmt.Fprintf(os.Stderr, "Fetch one page and print its canonical name and outgoing links.\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	runner, err := open(flags)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := runner.Links(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	writeLinks(stdout, res)
	return nil
}

func open(flags *config.Flags) (*race.Runner, error) {
	cfg, err := flags.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	return race.Open(cfg, logger)
}

func progressLine(s graph.RoundStats) string {
	line := fmt.Sprintf("Searching... (round %d, %d candidates, %d seen)", s.Round, s.Frontier, s.Visited)
	if s.Failed > 0 {
		line += fmt.Sprintf(" [%d failed]", s.Failed)
	}
	return line
}

func writeLinks(w io.Writer, res graph.Resolution) {
	fmt.Fprintf(w, "%s (%s): %d links\n", res.Name, res.ID, len(res.Links))
	for _, l := range res.Links {
		fmt.Fprintf(w, "  %s\n", l)
	}
}
