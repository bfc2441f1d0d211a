// Command wikirace-tui is a terminal front end for link races: type a start
// and an end topic, watch the rounds go by, and read the path when it is
// found.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/latebit/wikirace/internal/config"
	"github.com/latebit/wikirace/internal/graph"
	"github.com/latebit/wikirace/internal/logging"
	"github.com/latebit/wikirace/internal/race"
)

type focus int

const (
	focusStart focus = iota
	focusEnd
	focusViewport
)

type solver interface {
	Solve(ctx context.Context, start, end string, onRound func(graph.RoundStats)) (*graph.Result, error)
}

type model struct {
	startInput textinput.Model
	endInput   textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	focus      focus

	runner solver
	cancel context.CancelFunc
	seq    uint64

	solving bool
	rounds  []graph.RoundStats
	result  *graph.Result
	err     error

	width     int
	height    int
	ready     bool
	autostart bool
}

// roundMsg carries one round's stats; next yields the search's following message.
type roundMsg struct {
	seq   uint64
	stats graph.RoundStats
	next  <-chan tea.Msg
}

// solveDone is sent when a search ends.
type solveDone struct {
	seq    uint64
	result *graph.Result
	err    error
}

func initialModel(start, end string, runner solver) model {
	si := textinput.New()
	si.Placeholder = "start topic"
	si.Prompt = "From: "
	si.SetValue(start)
	si.Focus()

	ei := textinput.New()
	ei.Placeholder = "end topic"
	ei.Prompt = "To: "
	ei.SetValue(end)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return model{
		startInput: si,
		endInput:   ei,
		spinner:    sp,
		focus:      focusStart,
		runner:     runner,
		autostart:  start != "" && end != "",
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2 // inputs + divider
		footerHeight := 1 // status bar
		viewportHeight := max(1, m.height-headerHeight-footerHeight)

		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.startInput.Width = m.width/2 - len(m.startInput.Prompt) - 2
		m.endInput.Width = m.width/2 - len(m.endInput.Prompt) - 2
		m.refreshContent()
		if m.autostart {
			m.autostart = false
			return m.submit()
		}
		return m, nil

	case tea.MouseMsg:
		if m.ready {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case spinner.TickMsg:
		if !m.solving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case roundMsg:
		if msg.seq != m.seq {
			// Stale search; keep draining it.
			return m, waitFor(msg.next)
		}
		m.rounds = append(m.rounds, msg.stats)
		m.refreshContent()
		m.viewport.GotoBottom()
		return m, waitFor(msg.next)

	case solveDone:
		if msg.seq != m.seq {
			return m, nil
		}
		m.solving = false
		m.cancel = nil
		m.result = msg.result
		m.err = msg.err
		m.refreshContent()
		m.viewport.GotoTop()
		return m, nil
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.stop()
		return m, tea.Quit
	case tea.KeyTab:
		return m.nextFocus(), textinput.Blink
	case tea.KeyEscape:
		if m.solving {
			m.stop()
			m.seq++
			m.solving = false
			m.err = context.Canceled
			m.refreshContent()
		}
		return m, nil
	}

	switch m.focus {
	case focusStart, focusEnd:
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
		var cmd tea.Cmd
		if m.focus == focusStart {
			m.startInput, cmd = m.startInput.Update(msg)
		} else {
			m.endInput, cmd = m.endInput.Update(msg)
		}
		return m, cmd
	}

	// Viewport focused.
	if msg.String() == "q" {
		m.stop()
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// submit starts a search once both topics are filled in, otherwise moves
// focus to the empty one.
func (m model) submit() (tea.Model, tea.Cmd) {
	start := strings.TrimSpace(m.startInput.Value())
	end := strings.TrimSpace(m.endInput.Value())
	switch {
	case start == "":
		return m.focusOn(focusStart), textinput.Blink
	case end == "":
		return m.focusOn(focusEnd), textinput.Blink
	}

	m.stop()
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.seq++
	m.solving = true
	m.rounds = nil
	m.result = nil
	m.err = nil
	m = m.focusOn(focusViewport)
	m.refreshContent()

	return m, tea.Batch(m.spinner.Tick, startSolve(ctx, m.runner, m.seq, start, end))
}

func (m *model) stop() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m model) focusOn(f focus) model {
	m.focus = f
	m.startInput.Blur()
	m.endInput.Blur()
	switch f {
	case focusStart:
		m.startInput.Focus()
	case focusEnd:
		m.endInput.Focus()
	}
	return m
}

func (m model) nextFocus() model {
	return m.focusOn((m.focus + 1) % 3)
}

// refreshContent re-renders the viewport from the current search state.
func (m *model) refreshContent() {
	if !m.ready {
		return
	}
	switch {
	case m.result != nil:
		body := pathMarkdown(m.result) + "\n" + roundsMarkdown(m.rounds)
		rendered, err := renderMarkdown(body, m.width)
		if err != nil {
			rendered = body
		}
		m.viewport.SetContent(rendered)
	case m.err != nil:
		m.viewport.SetContent(errorView(m.err) + "\n" + roundLog(m.rounds))
	default:
		m.viewport.SetContent(roundLog(m.rounds))
	}
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder

	inputStyle := lipgloss.NewStyle().Padding(0, 1).Width(m.width / 2)
	startStyle, endStyle := inputStyle, inputStyle
	switch m.focus {
	case focusStart:
		startStyle = startStyle.Bold(true)
	case focusEnd:
		endStyle = endStyle.Bold(true)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		startStyle.Render(m.startInput.View()),
		endStyle.Render(m.endInput.View()),
	))
	b.WriteByte('\n')

	b.WriteString(strings.Repeat("─", m.width))
	b.WriteByte('\n')

	b.WriteString(m.viewport.View())
	b.WriteByte('\n')

	b.WriteString(m.statusBarView())
	return b.String()
}

func (m model) statusBarView() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1)

	last := graph.RoundStats{}
	if n := len(m.rounds); n > 0 {
		last = m.rounds[n-1]
	}

	switch {
	case m.solving:
		return style.Render(fmt.Sprintf("%s Searching... round %d, %d pages seen  (esc to stop)",
			m.spinner.View(), last.Round+1, last.Visited))
	case m.err != nil:
		return style.Foreground(lipgloss.Color("9")).Render("Error: " + m.err.Error())
	case m.result != nil:
		return style.Foreground(lipgloss.Color("10")).Render(fmt.Sprintf("Found in %d hops after %d rounds, %d pages seen  %d%%",
			len(m.result.Path)-1, m.result.Rounds, m.result.Visited, int(m.viewport.ScrollPercent()*100)))
	}
	return style.Faint(true).Render("Enter a start and an end topic and press Enter (tab switches fields)")
}

// startSolve runs the search in the background and returns a command that
// yields its first message.
func startSolve(ctx context.Context, r solver, seq uint64, start, end string) tea.Cmd {
	ch := make(chan tea.Msg, 1)
	go func() {
		defer close(ch)
		res, err := r.Solve(ctx, start, end, func(s graph.RoundStats) {
			ch <- roundMsg{seq: seq, stats: s, next: ch}
		})
		ch <- solveDone{seq: seq, result: res, err: err}
	}()
	return waitFor(ch)
}

func waitFor(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func errorView(err error) string {
	return fmt.Sprintf("\n  Error: %s\n", err.Error())
}

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: wikirace-tui [flags] [START [END]]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := flags.Load()
	if err != nil {
		log.Fatal(err)
	}
	// The terminal is owned by the UI, so only errors are logged.
	logger := logging.New(cfg.LogFormat, "error", os.Stderr)

	runner, err := race.Open(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer runner.Close()

	start, end := flag.Arg(0), flag.Arg(1)

	p := tea.NewProgram(
		initialModel(start, end, runner),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
