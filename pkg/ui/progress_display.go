package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"engage/pkg/collector"
	"engage/pkg/orchestrator"
	"engage/pkg/reveal"
)

// ProgressDisplay prints stage progress and the final summary. It
// implements orchestrator.Reporter.
type ProgressDisplay struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
	started time.Time
	stage   string
}

var _ orchestrator.Reporter = (*ProgressDisplay)(nil)

// NewProgressDisplay writes to w. verbose adds tick counts and run IDs.
func NewProgressDisplay(w io.Writer, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{w: w, verbose: verbose}
}

func (p *ProgressDisplay) StageStarted(stage string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stage = stage
	p.started = time.Now()
	fmt.Fprintf(p.w, "%s Collecting %s...\n", Magenta("→"), stage)
}

func (p *ProgressDisplay) StageFinished(rep collector.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := collector.StageName(rep.Category)
	if rep.Skipped {
		fmt.Fprintf(p.w, "%s %s skipped: %s\n", Dim("–"), name, Dim(rep.Reason))
		return
	}

	mark := Green("✓")
	if rep.Result.State == reveal.Aborted {
		mark = Yellow("⚠")
	}
	line := fmt.Sprintf("%s %-9s %s • %s • %s",
		mark, name,
		Bar(rep.Result.Count, rep.Result.Expected),
		rep.Result.Reason,
		FormatDuration(rep.Result.Elapsed),
	)
	if p.verbose {
		line += Dim(fmt.Sprintf(" • %d ticks", rep.Result.Ticks))
	}
	fmt.Fprintln(p.w, line)
}

func (p *ProgressDisplay) Finished(s orchestrator.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, Bold("Summary"))
	rows := [][2]string{
		{"Reactors", fmt.Sprint(s.Stats.Reactors)},
		{"Commenters", fmt.Sprint(s.Stats.Commenters)},
		{"Reposters", fmt.Sprint(s.Stats.Reposters)},
		{"Unique people", fmt.Sprint(s.Total)},
	}
	if s.Filtered != s.Total {
		rows = append(rows, [2]string{"After filter", fmt.Sprint(s.Filtered)})
	}
	exported := fmt.Sprint(s.Exported)
	if s.Truncated {
		exported += " (truncated)"
	}
	rows = append(rows,
		[2]string{"Exported", exported},
		[2]string{"Elapsed", FormatDuration(s.Elapsed)},
	)
	if p.verbose {
		rows = append(rows, [2]string{"Run", s.RunID})
	}
	if s.Leftover > 0 {
		rows = append(rows, [2]string{"Open overlays", fmt.Sprint(s.Leftover)})
	}

	width := 0
	for _, r := range rows {
		if len(r[0]) > width {
			width = len(r[0])
		}
	}
	for _, r := range rows {
		fmt.Fprintf(p.w, "  %s%s  %s\n", Cyan(r[0]), strings.Repeat(" ", width-len(r[0])), r[1])
	}

	d := s.Delivery
	switch {
	case d.Target == "":
		fmt.Fprintf(p.w, "\n%s Nothing was delivered\n", Red("✗"))
	case d.FellBack:
		fmt.Fprintf(p.w, "\n%s Remote export failed (%v), saved %d rows to %s\n", Yellow("⚠"), d.Cause, d.Rows, d.Target)
	default:
		fmt.Fprintf(p.w, "\n%s Delivered %d rows via %s to %s\n", Green("✓"), d.Rows, d.Sink, d.Target)
	}
}
