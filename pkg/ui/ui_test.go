package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engage/pkg/collector"
	errs "engage/pkg/errors"
	"engage/pkg/export"
	"engage/pkg/identity"
	"engage/pkg/orchestrator"
	"engage/pkg/reveal"
)

func init() {
	NoColor = true
}

func TestBar(t *testing.T) {
	assert.Equal(t, "[━━━━━━━━━━──────────] 50/100", Bar(50, 100))
	assert.Equal(t, "[━━━━━━━━━━━━━━━━━━━━] 120/100", Bar(120, 100))
	assert.Equal(t, "[────────────────────] 7", Bar(7, 0))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "3m07s", FormatDuration(3*time.Minute+7*time.Second))
	assert.Equal(t, "1h05m", FormatDuration(65*time.Minute))
}

func TestPrintHelpers(t *testing.T) {
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	defer func() { Out = prev }()

	PrintError("Export failed", errors.New("disk full"))
	PrintInfo("Post", "https://www.linkedin.com/feed/update/urn:li:activity:1/")
	PrintWarning("Slow page")

	assert.Equal(t, "Export failed: disk full\nPost: https://www.linkedin.com/feed/update/urn:li:activity:1/\nSlow page\n", buf.String())
}

func TestProgressDisplayStages(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, true)

	p.StageStarted("reactions")
	p.StageFinished(collector.Report{
		Category: identity.Reactor,
		Result: reveal.Result{
			State:    reveal.Settled,
			Reason:   reveal.ReasonExpected,
			Ticks:    4,
			Count:    30,
			Expected: 30,
			Elapsed:  12 * time.Second,
		},
	})
	p.StageFinished(collector.Report{Category: identity.Reposter, Skipped: true, Reason: "not offered on this page"})

	out := buf.String()
	assert.Contains(t, out, "→ Collecting reactions...")
	assert.Contains(t, out, "✓ reactions")
	assert.Contains(t, out, "30/30 • expected total reached • 12s • 4 ticks")
	assert.Contains(t, out, "– reposts skipped: not offered on this page")
}

func TestProgressDisplaySummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, false)

	p.Finished(orchestrator.Summary{
		RunID:     "run-1",
		Stats:     identity.Stats{Reactors: 2000, Commenters: 40, Reposters: 3},
		Total:     2010,
		Filtered:  2010,
		Exported:  2000,
		Truncated: true,
		Elapsed:   95 * time.Second,
		Delivery:  export.Delivery{Sink: "webhook", Target: "https://hooks.example.com/in", Rows: 2000},
	})

	out := buf.String()
	assert.Contains(t, out, "Reactors       2000")
	assert.Contains(t, out, "Unique people  2010")
	assert.Contains(t, out, "Exported       2000 (truncated)")
	assert.Contains(t, out, "Elapsed        1m35s")
	assert.NotContains(t, out, "After filter")
	assert.NotContains(t, out, "run-1")
	assert.Contains(t, out, "✓ Delivered 2000 rows via webhook to https://hooks.example.com/in")
}

func TestProgressDisplayFallback(t *testing.T) {
	var buf bytes.Buffer
	NewProgressDisplay(&buf, false).Finished(orchestrator.Summary{
		Total:    3,
		Filtered: 1,
		Exported: 1,
		Delivery: export.Delivery{
			Sink:     "local",
			Target:   "/tmp/contacts_export.csv",
			Rows:     1,
			FellBack: true,
			Cause:    errs.New(errs.ErrorTypeServerError, "webhook returned 500"),
		},
	})

	out := buf.String()
	assert.Contains(t, out, "After filter   1")
	assert.Contains(t, out, "⚠ Remote export failed (server_error error: webhook returned 500), saved 1 rows to /tmp/contacts_export.csv")
}

type recordingSender struct{ titles []string }

func (r *recordingSender) Send(title, _ string) error {
	r.titles = append(r.titles, title)
	return errors.New("no display")
}

func TestNotifier(t *testing.T) {
	var buf bytes.Buffer
	s := &recordingSender{}
	n := NewNotifierWithSender(&buf, s)

	n.SendSuccess("engage", "Collected 31 people")
	n.SendError("engage", "Export failed")

	require.Equal(t, []string{"engage", "engage"}, s.titles)
	assert.Equal(t, "\nengage: Collected 31 people\n\nengage: Export failed\n", buf.String())

	buf.Reset()
	NewNotifier(&buf, false).SendSuccess("engage", "done")
	assert.Equal(t, "\nengage: done\n", buf.String())
}
