package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	BarFull  = "━"
	BarEmpty = "─"
	BarWidth = 20
)

// Bar renders count out of total as a fixed-width bar. An unknown total
// renders an empty bar with the bare count.
func Bar(count, total int) string {
	if total <= 0 {
		return fmt.Sprintf("[%s] %d", strings.Repeat(BarEmpty, BarWidth), count)
	}
	filled := count * BarWidth / total
	if filled > BarWidth {
		filled = BarWidth
	}
	if filled < 0 {
		filled = 0
	}
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat(BarFull, filled),
		strings.Repeat(BarEmpty, BarWidth-filled),
		count, total)
}

// FormatDuration renders d as 42s, 3m07s or 1h05m.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
