// Package output renders run summaries and delivery reports for humans.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/suitepulse/suitepulse/internal/aggregator"
	"github.com/suitepulse/suitepulse/internal/event"
	"github.com/suitepulse/suitepulse/internal/exporter"
)

// Formatter provides clean, human-friendly output
type Formatter struct {
	writer io.Writer

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	blue   *color.Color
	gray   *color.Color
}

// NewFormatter creates a new output formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		blue:   color.New(color.FgBlue),
		gray:   color.New(color.FgHiBlack),
	}
}

// PrintRunSummary prints per-status counts and timing for a finished run.
func (f *Formatter) PrintRunSummary(summary *aggregator.RunSummary) {
	f.blue.Fprintf(f.writer, "\n▸ Run %s\n", summary.RunID)

	total := 0
	for _, count := range summary.Counts {
		total += count
	}

	fmt.Fprintf(f.writer, "  tests:    %d\n", total)
	f.printCount(f.green, "passed", summary.Counts[event.StatusPassed])
	f.printCount(f.red, "failed", summary.Counts[event.StatusFailed])
	f.printCount(f.yellow, "skipped", summary.Counts[event.StatusSkipped])
	f.printCount(f.red, "broken", summary.Counts[event.StatusBroken])
	fmt.Fprintf(f.writer, "  duration: %s\n", formatDuration(time.Duration(summary.TotalDurationMS)*time.Millisecond))
}

// PrintFlushReport prints delivery statistics for the run's samples.
func (f *Formatter) PrintFlushReport(report *exporter.FlushReport) {
	f.blue.Fprintf(f.writer, "\n▸ Delivery\n")
	f.green.Fprintf(f.writer, "  sent:     %d\n", report.SentCount)

	if report.FailedCount > 0 {
		f.red.Fprintf(f.writer, "  failed:   %d\n", report.FailedCount)
	}

	if report.DroppedCount > 0 {
		f.yellow.Fprintf(f.writer, "  dropped:  %d\n", report.DroppedCount)
	}

	f.gray.Fprintf(f.writer, "  attempts: %d\n", report.Attempts)
}

// PrintPayload prints the serialized wire payload (dry-run mode).
func (f *Formatter) PrintPayload(payload []byte) {
	f.blue.Fprintf(f.writer, "\n▸ Payload (dry-run, not sent)\n")
	fmt.Fprintf(f.writer, "%s", payload)
}

func (f *Formatter) printCount(c *color.Color, label string, count int) {
	if count == 0 {
		return
	}

	c.Fprintf(f.writer, "  %-8s  %d\n", label+":", count)
}

// formatDuration formats duration in human-readable format
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}
