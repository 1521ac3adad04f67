// internal/reporting/text.go
package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"
)

var bannerRule = strings.Repeat("=", 50)

// TextReporter renders the run-end banner.
type TextReporter struct {
	writer io.WriteCloser
}

// NewTextReporter creates a reporter writing the banner to writer. It takes
// ownership of the writer.
func NewTextReporter(writer io.WriteCloser) *TextReporter {
	return &TextReporter{writer: writer}
}

func (r *TextReporter) Write(summary *RunSummary) error {
	var b strings.Builder
	b.WriteString(bannerRule + "\n")
	b.WriteString("Automation Complete\n")
	b.WriteString(bannerRule + "\n")
	fmt.Fprintf(&b, "Run: %s\n", summary.RunID)
	fmt.Fprintf(&b, "Total duration: %s\n", summary.Duration().Truncate(time.Second))
	fmt.Fprintf(&b, "Total: %d | Successful: %d | Failed: %d | Skipped: %d",
		summary.Totals.Total, summary.Totals.Successful, summary.Totals.Failed, summary.Totals.Skipped)
	if summary.Totals.Remaining > 0 {
		fmt.Fprintf(&b, " | Remaining: %d", summary.Totals.Remaining)
	}
	b.WriteString("\n")
	if summary.Rates.SuccessPercent != nil {
		fmt.Fprintf(&b, "Success rate: %.1f%%\n", *summary.Rates.SuccessPercent)
	}
	if summary.Rates.TicketsPerMinute != nil {
		fmt.Fprintf(&b, "Speed: %.1f tickets/minute\n", *summary.Rates.TicketsPerMinute)
	}
	b.WriteString(bannerRule + "\n")

	if _, err := io.WriteString(r.writer, b.String()); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}
	return nil
}

func (r *TextReporter) Close() error {
	return r.writer.Close()
}
