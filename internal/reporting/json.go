// internal/reporting/json.go
package reporting

import (
	"fmt"
	"io"

	json "github.com/json-iterator/go"
)

// JSONReporter writes the machine-readable summary envelope.
type JSONReporter struct {
	writer io.WriteCloser
}

// NewJSONReporter creates a reporter writing indented JSON to writer. It
// takes ownership of the writer.
func NewJSONReporter(writer io.WriteCloser) *JSONReporter {
	return &JSONReporter{writer: writer}
}

func (r *JSONReporter) Write(summary *RunSummary) error {
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	out = append(out, '\n')
	if _, err := r.writer.Write(out); err != nil {
		return fmt.Errorf("write json report: %w", err)
	}
	return nil
}

func (r *JSONReporter) Close() error {
	return r.writer.Close()
}
