// internal/reporting/reporter.go

// Package reporting renders a finished run as a shareable artifact.
package reporting

import (
	"fmt"
	"io"
	"os"
)

// Reporter defines the interface for writing run summaries to an output.
type Reporter interface {
	// Write renders one summary.
	Write(summary *RunSummary) error
	// Close finalizes the report and closes any underlying resources.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method, so
// closing a stdout reporter never closes the process's stdout.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// New creates a reporter for the specified format and output path. An empty
// path, "-" or "stdout" selects standard output.
func New(format, outputPath string) (Reporter, error) {
	var writer io.WriteCloser
	isStdout := outputPath == "" || outputPath == "-" || outputPath == "stdout"
	if isStdout {
		writer = nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("create report file %s: %w", outputPath, err)
		}
		writer = f
	}

	switch format {
	case "text", "":
		return NewTextReporter(writer), nil
	case "json":
		return NewJSONReporter(writer), nil
	default:
		writer.Close()
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}
