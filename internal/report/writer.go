package report

import (
	"io"

	"github.com/nao1215/extlink/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RunReport) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// Our Writer writes reports, not raw bytes, so io.MultiWriter does not fit.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// runStatus describes how a run ended.
func runStatus(report *model.RunReport) string {
	switch {
	case report.Cancelled:
		return "Cancelled (partial results)"
	case report.HasFailures():
		return "Completed with errors"
	default:
		return "Complete"
	}
}

// pageState describes what happened to a single page.
func pageState(p *model.PageResult, dryRun bool) string {
	switch {
	case p.Failed():
		return "failed"
	case p.Skipped != "":
		return "skipped"
	case p.Written:
		return "annotated"
	case p.Changed() && dryRun:
		return "would annotate"
	default:
		return "unchanged"
	}
}
