package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/extlink/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose lists every page, including unchanged ones, and the
	// annotated links of each changed page.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writePages(&sb, report)
	w.writeHosts(&sb, report)
	w.writeFailures(&sb, report)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("EXTLINK REPORT")
	if report.DryRun {
		sb.WriteString(" (dry run)")
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Roots:    %s\n", strings.Join(report.Roots, ", "))
	fmt.Fprintf(sb, "Started:  %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration: %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(sb, "Status:   %s\n\n", runStatus(report))
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.RunReport) {
	s := report.Summary()

	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  Files:            %d\n", s.Files)
	fmt.Fprintf(sb, "  Files changed:    %d\n", s.FilesChanged)
	fmt.Fprintf(sb, "  Files skipped:    %d\n", s.FilesSkipped)
	fmt.Fprintf(sb, "  Files failed:     %d\n", s.FilesFailed)
	fmt.Fprintf(sb, "  Links:            %d\n", s.Links)
	fmt.Fprintf(sb, "  External links:   %d\n", s.Matched)
	fmt.Fprintf(sb, "  Links modified:   %d\n\n", s.Modified)
}

func (w *SimpleWriter) writePages(sb *strings.Builder, report *model.RunReport) {
	pages := report.ChangedPages()
	if w.verbose {
		pages = report.Pages
	}
	if len(pages) == 0 {
		return
	}

	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	for _, p := range pages {
		if p == nil {
			continue
		}
		fmt.Fprintf(sb, "  [%s] %s (%d/%d external)\n", pageState(p, report.DryRun), p.Path, p.Matched, p.Links)
		if w.verbose {
			if p.Skipped != "" {
				fmt.Fprintf(sb, "      reason: %s\n", p.Skipped)
			}
			for _, href := range p.Annotated {
				fmt.Fprintf(sb, "      -> %s\n", href)
			}
		}
	}
	sb.WriteString("\n")
}

// writeHosts lists link counts per host in verbose mode.
func (w *SimpleWriter) writeHosts(sb *strings.Builder, report *model.RunReport) {
	if !w.verbose {
		return
	}
	hosts := report.Hosts()
	if len(hosts) == 0 {
		return
	}

	sb.WriteString("EXTERNAL HOSTS\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	for _, h := range hosts {
		fmt.Fprintf(sb, "  %4d  %s\n", h.Links, h.Host)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.RunReport) {
	failed := report.FailedPages()
	if len(failed) == 0 {
		return
	}

	sb.WriteString("ERRORS\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	for _, p := range failed {
		fmt.Fprintf(sb, "  %s: %s\n", p.Path, p.ErrorMessage)
	}
	sb.WriteString("\n")
}
