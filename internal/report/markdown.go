package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/extlink/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format, suitable for CI job
// summaries and pull request comments.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writePages(md, report)
	w.writeHosts(md, report)
	w.writeFailures(md, report)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("External Link Report")
	md.PlainText("")

	mode := "write"
	if report.DryRun {
		mode = "dry run"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration.Round(time.Millisecond).String()},
			{"Mode", mode},
			{"Status", runStatus(report)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.RunReport) {
	s := report.Summary()

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Files", strconv.Itoa(s.Files)},
			{"Files changed", strconv.Itoa(s.FilesChanged)},
			{"Files skipped", strconv.Itoa(s.FilesSkipped)},
			{"Files failed", strconv.Itoa(s.FilesFailed)},
			{"Links", strconv.Itoa(s.Links)},
			{"External links", strconv.Itoa(s.Matched)},
			{"**Links modified**", "**" + strconv.Itoa(s.Modified) + "**"},
		},
	})
	md.PlainText("")

	if s.Links > 0 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, report, s)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Link Distribution"),
		piechart.WithShowData(true),
	)
	if s.Matched > 0 {
		chart.LabelAndIntValue("External", uint64(s.Matched))
	}
	if internal := s.Links - s.Matched; internal > 0 {
		chart.LabelAndIntValue("Other", uint64(internal))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.RunReport, s model.Summary) {
	switch {
	case s.FilesFailed > 0:
		md.Cautionf("%d file(s) could not be processed.", s.FilesFailed)
	case report.Cancelled:
		md.Warningf("The run was cancelled after %d of %d file(s).", s.Files-s.FilesSkipped, s.Files)
	case s.Modified > 0 && report.DryRun:
		md.Importantf("%d link(s) in %d file(s) would be annotated.", s.Modified, s.FilesChanged)
	case s.Modified > 0:
		md.Note(fmt.Sprintf("%d link(s) in %d file(s) were annotated.", s.Modified, s.FilesChanged))
	default:
		md.Tip("All external links are already annotated.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePages(md *markdown.Markdown, report *model.RunReport) {
	pages := report.ChangedPages()
	if len(pages) == 0 {
		return
	}

	md.H2("Changed Pages")
	md.PlainText("")

	rows := make([][]string, 0, len(pages))
	for _, p := range pages {
		rows = append(rows, []string{
			"`" + p.Path + "`",
			truncateString(p.Title, 40),
			strconv.Itoa(p.Matched),
			strconv.Itoa(p.Modified),
			pageState(p, report.DryRun),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Path", "Title", "External", "Modified", "State"},
		Rows:   rows,
	})
	md.PlainText("")
}

// maxHosts limits the host table to the most linked hosts.
const maxHosts = 10

func (w *MarkdownWriter) writeHosts(md *markdown.Markdown, report *model.RunReport) {
	hosts := report.Hosts()
	if len(hosts) == 0 {
		return
	}

	md.H2("External Hosts")
	md.PlainText("")

	rows := make([][]string, 0, min(len(hosts), maxHosts))
	for _, h := range hosts[:min(len(hosts), maxHosts)] {
		rows = append(rows, []string{h.Host, strconv.Itoa(h.Links)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Host", "Links"},
		Rows:   rows,
	})
	if len(hosts) > maxHosts {
		md.PlainTextf("...and %d more host(s).", len(hosts)-maxHosts)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.RunReport) {
	failed := report.FailedPages()
	if len(failed) == 0 {
		return
	}

	md.H2("Errors")
	md.PlainText("")
	items := make([]string, 0, len(failed))
	for _, p := range failed {
		items = append(items, "`"+p.Path+"`: "+p.ErrorMessage)
	}
	md.BulletList(items...)
	md.PlainText("")
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
