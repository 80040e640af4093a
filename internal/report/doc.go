// Package report renders the outcome of an annotation run.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for CI and tool integration
//   - MarkdownWriter: Markdown output for job summaries and pull requests
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed with MultiWriter.
package report
