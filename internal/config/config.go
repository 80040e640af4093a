package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/gobwas/glob"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "extlink"

	// DefaultPath is the directory MkDocs and most static site generators
	// build into.
	DefaultPath = "site"

	// DefaultMaxFileSize is the largest HTML file that will be read. Larger
	// files are reported as failures instead of being loaded into memory.
	DefaultMaxFileSize int64 = 10 * 1024 * 1024 // 10MB

	// DefaultDebounce is how long watch mode waits after the last change
	// before re-running. Site generators write many files in a burst.
	DefaultDebounce = 300 * time.Millisecond
)

// DefaultExtensions returns the file extensions processed by default.
func DefaultExtensions() []string {
	return []string{".html", ".htm"}
}

// DefaultConcurrency returns the default number of files processed at once.
func DefaultConcurrency() int {
	return runtime.NumCPU()
}

// Config holds all options for one run. It is populated from defaults, the
// configuration file and CLI flags, in that order.
type Config struct {
	// Paths are the site directories or individual HTML files to process.
	Paths []string

	// Extensions are the file extensions, including the dot, treated as HTML
	// when walking a directory. Comparison is case-insensitive.
	Extensions []string

	// Exclude are glob patterns (gobwas/glob syntax, '/' separator) matched
	// against slash paths relative to each root. Matching files are skipped.
	Exclude []string

	// Concurrency is the number of files processed at the same time.
	Concurrency int

	// MaxFileSize is the largest file, in bytes, that will be read.
	MaxFileSize int64

	// DryRun analyzes files and reports what would change without writing.
	DryRun bool

	// Verbose enables debug logging, including the per-link trace.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// JSONReport outputs the run report as JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport outputs the run report as GitHub Flavored Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// Debounce is the quiet period watch mode waits for before re-running.
	Debounce time.Duration
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Extensions:  DefaultExtensions(),
		Concurrency: DefaultConcurrency(),
		MaxFileSize: DefaultMaxFileSize,
		Debounce:    DefaultDebounce,
	}
}

// XDGConfigDir returns the XDG config directory for extlink.
// On Linux: ~/.config/extlink
// On macOS: ~/Library/Application Support/extlink
// On Windows: %APPDATA%\extlink
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyFile copies the non-zero settings of f onto c.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if len(f.Extensions) > 0 {
		c.Extensions = append([]string(nil), f.Extensions...)
	}
	if len(f.Exclude) > 0 {
		c.Exclude = append([]string(nil), f.Exclude...)
	}
	if f.Concurrency != 0 {
		c.Concurrency = f.Concurrency
	}
	if f.MaxFileSize != 0 {
		c.MaxFileSize = f.MaxFileSize
	}
	if f.Debounce != 0 {
		c.Debounce = f.Debounce
	}
}

// NormalizedExtensions returns the extensions lowercased.
func (c *Config) NormalizedExtensions() []string {
	out := make([]string, 0, len(c.Extensions))
	for _, ext := range c.Extensions {
		out = append(out, strings.ToLower(ext))
	}
	return out
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Paths) == 0 {
		return ErrNoPaths
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxFileSize <= 0 {
		return ErrInvalidMaxFileSize
	}

	if len(c.Extensions) == 0 {
		return ErrNoExtensions
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
		}
	}

	for _, pattern := range c.Exclude {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
		}
	}

	if c.Debounce < 0 {
		return ErrInvalidDebounce
	}

	return nil
}
