package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoPaths is returned when no file or directory is given.
	ErrNoPaths = errors.New("no paths specified: provide a site directory or HTML files")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxFileSize is returned when the file size limit is not positive.
	ErrInvalidMaxFileSize = errors.New("invalid max file size: must be positive")

	// ErrInvalidExtension is returned when an extension does not start with a dot.
	ErrInvalidExtension = errors.New("invalid extension: must start with '.'")

	// ErrNoExtensions is returned when the extension list is empty.
	ErrNoExtensions = errors.New("no extensions specified: at least one is required")

	// ErrInvalidPattern is returned when an exclude pattern is not a valid glob.
	ErrInvalidPattern = errors.New("invalid exclude pattern")

	// ErrInvalidDebounce is returned when the watch debounce interval is negative.
	ErrInvalidDebounce = errors.New("invalid debounce interval: must be non-negative")
)
