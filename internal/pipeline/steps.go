package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nao1215/extlink/internal/annotator"
	"github.com/nao1215/extlink/internal/dom"
	"github.com/nao1215/extlink/internal/model"
)

// ErrFileTooLarge is returned when a file exceeds the configured size limit.
var ErrFileTooLarge = errors.New("file too large")

// DefaultMaxFileSize is the read limit used when none is configured.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// tempPattern names the temporary file used for atomic rewrites.
const tempPattern = ".extlink-*.tmp"

// ReadStep loads the file content.
type ReadStep struct {
	maxSize int64
}

// NewReadStep creates a ReadStep that refuses files larger than maxSize
// bytes. A non-positive maxSize selects DefaultMaxFileSize.
func NewReadStep(maxSize int64) *ReadStep {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &ReadStep{maxSize: maxSize}
}

// Name returns the step name.
func (s *ReadStep) Name() string {
	return "read"
}

// Do reads the file into w.Content.
func (s *ReadStep) Do(_ context.Context, w *Work) error {
	f, err := os.Open(w.Path())
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", w.Path())
	}
	if info.Size() > s.maxSize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, info.Size(), s.maxSize)
	}

	// The limit is enforced again while reading in case the file grew.
	content, err := io.ReadAll(io.LimitReader(f, s.maxSize+1))
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(content)) > s.maxSize {
		return fmt.Errorf("%w: exceeds limit of %d bytes", ErrFileTooLarge, s.maxSize)
	}

	w.Content = content
	w.Mode = info.Mode().Perm()
	return nil
}

// SniffStep skips files whose content is not text. Rendered HTML is
// detected as text/html, and fragments or partial pages still count as
// text/plain, so only binary content is rejected.
type SniffStep struct{}

// NewSniffStep creates a SniffStep.
func NewSniffStep() *SniffStep {
	return &SniffStep{}
}

// Name returns the step name.
func (s *SniffStep) Name() string {
	return "sniff"
}

// Do detects the content type and finishes the work for non-text files.
func (s *SniffStep) Do(_ context.Context, w *Work) error {
	if len(w.Content) == 0 {
		return nil
	}

	detected := mimetype.Detect(w.Content)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/html") || m.Is("text/plain") {
			return nil
		}
	}

	w.Result.Skip("not an HTML document (detected " + detected.String() + ")")
	w.Result.Checksum = model.Checksum(w.Content)
	w.Done = true
	return nil
}

// ParseStep parses the content into a document.
type ParseStep struct{}

// NewParseStep creates a ParseStep.
func NewParseStep() *ParseStep {
	return &ParseStep{}
}

// Name returns the step name.
func (s *ParseStep) Name() string {
	return "parse"
}

// Do parses w.Content into w.Doc.
func (s *ParseStep) Do(_ context.Context, w *Work) error {
	doc, err := dom.ParseBytes(w.Content)
	if err != nil {
		return err
	}
	w.Doc = doc
	w.Result.Title = doc.Title()
	w.Result.Charset = doc.Charset()
	return nil
}

// AnnotateStep applies the external link rule to the parsed document.
type AnnotateStep struct {
	annotator *annotator.Annotator
}

// NewAnnotateStep creates an AnnotateStep. A nil annotator selects one
// logging to slog.Default().
func NewAnnotateStep(a *annotator.Annotator) *AnnotateStep {
	if a == nil {
		a = annotator.New()
	}
	return &AnnotateStep{annotator: a}
}

// Name returns the step name.
func (s *AnnotateStep) Name() string {
	return "annotate"
}

// Do annotates w.Doc and finishes the work when nothing changed.
func (s *AnnotateStep) Do(_ context.Context, w *Work) error {
	if w.Doc == nil {
		return errors.New("no document to annotate")
	}

	res := s.annotator.Annotate(w.Doc)
	w.Result.Links = res.Links
	w.Result.Matched = res.Matched
	w.Result.Modified = res.Modified
	w.Result.Annotated = res.Annotated

	if !res.Changed() {
		w.Result.Checksum = model.Checksum(w.Content)
		w.Done = true
	}
	return nil
}

// WriteStep renders the annotated document and replaces the file.
type WriteStep struct {
	dryRun bool
	logger *slog.Logger
}

// NewWriteStep creates a WriteStep. With dryRun the file is left untouched.
func NewWriteStep(dryRun bool, logger *slog.Logger) *WriteStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &WriteStep{dryRun: dryRun, logger: logger}
}

// Name returns the step name.
func (s *WriteStep) Name() string {
	return "write"
}

// Do renders w.Doc and writes it back unless running dry.
func (s *WriteStep) Do(_ context.Context, w *Work) error {
	if w.Doc == nil {
		return errors.New("no document to write")
	}

	if s.dryRun {
		w.Result.Checksum = model.Checksum(w.Content)
		s.logger.Info("dry run: file not written", "path", w.Path(), "modified", w.Result.Modified)
		return nil
	}

	out, err := w.Doc.Bytes()
	if err != nil {
		return err
	}

	mode := w.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := writeFileAtomic(w.Path(), out, mode); err != nil {
		return err
	}

	w.Result.Written = true
	w.Result.Checksum = model.Checksum(out)
	s.logger.Info("file annotated", "path", w.Path(), "modified", w.Result.Modified)
	return nil
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it over path, so readers never observe a partially written page.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()        //nolint:errcheck // best effort after a failure
		_ = os.Remove(tmpName) //nolint:errcheck // best effort after a failure
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		cleanup()
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best effort after a failure
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best effort after a failure
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

// DefaultPipelineConfig holds the settings of the standard annotation pipeline.
type DefaultPipelineConfig struct {
	// MaxFileSize is the read limit in bytes.
	MaxFileSize int64

	// DryRun disables writing.
	DryRun bool

	// Logger receives pipeline and step logs.
	Logger *slog.Logger

	// Annotator applies the link rule. Nil selects one using Logger.
	Annotator *annotator.Annotator
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineMaxFileSize sets the read limit.
func WithPipelineMaxFileSize(size int64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxFileSize = size
	}
}

// WithPipelineDryRun disables writing.
func WithPipelineDryRun(dryRun bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.DryRun = dryRun
	}
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(logger *slog.Logger) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Logger = logger
	}
}

// WithPipelineAnnotator sets the annotator.
func WithPipelineAnnotator(a *annotator.Annotator) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Annotator = a
	}
}

// NewDefaultPipeline builds the read, sniff, parse, annotate, write pipeline.
func NewDefaultPipeline(opts ...DefaultPipelineOption) *Pipeline {
	cfg := &DefaultPipelineConfig{
		MaxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Annotator == nil {
		cfg.Annotator = annotator.New(annotator.WithLogger(cfg.Logger))
	}

	p := New(WithLogger(cfg.Logger))
	p.AddSteps(
		NewReadStep(cfg.MaxFileSize),
		NewSniffStep(),
		NewParseStep(),
		NewAnnotateStep(cfg.Annotator),
		NewWriteStep(cfg.DryRun, cfg.Logger),
	)
	return p
}
