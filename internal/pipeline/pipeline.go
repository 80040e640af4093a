package pipeline

import (
	"context"
	"log/slog"
	"os"

	"github.com/nao1215/extlink/internal/dom"
	"github.com/nao1215/extlink/internal/model"
)

// Work carries one file through the pipeline. Steps read what earlier
// steps produced and record their outcome in Result.
type Work struct {
	// Result is the outcome reported for the file.
	Result *model.PageResult

	// Content is the file content as read from disk.
	Content []byte

	// Mode is the permission bits of the file, reused when it is rewritten.
	Mode os.FileMode

	// Doc is the parsed page.
	Doc *dom.Document

	// Done is set by a step when no further step needs to run.
	Done bool
}

// NewWork creates the work item for the file at path.
func NewWork(path string) *Work {
	return &Work{Result: model.NewPageResult(path)}
}

// Path returns the path of the file being processed.
func (w *Work) Path() string {
	return w.Result.Path
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence on the same Work.
type Step interface {
	// Do executes the step. Returning an error stops the pipeline unless
	// it was created with WithContinueOnError.
	Do(ctx context.Context, w *Work) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps running later steps after one fails. The
// failure is still recorded on the result.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in order on w. Cancellation is checked between
// steps. The first step error is recorded on w.Result and returned.
func (p *Pipeline) Execute(ctx context.Context, w *Work) error {
	var firstErr error

	for _, step := range p.steps {
		if w.Done {
			break
		}

		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"path", w.Path(),
				"reason", ctx.Err(),
			)
			if firstErr == nil {
				w.Result.SetError(ctx.Err())
				firstErr = ctx.Err()
			}
			return firstErr
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"path", w.Path(),
		)

		if err := step.Do(ctx, w); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"path", w.Path(),
				"error", err,
			)
			if firstErr == nil {
				w.Result.SetError(err)
				firstErr = err
			}
			if !p.continueOnError {
				return firstErr
			}
		}
	}

	return firstErr
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
