package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/extlink/internal/model"
	"golang.org/x/sync/errgroup"
)

// defaultConcurrency is used when WithConcurrency is not given.
const defaultConcurrency = 4

// skippedCancelled is the skip reason of files never started.
const skippedCancelled = "cancelled before processing"

// BatchProcessor processes many files concurrently, one pipeline per file.
type BatchProcessor struct {
	// pipelineFactory creates the pipeline for each file.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of files in flight.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of files processed at once.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     defaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch processes the files at paths and returns one result per
// path, in the same order. A file that fails records its error and does
// not stop the others. When ctx is cancelled, files not yet started are
// marked as skipped and ctx.Err() is returned.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, paths []string) ([]*model.PageResult, error) {
	results := make([]*model.PageResult, len(paths))
	err := bp.ProcessBatchWithCallback(ctx, paths, func(result *model.PageResult, index int) {
		results[index] = result
	})

	for i, r := range results {
		if r == nil {
			results[i] = model.NewPageResult(paths[i])
			results[i].Skip(skippedCancelled)
		}
	}
	return results, err
}

// ProcessBatchWithCallback processes the files and calls callback once per
// processed file. The callback runs on the goroutine that processed the
// file, so it must be safe for concurrent use if it touches shared state.
// Writes to distinct indexes of a pre-sized slice are safe.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	paths []string,
	callback func(result *model.PageResult, index int),
) error {
	bp.logger.Info("starting batch processing",
		"files", len(paths),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			w := NewWork(path)
			if err := bp.pipelineFactory().Execute(gctx, w); err != nil {
				bp.logger.Warn("file failed",
					"path", path,
					"error", err,
				)
			}
			callback(w.Result, i)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	bp.logger.Info("batch processing complete",
		"files", len(paths),
		"elapsed", time.Since(startTime),
	)
	return err
}

// Run processes paths and fills report with the results, the duration of
// the run, and whether it was cancelled.
func (bp *BatchProcessor) Run(ctx context.Context, report *model.RunReport, paths []string) error {
	results, err := bp.ProcessBatch(ctx, paths)
	report.Pages = results
	report.Duration = time.Since(report.StartedAt)
	report.Cancelled = err != nil
	return err
}
