package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/blobscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of files analyzed at once when no
// WithConcurrency option is given.
const DefaultConcurrency = 4

// Factory creates the pipeline for one target. It is called once per
// target, so per-file settings (rules from the config file) can be applied.
type Factory func(target string) (*Pipeline, error)

// BatchProcessor handles concurrent analysis of multiple files.
// It uses errgroup to manage goroutines and respect the concurrency limit.
type BatchProcessor struct {
	// factory creates a fresh pipeline for each target.
	factory Factory

	// concurrency is the maximum number of concurrent analyses.
	concurrency int

	// logger is used for batch-level logging.
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

// WithConcurrency sets the maximum number of concurrent analyses.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(factory Factory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch analyzes multiple files concurrently.
// Reports are returned in the order of targets, including those that
// failed; each failed report carries its error. The returned error is
// non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*model.Report, error) {
	results := make([]*model.Report, len(targets))
	err := bp.ProcessBatchWithCallback(ctx, targets, func(report *model.Report, index int) {
		// each goroutine owns its index
		results[index] = report
	})
	for i, r := range results {
		if r == nil {
			// never started because the batch was cancelled
			results[i] = model.NewReport(targets[i], nil)
			results[i].SetError(err)
		}
	}
	return results, err
}

// ProcessBatchWithCallback analyzes multiple files and calls callback for
// each completed report, in completion order. The callback is called from
// the worker goroutine, so it must be safe for concurrent use if it
// touches shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []string,
	callback func(report *model.Report, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_targets", len(targets),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			bp.logger.Debug("analyzing file",
				"target", target,
				"index", i+1,
				"total", len(targets),
			)

			report := model.NewReport(target, nil)
			p, err := bp.factory(target)
			if err != nil {
				report.SetError(err)
			} else if err := p.Execute(ctx, report); err != nil {
				bp.logger.Warn("analysis failed",
					"target", target,
					"error", err,
				)
			}

			callback(report, i)
			// per-file failures are recorded in the report
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch processing complete",
		"total_targets", len(targets),
		"elapsed", time.Since(startTime),
	)
	return err
}
