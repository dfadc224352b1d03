package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/blobscan/internal/model"
)

func singleStepFactory(step func(ctx context.Context, report *model.Report) error) Factory {
	return func(string) (*Pipeline, error) {
		p := New()
		p.AddStep(&mockStep{name: "mock", doFunc: step})
		return p, nil
	}
}

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(singleStepFactory(nil))
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(singleStepFactory(nil), WithConcurrency(5))
		if bp.concurrency != 5 {
			t.Errorf("expected concurrency 5, got %d", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(singleStepFactory(nil), WithConcurrency(0))
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(singleStepFactory(nil), WithBatchLogger(nil))
		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})
}

// TestBatchProcessorProcessBatch tests batch processing.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("processes all targets", func(t *testing.T) {
		t.Parallel()

		var processed atomic.Int32
		bp := NewBatchProcessor(singleStepFactory(func(context.Context, *model.Report) error {
			processed.Add(1)
			return nil
		}))

		reports, err := bp.ProcessBatch(context.Background(), []string{"a.bin", "b.bin", "c.bin"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reports) != 3 {
			t.Errorf("expected 3 reports, got %d", len(reports))
		}
		if processed.Load() != 3 {
			t.Errorf("expected 3 processed, got %d", processed.Load())
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var (
			maxConcurrent     atomic.Int32
			currentConcurrent atomic.Int32
			mu                sync.Mutex
		)
		bp := NewBatchProcessor(singleStepFactory(func(context.Context, *model.Report) error {
			current := currentConcurrent.Add(1)
			mu.Lock()
			if current > maxConcurrent.Load() {
				maxConcurrent.Store(current)
			}
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			currentConcurrent.Add(-1)
			return nil
		}), WithConcurrency(2))

		targets := make([]string, 10)
		for i := range targets {
			targets[i] = fmt.Sprintf("file-%d.bin", i)
		}
		if _, err := bp.ProcessBatch(context.Background(), targets); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if maxConcurrent.Load() > 2 {
			t.Errorf("max concurrent was %d, expected <= 2", maxConcurrent.Load())
		}
	})

	t.Run("maintains result order", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(singleStepFactory(func(_ context.Context, r *model.Report) error {
			if r.Target == "first.bin" {
				time.Sleep(20 * time.Millisecond)
			}
			return nil
		}), WithConcurrency(3))

		targets := []string{"first.bin", "second.bin", "third.bin"}
		reports, err := bp.ProcessBatch(context.Background(), targets)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, r := range reports {
			if r.Target != targets[i] {
				t.Errorf("report %d: expected %s, got %s", i, targets[i], r.Target)
			}
		}
	})

	t.Run("continues after individual failure", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(singleStepFactory(func(_ context.Context, r *model.Report) error {
			if r.Target == "bad.bin" {
				return errors.New("unreadable")
			}
			return nil
		}))

		reports, err := bp.ProcessBatch(context.Background(), []string{"good.bin", "bad.bin", "also-good.bin"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reports[1].Error == nil {
			t.Error("expected error recorded for bad.bin")
		}
		if reports[0].Error != nil || reports[2].Error != nil {
			t.Error("expected other reports to succeed")
		}
	})

	t.Run("records factory errors in the report", func(t *testing.T) {
		t.Parallel()

		factoryErr := errors.New("bad settings")
		bp := NewBatchProcessor(func(string) (*Pipeline, error) { return nil, factoryErr })

		reports, err := bp.ProcessBatch(context.Background(), []string{"x.bin"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !errors.Is(reports[0].Error, factoryErr) {
			t.Errorf("expected factory error, got %v", reports[0].Error)
		}
	})

	t.Run("handles context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(singleStepFactory(nil), WithConcurrency(1))
		reports, err := bp.ProcessBatch(ctx, []string{"a.bin", "b.bin"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		for i, r := range reports {
			if r == nil {
				t.Fatalf("report %d is nil", i)
			}
			if r.Error == nil {
				t.Errorf("report %d: expected an error", i)
			}
		}
	})
}

// TestBatchProcessorProcessBatchWithCallback tests streaming results.
func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	bp := NewBatchProcessor(singleStepFactory(nil), WithConcurrency(2))

	var (
		mu   sync.Mutex
		seen = make(map[int]string)
	)
	err := bp.ProcessBatchWithCallback(context.Background(), []string{"a", "b", "c"}, func(r *model.Report, i int) {
		mu.Lock()
		defer mu.Unlock()
		seen[i] = r.Target
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 3 || seen[0] != "a" || seen[1] != "b" || seen[2] != "c" {
		t.Errorf("got %v", seen)
	}
}
