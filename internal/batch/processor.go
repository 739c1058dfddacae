// Package batch renders many shapes with a fixed worker pool.
package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"multiview-renderer/internal/logging"
	"multiview-renderer/internal/metrics"
	"multiview-renderer/internal/pipeline"
	"multiview-renderer/internal/source"
)

// Runner renders one shape. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job) (*pipeline.Outcome, error)
}

// Item is one input shape.
type Item struct {
	PartNumber string
	Path       string
}

// Config holds the shared settings of a batch run.
type Config struct {
	Runner   Runner
	Template pipeline.Job // InputPath and PartNumber are set per item
	Workers  int
	RunID    string

	Logger   *zap.Logger
	Metrics  *metrics.Collector
	Progress time.Duration // progress log interval, default 2s
}

// Result holds the outcome of processing one item.
type Result struct {
	PartNumber   string   `json:"part_number"`
	Input        string   `json:"input"`
	Success      bool     `json:"success"`
	Error        string   `json:"error,omitempty"`
	OutputDir    string   `json:"output_dir,omitempty"`
	Images       []string `json:"images,omitempty"`
	Perspectives string   `json:"perspectives,omitempty"`
}

// Discover lists every STL file under dir in part-number order.
func Discover(dir string) ([]Item, error) {
	idx, err := source.BuildIndex(dir)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, idx.Len())
	for _, part := range idx.PartNumbers() {
		path, _ := idx.ResolvePath(part)
		items = append(items, Item{PartNumber: part, Path: path})
	}
	return items, nil
}

// Run processes all items using a worker pool. Results are in item order.
// A failed shape is recorded and the others carry on.
func Run(ctx context.Context, cfg Config, items []Item) []Result {
	log := logging.OrNop(cfg.Logger).With(zap.String("component", "batch"))
	if cfg.RunID != "" {
		log = log.With(zap.String("run_id", cfg.RunID))
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	every := cfg.Progress
	if every <= 0 {
		every = 2 * time.Second
	}

	total := len(items)
	results := make([]Result, total)
	var processed, failed atomic.Int64
	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if p := processed.Load(); p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					log.Info("progress",
						zap.Int64("done", p),
						zap.Int("total", total),
						zap.Int64("failed", failed.Load()),
						zap.Float64("shapes_per_sec", rate),
					)
				}
			}
		}
	}()

	itemChan := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range itemChan {
				r := processItem(ctx, cfg, items[idx])
				if !r.Success {
					failed.Add(1)
					log.Warn("shape failed", zap.String("part", r.PartNumber), zap.String("error", r.Error))
					cfg.Metrics.ShapeDone("failed")
				} else {
					cfg.Metrics.ShapeDone("ok")
				}
				results[idx] = r
				processed.Add(1)
			}
		}()
	}

	for i := range items {
		itemChan <- i
	}
	close(itemChan)

	wg.Wait()
	close(done)

	log.Info("batch finished",
		zap.Int("total", total),
		zap.Int64("failed", failed.Load()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results
}

func processItem(ctx context.Context, cfg Config, item Item) Result {
	res := Result{PartNumber: item.PartNumber, Input: item.Path}
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}

	job := cfg.Template
	job.InputPath = item.Path
	job.PartNumber = item.PartNumber

	out, err := cfg.Runner.Run(ctx, job)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = out.Success
	res.OutputDir = out.OutputDir
	res.Images = out.Images
	res.Perspectives = out.Perspectives
	return res
}
