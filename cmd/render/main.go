package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"multiview-renderer/internal/background"
	"multiview-renderer/internal/batch"
	"multiview-renderer/internal/config"
	"multiview-renderer/internal/logging"
	"multiview-renderer/internal/metrics"
	"multiview-renderer/internal/pipeline"
	"multiview-renderer/internal/render"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to a YAML or JSON config file")
	input := flag.String("input", "", "STL file, or directory scanned for .stl files")
	outputDir := flag.String("output", "", "Output directory (default: renders)")
	mode := flag.String("mode", "", "shaded, wireframe or shaded_with_edges (default: shaded_with_edges)")
	views := flag.Int("views", 0, "Number of viewpoints per shape (default: 3)")
	width := flag.Int("width", 0, "Image width (default: 1280)")
	height := flag.Int("height", 0, "Image height (default: 720)")
	format := flag.String("format", "", "png or webp (default: png)")
	bg := flag.String("background", "", "Background image path or #rrggbb (default: white)")
	workers := flag.Int("workers", 0, "Shapes rendered in parallel (default: NumCPU)")
	viewWorkers := flag.Int("view-workers", 0, "Views of one shape rendered in parallel (default: 1)")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")
	testN := flag.Int("test", 0, "Render only the first N shapes")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		InputDir:    *input,
		OutputDir:   *outputDir,
		Mode:        *mode,
		Views:       *views,
		Width:       *width,
		Height:      *height,
		Format:      *format,
		Background:  *bg,
		Workers:     *workers,
		ViewWorkers: *viewWorkers,
		LogLevel:    *logLevel,
	})

	if cfg.InputDir == "" {
		fmt.Fprintln(os.Stderr, "Error: no input. Use -input or input_dir in the config file.")
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	template, err := cfg.Job()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	collector := metrics.NewCollector()

	bgm := background.NewManager(cfg.Background, cfg.Width, cfg.Height, cfg.BackgroundIdle, logger)
	defer bgm.Close()
	p := pipeline.NewSTL(cfg.FeatureAngle, render.New(logger, collector), bgm, logger)

	info, err := os.Stat(cfg.InputDir)
	if err != nil {
		logger.Fatal("input", zap.Error(err))
	}

	start := time.Now()
	var failed int
	if !info.IsDir() {
		failed = renderOne(ctx, p, template, cfg.InputDir, collector, logger)
	} else {
		failed = renderAll(ctx, p, template, cfg, *testN, runID, collector, logger)
	}
	logger.Info("done", zap.Duration("elapsed", time.Since(start)), zap.Int("failed", failed))

	if cfg.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("metrics not written", zap.Error(err))
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func renderOne(ctx context.Context, p *pipeline.Pipeline, job pipeline.Job, path string, m *metrics.Collector, logger *zap.Logger) int {
	job.InputPath = path
	out, err := p.Run(ctx, job)
	if err != nil {
		m.ShapeDone("failed")
		logger.Error("render failed", zap.String("input", path), zap.Error(err))
		return 1
	}
	m.ShapeDone("ok")
	fmt.Printf("Rendered %d views of %s\n", len(out.Images), out.PartNumber)
	fmt.Printf("Output: %s\n", out.OutputDir)
	fmt.Printf("Perspectives: %s\n", out.Perspectives)
	return 0
}

func renderAll(ctx context.Context, p *pipeline.Pipeline, job pipeline.Job, cfg config.Config, testN int, runID string, m *metrics.Collector, logger *zap.Logger) int {
	items, err := batch.Discover(cfg.InputDir)
	if err != nil {
		logger.Fatal("scan input", zap.String("dir", cfg.InputDir), zap.Error(err))
	}
	// Limit for testing
	if testN > 0 && testN < len(items) {
		items = items[:testN]
	}
	if len(items) == 0 {
		fmt.Println("No shapes to render.")
		return 0
	}

	fmt.Printf("Multiview renderer (%s) → %s\n", job.Mode, job.Format)
	fmt.Printf("Shapes: %d, Views: %d, Workers: %d\n", len(items), job.Views, cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	results := batch.Run(ctx, batch.Config{
		Runner:   p,
		Template: job,
		Workers:  cfg.Workers,
		RunID:    runID,
		Logger:   logger,
		Metrics:  m,
	}, items)

	var failures []batch.Result
	for _, r := range results {
		if !r.Success {
			failures = append(failures, r)
		}
	}
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Rendered: %d/%d\n", len(results)-len(failures), len(results))

	if len(failures) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failures))
		for _, e := range failures[:min(20, len(failures))] {
			fmt.Printf("  %s: %s\n", e.PartNumber, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		logger.Warn("manifest dir", zap.Error(err))
	}
	if err := batch.WriteManifest(manifestPath, runID, results); err != nil {
		logger.Warn("manifest write failed", zap.Error(err))
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}
	return len(failures)
}
