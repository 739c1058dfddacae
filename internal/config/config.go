// Package config loads render settings from YAML and CLI flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"multiview-renderer/internal/encode"
	"multiview-renderer/internal/logging"
	"multiview-renderer/internal/mathutil"
	"multiview-renderer/internal/pipeline"
	"multiview-renderer/internal/render"
)

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	InputDir    string `yaml:"input_dir"`
	OutputDir   string `yaml:"output_dir"`
	MetricsFile string `yaml:"metrics_file"`

	// Render settings
	Mode              string        `yaml:"mode"`
	Views             int           `yaml:"views"`
	Width             int           `yaml:"width"`
	Height            int           `yaml:"height"`
	EdgeColor         []float64     `yaml:"edge_color"`
	EdgeWidth         float64       `yaml:"edge_width"`
	Transparency      *float64      `yaml:"transparency"` // nil means opaque
	Deflection        float64       `yaml:"deflection"`
	DistanceFactor    float64       `yaml:"distance_factor"`
	Supersample       int           `yaml:"supersample"`
	Format            string        `yaml:"format"`
	Background        string        `yaml:"background"`
	BackgroundIdle    time.Duration `yaml:"background_idle"`
	FeatureAngle      float64       `yaml:"feature_angle"`
	SilhouetteEpsilon float64       `yaml:"silhouette_epsilon"`

	// Concurrency
	Workers     int `yaml:"workers"`
	ViewWorkers int `yaml:"view_workers"`

	Log logging.Config `yaml:"log"`
}

// Load reads a YAML (or JSON) config file.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
// Zero values mean "not given".
type Flags struct {
	InputDir    string
	OutputDir   string
	Mode        string
	Views       int
	Width       int
	Height      int
	Format      string
	Background  string
	Workers     int
	ViewWorkers int
	LogLevel    string
}

// Resolve applies flags, then fills every unset field with its default.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	setString(&c.InputDir, flags.InputDir)
	setString(&c.OutputDir, flags.OutputDir)
	setString(&c.Mode, flags.Mode)
	setString(&c.Format, flags.Format)
	setString(&c.Background, flags.Background)
	setString(&c.Log.Level, flags.LogLevel)
	setInt(&c.Views, flags.Views)
	setInt(&c.Width, flags.Width)
	setInt(&c.Height, flags.Height)
	setInt(&c.Workers, flags.Workers)
	setInt(&c.ViewWorkers, flags.ViewWorkers)

	// Defaults
	if c.OutputDir == "" {
		c.OutputDir = "renders"
	}
	if c.Mode == "" {
		c.Mode = render.ShadedWithEdges.String()
	}
	if c.Views <= 0 {
		c.Views = 3
	}
	if c.Width <= 0 {
		c.Width = 1280
	}
	if c.Height <= 0 {
		c.Height = 720
	}
	if len(c.EdgeColor) == 0 {
		c.EdgeColor = []float64{0.1, 0.1, 0.1}
	}
	if c.EdgeWidth <= 0 {
		c.EdgeWidth = 2
	}
	if c.Transparency == nil {
		opaque := 1.0
		c.Transparency = &opaque
	}
	if c.Deflection <= 0 {
		c.Deflection = 0.1
	}
	if c.DistanceFactor <= 0 {
		c.DistanceFactor = render.DefaultDistanceFactor
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Format == "" {
		c.Format = encode.PNG.String()
	}
	if c.BackgroundIdle <= 0 {
		c.BackgroundIdle = 30 * time.Second
	}
	if c.FeatureAngle <= 0 {
		c.FeatureAngle = 30
	}
	if c.SilhouetteEpsilon <= 0 {
		c.SilhouetteEpsilon = 0.01
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ViewWorkers <= 0 {
		c.ViewWorkers = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Job converts resolved settings into a pipeline job template.
func (c *Config) Job() (pipeline.Job, error) {
	mode, err := render.ParseMode(c.Mode)
	if err != nil {
		return pipeline.Job{}, fmt.Errorf("config: %w", err)
	}
	format, err := encode.ParseFormat(c.Format)
	if err != nil {
		return pipeline.Job{}, fmt.Errorf("config: %w", err)
	}
	if len(c.EdgeColor) != 3 {
		return pipeline.Job{}, fmt.Errorf("config: edge_color needs 3 components, got %d", len(c.EdgeColor))
	}
	opacity := 1.0
	if c.Transparency != nil {
		opacity = mathutil.Clamp01(*c.Transparency)
	}

	return pipeline.Job{
		OutputDir:         c.OutputDir,
		Mode:              mode,
		Views:             c.Views,
		Width:             c.Width,
		Height:            c.Height,
		Deflection:        c.Deflection,
		EdgeColor:         [3]float64{c.EdgeColor[0], c.EdgeColor[1], c.EdgeColor[2]},
		EdgeWidth:         c.EdgeWidth,
		Transparency:      opacity,
		DistanceFactor:    c.DistanceFactor,
		Supersample:       c.Supersample,
		Format:            format,
		SilhouetteEpsilon: c.SilhouetteEpsilon,
		ViewWorkers:       c.ViewWorkers,
	}, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}
