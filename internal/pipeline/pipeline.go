// Package pipeline renders one CAD shape end to end: geometry from the
// source collaborators, views from the renderer, files into an output
// directory.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"multiview-renderer/internal/encode"
	"multiview-renderer/internal/logging"
	"multiview-renderer/internal/mesh"
	"multiview-renderer/internal/output"
	"multiview-renderer/internal/render"
	"multiview-renderer/internal/resource"
	"multiview-renderer/internal/source"
)

// Job is one shape to render.
type Job struct {
	InputPath  string
	PartNumber string // defaults to the input file stem
	OutputDir  string // images go to OutputDir/PartNumber

	Mode       render.Mode
	Views      int
	Width      int
	Height     int
	Deflection float64

	EdgeColor         [3]float64
	EdgeWidth         float64
	Transparency      float64
	DistanceFactor    float64
	Supersample       int
	Format            encode.Format
	SilhouetteEpsilon float64
	ViewWorkers       int
}

// Outcome describes what Run wrote.
type Outcome struct {
	Success      bool
	PartNumber   string
	OutputDir    string
	Images       []string // file names inside OutputDir
	Perspectives string   // path of the perspectives JSON
	Result       *render.Result
}

// Pipeline wires the collaborators. Background may be nil for white.
type Pipeline struct {
	Edges      source.EdgeExtractor
	Meshes     source.MeshConverter
	Renderer   *render.Renderer
	Background *resource.Manager[*image.RGBA]
	Logger     *zap.Logger
}

// NewSTL returns a Pipeline reading STL input.
func NewSTL(featureAngle float64, r *render.Renderer, bg *resource.Manager[*image.RGBA], logger *zap.Logger) *Pipeline {
	stl := source.STL{FeatureAngle: featureAngle}
	return &Pipeline{Edges: stl, Meshes: stl, Renderer: r, Background: bg, Logger: logger}
}

// PartNumber returns the default part number for an input path.
func PartNumber(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Run renders job. Geometry and render failures abort the shape.
func (p *Pipeline) Run(ctx context.Context, job Job) (*Outcome, error) {
	part := job.PartNumber
	if part == "" {
		part = PartNumber(job.InputPath)
	}
	log := logging.OrNop(p.Logger).With(zap.String("component", "pipeline"), zap.String("part", part))
	fail := func(err error) (*Outcome, error) {
		return nil, fmt.Errorf("pipeline: %s: %w", part, err)
	}

	needsMesh, err := job.Mode.NeedsMesh()
	if err != nil {
		return fail(err)
	}
	needsAdj, err := job.Mode.NeedsAdjacency()
	if err != nil {
		return fail(err)
	}

	set, err := p.Edges.ExtractEdges(ctx, job.InputPath, job.Deflection, needsAdj)
	if err != nil {
		return fail(err)
	}
	var m *mesh.Mesh
	if needsMesh {
		if m, err = p.Meshes.ConvertMesh(ctx, job.InputPath, job.Deflection); err != nil {
			return fail(err)
		}
	}
	log.Debug("geometry ready", zap.Int("segments", set.Len()), zap.Bool("adjacency", needsAdj), zap.Int("triangles", triangles(m)))

	req := render.Request{
		PartNumber:        part,
		Mode:              job.Mode,
		Mesh:              m,
		Edges:             set,
		Views:             job.Views,
		Width:             job.Width,
		Height:            job.Height,
		EdgeColor:         job.EdgeColor,
		EdgeWidth:         job.EdgeWidth,
		Transparency:      job.Transparency,
		DistanceFactor:    job.DistanceFactor,
		Supersample:       job.Supersample,
		Format:            job.Format,
		SilhouetteEpsilon: job.SilhouetteEpsilon,
		Workers:           job.ViewWorkers,
	}
	if p.Background != nil {
		h, err := p.Background.Acquire(ctx)
		if err != nil {
			return fail(err)
		}
		defer h.Release()
		req.Background = h.Value()
	}

	dir := filepath.Join(job.OutputDir, part)
	res, err := p.Renderer.Render(ctx, req, output.DirSink{Dir: dir})
	if err != nil {
		return fail(err)
	}

	perspPath := filepath.Join(dir, output.PerspectivesName(part))
	if err := output.WritePerspectives(perspPath, res.Perspectives); err != nil {
		return fail(err)
	}

	return &Outcome{
		Success:      true,
		PartNumber:   part,
		OutputDir:    dir,
		Images:       res.Images,
		Perspectives: perspPath,
		Result:       res,
	}, nil
}

func triangles(m *mesh.Mesh) int {
	if m == nil {
		return 0
	}
	return len(m.Tris)
}
