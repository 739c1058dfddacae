// Package render orchestrates multiview rendering of one shape: camera
// sampling, rasterization, edge overlay and encoding.
package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"multiview-renderer/internal/camera"
	"multiview-renderer/internal/edges"
	"multiview-renderer/internal/encode"
	"multiview-renderer/internal/filter"
	"multiview-renderer/internal/logging"
	"multiview-renderer/internal/mathutil"
	"multiview-renderer/internal/metrics"
	"multiview-renderer/internal/overlay"
	"multiview-renderer/internal/raster"
)

var (
	// ErrMissingMesh is returned when a shaded mode has no mesh to draw.
	ErrMissingMesh = errors.New("render: mode requires a mesh")
	// ErrBadSize is returned for non-positive image dimensions.
	ErrBadSize = errors.New("render: image size must be positive")
)

// Renderer turns Requests into frames. It is safe for concurrent use.
type Renderer struct {
	logger  *zap.Logger
	metrics *metrics.Collector
}

// New returns a Renderer. Both arguments may be nil.
func New(logger *zap.Logger, m *metrics.Collector) *Renderer {
	return &Renderer{
		logger:  logging.OrNop(logger).With(zap.String("component", "render")),
		metrics: m,
	}
}

// job is a Request with defaults applied and framing resolved.
type job struct {
	Request
	center   mathutil.Vec3
	distance float64
	segs     []edges.Segment
	adj      []edges.Adjacency
	log      *zap.Logger
}

// Render draws req.Views images and writes them to sink in view order.
// Any failure aborts the whole shape and no Result is returned.
func (r *Renderer) Render(ctx context.Context, req Request, sink Sink) (*Result, error) {
	needsMesh, err := req.Mode.NeedsMesh()
	if err != nil {
		return nil, err
	}
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSize, req.Width, req.Height)
	}
	applyDefaults(&req)

	j := &job{Request: req}
	if req.Edges != nil {
		j.segs, j.adj = req.Edges.Segments, req.Edges.Adjacency
	}
	j.log = r.logger.With(zap.String("part", req.PartNumber), zap.Stringer("mode", req.Mode))

	var bounds mathutil.Bounds
	if needsMesh {
		if req.Mesh == nil || len(req.Mesh.Tris) == 0 {
			return nil, ErrMissingMesh
		}
		bounds = req.Mesh.Bounds()
	} else {
		if len(j.segs) == 0 {
			j.log.Warn("no edges to frame, nothing rendered")
			return &Result{PartNumber: req.PartNumber, Mode: req.Mode}, nil
		}
		bounds = req.Edges.Endpoints()
	}

	diag := bounds.Diagonal()
	if diag < 1e-9 {
		// A point-sized scene still needs a camera that is not on top of it.
		diag = 1
	}
	j.center = bounds.Center()
	j.distance = req.DistanceFactor * diag

	views := camera.Generate(req.Views, j.center, j.distance)
	res := &Result{
		PartNumber:   req.PartNumber,
		Mode:         req.Mode,
		Center:       j.center,
		Distance:     j.distance,
		Images:       make([]string, 0, len(views)),
		Perspectives: make([]Perspective, 0, len(views)),
	}
	if len(views) == 0 {
		return res, nil
	}

	scene := raster.Scene{Background: req.Background}
	if needsMesh {
		scene.Mesh = req.Mesh
		scene.Material = raster.DefaultMaterial(req.Transparency)
	}

	workers := min(req.Workers, len(views))
	j.log.Info("rendering shape",
		zap.Int("views", len(views)),
		zap.Int("segments", len(j.segs)),
		zap.Float64("distance", j.distance),
		zap.Int("workers", workers),
	)

	// One raster context per worker, reused for all of its views.
	contexts := make([]*raster.Context, workers)
	for w := range contexts {
		contexts[w] = raster.NewContext(req.Width, req.Height, req.Supersample)
		if err := contexts[w].SetScene(scene); err != nil {
			return nil, fmt.Errorf("render: %s: %w", req.PartNumber, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)
	frames := make([]Frame, len(views))
	ready := make([]chan struct{}, len(views))
	for i := range ready {
		ready[i] = make(chan struct{})
	}

	g.Go(func() error {
		defer close(jobs)
		for i := range views {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for _, rc := range contexts {
		g.Go(func() error {
			for i := range jobs {
				f, err := r.renderView(gctx, rc, j, views[i])
				if err != nil {
					return fmt.Errorf("render: %s view %d: %w", req.PartNumber, i, err)
				}
				frames[i] = f
				close(ready[i])
			}
			return nil
		})
	}

	// Emit strictly in view order regardless of completion order.
	g.Go(func() error {
		for i := range views {
			select {
			case <-ready[i]:
			case <-gctx.Done():
				return gctx.Err()
			}
			f := frames[i]
			if err := sink.WriteFrame(gctx, f); err != nil {
				return fmt.Errorf("render: write %s: %w", f.Filename, err)
			}
			res.Images = append(res.Images, f.Filename)
			res.Perspectives = append(res.Perspectives, f.Perspective)
			frames[i] = Frame{}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	j.log.Info("shape rendered", zap.Int("images", len(res.Images)))
	return res, nil
}

func applyDefaults(req *Request) {
	if req.DistanceFactor <= 0 {
		req.DistanceFactor = DefaultDistanceFactor
	}
	if req.Supersample < 1 {
		req.Supersample = 1
	}
	req.Transparency = mathutil.Clamp01(req.Transparency)
	if req.SilhouetteEpsilon <= 0 {
		req.SilhouetteEpsilon = filter.DefaultEpsilon
	}
	if req.Workers < 1 {
		req.Workers = 1
	}
}

func (r *Renderer) renderView(ctx context.Context, rc *raster.Context, j *job, v camera.View) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	start := time.Now()

	pose := v.Pose(j.center)
	slot, err := rc.AcquireCamera(pose, camera.ProjectionFor(j.Width, j.Height, j.distance))
	if err != nil {
		return Frame{}, err
	}
	defer slot.Release()

	img, err := slot.Render()
	if err != nil {
		return Frame{}, err
	}

	segs, err := j.edgesFor(v)
	if err != nil {
		return Frame{}, err
	}
	img, st, err := overlay.DrawEdges(img, segs, pose, overlay.Params{
		Width:     j.Width,
		Height:    j.Height,
		Distance:  j.distance,
		Color:     j.EdgeColor,
		LineWidth: j.EdgeWidth,
	})
	if err != nil {
		return Frame{}, err
	}

	data, err := encode.Bytes(img, j.Format)
	if err != nil {
		return Frame{}, err
	}

	name := fmt.Sprintf("%s_%s.%s", j.PartNumber, v.Name, j.Format.Ext())
	elapsed := time.Since(start)
	r.metrics.ObserveView(j.Mode.String(), elapsed)
	r.metrics.AddSegments(st.Drawn, st.Degenerate, st.Offscreen)
	j.log.Debug("view rendered",
		zap.String("view", v.Name),
		zap.Int("azimuth", v.Azimuth),
		zap.Int("elevation", v.Elevation),
		zap.Int("edges_drawn", st.Drawn),
		zap.Int("edges_skipped", st.Degenerate+st.Offscreen),
		zap.Duration("elapsed", elapsed),
	)

	return Frame{
		Filename: name,
		Data:     data,
		Perspective: Perspective{
			Index:           v.Index,
			Filename:        name,
			Azimuth:         v.Azimuth,
			Elevation:       v.Elevation,
			CameraPosition:  v.Position,
			CameraDirection: v.Direction,
		},
	}, nil
}

// edgesFor picks the segments overlaid on view v.
func (j *job) edgesFor(v camera.View) ([]edges.Segment, error) {
	switch j.Mode {
	case Shaded:
		if len(j.adj) == 0 {
			return nil, nil
		}
		return filter.Silhouette(j.segs, j.adj, v.Direction, j.center, j.SilhouetteEpsilon), nil
	case Wireframe, ShadedWithEdges:
		return j.segs, nil
	}
	return nil, j.Mode.Validate()
}
