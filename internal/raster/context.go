package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"

	"multiview-renderer/internal/camera"
	"multiview-renderer/internal/mathutil"
	"multiview-renderer/internal/mesh"
	"multiview-renderer/internal/postprocess"
)

var (
	// ErrCameraBusy is returned by AcquireCamera while another slot is held.
	ErrCameraBusy = errors.New("raster: camera slot already held")
	// ErrSlotReleased is returned when rendering through a released slot.
	ErrSlotReleased = errors.New("raster: camera slot released")
)

// Scene is everything a Context draws apart from the camera.
// A nil Mesh is a valid empty scene that renders only the background. Zero
// Material and Lights select the defaults.
type Scene struct {
	Mesh       *mesh.Mesh
	Material   Material
	Lights     LightConfig
	Background *image.RGBA // Width×Height; nil means opaque white
}

// Context is an offscreen render target reused across all views of one
// shape. It is not safe for concurrent rendering; give each worker its own.
type Context struct {
	width, height int
	supersample   int

	mu    sync.Mutex
	scene Scene
	bg    *image.RGBA
	shade [][3]uint8 // per-face display color
	drawn []bool     // false for degenerate faces
	held  *CameraSlot

	fb         *FrameBuffer
	px, py, pz []float64
	front      []bool
}

// NewContext creates a context producing width×height images. A supersample
// factor above 1 renders meshes at factor×size before downsampling.
func NewContext(width, height, supersample int) *Context {
	if supersample < 1 {
		supersample = 1
	}
	return &Context{width: width, height: height, supersample: supersample}
}

// Size returns the output image size.
func (c *Context) Size() (int, int) { return c.width, c.height }

// SetScene replaces the scene and precomputes per-face colors.
func (c *Context) SetScene(s Scene) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	bg := s.Background
	if bg == nil {
		bg = image.NewRGBA(image.Rect(0, 0, c.width, c.height))
		draw.Draw(bg, bg.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	} else if b := bg.Bounds(); b.Dx() != c.width || b.Dy() != c.height {
		return fmt.Errorf("raster: background is %dx%d, want %dx%d", b.Dx(), b.Dy(), c.width, c.height)
	}
	if len(s.Lights.Lights) == 0 && s.Lights.Ambient == 0 {
		s.Lights = DefaultLightConfig()
	}
	if s.Material == (Material{}) {
		s.Material = DefaultMaterial(1)
	}

	c.scene = s
	c.bg = bg
	c.shade, c.drawn = nil, nil
	if s.Mesh == nil {
		return nil
	}

	normals, valid := s.Mesh.FaceNormals()
	c.shade = make([][3]uint8, len(normals))
	c.drawn = valid
	for i, n := range normals {
		if valid[i] {
			c.shade[i] = c.scene.Lights.Shade(n, s.Material)
		}
	}
	return nil
}

// AcquireCamera places a camera with the given camera-to-world pose and
// projection. The slot must be released before another can be acquired.
func (c *Context) AcquireCamera(pose, proj mathutil.Mat4) (*CameraSlot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held != nil {
		return nil, ErrCameraBusy
	}
	if _, err := camera.NewProjector(pose, proj, c.width, c.height); err != nil {
		return nil, fmt.Errorf("raster: acquire camera: %w", err)
	}
	slot := &CameraSlot{ctx: c, pose: pose, proj: proj}
	c.held = slot
	return slot, nil
}

func (c *Context) hasGeometry() bool {
	return c.scene.Mesh != nil && len(c.scene.Mesh.Tris) > 0
}

func (c *Context) renderSize() (int, int) {
	if !c.hasGeometry() {
		return c.width, c.height
	}
	return c.width * c.supersample, c.height * c.supersample
}

// CameraSlot is a camera placed in a Context.
type CameraSlot struct {
	ctx        *Context
	pose, proj mathutil.Mat4
	released   bool
}

// Release frees the slot. Calling it more than once is harmless.
func (s *CameraSlot) Release() {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	if c.held == s {
		c.held = nil
	}
}

// Render draws the scene from the slot's camera and returns a new image
// composited over the background.
func (s *CameraSlot) Render() (*image.RGBA, error) {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.released {
		return nil, ErrSlotReleased
	}

	out := CloneRGBA(c.bg)
	if !c.hasGeometry() {
		return out, nil
	}

	rw, rh := c.renderSize()
	if c.fb == nil || c.fb.Width != rw || c.fb.Height != rh {
		c.fb = NewFrameBuffer(rw, rh)
	} else {
		c.fb.Clear()
	}

	p, err := camera.NewProjector(s.pose, s.proj, rw, rh)
	if err != nil {
		return nil, fmt.Errorf("raster: render: %w", err)
	}
	m := c.scene.Mesh
	c.project(m, p)
	for i, t := range m.Tris {
		if !c.drawn[i] || !c.front[t[0]] || !c.front[t[1]] || !c.front[t[2]] {
			continue
		}
		RasterizeTriangle(c.fb, c.px, c.py, c.pz, t, c.shade[i], c.scene.Material.Alpha)
	}

	fg := c.fb.Image()
	if c.supersample > 1 {
		fg = postprocess.Downsample(fg, c.width, c.height)
	}
	draw.Draw(out, out.Bounds(), fg, image.Point{}, draw.Over)
	return out, nil
}

// project transforms every vertex once per view. Vertices behind the near
// plane are flagged so triangles touching them are dropped.
func (c *Context) project(m *mesh.Mesh, p camera.Projector) {
	n := len(m.Verts)
	if cap(c.px) < n {
		c.px = make([]float64, n)
		c.py = make([]float64, n)
		c.pz = make([]float64, n)
		c.front = make([]bool, n)
	}
	c.px, c.py, c.pz, c.front = c.px[:n], c.py[:n], c.pz[:n], c.front[:n]

	for i, v := range m.Verts {
		x, y, depth, w := p.Screen(v)
		c.px[i], c.py[i] = x, y
		// NDC depth grows away from the camera; flip it so larger is nearer.
		c.pz[i] = -depth
		c.front[i] = w >= camera.NearPlane
	}
}
