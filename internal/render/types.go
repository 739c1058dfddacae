package render

import (
	"context"
	"image"
	"sync"

	"multiview-renderer/internal/edges"
	"multiview-renderer/internal/encode"
	"multiview-renderer/internal/mathutil"
	"multiview-renderer/internal/mesh"
)

// DefaultDistanceFactor places the camera at this multiple of the scene
// bounding-box diagonal.
const DefaultDistanceFactor = 2.5

// Request describes one shape to render from several viewpoints.
type Request struct {
	PartNumber string
	Mode       Mode
	Mesh       *mesh.Mesh // required by Shaded and ShadedWithEdges
	Edges      *edges.Set // may be nil or empty
	Views      int
	Width      int
	Height     int

	EdgeColor [3]float64
	EdgeWidth float64
	// Transparency is the mesh opacity, clamped to [0, 1]. One is opaque;
	// zero leaves only background and edges visible.
	Transparency float64

	DistanceFactor    float64 // zero means DefaultDistanceFactor
	Supersample       int     // zero means no supersampling
	Format            encode.Format
	Background        *image.RGBA // Width×Height; nil means white
	SilhouetteEpsilon float64     // zero means filter.DefaultEpsilon
	Workers           int         // views rendered in parallel; zero means one
}

// Perspective records where the camera was for one image.
type Perspective struct {
	Index           int           `json:"-"`
	Filename        string        `json:"filename"`
	Azimuth         int           `json:"azimuth"`
	Elevation       int           `json:"elevation"`
	CameraPosition  mathutil.Vec3 `json:"camera_position"`
	CameraDirection mathutil.Vec3 `json:"camera_direction"`
}

// Frame is one encoded view.
type Frame struct {
	Filename    string
	Data        []byte
	Perspective Perspective
}

// Result summarizes a finished render. Perspectives are in view order.
type Result struct {
	PartNumber   string
	Mode         Mode
	Center       mathutil.Vec3
	Distance     float64
	Images       []string
	Perspectives []Perspective
}

// Sink receives frames in view order.
type Sink interface {
	WriteFrame(ctx context.Context, f Frame) error
}

// MemorySink keeps frames in memory.
type MemorySink struct {
	mu     sync.Mutex
	Frames []Frame
}

func (s *MemorySink) WriteFrame(_ context.Context, f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Frames = append(s.Frames, f)
	return nil
}
