package camera

import (
	"errors"
	"math"

	"multiview-renderer/internal/mathutil"
)

// Projection constants shared by the rasterizer and the edge overlay so
// lines land on the shaded pixels they outline.
const (
	FieldOfView = math.Pi / 4 // vertical, radians
	NearPlane   = 0.1
	FarFactor   = 10.0 // far plane = FarFactor × camera distance

	// minW guards the perspective divide.
	minW = 1e-6
)

// ErrSingularPose is returned when a pose cannot be inverted into a view matrix.
var ErrSingularPose = errors.New("camera: singular pose")

// Perspective returns a symmetric OpenGL-style projection matrix.
func Perspective(fovY, aspect, near, far float64) mathutil.Mat4 {
	f := 1 / math.Tan(fovY/2)
	return mathutil.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, -(far + near) / (far - near), -(2 * far * near) / (far - near),
		0, 0, -1, 0,
	}
}

// ProjectionFor returns the projection used for an image of w×h pixels and a
// camera at distance from the scene centre.
func ProjectionFor(w, h int, distance float64) mathutil.Mat4 {
	return Perspective(FieldOfView, float64(w)/float64(h), NearPlane, distance*FarFactor)
}

// Visibility is the outcome of projecting one point.
type Visibility int

const (
	Visible    Visibility = iota
	Degenerate            // |w| too small for the perspective divide
	Offscreen             // outside the image
)

func (v Visibility) String() string {
	switch v {
	case Visible:
		return "visible"
	case Degenerate:
		return "degenerate"
	case Offscreen:
		return "offscreen"
	}
	return "unknown"
}

// Projector maps world points to pixel coordinates of a Width×Height image.
type Projector struct {
	ViewProj mathutil.Mat4
	Width    int
	Height   int
}

// NewProjector combines the inverse of pose with proj.
func NewProjector(pose, proj mathutil.Mat4, width, height int) (Projector, error) {
	view, ok := pose.Inverse()
	if !ok {
		return Projector{}, ErrSingularPose
	}
	return Projector{ViewProj: mathutil.Mat4Mul(proj, view), Width: width, Height: height}, nil
}

// Screen returns sub-pixel screen coordinates, the NDC depth and clip W.
// Row 0 is the top of the image.
func (p Projector) Screen(pt mathutil.Vec3) (x, y, depth, w float64) {
	clip := p.ViewProj.MulPoint(pt)
	w = clip[3]
	if math.Abs(w) <= minW {
		return 0, 0, 0, w
	}
	ndc := clip.XYZ().Scale(1 / w)
	x = (ndc[0] + 1) * float64(p.Width) / 2
	y = (1 - ndc[1]) * float64(p.Height) / 2
	return x, y, ndc[2], w
}

// Project maps pt to an integer pixel. Coordinates truncate toward zero.
func (p Projector) Project(pt mathutil.Vec3) (x, y int, vis Visibility) {
	fx, fy, _, w := p.Screen(pt)
	if math.Abs(w) <= minW {
		return 0, 0, Degenerate
	}
	// int() truncates toward zero, so (-1, 0) still lands on pixel 0.
	if !(fx > -1 && fx < float64(p.Width) && fy > -1 && fy < float64(p.Height)) {
		return 0, 0, Offscreen
	}
	x, y = int(fx), int(fy)
	if x >= p.Width || y >= p.Height {
		return 0, 0, Offscreen
	}
	return x, y, Visible
}

// ProjectSegment projects both endpoints. A segment is Degenerate when
// either end is, else Offscreen when either end is outside the image.
func (p Projector) ProjectSegment(a, b mathutil.Vec3) (x0, y0, x1, y1 int, vis Visibility) {
	x0, y0, va := p.Project(a)
	x1, y1, vb := p.Project(b)
	switch {
	case va == Degenerate || vb == Degenerate:
		return 0, 0, 0, 0, Degenerate
	case va == Offscreen || vb == Offscreen:
		return 0, 0, 0, 0, Offscreen
	}
	return x0, y0, x1, y1, Visible
}
