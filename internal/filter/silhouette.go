package filter

import (
	"multiview-renderer/internal/edges"
	"multiview-renderer/internal/mathutil"
)

// DefaultEpsilon keeps faces nearly edge-on to the camera from flipping an
// edge in and out of the silhouette on rounding noise.
const DefaultEpsilon = 0.01

// Silhouette returns the segments that outline the shape as seen along
// viewDir. Segments with zero or one adjacent face are always kept; shared
// edges are kept only when one neighbour faces the camera and another faces
// away. adj is walked in order, and entries pointing outside segs are
// ignored. The test is purely directional, so center is unused.
func Silhouette(segs []edges.Segment, adj []edges.Adjacency, viewDir, center mathutil.Vec3, eps float64) []edges.Segment {
	var out []edges.Segment
	for _, a := range adj {
		if a.Index < 0 || a.Index >= len(segs) {
			continue
		}
		if len(a.Normals) < 2 || separates(a.Normals, viewDir, eps) {
			out = append(out, segs[a.Index])
		}
	}
	return out
}

func separates(normals []mathutil.Vec3, viewDir mathutil.Vec3, eps float64) bool {
	var front, back bool
	for _, n := range normals {
		d := n.Dot(viewDir)
		if d > eps {
			front = true
		} else if d < -eps {
			back = true
		}
		if front && back {
			return true
		}
	}
	return false
}
