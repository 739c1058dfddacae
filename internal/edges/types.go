package edges

import "multiview-renderer/internal/mathutil"

// Segment is one discretised piece of a geometric edge. Immutable once extracted.
type Segment struct {
	P1 mathutil.Vec3
	P2 mathutil.Vec3
}

// Adjacency holds the unit normals of the faces sharing segment Index.
type Adjacency struct {
	Index   int
	Normals []mathutil.Vec3
}

// Set is the per-shape output of edge extraction. Adjacency is nil when the
// extractor was not asked for face information.
type Set struct {
	Segments  []Segment
	Adjacency []Adjacency
	Bounds    mathutil.Bounds
}

// Endpoints returns the bounding box of all segment endpoints.
func (s *Set) Endpoints() mathutil.Bounds {
	b := mathutil.EmptyBounds()
	for _, seg := range s.Segments {
		b = b.Extend(seg.P1).Extend(seg.P2)
	}
	return b
}

// Len returns the number of segments.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Segments)
}
