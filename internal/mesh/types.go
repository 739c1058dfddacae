package mesh

import (
	"errors"

	"multiview-renderer/internal/mathutil"
)

// ErrEmptyMesh is returned when a file parses but holds no triangles.
var ErrEmptyMesh = errors.New("mesh: no triangles")

// Mesh is an indexed triangle mesh with welded vertices.
type Mesh struct {
	Name  string
	Verts []mathutil.Vec3
	Tris  [][3]int
}

// Bounds returns the bounding box of all vertices referenced or not.
func (m *Mesh) Bounds() mathutil.Bounds {
	b := mathutil.EmptyBounds()
	for _, v := range m.Verts {
		b = b.Extend(v)
	}
	return b
}

// FaceNormal returns the unit normal of triangle i following its winding.
// ok is false for degenerate (zero-area) triangles.
func (m *Mesh) FaceNormal(i int) (n mathutil.Vec3, ok bool) {
	t := m.Tris[i]
	v0, v1, v2 := m.Verts[t[0]], m.Verts[t[1]], m.Verts[t[2]]
	c := v1.Sub(v0).Cross(v2.Sub(v0))
	if c.Len() < 1e-12 {
		return mathutil.Vec3{}, false
	}
	return c.Normalize(), true
}

// FaceNormals returns one normal per triangle; degenerate entries are zero
// and flagged false in the second slice.
func (m *Mesh) FaceNormals() ([]mathutil.Vec3, []bool) {
	normals := make([]mathutil.Vec3, len(m.Tris))
	valid := make([]bool, len(m.Tris))
	for i := range m.Tris {
		normals[i], valid[i] = m.FaceNormal(i)
	}
	return normals, valid
}
