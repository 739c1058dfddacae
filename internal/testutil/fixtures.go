// Package testutil holds geometry fixtures shared by package tests.
package testutil

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"multiview-renderer/internal/mathutil"
	"multiview-renderer/internal/mesh"
)

// boxTris lists the 12 outward-wound triangles of a box whose corner i sits
// at (i&1, i>>1&1, i>>2&1) in unit coordinates.
var boxTris = [][3]int{
	{0, 2, 3}, {0, 3, 1}, // -Z
	{4, 5, 7}, {4, 7, 6}, // +Z
	{0, 1, 5}, {0, 5, 4}, // -Y
	{2, 6, 7}, {2, 7, 3}, // +Y
	{0, 4, 6}, {0, 6, 2}, // -X
	{1, 3, 7}, {1, 7, 5}, // +X
}

// Box returns a closed axis-aligned box mesh spanning min..max.
func Box(min, max mathutil.Vec3) *mesh.Mesh {
	m := &mesh.Mesh{Name: "box"}
	for i := 0; i < 8; i++ {
		v := min
		if i&1 != 0 {
			v[0] = max[0]
		}
		if i&2 != 0 {
			v[1] = max[1]
		}
		if i&4 != 0 {
			v[2] = max[2]
		}
		m.Verts = append(m.Verts, v)
	}
	m.Tris = append(m.Tris, boxTris...)
	return m
}

// UnitCube is Box((-0.5,-0.5,-0.5), (0.5,0.5,0.5)).
func UnitCube() *mesh.Mesh {
	return Box(mathutil.Vec3{-0.5, -0.5, -0.5}, mathutil.Vec3{0.5, 0.5, 0.5})
}

// WriteBinarySTL encodes m as binary STL.
func WriteBinarySTL(w io.Writer, m *mesh.Mesh) error {
	var header [80]byte
	copy(header[:], "solid "+m.Name)
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.Tris))); err != nil {
		return err
	}
	rec := make([]byte, 50)
	for i, t := range m.Tris {
		n, _ := m.FaceNormal(i)
		put := func(off int, v mathutil.Vec3) {
			for c := 0; c < 3; c++ {
				binary.LittleEndian.PutUint32(rec[off+4*c:], math.Float32bits(float32(v[c])))
			}
		}
		put(0, n)
		for k := 0; k < 3; k++ {
			put(12+12*k, m.Verts[t[k]])
		}
		if _, err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// WriteASCIISTL encodes m as ASCII STL.
func WriteASCIISTL(w io.Writer, m *mesh.Mesh) error {
	if _, err := fmt.Fprintf(w, "solid %s\n", m.Name); err != nil {
		return err
	}
	for i, t := range m.Tris {
		n, _ := m.FaceNormal(i)
		fmt.Fprintf(w, "  facet normal %g %g %g\n    outer loop\n", n[0], n[1], n[2])
		for k := 0; k < 3; k++ {
			v := m.Verts[t[k]]
			fmt.Fprintf(w, "      vertex %g %g %g\n", v[0], v[1], v[2])
		}
		fmt.Fprintf(w, "    endloop\n  endfacet\n")
	}
	_, err := fmt.Fprintf(w, "endsolid %s\n", m.Name)
	return err
}

// WriteSTLFile writes m to dir/name as binary STL and returns the path.
func WriteSTLFile(t testing.TB, dir, name string, m *mesh.Mesh) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := WriteBinarySTL(f, m); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
