package mesh

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"multiview-renderer/internal/mathutil"
)

const (
	stlHeaderSize = 80
	stlRecordSize = 50 // normal + 3 vertices (12 float32) + attribute count
)

// ParseSTL reads a binary or ASCII STL file. Vertices closer than weld
// (grid-quantised) are merged; weld <= 0 merges only identical positions.
func ParseSTL(path string, weld float64) (*Mesh, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: read %s: %w", path, err)
	}
	m, err := decode(raw, weld)
	if err != nil {
		return nil, fmt.Errorf("mesh: %s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

// ReadSTL decodes an STL stream.
func ReadSTL(r io.Reader, weld float64) (*Mesh, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("mesh: read stream: %w", err)
	}
	return decode(raw, weld)
}

func decode(raw []byte, weld float64) (*Mesh, error) {
	b := newBuilder(weld)
	var err error
	if isBinary(raw) {
		err = b.readBinary(raw)
	} else if bytes.HasPrefix(bytes.TrimLeft(raw, " \t\r\n"), []byte("solid")) {
		err = b.readASCII(raw)
	} else {
		err = b.readBinary(raw)
	}
	if err != nil {
		return nil, err
	}
	if len(b.mesh.Tris) == 0 {
		return nil, ErrEmptyMesh
	}
	return b.mesh, nil
}

// isBinary trusts the triangle count in the header: ASCII files that happen
// to start with "solid" never match 84 + 50n exactly in practice.
func isBinary(raw []byte) bool {
	if len(raw) < stlHeaderSize+4 {
		return false
	}
	n := binary.LittleEndian.Uint32(raw[stlHeaderSize:])
	return uint64(len(raw)) == stlHeaderSize+4+uint64(n)*stlRecordSize
}

type builder struct {
	mesh  *Mesh
	weld  float64
	exact map[mathutil.Vec3]int
	grid  map[[3]int64]int
}

func newBuilder(weld float64) *builder {
	b := &builder{mesh: &Mesh{}, weld: weld}
	if weld > 0 {
		b.grid = make(map[[3]int64]int)
	} else {
		b.exact = make(map[mathutil.Vec3]int)
	}
	return b
}

func (b *builder) vertex(v mathutil.Vec3) int {
	if b.grid != nil {
		key := [3]int64{
			int64(math.Round(v[0] / b.weld)),
			int64(math.Round(v[1] / b.weld)),
			int64(math.Round(v[2] / b.weld)),
		}
		if idx, ok := b.grid[key]; ok {
			return idx
		}
		idx := len(b.mesh.Verts)
		b.mesh.Verts = append(b.mesh.Verts, v)
		b.grid[key] = idx
		return idx
	}
	if idx, ok := b.exact[v]; ok {
		return idx
	}
	idx := len(b.mesh.Verts)
	b.mesh.Verts = append(b.mesh.Verts, v)
	b.exact[v] = idx
	return idx
}

func (b *builder) triangle(p [3]mathutil.Vec3) {
	var tri [3]int
	for i := range p {
		tri[i] = b.vertex(p[i])
	}
	// Welding can collapse a sliver into a line or a point.
	if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
		return
	}
	b.mesh.Tris = append(b.mesh.Tris, tri)
}

func (b *builder) readBinary(raw []byte) error {
	if len(raw) < stlHeaderSize+4 {
		return fmt.Errorf("truncated binary STL header (%d bytes)", len(raw))
	}
	b.mesh.Name = strings.TrimSpace(strings.TrimRight(string(raw[:stlHeaderSize]), "\x00"))
	b.mesh.Name = strings.TrimPrefix(b.mesh.Name, "solid ")
	n := int(binary.LittleEndian.Uint32(raw[stlHeaderSize:]))
	data := raw[stlHeaderSize+4:]
	if len(data) < n*stlRecordSize {
		return fmt.Errorf("truncated binary STL: %d triangles declared, %d bytes present", n, len(data))
	}

	for i := 0; i < n; i++ {
		rec := data[i*stlRecordSize:]
		var p [3]mathutil.Vec3
		for v := 0; v < 3; v++ {
			for c := 0; c < 3; c++ {
				const start = 3 * 4 // skip stored normal, recomputed from winding
				bits := binary.LittleEndian.Uint32(rec[start+12*v+4*c:])
				p[v][c] = float64(math.Float32frombits(bits))
			}
		}
		b.triangle(p)
	}
	return nil
}

func (b *builder) readASCII(raw []byte) error {
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		facet  [3]mathutil.Vec3
		nVerts int
		inLoop bool
		line   int
	)
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "solid":
			if len(fields) > 1 && b.mesh.Name == "" {
				b.mesh.Name = strings.Join(fields[1:], " ")
			}
		case "outer":
			inLoop = true
			nVerts = 0
		case "vertex":
			if !inLoop {
				return fmt.Errorf("parse ascii line %d: vertex outside loop", line)
			}
			if len(fields) != 4 {
				return fmt.Errorf("parse ascii line %d: want 3 coordinates, got %d", line, len(fields)-1)
			}
			if nVerts >= 3 {
				return fmt.Errorf("parse ascii line %d: facet has more than 3 vertices", line)
			}
			for c := 0; c < 3; c++ {
				f, err := strconv.ParseFloat(fields[c+1], 64)
				if err != nil {
					return fmt.Errorf("parse ascii line %d: %w", line, err)
				}
				facet[nVerts][c] = f
			}
			nVerts++
		case "endloop":
			if nVerts != 3 {
				return fmt.Errorf("parse ascii line %d: facet has %d vertices", line, nVerts)
			}
			b.triangle(facet)
			inLoop = false
		case "facet", "endfacet", "endsolid":
		default:
			return fmt.Errorf("parse ascii line %d: unexpected keyword %q", line, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("parse ascii: %w", err)
	}
	return nil
}
