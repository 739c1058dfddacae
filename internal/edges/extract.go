package edges

import (
	"math"

	"multiview-renderer/internal/mathutil"
	"multiview-renderer/internal/mesh"
)

// DefaultFeatureAngle is the dihedral angle (degrees) above which an edge
// between two faces counts as a geometric edge rather than tessellation.
const DefaultFeatureAngle = 30.0

// Options controls FromMesh.
type Options struct {
	FeatureAngle  float64 // degrees; <= 0 uses DefaultFeatureAngle
	IncludeSmooth bool    // keep edges below the feature angle too
	WithAdjacency bool
}

// Kind classifies a mesh edge by its adjacent faces.
type Kind int

const (
	Boundary Kind = iota
	Feature
	Smooth
	NonManifold
)

// Stats counts mesh edges by Kind.
type Stats struct {
	Boundary    int
	Feature     int
	Smooth      int
	NonManifold int
}

func (s Stats) Total() int {
	return s.Boundary + s.Feature + s.Smooth + s.NonManifold
}

type edgeKey [2]int

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// FromMesh derives edge segments (and optionally face adjacency) from a
// triangle mesh. Output order follows triangle order, then the triangle's
// local edge order, so the result is deterministic for a given mesh.
func FromMesh(m *mesh.Mesh, opts Options) (*Set, Stats) {
	angle := opts.FeatureAngle
	if angle <= 0 {
		angle = DefaultFeatureAngle
	}
	cosLimit := math.Cos(mathutil.Deg2Rad(angle))

	normals, valid := m.FaceNormals()

	faces := make(map[edgeKey][]int)
	var order []edgeKey
	for ti, tri := range m.Tris {
		if !valid[ti] {
			continue
		}
		for k := 0; k < 3; k++ {
			key := keyOf(tri[k], tri[(k+1)%3])
			if _, seen := faces[key]; !seen {
				order = append(order, key)
			}
			faces[key] = append(faces[key], ti)
		}
	}

	set := &Set{Bounds: m.Bounds()}
	var stats Stats
	for _, key := range order {
		adj := faces[key]
		kind := classify(adj, normals, cosLimit)
		switch kind {
		case Boundary:
			stats.Boundary++
		case Feature:
			stats.Feature++
		case Smooth:
			stats.Smooth++
		case NonManifold:
			stats.NonManifold++
		}
		if kind == Smooth && !opts.IncludeSmooth {
			continue
		}

		idx := len(set.Segments)
		set.Segments = append(set.Segments, Segment{P1: m.Verts[key[0]], P2: m.Verts[key[1]]})
		if opts.WithAdjacency {
			ns := make([]mathutil.Vec3, len(adj))
			for i, f := range adj {
				ns[i] = normals[f]
			}
			set.Adjacency = append(set.Adjacency, Adjacency{Index: idx, Normals: ns})
		}
	}
	return set, stats
}

func classify(adj []int, normals []mathutil.Vec3, cosLimit float64) Kind {
	switch {
	case len(adj) == 1:
		return Boundary
	case len(adj) > 2:
		return NonManifold
	}
	if normals[adj[0]].Dot(normals[adj[1]]) < cosLimit {
		return Feature
	}
	return Smooth
}
