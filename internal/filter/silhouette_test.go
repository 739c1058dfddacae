package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"multiview-renderer/internal/edges"
	"multiview-renderer/internal/mathutil"
	"multiview-renderer/internal/testutil"
)

var seg = edges.Segment{P1: mathutil.Vec3{0, 0, 0}, P2: mathutil.Vec3{1, 0, 0}}

func TestSilhouetteFaceCounts(t *testing.T) {
	view := mathutil.Vec3{0, 0, -1}
	tests := []struct {
		name    string
		normals []mathutil.Vec3
		keep    bool
	}{
		{"free edge", nil, true},
		{"boundary edge", []mathutil.Vec3{{0, 0, 1}}, true},
		{"both facing camera", []mathutil.Vec3{{0, 0.6, -0.8}, {0, -0.6, -0.8}}, false},
		{"both facing away", []mathutil.Vec3{{0, 0.6, 0.8}, {0, -0.6, 0.8}}, false},
		{"front and back", []mathutil.Vec3{{0, 0.6, -0.8}, {0, 0.6, 0.8}}, true},
		{"one edge-on within epsilon", []mathutil.Vec3{{0, 1, -0.005}, {0, -0.6, 0.8}}, false},
		{"non-manifold with mixed facing", []mathutil.Vec3{{0, 1, 0}, {0, 0, -1}, {0, 0, 1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj := []edges.Adjacency{{Index: 0, Normals: tt.normals}}
			got := Silhouette([]edges.Segment{seg}, adj, view, mathutil.Vec3{}, DefaultEpsilon)
			if tt.keep {
				assert.Equal(t, []edges.Segment{seg}, got)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestSilhouetteEpsilonIsTunable(t *testing.T) {
	adj := []edges.Adjacency{{Index: 0, Normals: []mathutil.Vec3{{0, 1, -0.05}, {0, -1, 0.05}}}}
	view := mathutil.Vec3{0, 0, -1}
	assert.Len(t, Silhouette([]edges.Segment{seg}, adj, view, mathutil.Vec3{}, 0.01), 1)
	assert.Empty(t, Silhouette([]edges.Segment{seg}, adj, view, mathutil.Vec3{}, 0.1))
}

func TestSilhouetteIgnoresBadIndex(t *testing.T) {
	adj := []edges.Adjacency{{Index: 3}, {Index: -1}, {Index: 0}}
	got := Silhouette([]edges.Segment{seg}, adj, mathutil.AxisZ, mathutil.Vec3{}, DefaultEpsilon)
	assert.Equal(t, []edges.Segment{seg}, got)
}

func TestSilhouetteCube(t *testing.T) {
	set, _ := edges.FromMesh(testutil.UnitCube(), edges.Options{IncludeSmooth: true, WithAdjacency: true})

	// Looking straight down -Z every side face is edge-on, so no edge has a
	// clearly front and clearly back neighbour.
	down := Silhouette(set.Segments, set.Adjacency, mathutil.Vec3{0, 0, -1}, mathutil.Vec3{}, DefaultEpsilon)
	assert.Empty(t, down)

	// From a corner, three faces are visible and the outline is a hexagon.
	corner := mathutil.Vec3{-1, -1, -1}.Normalize()
	outline := Silhouette(set.Segments, set.Adjacency, corner, mathutil.Vec3{}, DefaultEpsilon)
	assert.Len(t, outline, 6)
	for _, s := range outline {
		assert.InDelta(t, 1.0, s.P2.Sub(s.P1).Len(), 1e-12, "outline uses box edges, never face diagonals")
	}
}

func TestSilhouetteIdempotent(t *testing.T) {
	set, _ := edges.FromMesh(testutil.UnitCube(), edges.Options{IncludeSmooth: true, WithAdjacency: true})
	rapid.Check(t, func(t *rapid.T) {
		view := mathutil.Vec3{
			rapid.Float64Range(-1, 1).Draw(t, "x"),
			rapid.Float64Range(-1, 1).Draw(t, "y"),
			rapid.Float64Range(-1, 1).Draw(t, "z"),
		}.Normalize()
		first := Silhouette(set.Segments, set.Adjacency, view, mathutil.Vec3{}, DefaultEpsilon)
		second := Silhouette(set.Segments, set.Adjacency, view, mathutil.Vec3{}, DefaultEpsilon)
		require.Equal(t, first, second)
		if len(first) > len(set.Segments) {
			t.Fatalf("filter grew the edge list: %d > %d", len(first), len(set.Segments))
		}
	})
}
