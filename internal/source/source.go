// Package source defines the geometry collaborators the renderer consumes
// and an STL-backed implementation of them.
package source

import (
	"context"
	"fmt"

	"multiview-renderer/internal/edges"
	"multiview-renderer/internal/mesh"
)

// EdgeExtractor turns an input file into edge segments plus the shape's
// bounding box. withAdjacency asks for face normals per segment.
type EdgeExtractor interface {
	ExtractEdges(ctx context.Context, path string, deflection float64, withAdjacency bool) (*edges.Set, error)
}

// MeshConverter turns an input file into a renderable triangle mesh.
type MeshConverter interface {
	ConvertMesh(ctx context.Context, path string, deflection float64) (*mesh.Mesh, error)
}

// STL reads pre-tessellated STL input. The deflection a CAD kernel would use
// for tessellation is applied as the vertex weld tolerance instead.
type STL struct {
	FeatureAngle float64
}

// ConvertMesh parses path.
func (s STL) ConvertMesh(ctx context.Context, path string, deflection float64) (*mesh.Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := mesh.ParseSTL(path, weldTolerance(deflection))
	if err != nil {
		return nil, fmt.Errorf("source: convert %s: %w", path, err)
	}
	return m, nil
}

// ExtractEdges parses path and derives its geometric edges. With adjacency
// every mesh edge is returned so silhouette filtering sees smooth regions too.
func (s STL) ExtractEdges(ctx context.Context, path string, deflection float64, withAdjacency bool) (*edges.Set, error) {
	m, err := s.ConvertMesh(ctx, path, deflection)
	if err != nil {
		return nil, err
	}
	set, _ := edges.FromMesh(m, edges.Options{
		FeatureAngle:  s.FeatureAngle,
		IncludeSmooth: withAdjacency,
		WithAdjacency: withAdjacency,
	})
	return set, nil
}

// weldTolerance maps a tessellation deflection to a vertex merge grid one
// thousandth of its size, enough to close float32 cracks between facets.
func weldTolerance(deflection float64) float64 {
	if deflection <= 0 {
		return 0
	}
	return deflection * 1e-3
}

var (
	_ EdgeExtractor = STL{}
	_ MeshConverter = STL{}
)
