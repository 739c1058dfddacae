package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"multiview-renderer/internal/camera"
	"multiview-renderer/internal/edges"
	"multiview-renderer/internal/filter"
	"multiview-renderer/internal/render"
	"multiview-renderer/internal/source"
)

func main() {
	views := flag.Int("views", 3, "Number of viewpoints to list")
	featureAngle := flag.Float64("feature-angle", edges.DefaultFeatureAngle, "Dihedral angle (degrees) above which an edge is a feature edge")
	deflection := flag.Float64("deflection", 0.1, "Tessellation deflection (weld tolerance for STL)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: inspect [flags] part.stl")
		os.Exit(2)
	}
	path := flag.Arg(0)

	src := source.STL{FeatureAngle: *featureAngle}
	m, err := src.ConvertMesh(context.Background(), path, *deflection)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	b := m.Bounds()
	size := b.Size()
	fmt.Printf("Mesh %q: verts=%d, tris=%d\n", m.Name, len(m.Verts), len(m.Tris))
	fmt.Printf("  BBox: X[%.3f, %.3f] Y[%.3f, %.3f] Z[%.3f, %.3f]\n",
		b.Min[0], b.Max[0], b.Min[1], b.Max[1], b.Min[2], b.Max[2])
	fmt.Printf("  Size: %.3f x %.3f x %.3f, diagonal %.3f\n", size[0], size[1], size[2], b.Diagonal())

	features, st := edges.FromMesh(m, edges.Options{FeatureAngle: *featureAngle})
	fmt.Printf("Edges: boundary=%d feature=%d smooth=%d non-manifold=%d (total %d)\n",
		st.Boundary, st.Feature, st.Smooth, st.NonManifold, st.Total())
	fmt.Printf("  Drawn in wireframe/shaded_with_edges: %d\n", features.Len())

	all, _ := edges.FromMesh(m, edges.Options{FeatureAngle: *featureAngle, IncludeSmooth: true, WithAdjacency: true})

	center := b.Center()
	distance := render.DefaultDistanceFactor * b.Diagonal()
	fmt.Printf("Cameras: center (%.3f, %.3f, %.3f), distance %.3f\n", center[0], center[1], center[2], distance)
	for _, v := range camera.Generate(*views, center, distance) {
		sil := filter.Silhouette(all.Segments, all.Adjacency, v.Direction, center, filter.DefaultEpsilon)
		fmt.Printf("  %s  pos (%.2f, %.2f, %.2f)  silhouette edges %d\n",
			v.Name, v.Position[0], v.Position[1], v.Position[2], len(sil))
	}
}
