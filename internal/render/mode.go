package render

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned for a render mode outside the closed set.
var ErrUnknownMode = errors.New("render: unknown mode")

// Mode selects how a shape is drawn.
type Mode int

const (
	// Shaded draws the lit mesh with silhouette edges only.
	Shaded Mode = iota
	// Wireframe draws every geometric edge on the background, no mesh.
	Wireframe
	// ShadedWithEdges draws the lit mesh with every geometric edge.
	ShadedWithEdges
)

// Modes lists every valid mode.
var Modes = []Mode{Shaded, Wireframe, ShadedWithEdges}

// ParseMode accepts the names produced by String. Hyphens may replace
// underscores.
func ParseMode(s string) (Mode, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "shaded":
		return Shaded, nil
	case "wireframe":
		return Wireframe, nil
	case "shaded_with_edges":
		return ShadedWithEdges, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) String() string {
	switch m {
	case Shaded:
		return "shaded"
	case Wireframe:
		return "wireframe"
	case ShadedWithEdges:
		return "shaded_with_edges"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Validate returns ErrUnknownMode for values outside the enum.
func (m Mode) Validate() error {
	switch m {
	case Shaded, Wireframe, ShadedWithEdges:
		return nil
	}
	return fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
}

// NeedsMesh reports whether the mode rasterizes a triangle mesh.
func (m Mode) NeedsMesh() (bool, error) {
	switch m {
	case Shaded, ShadedWithEdges:
		return true, nil
	case Wireframe:
		return false, nil
	}
	return false, m.Validate()
}

// NeedsAdjacency reports whether edge extraction must include face
// adjacency for silhouette filtering.
func (m Mode) NeedsAdjacency() (bool, error) {
	switch m {
	case Shaded:
		return true, nil
	case Wireframe, ShadedWithEdges:
		return false, nil
	}
	return false, m.Validate()
}
