// Package overlay projects 3D edge segments onto a rendered image and paints
// them as opaque lines.
package overlay

import (
	"fmt"
	"image"
	"math"

	"multiview-renderer/internal/camera"
	"multiview-renderer/internal/edges"
	"multiview-renderer/internal/mathutil"
	"multiview-renderer/internal/raster"
)

// Params describes the camera and line style of one overlay pass.
type Params struct {
	Width, Height int
	Distance      float64    // camera distance, sets the far plane
	Color         [3]float64 // 0..1 per channel, clamped
	LineWidth     float64    // pixels; values above 1 dilate the lines
}

// Stats counts what happened to each segment.
type Stats struct {
	Drawn      int
	Degenerate int
	Offscreen  int
}

// Total returns the number of segments considered.
func (s Stats) Total() int { return s.Drawn + s.Degenerate + s.Offscreen }

// DrawEdges returns a copy of img with segs drawn from the camera at pose.
// img itself is never modified. A segment is skipped entirely when either
// endpoint cannot be projected or falls outside the image; there is no
// clipping.
func DrawEdges(img *image.RGBA, segs []edges.Segment, pose mathutil.Mat4, p Params) (*image.RGBA, Stats, error) {
	var st Stats
	out := raster.CloneRGBA(img)

	proj, err := camera.NewProjector(pose, camera.ProjectionFor(p.Width, p.Height, p.Distance), p.Width, p.Height)
	if err != nil {
		return nil, st, fmt.Errorf("overlay: %w", err)
	}

	mask := raster.NewMask(p.Width, p.Height)
	for _, s := range segs {
		x0, y0, x1, y1, vis := proj.ProjectSegment(s.P1, s.P2)
		switch vis {
		case camera.Degenerate:
			st.Degenerate++
			continue
		case camera.Offscreen:
			st.Offscreen++
			continue
		}
		mask.DrawLine(x0, y0, x1, y1)
		st.Drawn++
	}
	if st.Drawn == 0 {
		return out, st, nil
	}

	if p.LineWidth > 1 {
		mask.Dilate(int(p.LineWidth))
	}

	r, g, b := channel(p.Color[0]), channel(p.Color[1]), channel(p.Color[2])
	bounds := out.Bounds()
	for y := 0; y < p.Height && y < bounds.Dy(); y++ {
		for x := 0; x < p.Width && x < bounds.Dx(); x++ {
			if !mask.At(x, y) {
				continue
			}
			i := out.PixOffset(x, y)
			out.Pix[i] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = b
			out.Pix[i+3] = 255
		}
	}
	return out, st, nil
}

// channel converts a 0..1 intensity to a byte, truncating the fraction.
func channel(c float64) uint8 {
	return uint8(math.Max(0, math.Min(1, c)) * 255)
}
