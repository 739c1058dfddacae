package raster

import "math"

// RasterizeTriangle fills one projected triangle with a flat color, testing
// and writing the z-buffer. px/py are pixel coordinates and pz is depth with
// larger values nearer the camera.
//
// Coverage is blended "over" what is already in the buffer, so alpha < 1
// leaves farther surfaces visible through nearer ones. This is the hot path
// and does not allocate.
func RasterizeTriangle(
	fb *FrameBuffer,
	px, py, pz []float64,
	vi [3]int,
	rgb [3]uint8,
	alpha float64,
) {
	nv := len(px)
	for _, i := range vi {
		if i < 0 || i >= nv {
			return
		}
	}
	if alpha <= 0 {
		return
	}

	x0, y0, z0 := px[vi[0]], py[vi[0]], pz[vi[0]]
	x1, y1, z1 := px[vi[1]], py[vi[1]], pz[vi[1]]
	x2, y2, z2 := px[vi[2]], py[vi[2]], pz[vi[2]]

	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))

	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	opaque := alpha >= 1
	a8 := clamp255(alpha * 255)
	keep := 1 - alpha
	sr := float64(rgb[0]) * alpha
	sg := float64(rgb[1]) * alpha
	sb := float64(rgb[2]) * alpha

	for sy := minY; sy <= maxY; sy++ {
		// Sample at pixel centers.
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}
			fb.ZBuf[zIdx] = z

			pxIdx := zIdx * 4
			if opaque {
				fb.Color[pxIdx] = rgb[0]
				fb.Color[pxIdx+1] = rgb[1]
				fb.Color[pxIdx+2] = rgb[2]
				fb.Color[pxIdx+3] = 255
				continue
			}
			fb.Color[pxIdx] = clamp255(sr + float64(fb.Color[pxIdx])*keep)
			fb.Color[pxIdx+1] = clamp255(sg + float64(fb.Color[pxIdx+1])*keep)
			fb.Color[pxIdx+2] = clamp255(sb + float64(fb.Color[pxIdx+2])*keep)
			fb.Color[pxIdx+3] = clamp255(float64(a8) + float64(fb.Color[pxIdx+3])*keep)
		}
	}
}
