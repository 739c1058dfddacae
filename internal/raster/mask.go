package raster

// Mask is a binary raster used to build edge overlays.
type Mask struct {
	Width  int
	Height int
	Bits   []bool // row-major, len = W*H
}

// NewMask allocates an empty w×h mask.
func NewMask(w, h int) *Mask {
	return &Mask{Width: w, Height: h, Bits: make([]bool, w*h)}
}

func (m *Mask) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// Set marks pixel (x, y). Out-of-bounds pixels are ignored.
func (m *Mask) Set(x, y int) {
	if m.inside(x, y) {
		m.Bits[y*m.Width+x] = true
	}
}

// At reports whether (x, y) is set; outside the mask is unset.
func (m *Mask) At(x, y int) bool {
	return m.inside(x, y) && m.Bits[y*m.Width+x]
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// DrawLine sets every pixel of the integer Bresenham line from (x0, y0) to
// (x1, y1), both endpoints included.
func (m *Mask) DrawLine(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx - dy
	for {
		m.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		// Strict comparisons: on an exact tie x steps before y.
		e2 := 2 * e
		if e2 > -dy {
			e -= dy
			x0 += sx
		}
		if e2 < dx {
			e += dx
			y0 += sy
		}
	}
}

// Dilate grows the mask by n iterations of a 4-connected cross. Pixels
// outside the mask count as unset.
func (m *Mask) Dilate(n int) {
	if n <= 0 {
		return
	}
	src := make([]bool, len(m.Bits))
	for ; n > 0; n-- {
		copy(src, m.Bits)
		for y := 0; y < m.Height; y++ {
			row := y * m.Width
			for x := 0; x < m.Width; x++ {
				i := row + x
				if src[i] {
					continue
				}
				if (x > 0 && src[i-1]) || (x+1 < m.Width && src[i+1]) ||
					(y > 0 && src[i-m.Width]) || (y+1 < m.Height && src[i+m.Width]) {
					m.Bits[i] = true
				}
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
