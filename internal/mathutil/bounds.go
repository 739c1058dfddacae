package mathutil

import "math"

// Bounds is an axis-aligned bounding box. The zero value is not empty;
// start from EmptyBounds when accumulating points.
type Bounds struct {
	Min Vec3
	Max Vec3
}

// EmptyBounds returns a box that any Extend call will replace.
func EmptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Extend grows b to contain p.
func (b Bounds) Extend(p Vec3) Bounds {
	return Bounds{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union grows b to contain o.
func (b Bounds) Union(o Bounds) Bounds {
	if o.Empty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Empty reports whether no point has been added.
func (b Bounds) Empty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

func (b Bounds) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Diagonal is the length of Max-Min, the scene scale used for camera distance.
func (b Bounds) Diagonal() float64 {
	if b.Empty() {
		return 0
	}
	return b.Max.Sub(b.Min).Len()
}

func (b Bounds) Size() Vec3 {
	if b.Empty() {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}
