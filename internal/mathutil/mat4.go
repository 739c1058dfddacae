package mathutil

import "math"

// Mat4 is a 4×4 matrix stored row-major. Camera poses, view and projection
// matrices all use this layout.
type Mat4 [16]float64

func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4Mul returns a × b.
func Mat4Mul(a, b Mat4) Mat4 {
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r*4+c] = a[r*4+0]*b[0*4+c] + a[r*4+1]*b[1*4+c] +
				a[r*4+2]*b[2*4+c] + a[r*4+3]*b[3*4+c]
		}
	}
	return m
}

// MulVec4 returns M × v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	var out Vec4
	for r := 0; r < 4; r++ {
		out[r] = m[r*4+0]*v[0] + m[r*4+1]*v[1] + m[r*4+2]*v[2] + m[r*4+3]*v[3]
	}
	return out
}

// MulPoint transforms a 3D point (w=1) and returns the full homogeneous result.
func (m Mat4) MulPoint(v Vec3) Vec4 {
	return m.MulVec4(Vec4{v[0], v[1], v[2], 1})
}

// Column returns the first three components of column c.
func (m Mat4) Column(c int) Vec3 {
	return Vec3{m[c], m[4+c], m[8+c]}
}

// FromMat3Translation builds a 4×4 affine matrix from a 3×3 rotation and translation.
func FromMat3Translation(r Mat3, t Vec3) Mat4 {
	return Mat4{
		r[0], r[1], r[2], t[0],
		r[3], r[4], r[5], t[1],
		r[6], r[7], r[8], t[2],
		0, 0, 0, 1,
	}
}

// Inverse returns the inverse of m via Gauss-Jordan elimination with partial
// pivoting. ok is false when m is singular.
func (m Mat4) Inverse() (inv Mat4, ok bool) {
	a := m
	inv = Mat4Identity()
	for col := 0; col < 4; col++ {
		pivot := col
		best := math.Abs(a[col*4+col])
		for r := col + 1; r < 4; r++ {
			if v := math.Abs(a[r*4+col]); v > best {
				best, pivot = v, r
			}
		}
		if best < 1e-12 {
			return Mat4Identity(), false
		}
		if pivot != col {
			for c := 0; c < 4; c++ {
				a[col*4+c], a[pivot*4+c] = a[pivot*4+c], a[col*4+c]
				inv[col*4+c], inv[pivot*4+c] = inv[pivot*4+c], inv[col*4+c]
			}
		}
		p := 1 / a[col*4+col]
		for c := 0; c < 4; c++ {
			a[col*4+c] *= p
			inv[col*4+c] *= p
		}
		for r := 0; r < 4; r++ {
			if r == col {
				continue
			}
			f := a[r*4+col]
			if f == 0 {
				continue
			}
			for c := 0; c < 4; c++ {
				a[r*4+c] -= f * a[col*4+c]
				inv[r*4+c] -= f * inv[col*4+c]
			}
		}
	}
	return inv, true
}

// IsIdentity checks if the matrix is approximately identity.
func (m Mat4) IsIdentity() bool {
	id := Mat4Identity()
	for i := 0; i < 16; i++ {
		d := m[i] - id[i]
		if d > 1e-8 || d < -1e-8 {
			return false
		}
	}
	return true
}
