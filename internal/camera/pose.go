package camera

import "multiview-renderer/internal/mathutil"

// LookAt builds a camera-to-world pose for a camera at pos looking at target.
// The camera looks down its local -Z axis with +Y up (OpenGL convention).
// up must not be parallel to target-pos.
func LookAt(pos, target, up mathutil.Vec3) mathutil.Mat4 {
	forward := target.Sub(pos).Normalize()
	right := forward.Cross(up).Normalize()
	trueUp := right.Cross(forward).Normalize()

	basis := mathutil.Mat3FromColumns(right, trueUp, forward.Neg())
	return mathutil.FromMat3Translation(basis, pos)
}

// Pose builds the pose of a generated view aimed at center.
func (v View) Pose(center mathutil.Vec3) mathutil.Mat4 {
	return LookAt(v.Position, center, v.Up)
}
