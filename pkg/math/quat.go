package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Quat represents a quaternion for 3D rotations.
// W is the scalar part, V the vector part.
type Quat = mgl32.Quat

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return mgl32.QuatIdent()
}

// QuatFromXYZW creates a quaternion from components stored as X, Y, Z, W.
// This is the order used by glTF and by exported animation files.
func QuatFromXYZW(v [4]float32) Quat {
	return Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}

// QuatToXYZW returns the quaternion components as X, Y, Z, W.
func QuatToXYZW(q Quat) [4]float32 {
	return [4]float32{q.V[0], q.V[1], q.V[2], q.W}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	return mgl32.QuatRotate(angle, axis)
}
