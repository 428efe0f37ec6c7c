// Package math provides the matrix, quaternion and vector types used for
// bone transforms. The types are aliases of mgl32 so they can be handed to
// any mathgl-based code without conversion.
package math

import "github.com/go-gl/mathgl/mgl32"

// Vec3 is a 3D vector.
type Vec3 = mgl32.Vec3

// Zero3 returns the zero vector.
func Zero3() Vec3 {
	return Vec3{}
}

// One3 returns the unit scale vector (1, 1, 1).
func One3() Vec3 {
	return Vec3{1, 1, 1}
}

// Vec3FromArray converts a plain array to a Vec3.
func Vec3FromArray(v [3]float32) Vec3 {
	return Vec3(v)
}
