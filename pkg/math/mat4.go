package math

import "github.com/go-gl/mathgl/mgl32"

// Mat4 is a 4x4 matrix in column-major order (OpenGL/WebGPU compatible).
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 = mgl32.Mat4

// Identity returns an identity matrix.
func Identity() Mat4 {
	return mgl32.Ident4()
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	return mgl32.Translate3D(x, y, z)
}

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 {
	return mgl32.Scale3D(x, y, z)
}

// Compose builds an affine transform from translation, rotation and scale.
// The result is T * R * S, so scale is applied first and translation last.
func Compose(translation Vec3, rotation Quat, scale Vec3) Mat4 {
	t := mgl32.Translate3D(translation[0], translation[1], translation[2])
	s := mgl32.Scale3D(scale[0], scale[1], scale[2])
	return t.Mul4(rotation.Mat4()).Mul4(s)
}

// FromColumns builds a matrix from four column vectors.
// This is the layout of nested [4][4]float32 arrays in glTF accessors
// and in exported offset matrices.
func FromColumns(cols [4][4]float32) Mat4 {
	var m Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			m[c*4+r] = cols[c][r]
		}
	}
	return m
}

// Columns returns the matrix as four column vectors.
func Columns(m Mat4) [4][4]float32 {
	var cols [4][4]float32
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			cols[c][r] = m[c*4+r]
		}
	}
	return cols
}

// TranslationOf returns the translation part (fourth column) of m.
func TranslationOf(m Mat4) Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// TransformPoint transforms a 3D point by m (assumes w=1).
func TransformPoint(m Mat4, p Vec3) Vec3 {
	return mgl32.TransformCoordinate(p, m)
}

// ApproxEqual reports whether every element of a and b differs by at most eps.
func ApproxEqual(a, b Mat4, eps float32) bool {
	return a.ApproxEqualThreshold(b, eps)
}

// MaxAbsDiff returns the largest absolute element-wise difference between a and b.
func MaxAbsDiff(a, b Mat4) float32 {
	var maxDiff float32
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff
}

// IsIdentity reports whether m is exactly the identity matrix.
func IsIdentity(m Mat4) bool {
	return m == mgl32.Ident4()
}
