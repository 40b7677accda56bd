package aspen

import "github.com/chewxy/math32"

// Matrix4 is a 4x4 float32 matrix in column-major order: element (row,
// col) lives at index col*4+row, matching the OpenGL convention used by
// the draw backends.
type Matrix4 [16]float32

// Vector4 is a homogeneous coordinate used for projective transforms.
type Vector4 struct {
	X, Y, Z, W float32
}

// Identity4 returns the identity matrix.
func Identity4() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation4 returns a matrix translating by (x, y, z).
func Translation4(x, y, z float32) Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

// Scaling4 returns a matrix scaling by (x, y, z).
func Scaling4(x, y, z float32) Matrix4 {
	return Matrix4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}
}

// RotationY4 returns a matrix rotating by theta radians about the Y axis.
func RotationY4(theta float32) Matrix4 {
	sin, cos := math32.Sincos(theta)
	return Matrix4{
		cos, 0, -sin, 0,
		0, 1, 0, 0,
		sin, 0, cos, 0,
		0, 0, 0, 1,
	}
}

// tiltShear is a translate(0, 0.5) * perspective * translate(0, -0.5)
// shear so that tilt foreshortening is centered vertically on the quad.
// Combined with a Y rotation it produces the one-sided "page turn"
// effect anchored at the actor's left edge.
var tiltShear = Matrix4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, -0.2, 0, -0.4,
	0, 0, 0, 1,
}

// Orthographic4 returns the standard orthographic projection mapping
// the box (left..right, bottom..top, near..far) to clip space [-1, 1].
func Orthographic4(left, right, bottom, top, near, far float32) Matrix4 {
	return Matrix4{
		2 / (right - left), 0, 0, 0,
		0, 2 / (top - bottom), 0, 0,
		0, 0, -2 / (far - near), 0,
		-(right + left) / (right - left),
		-(top + bottom) / (top - bottom),
		-(far + near) / (far - near),
		1,
	}
}

// Mul returns m * o.
func (m Matrix4) Mul(o Matrix4) Matrix4 {
	var r Matrix4
	for c := 0; c < 4; c++ {
		for row := 0; row < 4; row++ {
			r[c*4+row] = m[row]*o[c*4] + m[4+row]*o[c*4+1] + m[8+row]*o[c*4+2] + m[12+row]*o[c*4+3]
		}
	}
	return r
}

// MulVec4 returns m * v.
func (m Matrix4) MulVec4(v Vector4) Vector4 {
	return Vector4{
		X: m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		Y: m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		Z: m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		W: m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// PerspDiv divides through by W, projecting to normalized device
// coordinates.
func (v Vector4) PerspDiv() Vector4 {
	return Vector4{X: v.X / v.W, Y: v.Y / v.W, Z: v.Z / v.W, W: 1}
}
