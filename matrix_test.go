package aspen

import (
	"testing"

	"github.com/chewxy/math32"
)

func assertVecNear(t *testing.T, got, want Vector4, what string) {
	t.Helper()
	const eps = 1e-4
	if math32.Abs(got.X-want.X) > eps || math32.Abs(got.Y-want.Y) > eps ||
		math32.Abs(got.Z-want.Z) > eps || math32.Abs(got.W-want.W) > eps {
		t.Errorf("%s = %+v, want %+v", what, got, want)
	}
}

func TestTranslationThenScaling(t *testing.T) {
	m := Translation4(10, 20, 0).Mul(Scaling4(2, 3, 1))
	got := m.MulVec4(Vector4{X: 1, Y: 1, W: 1})
	assertVecNear(t, got, Vector4{X: 12, Y: 23, W: 1}, "transformed corner")
}

func TestIdentityIsNeutral(t *testing.T) {
	m := Translation4(5, 6, 7)
	if got := m.Mul(Identity4()); got != m {
		t.Errorf("m * I = %v, want %v", got, m)
	}
	if got := Identity4().Mul(m); got != m {
		t.Errorf("I * m = %v, want %v", got, m)
	}
}

func TestRotationYQuarterTurn(t *testing.T) {
	m := RotationY4(math32.Pi / 2)
	got := m.MulVec4(Vector4{X: 1, W: 1}).PerspDiv()
	assertVecNear(t, got, Vector4{Z: -1, W: 1}, "rotated X axis")
}

func TestOrthographicMapsStageCorners(t *testing.T) {
	// The stage projection: pixel (0, 0) is the top-left.
	p := Orthographic4(0, 640, 480, 0, -MinDepth, -MaxDepth)

	topLeft := p.MulVec4(Vector4{X: 0, Y: 0, W: 1}).PerspDiv()
	assertVecNear(t, topLeft, Vector4{X: -1, Y: 1, Z: topLeft.Z, W: 1}, "top-left corner")

	bottomRight := p.MulVec4(Vector4{X: 640, Y: 480, W: 1}).PerspDiv()
	assertVecNear(t, bottomRight, Vector4{X: 1, Y: -1, Z: bottomRight.Z, W: 1}, "bottom-right corner")

	center := p.MulVec4(Vector4{X: 320, Y: 240, W: 1}).PerspDiv()
	assertVecNear(t, center, Vector4{X: 0, Y: 0, Z: center.Z, W: 1}, "center")
}

func TestPerspDiv(t *testing.T) {
	got := (Vector4{X: 2, Y: 4, Z: 6, W: 2}).PerspDiv()
	assertVecNear(t, got, Vector4{X: 1, Y: 2, Z: 3, W: 1}, "divided vector")
}
