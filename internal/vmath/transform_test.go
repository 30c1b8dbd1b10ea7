package vmath

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func TestComposeRotatesChildOffset(t *testing.T) {
	parent := Identity()
	parent.Position = mgl64.Vec3{10, 0, 0}
	parent.Rotation = AxisAngle(mgl64.Vec3{0, 0, 1}, 90)
	parent.Scale = mgl64.Vec3{2, 2, 2}

	child := Identity()
	child.Position = mgl64.Vec3{1, 0, 0}
	child.Scale = mgl64.Vec3{1, 3, 1}

	got := Compose(parent, child)
	require.True(t, got.Position.ApproxEqualThreshold(mgl64.Vec3{10, 1, 0}, eps), "position %v", got.Position)
	require.True(t, got.Scale.ApproxEqualThreshold(mgl64.Vec3{2, 6, 2}, eps))
	require.True(t, got.Rotation.ApproxEqualThreshold(parent.Rotation, eps))
}

func TestRelativeInvertsCompose(t *testing.T) {
	parent := Transform{
		Position: mgl64.Vec3{1, 2, 3},
		Rotation: AxisAngle(mgl64.Vec3{1, 1, 0}, 37),
		Scale:    mgl64.Vec3{2, 4, 0.5},
	}
	local := Transform{
		Position: mgl64.Vec3{-4, 0.5, 9},
		Rotation: AxisAngle(mgl64.Vec3{0, 1, 0}, -120),
		Scale:    mgl64.Vec3{3, 1, 2},
	}
	world := Compose(parent, local)
	require.True(t, Relative(parent, world).ApproxEqual(local, eps))
}

func TestRelativeZeroScale(t *testing.T) {
	parent := Identity()
	parent.Scale = mgl64.Vec3{0, 1, 1}
	world := Identity()
	world.Scale = mgl64.Vec3{5, 5, 5}
	require.Equal(t, mgl64.Vec3{0, 5, 5}, Relative(parent, world).Scale)
}

func TestApproxEqualTreatsNegatedQuatAsSame(t *testing.T) {
	a := Identity()
	a.Rotation = AxisAngle(mgl64.Vec3{0, 1, 0}, 45)
	b := a
	b.Rotation = mgl64.Quat{W: -a.Rotation.W, V: a.Rotation.V.Mul(-1)}
	require.False(t, a.Equal(b))
	require.True(t, a.ApproxEqual(b, eps))
}

func TestMatrixTranslatesOrigin(t *testing.T) {
	tr := Identity()
	tr.Position = mgl64.Vec3{4, 5, 6}
	tr.Scale = mgl64.Vec3{2, 2, 2}
	p := tr.Matrix().Mul4x1(mgl64.Vec4{1, 0, 0, 1})
	require.True(t, p.Vec3().ApproxEqualThreshold(mgl64.Vec3{6, 5, 6}, eps))
}

func TestAxisAngleZeroAxis(t *testing.T) {
	require.Equal(t, mgl64.QuatIdent(), AxisAngle(mgl64.Vec3{}, 90))
}
