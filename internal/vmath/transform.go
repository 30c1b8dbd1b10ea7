package vmath

import "github.com/go-gl/mathgl/mgl64"

// Transform is a position / rotation / scale triple. A child transform is
// expressed in its parent's rotated frame (see Compose).
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

// Identity returns the neutral transform.
func Identity() Transform {
	return Transform{
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// Compose returns parent followed by child:
//
//	position = parent.position + parent.rotation * child.position
//	rotation = parent.rotation * child.rotation
//	scale    = parent.scale * child.scale (componentwise)
//
// Parent scale does not stretch the child's offset.
func Compose(parent, child Transform) Transform {
	return Transform{
		Position: parent.Position.Add(parent.Rotation.Rotate(child.Position)),
		Rotation: parent.Rotation.Mul(child.Rotation),
		Scale:    MulComponents(parent.Scale, child.Scale),
	}
}

// Relative returns the local transform that, composed under parent, yields world.
// Zero parent scale components map to zero local scale.
func Relative(parent, world Transform) Transform {
	inv := parent.Rotation.Inverse()
	return Transform{
		Position: inv.Rotate(world.Position.Sub(parent.Position)),
		Rotation: inv.Mul(world.Rotation),
		Scale:    DivComponents(world.Scale, parent.Scale),
	}
}

// Equal compares componentwise, exactly.
func (t Transform) Equal(o Transform) bool {
	return t.Position == o.Position && t.Rotation == o.Rotation && t.Scale == o.Scale
}

// ApproxEqual compares componentwise within eps. Rotations q and -q are
// treated as the same orientation.
func (t Transform) ApproxEqual(o Transform, eps float64) bool {
	if !t.Position.ApproxEqualThreshold(o.Position, eps) || !t.Scale.ApproxEqualThreshold(o.Scale, eps) {
		return false
	}
	if t.Rotation.ApproxEqualThreshold(o.Rotation, eps) {
		return true
	}
	neg := mgl64.Quat{W: -o.Rotation.W, V: o.Rotation.V.Mul(-1)}
	return t.Rotation.ApproxEqualThreshold(neg, eps)
}

// Matrix returns the T*R*S matrix for this transform.
func (t Transform) Matrix() mgl64.Mat4 {
	m := mgl64.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	m = m.Mul4(t.Rotation.Mat4())
	return m.Mul4(mgl64.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}
