// Package vmath holds the small amount of 3D math the lifecycle core needs on
// top of mgl64.
package vmath

import "github.com/go-gl/mathgl/mgl64"

// MulComponents multiplies two vectors componentwise.
func MulComponents(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// DivComponents divides componentwise; a zero divisor yields zero.
func DivComponents(a, b mgl64.Vec3) mgl64.Vec3 {
	var out mgl64.Vec3
	for i := range out {
		if b[i] != 0 {
			out[i] = a[i] / b[i]
		}
	}
	return out
}

// AxisAngle builds a unit rotation of degrees around axis. A zero axis
// yields the identity rotation.
func AxisAngle(axis mgl64.Vec3, degrees float64) mgl64.Quat {
	if axis.Len() == 0 {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(mgl64.DegToRad(degrees), axis.Normalize())
}
