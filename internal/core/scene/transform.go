package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/l1jgo/scenecore/internal/vmath"
)

func (n *Node) Local() vmath.Transform { return n.local }

func (n *Node) SetLocal(t vmath.Transform) {
	n.local = t
	n.markDirty()
}

func (n *Node) Translate(delta mgl64.Vec3) {
	n.local.Position = n.local.Position.Add(delta)
	n.markDirty()
}

// Rotate applies q in the node's local frame.
func (n *Node) Rotate(q mgl64.Quat) {
	n.local.Rotation = n.local.Rotation.Mul(q).Normalize()
	n.markDirty()
}

// Scale multiplies the local scale componentwise.
func (n *Node) Scale(factor mgl64.Vec3) {
	n.local.Scale = vmath.MulComponents(n.local.Scale, factor)
	n.markDirty()
}

func (n *Node) SetPosition(p mgl64.Vec3) {
	n.local.Position = p
	n.markDirty()
}

func (n *Node) SetRotation(q mgl64.Quat) {
	n.local.Rotation = q
	n.markDirty()
}

func (n *Node) SetScale(s mgl64.Vec3) {
	n.local.Scale = s
	n.markDirty()
}

// SetWorldPosition picks the local position that lands n at p in world space.
func (n *Node) SetWorldPosition(p mgl64.Vec3) {
	pw := n.parentWorld()
	n.local.Position = pw.Rotation.Inverse().Rotate(p.Sub(pw.Position))
	n.markDirty()
}

func (n *Node) SetWorldRotation(q mgl64.Quat) {
	pw := n.parentWorld()
	n.local.Rotation = pw.Rotation.Inverse().Mul(q)
	n.markDirty()
}

func (n *Node) SetWorldScale(s mgl64.Vec3) {
	n.local.Scale = vmath.DivComponents(s, n.parentWorld().Scale)
	n.markDirty()
}

func (n *Node) SetWorldTransform(t vmath.Transform) {
	n.local = vmath.Relative(n.parentWorld(), t)
	n.markDirty()
}

// GetWorldTransformCheck returns the cached world transform, recomputing it
// from the nearest clean ancestor first if n is dirty.
func (n *Node) GetWorldTransformCheck() vmath.Transform {
	if n.dirty {
		n.recompute()
	}
	return n.world
}

// WorldMatrix returns the T*R*S matrix of the world transform.
func (n *Node) WorldMatrix() mgl64.Mat4 {
	if n.dirty {
		n.recompute()
	}
	return n.worldMatrix
}

// DeepCleanWorldTransform recomputes n and its whole subtree unconditionally.
func (n *Node) DeepCleanWorldTransform() {
	n.recompute()
	for _, c := range n.children {
		c.DeepCleanWorldTransform()
	}
}

func (n *Node) recompute() {
	n.world = vmath.Compose(n.parentWorld(), n.local)
	n.worldMatrix = n.world.Matrix()
	n.dirty = false
}

func (n *Node) parentWorld() vmath.Transform {
	if n.parent == nil {
		return vmath.Identity()
	}
	return n.parent.GetWorldTransformCheck()
}

func (n *Node) markDirty() {
	if n.dirty {
		return
	}
	n.dirty = true
	for _, c := range n.children {
		c.markDirty()
	}
}
