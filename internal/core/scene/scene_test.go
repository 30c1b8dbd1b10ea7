package scene

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/l1jgo/scenecore/internal/core/ecs"
	"github.com/l1jgo/scenecore/internal/vmath"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func newTestGraph(t *testing.T) (*Graph, *ecs.Registry) {
	t.Helper()
	reg := ecs.NewRegistry(nil, ecs.Options{ChunkSize: 8})
	return NewGraph(reg, nil), reg
}

func requireTreeConsistent(t *testing.T, g *Graph) {
	t.Helper()
	seen := 0
	for _, r := range g.Roots() {
		require.Nil(t, r.Parent())
	}
	g.Walk(func(n *Node) bool {
		seen++
		require.False(t, n.Destroyed())
		for _, c := range n.Children() {
			require.Same(t, n, c.Parent())
		}
		if p := n.Parent(); p != nil {
			require.Contains(t, p.Children(), n)
		}
		require.True(t, g.Registry().Alive(n.Entity()))
		return true
	})
	require.Equal(t, g.Count(), seen)
	require.Equal(t, g.Count(), g.Registry().Len())
}

func TestHierarchyInvariantUnderRandomOps(t *testing.T) {
	g, _ := newTestGraph(t)
	rng := rand.New(rand.NewSource(7))
	nodes := []*Node{g.CreateRoot(nil)}

	alive := func() []*Node {
		out := nodes[:0:0]
		for _, n := range nodes {
			if !n.Destroyed() {
				out = append(out, n)
			}
		}
		return out
	}

	for i := 0; i < 500; i++ {
		live := alive()
		if len(live) == 0 {
			nodes = append(nodes, g.CreateRoot(nil))
			continue
		}
		pick := live[rng.Intn(len(live))]
		switch rng.Intn(5) {
		case 0, 1:
			nodes = append(nodes, pick.CreateChild(nil))
		case 2:
			target := live[rng.Intn(len(live))]
			cyclic := target == pick || target.IsDescendantOf(pick)
			require.Equal(t, !cyclic, pick.ReParent(target))
		case 3:
			pick.ReParent(nil)
		case 4:
			pick.Destroy(rng.Intn(2) == 0)
		}
		requireTreeConsistent(t, g)
	}
}

func TestDeepCleanComposesThreeLevelChain(t *testing.T) {
	g, _ := newTestGraph(t)
	root := g.CreateRoot(nil)
	mid := root.CreateChild(nil)
	leaf := mid.CreateChild(nil)

	rootRot := vmath.AxisAngle(mgl64.Vec3{0, 0, 1}, 90)
	midRot := vmath.AxisAngle(mgl64.Vec3{1, 0, 0}, 90)
	leafRot := vmath.AxisAngle(mgl64.Vec3{0, 1, 0}, 30)

	root.SetLocal(vmath.Transform{Position: mgl64.Vec3{10, 0, 0}, Rotation: rootRot, Scale: mgl64.Vec3{2, 2, 2}})
	mid.SetLocal(vmath.Transform{Position: mgl64.Vec3{0, 5, 0}, Rotation: midRot, Scale: mgl64.Vec3{1, 3, 1}})
	leaf.SetLocal(vmath.Transform{Position: mgl64.Vec3{0, 0, 1}, Rotation: leafRot, Scale: mgl64.Vec3{0.5, 1, 1}})

	g.DeepClean()
	require.False(t, leaf.IsDirty())

	// root rotates +90 about z: (0,5,0) -> (-5,0,0)
	midPos := mgl64.Vec3{5, 0, 0}
	// mid's frame maps local +z to world +x
	rm := rootRot.Mul(midRot)
	leafPos := midPos.Add(rm.Rotate(mgl64.Vec3{0, 0, 1}))
	want := vmath.Transform{
		Position: leafPos,
		Rotation: rm.Mul(leafRot),
		Scale:    mgl64.Vec3{1, 6, 2},
	}
	require.True(t, rm.Rotate(mgl64.Vec3{0, 0, 1}).ApproxEqualThreshold(mgl64.Vec3{1, 0, 0}, eps))
	require.True(t, leafPos.ApproxEqualThreshold(mgl64.Vec3{6, 0, 0}, eps))
	require.True(t, leaf.GetWorldTransformCheck().ApproxEqual(want, eps), "got %+v", leaf.GetWorldTransformCheck())
	require.True(t, leaf.WorldMatrix().ApproxEqualThreshold(want.Matrix(), eps))
}

func TestLazyCheckPullsFromDirtyAncestors(t *testing.T) {
	g, _ := newTestGraph(t)
	root := g.CreateRoot(nil)
	child := root.CreateChild(nil)
	child.SetPosition(mgl64.Vec3{1, 0, 0})
	g.DeepClean()

	root.Translate(mgl64.Vec3{0, 3, 0})
	require.True(t, root.IsDirty())
	require.True(t, child.IsDirty())

	w := child.GetWorldTransformCheck()
	require.True(t, w.Position.ApproxEqualThreshold(mgl64.Vec3{1, 3, 0}, eps))
	require.False(t, root.IsDirty())
	require.False(t, child.IsDirty())
}

func TestMutationInvalidatesOnlySubtree(t *testing.T) {
	g, _ := newTestGraph(t)
	root := g.CreateRoot(nil)
	a := root.CreateChild(nil)
	b := root.CreateChild(nil)
	a1 := a.CreateChild(nil)
	g.DeepClean()

	a.Rotate(vmath.AxisAngle(mgl64.Vec3{0, 1, 0}, 10))
	require.False(t, root.IsDirty())
	require.False(t, b.IsDirty())
	require.True(t, a.IsDirty())
	require.True(t, a1.IsDirty())

	g.DeepClean()
	g.Walk(func(n *Node) bool {
		require.False(t, n.IsDirty())
		return true
	})
}

func TestSetWorldRoundTrips(t *testing.T) {
	g, _ := newTestGraph(t)
	root := g.CreateRoot(nil)
	root.SetLocal(vmath.Transform{
		Position: mgl64.Vec3{3, -2, 7},
		Rotation: vmath.AxisAngle(mgl64.Vec3{1, 2, 3}, 64),
		Scale:    mgl64.Vec3{2, 4, 8},
	})
	child := root.CreateChild(nil)

	child.SetWorldPosition(mgl64.Vec3{1, 1, 1})
	child.SetWorldRotation(vmath.AxisAngle(mgl64.Vec3{0, 0, 1}, 45))
	child.SetWorldScale(mgl64.Vec3{1, 1, 1})
	w := child.GetWorldTransformCheck()
	require.True(t, w.Position.ApproxEqualThreshold(mgl64.Vec3{1, 1, 1}, eps))
	require.True(t, w.Scale.ApproxEqualThreshold(mgl64.Vec3{1, 1, 1}, eps))

	target := vmath.Transform{
		Position: mgl64.Vec3{-4, 0, 2},
		Rotation: vmath.AxisAngle(mgl64.Vec3{1, 0, 0}, -30),
		Scale:    mgl64.Vec3{1, 2, 3},
	}
	child.SetWorldTransform(target)
	require.True(t, child.GetWorldTransformCheck().ApproxEqual(target, eps))
}

func TestDestroyCascadesThroughEntitiesAndComponents(t *testing.T) {
	g, reg := newTestGraph(t)
	type marker struct{ N int }
	store, err := ecs.RegisterStore[marker](reg.Types(), "marker", nil, nil)
	require.NoError(t, err)

	root := g.CreateRoot(nil)
	child := root.CreateChild(nil)
	grandchild := child.CreateChild(nil)
	for _, n := range []*Node{root, child, grandchild} {
		require.NotNil(t, ecs.AddComponent(reg, store, n.Entity(), nil))
	}

	var order []string
	child.OnCleaned(func(n *Node) {
		require.True(t, reg.Alive(n.Entity()), "hooks run before the entity goes away")
		order = append(order, "child")
	})
	grandchild.OnCleaned(func(*Node) { order = append(order, "grandchild") })

	root.Destroy(true)
	require.Equal(t, []string{"grandchild", "child"}, order)
	require.Zero(t, reg.Len())
	require.Zero(t, reg.DetailCount())
	require.Zero(t, store.Len())
	require.Zero(t, g.Count())
	require.Empty(t, g.Roots())
	require.True(t, grandchild.Destroyed())

	_, ok := grandchild.EntityRef()
	require.False(t, ok)
	require.Nil(t, grandchild.CreateChild(nil))
}

func TestDestroyKeepingDescendantsMovesThemUp(t *testing.T) {
	g, _ := newTestGraph(t)
	root := g.CreateRoot(nil)
	mid := root.CreateChild(nil)
	a := mid.CreateChild(nil)
	b := mid.CreateChild(nil)

	mid.Destroy(false)
	require.Same(t, root, a.Parent())
	require.Same(t, root, b.Parent())
	require.Equal(t, 2, root.ChildrenCount())
	require.True(t, a.IsDirty())
	requireTreeConsistent(t, g)

	root.Destroy(false)
	require.ElementsMatch(t, []*Node{a, b}, g.Roots())
	requireTreeConsistent(t, g)
}

func TestDestroyingEntityTearsDownNode(t *testing.T) {
	g, reg := newTestGraph(t)
	root := g.CreateRoot(nil)
	child := root.CreateChild(nil)
	grandchild := child.CreateChild(nil)

	require.True(t, reg.Destroy(child.Entity()))
	require.True(t, child.Destroyed())
	require.True(t, grandchild.Destroyed())
	require.Zero(t, root.ChildrenCount())
	require.Equal(t, 1, reg.Len())
	requireTreeConsistent(t, g)
}

func TestReParentRefusesCycles(t *testing.T) {
	g, _ := newTestGraph(t)
	root := g.CreateRoot(nil)
	a := root.CreateChild(nil)
	b := a.CreateChild(nil)

	require.False(t, a.ReParent(a))
	require.False(t, a.ReParent(b))
	require.True(t, b.IsDescendantOf(root))
	require.False(t, root.IsDescendantOf(b))

	require.True(t, b.ReParent(root))
	require.False(t, b.IsDescendantOf(a))
	require.Equal(t, 2, root.ChildrenCount())
	require.True(t, b.IsDirty())
	requireTreeConsistent(t, g)
}

func TestRemoveOnCleaned(t *testing.T) {
	g, _ := newTestGraph(t)
	n := g.CreateRoot(nil)
	called := 0
	id := n.OnCleaned(func(*Node) { called++ })
	n.OnCleaned(func(*Node) { called += 10 })
	require.True(t, n.RemoveOnCleaned(id))
	require.False(t, n.RemoveOnCleaned(id))
	n.Destroy(true)
	require.Equal(t, 10, called)
}

func TestCustomEntityFactory(t *testing.T) {
	g, reg := newTestGraph(t)
	var anchors []ecs.Anchor
	factory := func(a ecs.Anchor) ecs.EntityHandle {
		anchors = append(anchors, a)
		return reg.CreateEntity(a)
	}
	root := g.CreateRoot(factory)
	child := root.CreateChild(factory)
	require.Equal(t, []ecs.Anchor{root, child}, anchors)

	e, ok := child.EntityRef()
	require.True(t, ok)
	require.Same(t, child, e.Anchor())
}
