package scene

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/l1jgo/scenecore/internal/core/ecs"
	"github.com/l1jgo/scenecore/internal/vmath"
	"go.uber.org/zap"
)

// HookID identifies an on-cleaned hook for removal.
type HookID uint32

type cleanedHook struct {
	id HookID
	fn func(*Node)
}

// Node is one placement in the hierarchy. A node owns its children; the
// parent link is a back-reference only.
//
// Any local mutation marks the node and its subtree dirty. A dirty node always
// has an all-dirty subtree, so invalidation stops at the first dirty child.
type Node struct {
	Name string

	graph    *Graph
	parent   *Node
	children []*Node
	entity   ecs.EntityHandle

	local       vmath.Transform
	world       vmath.Transform
	worldMatrix mgl64.Mat4
	dirty       bool
	destroyed   bool

	hooks []cleanedHook
}

func newNode(g *Graph) *Node {
	return &Node{
		graph:       g,
		entity:      ecs.InvalidEntity,
		local:       vmath.Identity(),
		world:       vmath.Identity(),
		worldMatrix: mgl64.Ident4(),
		dirty:       true,
	}
}

// CreateChild allocates a node under n and its entity. Returns nil when n has
// been destroyed.
func (n *Node) CreateChild(factory EntityFactory) *Node {
	if n.destroyed {
		n.graph.log.Warn("create child under destroyed node", zap.String("node", n.Name))
		return nil
	}
	c := n.graph.newNode()
	c.attach(n)
	c.entity = n.graph.makeEntity(c, factory)
	return c
}

func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

func (n *Node) ChildrenCount() int { return len(n.children) }

// Entity returns the anchored entity handle. It may no longer resolve.
func (n *Node) Entity() ecs.EntityHandle { return n.entity }

// EntityRef resolves the anchored entity, reporting false once it is gone.
func (n *Node) EntityRef() (*ecs.Entity, bool) {
	return n.graph.registry.GetEntity(n.entity)
}

func (n *Node) Destroyed() bool { return n.destroyed }

func (n *Node) IsDirty() bool { return n.dirty }

// IsDescendantOf walks the parent chain looking for other.
func (n *Node) IsDescendantOf(other *Node) bool {
	if other == nil {
		return false
	}
	for p := n.parent; p != nil; p = p.parent {
		if p == other {
			return true
		}
	}
	return false
}

// ReParent moves n under newParent (nil makes it a root). Moving a node under
// itself or its own subtree is refused.
func (n *Node) ReParent(newParent *Node) bool {
	if n.destroyed || (newParent != nil && newParent.destroyed) {
		n.graph.log.Warn("reparent involving destroyed node", zap.String("node", n.Name))
		return false
	}
	if newParent == n.parent {
		return true
	}
	if newParent == n || (newParent != nil && newParent.IsDescendantOf(n)) {
		n.graph.log.Warn("reparent would create a cycle",
			zap.String("node", n.Name), zap.String("parent", newParent.Name))
		return false
	}
	n.detach()
	n.attach(newParent)
	n.markDirty()
	return true
}

// Destroy tears n down. With andDescendants the subtree goes first;
// otherwise children move up to n's parent. On-cleaned hooks run before the
// anchored entity is destroyed.
func (n *Node) Destroy(andDescendants bool) {
	if n.destroyed {
		return
	}
	n.destroyed = true

	children := slices.Clone(n.children)
	for _, c := range children {
		if andDescendants {
			c.Destroy(true)
		} else {
			c.detach()
			c.attach(n.parent)
			c.markDirty()
		}
	}

	n.fireCleaned()

	if n.graph.registry.Alive(n.entity) {
		n.graph.registry.Destroy(n.entity)
	}
	n.detach()
	n.children = nil
	n.graph.count--
}

// EntityDestroyed implements ecs.Anchor: losing the entity destroys the node
// and its subtree.
func (n *Node) EntityDestroyed(h ecs.EntityHandle) {
	if n.destroyed || h != n.entity {
		return
	}
	n.Destroy(true)
}

// OnCleaned registers fn to run when n is being destroyed, before its entity
// goes away.
func (n *Node) OnCleaned(fn func(*Node)) HookID {
	n.graph.nextHook++
	id := n.graph.nextHook
	n.hooks = append(n.hooks, cleanedHook{id: id, fn: fn})
	return id
}

func (n *Node) RemoveOnCleaned(id HookID) bool {
	for i, h := range n.hooks {
		if h.id == id {
			n.hooks = slices.Delete(n.hooks, i, i+1)
			return true
		}
	}
	return false
}

func (n *Node) fireCleaned() {
	hooks := n.hooks
	n.hooks = nil
	for _, h := range hooks {
		h.fn(n)
	}
}

func (n *Node) attach(p *Node) {
	n.parent = p
	if p != nil {
		p.children = append(p.children, n)
	} else {
		n.graph.roots = append(n.graph.roots, n)
	}
}

func (n *Node) detach() {
	if n.parent != nil {
		n.parent.children = removeNode(n.parent.children, n)
	} else {
		n.graph.roots = removeNode(n.graph.roots, n)
	}
	n.parent = nil
}

func (n *Node) walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range slices.Clone(n.children) {
		c.walk(fn)
	}
}

func removeNode(list []*Node, n *Node) []*Node {
	if i := slices.Index(list, n); i >= 0 {
		return slices.Delete(list, i, i+1)
	}
	return list
}
