// Package scene is the parent/child placement hierarchy. Every node anchors
// one entity in an ecs.Registry; destroying a node destroys its entity and
// destroying the entity tears down the node.
package scene

import (
	"github.com/l1jgo/scenecore/internal/core/ecs"
	"go.uber.org/zap"
)

// EntityFactory creates the entity anchored by a new node. A nil factory
// uses Registry.CreateEntity.
type EntityFactory func(anchor ecs.Anchor) ecs.EntityHandle

// Graph owns the root nodes. Single goroutine access only.
type Graph struct {
	registry *ecs.Registry
	log      *zap.Logger
	roots    []*Node
	count    int
	nextHook HookID
}

func NewGraph(registry *ecs.Registry, log *zap.Logger) *Graph {
	if log == nil {
		log = zap.NewNop()
	}
	return &Graph{
		registry: registry,
		log:      log,
		roots:    make([]*Node, 0, 8),
	}
}

func (g *Graph) Registry() *ecs.Registry { return g.registry }

// Count returns the number of live nodes.
func (g *Graph) Count() int { return g.count }

// Roots returns a copy of the root list.
func (g *Graph) Roots() []*Node {
	out := make([]*Node, len(g.roots))
	copy(out, g.roots)
	return out
}

// CreateRoot allocates a parentless node and its entity.
func (g *Graph) CreateRoot(factory EntityFactory) *Node {
	n := g.newNode()
	n.attach(nil)
	n.entity = g.makeEntity(n, factory)
	return n
}

// DeepClean recomputes every world transform, root first. The frame driver
// calls it once per tick regardless of pause state.
func (g *Graph) DeepClean() {
	for _, r := range g.roots {
		r.DeepCleanWorldTransform()
	}
}

// Walk visits nodes depth-first, parents before children. Returning false
// from fn skips that node's subtree.
func (g *Graph) Walk(fn func(*Node) bool) {
	for _, r := range g.roots {
		r.walk(fn)
	}
}

// Clear destroys every node and the entities they anchor.
func (g *Graph) Clear() {
	for len(g.roots) > 0 {
		g.roots[len(g.roots)-1].Destroy(true)
	}
}

func (g *Graph) newNode() *Node {
	g.count++
	return newNode(g)
}

func (g *Graph) makeEntity(n *Node, factory EntityFactory) ecs.EntityHandle {
	if factory == nil {
		return g.registry.CreateEntity(n)
	}
	return factory(n)
}
