package system

import (
	"time"

	"github.com/l1jgo/scenecore/internal/component"
	"github.com/l1jgo/scenecore/internal/core/ecs"
	"github.com/l1jgo/scenecore/internal/core/scene"
	coresys "github.com/l1jgo/scenecore/internal/core/system"
	"github.com/l1jgo/scenecore/internal/vmath"
	"github.com/l1jgo/scenecore/internal/world"
)

// SpinSystem rotates the node of every entity carrying a Spin.
// Phase 1 (Update).
//
// Nodes are cached per component; a node's on-cleaned hook evicts it before
// teardown so the cache never outlives the hierarchy.
type SpinSystem struct {
	world *world.State
	nodes map[ecs.ComponentHandle]*scene.Node
	hooks map[*scene.Node]scene.HookID
}

func NewSpinSystem(ws *world.State) *SpinSystem {
	return &SpinSystem{
		world: ws,
		nodes: make(map[ecs.ComponentHandle]*scene.Node),
		hooks: make(map[*scene.Node]scene.HookID),
	}
}

func (s *SpinSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SpinSystem) Update(dt time.Duration) {
	secs := dt.Seconds()
	s.world.Spins.Each(func(h ecs.ComponentHandle, owner ecs.EntityHandle, sp *component.Spin) {
		n := s.resolve(h, owner)
		if n == nil || sp.DegreesPerSecond == 0 {
			return
		}
		n.Rotate(vmath.AxisAngle(sp.Axis, sp.DegreesPerSecond*secs))
	})
}

// Tracked returns the number of cached nodes.
func (s *SpinSystem) Tracked() int { return len(s.hooks) }

func (s *SpinSystem) resolve(h ecs.ComponentHandle, owner ecs.EntityHandle) *scene.Node {
	if n, ok := s.nodes[h]; ok && n.Entity() == owner && !n.Destroyed() {
		return n
	}
	n, ok := s.world.NodeOf(owner)
	if !ok {
		delete(s.nodes, h)
		return nil
	}
	s.nodes[h] = n
	if _, hooked := s.hooks[n]; !hooked {
		s.hooks[n] = n.OnCleaned(s.evict)
	}
	return n
}

func (s *SpinSystem) evict(n *scene.Node) {
	delete(s.hooks, n)
	for h, cached := range s.nodes {
		if cached == n {
			delete(s.nodes, h)
		}
	}
}
