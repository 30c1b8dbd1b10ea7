// Package world bundles one simulation's registry, scene graph, event bus
// and component storage. Several States can coexist in one process.
package world

import (
	"fmt"

	"github.com/l1jgo/scenecore/internal/component"
	"github.com/l1jgo/scenecore/internal/config"
	"github.com/l1jgo/scenecore/internal/core/ecs"
	"github.com/l1jgo/scenecore/internal/core/event"
	"github.com/l1jgo/scenecore/internal/core/pool"
	"github.com/l1jgo/scenecore/internal/core/scene"
	"github.com/l1jgo/scenecore/internal/data"
	"go.uber.org/zap"
)

// Component kind names for the built-in stores.
const (
	KindSpin = "spin"
	KindTag  = "tag"
)

// State is the World context. Accessed only from the simulation goroutine,
// except for the pools which are safe to share.
type State struct {
	Log      *zap.Logger
	Bus      *event.Bus
	Types    *ecs.TypeTable
	Registry *ecs.Registry
	Graph    *scene.Graph

	SpinPool *pool.Pool[component.Spin]
	TagPool  *pool.Pool[component.Tag]
	Spins    *ecs.Store[component.Spin]
	Tags     *ecs.Store[component.Tag]

	destroyQueue []ecs.EntityHandle
}

func NewState(cfg *config.Config, log *zap.Logger) (*State, error) {
	if log == nil {
		log = zap.NewNop()
	}
	bus := event.NewBus()
	types := ecs.NewTypeTable()
	reg := ecs.NewRegistry(types, ecs.Options{
		ChunkSize:      cfg.Registry.ChunkSize,
		DetailCapacity: cfg.Registry.DetailCapacity,
		Bus:            bus,
		Log:            log.Named("registry"),
	})

	poolCfg := pool.Config{BlockSize: uintptr(cfg.Pool.BlockSize), ArenaSize: cfg.Pool.ArenaSize}
	s := &State{
		Log:          log,
		Bus:          bus,
		Types:        types,
		Registry:     reg,
		Graph:        scene.NewGraph(reg, log.Named("scene")),
		SpinPool:     pool.New[component.Spin](poolCfg),
		TagPool:      pool.New[component.Tag](poolCfg),
		destroyQueue: make([]ecs.EntityHandle, 0, 64),
	}

	var err error
	if s.Spins, err = ecs.RegisterStore(types, KindSpin, s.SpinPool, log); err != nil {
		return nil, fmt.Errorf("register spin store: %w", err)
	}
	if s.Tags, err = ecs.RegisterStore(types, KindTag, s.TagPool, log); err != nil {
		return nil, fmt.Errorf("register tag store: %w", err)
	}
	return s, nil
}

// NodeOf returns the scene node anchoring h, if any.
func (s *State) NodeOf(h ecs.EntityHandle) (*scene.Node, bool) {
	e, ok := s.Registry.GetEntity(h)
	if !ok {
		return nil, false
	}
	n, ok := e.Anchor().(*scene.Node)
	return n, ok
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (s *State) MarkForDestruction(h ecs.EntityHandle) {
	s.destroyQueue = append(s.destroyQueue, h)
}

// PendingDestruction returns the number of queued entities.
func (s *State) PendingDestruction() int { return len(s.destroyQueue) }

// FlushDestroyQueue destroys all queued entities, and through their anchors
// the scene nodes they hang off. Handles that died in the meantime are skipped.
// Called by CleanupSystem at the end of each tick.
// Entities marked during the flush, e.g. from an on-cleaned hook, are
// destroyed in the same call.
func (s *State) FlushDestroyQueue() {
	for i := 0; i < len(s.destroyQueue); i++ {
		if h := s.destroyQueue[i]; s.Registry.Alive(h) {
			s.Registry.Destroy(h)
		}
	}
	s.destroyQueue = s.destroyQueue[:0]
}

// Spawn builds the layout's nodes under new roots and attaches their
// components through the dynamic path. It returns the number of nodes
// created; components that fail to attach are logged and skipped.
func (s *State) Spawn(layout *data.SceneLayout) int {
	count := 0
	for i := range layout.Nodes {
		count += s.spawnNode(nil, &layout.Nodes[i])
	}
	return count
}

func (s *State) spawnNode(parent *scene.Node, spec *data.NodeSpec) int {
	var n *scene.Node
	if parent == nil {
		n = s.Graph.CreateRoot(nil)
	} else {
		n = parent.CreateChild(nil)
	}
	n.Name = spec.Name
	n.SetLocal(spec.Transform())

	for i := range spec.Components {
		c := &spec.Components[i]
		var params any
		if p := c.ParamsOrNil(); p != nil {
			params = p
		}
		if s.Registry.AddComponentByName(c.Kind, n.Entity(), params) == nil {
			s.Log.Warn("spawn component failed",
				zap.String("node", spec.Name), zap.String("component", c.Kind))
		}
	}

	count := 1
	for i := range spec.Children {
		count += s.spawnNode(n, &spec.Children[i])
	}
	return count
}

// Close destroys every node and entity.
func (s *State) Close() {
	s.FlushDestroyQueue()
	s.Graph.Clear()
}
