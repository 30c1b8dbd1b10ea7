package system

import (
	"time"

	"github.com/l1jgo/scenecore/internal/core/ecs"
	"github.com/l1jgo/scenecore/internal/core/event"
	coresys "github.com/l1jgo/scenecore/internal/core/system"
	"github.com/l1jgo/scenecore/internal/world"
	"go.uber.org/zap"
)

// Counters accumulates lifecycle events seen on the bus.
type Counters struct {
	EntitiesCreated    int
	EntitiesDestroyed  int
	ComponentsAttached int
	ComponentsDetached int
}

// TelemetrySystem tallies lifecycle events and periodically logs them with
// world and pool occupancy. Read-only; Phase 3 (Render).
type TelemetrySystem struct {
	world    *world.State
	log      *zap.Logger
	interval int
	ticks    int
	total    Counters
}

func NewTelemetrySystem(ws *world.State, interval int, log *zap.Logger) *TelemetrySystem {
	if log == nil {
		log = zap.NewNop()
	}
	s := &TelemetrySystem{world: ws, log: log, interval: interval}
	event.Subscribe(ws.Bus, func(ecs.EntityCreated) { s.total.EntitiesCreated++ })
	event.Subscribe(ws.Bus, func(ecs.EntityDestroyed) { s.total.EntitiesDestroyed++ })
	event.Subscribe(ws.Bus, func(ecs.ComponentAttached) { s.total.ComponentsAttached++ })
	event.Subscribe(ws.Bus, func(ecs.ComponentDetached) { s.total.ComponentsDetached++ })
	return s
}

func (s *TelemetrySystem) Phase() coresys.Phase { return coresys.PhaseRender }

// Totals returns the counters accumulated so far.
func (s *TelemetrySystem) Totals() Counters { return s.total }

func (s *TelemetrySystem) Update(_ time.Duration) {
	s.ticks++
	if s.interval <= 0 || s.ticks%s.interval != 0 {
		return
	}
	spin := s.world.SpinPool.Stats()
	tag := s.world.TagPool.Stats()
	s.log.Info("world telemetry",
		zap.Int("entities", s.world.Registry.Len()),
		zap.Int("nodes", s.world.Graph.Count()),
		zap.Int("details", s.world.Registry.DetailCount()),
		zap.Int("created", s.total.EntitiesCreated),
		zap.Int("destroyed", s.total.EntitiesDestroyed),
		zap.Int("attached", s.total.ComponentsAttached),
		zap.Int("detached", s.total.ComponentsDetached),
		zap.Int("spin_arenas", spin.Arenas),
		zap.Int("spin_live", spin.Live),
		zap.Int("tag_arenas", tag.Arenas),
		zap.Int("tag_live", tag.Live),
	)
}
