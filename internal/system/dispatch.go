package system

import (
	"time"

	"github.com/l1jgo/scenecore/internal/core/event"
	coresys "github.com/l1jgo/scenecore/internal/core/system"
)

// EventDispatchSystem makes last tick's events readable and delivers them.
// Phase 0 (PreUpdate).
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
