package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhasePreUpdate Phase = iota // 0: dispatch last tick's lifecycle events
	PhaseUpdate                 // 1: gameplay / script mutation
	PhaseTransform              // 2: deep clean world transforms (runs even when paused)
	PhaseRender                 // 3: read-only consumers
	PhaseCleanup                // 4: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhaseTransform:
		return "transform"
	case PhaseRender:
		return "render"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every frame system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
