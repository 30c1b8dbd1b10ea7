package system

import (
	"time"

	"github.com/l1jgo/scenecore/internal/core/scene"
	coresys "github.com/l1jgo/scenecore/internal/core/system"
)

// TransformSystem deep-cleans every world transform from the roots down.
// Phase 2 (Transform); runs even when the runner is paused.
type TransformSystem struct {
	graph *scene.Graph
}

func NewTransformSystem(g *scene.Graph) *TransformSystem {
	return &TransformSystem{graph: g}
}

func (s *TransformSystem) Phase() coresys.Phase { return coresys.PhaseTransform }

func (s *TransformSystem) Update(_ time.Duration) {
	s.graph.DeepClean()
}
