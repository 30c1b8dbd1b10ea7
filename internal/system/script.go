package system

import (
	"time"

	coresys "github.com/l1jgo/scenecore/internal/core/system"
	"github.com/l1jgo/scenecore/internal/scripting"
)

// ScriptSystem runs the update hook of every scripted component.
// Phase 1 (Update).
type ScriptSystem struct {
	lua *scripting.Engine
}

func NewScriptSystem(lua *scripting.Engine) *ScriptSystem {
	return &ScriptSystem{lua: lua}
}

func (s *ScriptSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ScriptSystem) Update(dt time.Duration) {
	s.lua.Update(dt)
}
