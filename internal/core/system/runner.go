package system

import (
	"slices"
	"sort"
	"time"
)

// Runner executes systems in phase order each tick. Systems within a phase
// keep their registration order.
type Runner struct {
	systems []System
	sorted  bool
	paused  bool
	ticks   uint64
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Remove unregisters s. Reports whether it was registered.
func (r *Runner) Remove(s System) bool {
	i := slices.Index(r.systems, s)
	if i < 0 {
		return false
	}
	r.systems = slices.Delete(r.systems, i, i+1)
	return true
}

// SetPaused stops the phases before PhaseTransform from running. The
// transform pass and everything after it still run every tick.
func (r *Runner) SetPaused(paused bool) { r.paused = paused }

func (r *Runner) Paused() bool { return r.paused }

// Ticks returns how many times Tick has run.
func (r *Runner) Ticks() uint64 { return r.ticks }

func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	r.ticks++
	// Update may Remove systems; iterate over a snapshot.
	for _, s := range slices.Clone(r.systems) {
		if r.paused && s.Phase() < PhaseTransform {
			continue
		}
		s.Update(dt)
	}
}

// TickPhase runs only the systems of one phase, ignoring pause.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range slices.Clone(r.systems) {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
