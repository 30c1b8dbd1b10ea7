package ecs

import (
	"github.com/l1jgo/scenecore/internal/core/event"
	"go.uber.org/zap"
)

// Options configures a Registry. Zero values are usable.
type Options struct {
	ChunkSize      int // entity slots per chunk
	DetailCapacity int // initial EntityDetail capacity
	Bus            *event.Bus
	Log            *zap.Logger
}

// Registry owns entity slots and the entity↔component association table.
// Single goroutine access only (simulation thread).
type Registry struct {
	slots    slotTable
	freeHead uint32
	live     int
	details  []EntityDetail
	types    *TypeTable
	bus      *event.Bus
	log      *zap.Logger
}

func NewRegistry(types *TypeTable, opts Options) *Registry {
	if types == nil {
		types = NewTypeTable()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.DetailCapacity <= 0 {
		opts.DetailCapacity = 256
	}
	return &Registry{
		slots:    newSlotTable(opts.ChunkSize),
		freeHead: noFree,
		details:  make([]EntityDetail, 0, opts.DetailCapacity),
		types:    types,
		bus:      opts.Bus,
		log:      opts.Log,
	}
}

func (r *Registry) Types() *TypeTable { return r.types }

// Len returns the number of live entities.
func (r *Registry) Len() int { return r.live }

// Slots returns the number of slots ever appended, live or free.
func (r *Registry) Slots() int { return int(r.slots.size) }

// DetailCount returns the number of EntityDetail records.
func (r *Registry) DetailCount() int { return len(r.details) }

// CreateEntity reuses the most recently freed slot, or appends a new one.
func (r *Registry) CreateEntity(anchor Anchor) EntityHandle {
	var e *Entity
	var idx uint32
	if r.freeHead != noFree {
		idx = r.freeHead
		e = r.slots.at(idx)
		if e.inUse {
			panic("ecs: free list points at a live slot")
		}
		r.freeHead = e.handle.Index()
		e.handle = NewEntityHandle(idx, e.handle.Generation())
	} else {
		idx, e = r.slots.append()
		e.handle = NewEntityHandle(idx, 0)
	}
	e.anchor = anchor
	e.inUse = true
	r.live++
	event.Emit(r.bus, EntityCreated{Entity: e.handle})
	return e.handle
}

// GetEntity resolves h. Out-of-range, freed and stale handles report false.
func (r *Registry) GetEntity(h EntityHandle) (*Entity, bool) {
	idx := h.Index()
	if idx >= r.slots.size {
		return nil, false
	}
	e := r.slots.at(idx)
	if !e.inUse || e.handle != h {
		return nil, false
	}
	return e, true
}

// Alive reports whether h names a live entity.
func (r *Registry) Alive(h EntityHandle) bool {
	_, ok := r.GetEntity(h)
	return ok
}

// Destroy tears down every component of h, frees its slot and then tells
// the anchor, which may destroy further entities through this registry.
func (r *Registry) Destroy(h EntityHandle) bool {
	e, ok := r.GetEntity(h)
	if !ok {
		r.log.Warn("destroy of invalid entity",
			zap.Uint32("index", h.Index()), zap.Uint32("generation", h.Generation()))
		return false
	}
	anchor := e.anchor

	e.dying = true
	r.destroyComponentsOf(h)
	if !e.inUse || e.handle != h {
		// a component's destroy hook already released the entity
		return true
	}

	idx := h.Index()
	e.inUse = false
	e.dying = false
	e.anchor = nil
	e.handle = NewEntityHandle(r.freeHead, h.Generation()+1)
	r.freeHead = idx
	r.live--
	event.Emit(r.bus, EntityDestroyed{Entity: h})

	if anchor != nil {
		anchor.EntityDestroyed(h)
	}
	return true
}

func (r *Registry) destroyComponentsOf(h EntityHandle) {
	for i := len(r.details) - 1; i >= 0; i-- {
		if i >= len(r.details) {
			continue
		}
		d := r.details[i]
		if d.Entity != h {
			continue
		}
		r.removeDetail(i)
		r.destroyComponent(d)
	}
}

func (r *Registry) destroyComponent(d EntityDetail) bool {
	desc, ok := r.types.Lookup(d.Component.Type)
	if !ok {
		r.log.Warn("component of unregistered type",
			zap.Uint32("type", uint32(d.Component.Type)), zap.Uint32("entity", d.Entity.Index()))
		return false
	}
	event.Emit(r.bus, ComponentDetached{Entity: d.Entity, Component: d.Component})
	return desc.Destroy(d.Component)
}

// AddComponent is the dynamic path: desc.Create builds the component and one
// EntityDetail is recorded. Returns nil when h is not a live entity or the
// kind refused to create.
func (r *Registry) AddComponent(desc *Descriptor, h EntityHandle, params any) any {
	if desc == nil {
		r.log.Warn("add component with nil descriptor", zap.Uint32("entity", h.Index()))
		return nil
	}
	if !r.acceptsComponents(h, desc.Name) {
		return nil
	}
	c := desc.Create(h, params)
	if c == nil {
		r.log.Warn("component create returned nothing",
			zap.String("component", desc.Name), zap.Uint32("entity", h.Index()))
		return nil
	}
	ch, ok := desc.GetHandle(c)
	if !ok {
		r.log.Warn("component has no handle", zap.String("component", desc.Name))
		return nil
	}
	r.attach(h, ch)
	return c
}

// AddComponentByName resolves the kind through the type table first.
func (r *Registry) AddComponentByName(name string, h EntityHandle, params any) any {
	desc, ok := r.types.LookupName(name)
	if !ok {
		r.log.Warn("add component of unknown kind", zap.String("component", name))
		return nil
	}
	return r.AddComponent(desc, h, params)
}

// AddComponent is the static path for a Store-backed kind.
func AddComponent[T any](r *Registry, s *Store[T], h EntityHandle, init func(*T)) *T {
	if !r.acceptsComponents(h, s.desc.Name) {
		return nil
	}
	c, ch, err := s.Create(h, init)
	if err != nil {
		r.log.Warn("component create failed", zap.String("component", s.desc.Name), zap.Error(err))
		return nil
	}
	r.attach(h, ch)
	return c
}

// acceptsComponents refuses stale handles and entities whose components are
// being torn down, so nothing outlives a Destroy.
func (r *Registry) acceptsComponents(h EntityHandle, name string) bool {
	e, ok := r.GetEntity(h)
	if !ok {
		r.log.Warn("add component to invalid entity",
			zap.String("component", name), zap.Uint32("entity", h.Index()))
		return false
	}
	if e.dying {
		r.log.Warn("add component to entity being destroyed",
			zap.String("component", name), zap.Uint32("entity", h.Index()))
		return false
	}
	return true
}

func (r *Registry) attach(h EntityHandle, ch ComponentHandle) {
	r.details = append(r.details, EntityDetail{Entity: h, Component: ch})
	event.Emit(r.bus, ComponentAttached{Entity: h, Component: ch})
}

// DestroyComponent detaches ch from h and destroys it. It fails when ch is
// not attached or is attached to a different entity.
func (r *Registry) DestroyComponent(h EntityHandle, ch ComponentHandle) bool {
	i := r.findDetail(ch)
	if i < 0 {
		r.log.Debug("component not attached",
			zap.Uint32("type", uint32(ch.Type)), zap.Uint32("index", ch.Index))
		return false
	}
	if r.details[i].Entity != h {
		r.log.Debug("component belongs to another entity",
			zap.Uint32("entity", h.Index()), zap.Uint32("owner", r.details[i].Entity.Index()))
		return false
	}
	d := r.details[i]
	r.removeDetail(i)
	return r.destroyComponent(d)
}

// DestroyComponentValue resolves component through desc, then DestroyComponent.
func (r *Registry) DestroyComponentValue(h EntityHandle, desc *Descriptor, component any) bool {
	if desc == nil {
		r.log.Warn("destroy component with nil descriptor", zap.Uint32("entity", h.Index()))
		return false
	}
	ch, ok := desc.GetHandle(component)
	if !ok {
		r.log.Debug("component unknown to its kind", zap.String("component", desc.Name))
		return false
	}
	return r.DestroyComponent(h, ch)
}

// DestroyTyped is DestroyComponent for a Store-backed component pointer.
func DestroyTyped[T any](r *Registry, s *Store[T], h EntityHandle, c *T) bool {
	ch, ok := s.HandleOf(c)
	if !ok {
		r.log.Debug("component unknown to its store", zap.String("component", s.desc.Name))
		return false
	}
	return r.DestroyComponent(h, ch)
}

// GetAllComponents returns copies of every record attached to h.
func (r *Registry) GetAllComponents(h EntityHandle) []EntityDetail {
	var out []EntityDetail
	for _, d := range r.details {
		if d.Entity == h {
			out = append(out, d)
		}
	}
	return out
}

func (r *Registry) findDetail(ch ComponentHandle) int {
	for i := range r.details {
		if r.details[i].Component == ch {
			return i
		}
	}
	return -1
}

func (r *Registry) removeDetail(i int) {
	last := len(r.details) - 1
	r.details[i] = r.details[last]
	r.details[last] = EntityDetail{}
	r.details = r.details[:last]
}
