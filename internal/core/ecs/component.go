package ecs

import "fmt"

// TypeID identifies a registered component kind. Zero is never assigned.
type TypeID uint32

// ComponentHandle is a (kind, per-kind slot) pair resolved through the
// kind's Descriptor.
type ComponentHandle struct {
	Type  TypeID
	Index uint32
}

// EntityDetail associates one entity with one of its components.
type EntityDetail struct {
	Entity    EntityHandle
	Component ComponentHandle
}

// Descriptor is the capability table for one component kind. The registry
// drives kinds it has no compile-time knowledge of purely through it.
type Descriptor struct {
	ID    TypeID
	Name  string
	Size  uintptr
	Align uintptr

	// Create builds a component for e from params and returns it, or nil.
	Create func(e EntityHandle, params any) any
	// GetHandle maps a component returned by Create back to its handle.
	GetHandle func(component any) (ComponentHandle, bool)
	// Destroy tears down the component behind h.
	Destroy func(h ComponentHandle) bool
}

// ParamDecoder is accepted as component params by kinds that can decode
// structured data, e.g. *yaml.Node.
type ParamDecoder interface {
	Decode(v any) error
}

// TypeTable maps TypeIDs to descriptors. IDs are assigned in registration
// order starting at 1.
type TypeTable struct {
	byID   []*Descriptor
	byName map[string]*Descriptor
}

func NewTypeTable() *TypeTable {
	return &TypeTable{
		byID:   make([]*Descriptor, 0, 16),
		byName: make(map[string]*Descriptor, 16),
	}
}

// Register assigns d an ID and stores it. The stored copy is returned.
func (t *TypeTable) Register(d Descriptor) (*Descriptor, error) {
	if d.Create == nil || d.Destroy == nil || d.GetHandle == nil {
		return nil, fmt.Errorf("register %q: %w", d.Name, ErrIncompleteDescriptor)
	}
	if _, ok := t.byName[d.Name]; ok {
		return nil, fmt.Errorf("register %q: %w", d.Name, ErrDuplicateType)
	}
	d.ID = TypeID(len(t.byID) + 1)
	stored := &d
	t.byID = append(t.byID, stored)
	t.byName[d.Name] = stored
	return stored, nil
}

func (t *TypeTable) Lookup(id TypeID) (*Descriptor, bool) {
	if id == 0 || int(id) > len(t.byID) {
		return nil, false
	}
	return t.byID[id-1], true
}

func (t *TypeTable) LookupName(name string) (*Descriptor, bool) {
	d, ok := t.byName[name]
	return d, ok
}

func (t *TypeTable) Len() int { return len(t.byID) }

// Each visits descriptors in ID order.
func (t *TypeTable) Each(fn func(*Descriptor)) {
	for _, d := range t.byID {
		fn(d)
	}
}
