package ecs

import "math"

// EntityHandle encodes a 32-bit slot index in the lower bits and a 32-bit
// generation in the upper bits. Slot indices are reused; the generation
// increments on destroy so a stale handle to a recycled slot stays invalid.
type EntityHandle uint64

// InvalidEntity is never issued by CreateEntity.
const InvalidEntity EntityHandle = math.MaxUint64

// noFree terminates the slot free list.
const noFree = math.MaxUint32

func NewEntityHandle(index uint32, generation uint32) EntityHandle {
	return EntityHandle(uint64(generation)<<32 | uint64(index))
}

func (h EntityHandle) Index() uint32      { return uint32(h) }
func (h EntityHandle) Generation() uint32 { return uint32(h >> 32) }
func (h EntityHandle) Valid() bool        { return h != InvalidEntity }

// Anchor is the placement an entity hangs off, normally a scene node. The
// registry never owns it; it only notifies it once the entity is gone.
type Anchor interface {
	EntityDestroyed(h EntityHandle)
}

// Entity is one slot in the registry. While the slot is free, handle's index
// bits hold the next free slot.
type Entity struct {
	handle EntityHandle
	anchor Anchor
	inUse  bool
	dying  bool // components are being torn down
}

func (e *Entity) Handle() EntityHandle { return e.handle }
func (e *Entity) Anchor() Anchor       { return e.anchor }
func (e *Entity) InUse() bool          { return e.inUse }

// slotTable stores entities in fixed-size chunks. Chunks are never moved, so
// an *Entity stays at the same address while the table grows.
type slotTable struct {
	chunkSize uint32
	chunks    [][]Entity
	size      uint32
}

func newSlotTable(chunkSize int) slotTable {
	if chunkSize <= 0 {
		chunkSize = 256
	}
	return slotTable{chunkSize: uint32(chunkSize)}
}

func (t *slotTable) at(index uint32) *Entity {
	return &t.chunks[index/t.chunkSize][index%t.chunkSize]
}

func (t *slotTable) append() (uint32, *Entity) {
	if t.size == noFree {
		panic("ecs: entity slot table exhausted")
	}
	if t.size%t.chunkSize == 0 && int(t.size/t.chunkSize) == len(t.chunks) {
		t.chunks = append(t.chunks, make([]Entity, t.chunkSize))
	}
	idx := t.size
	t.size++
	return idx, t.at(idx)
}
