package ecs

import "iter"

// Iterator walks live entities in slot order, in either direction, skipping
// free slots. It is positioned between slots until Next or Prev succeeds.
type Iterator struct {
	r   *Registry
	pos int64
}

// Entities returns an iterator positioned before the first slot.
func (r *Registry) Entities() *Iterator {
	return &Iterator{r: r, pos: -1}
}

// EntitiesFromEnd returns an iterator positioned after the last slot.
func (r *Registry) EntitiesFromEnd() *Iterator {
	return &Iterator{r: r, pos: int64(r.slots.size)}
}

func (it *Iterator) Next() bool {
	size := int64(it.r.slots.size)
	for it.pos++; it.pos < size; it.pos++ {
		if it.r.slots.at(uint32(it.pos)).inUse {
			return true
		}
	}
	it.pos = size
	return false
}

func (it *Iterator) Prev() bool {
	if size := int64(it.r.slots.size); it.pos > size {
		it.pos = size
	}
	for it.pos--; it.pos >= 0; it.pos-- {
		if it.r.slots.at(uint32(it.pos)).inUse {
			return true
		}
	}
	it.pos = -1
	return false
}

// Entity returns the current entity. Calling it when the iterator is not on
// a live slot panics.
func (it *Iterator) Entity() *Entity {
	if it.pos < 0 || it.pos >= int64(it.r.slots.size) {
		panic("ecs: iterator out of range")
	}
	e := it.r.slots.at(uint32(it.pos))
	if !e.inUse {
		panic("ecs: iterator on a free slot")
	}
	return e
}

func (it *Iterator) Handle() EntityHandle { return it.Entity().handle }

// All yields live entities front to back.
func (r *Registry) All() iter.Seq2[EntityHandle, *Entity] {
	return func(yield func(EntityHandle, *Entity) bool) {
		it := r.Entities()
		for it.Next() {
			e := it.Entity()
			if !yield(e.handle, e) {
				return
			}
		}
	}
}

// Backward yields live entities back to front.
func (r *Registry) Backward() iter.Seq2[EntityHandle, *Entity] {
	return func(yield func(EntityHandle, *Entity) bool) {
		it := r.EntitiesFromEnd()
		for it.Prev() {
			e := it.Entity()
			if !yield(e.handle, e) {
				return
			}
		}
	}
}
