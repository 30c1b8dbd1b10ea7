package ecs

import (
	"fmt"
	"unsafe"

	"github.com/l1jgo/scenecore/internal/core/pool"
	"go.uber.org/zap"
)

// Store is pool-backed storage for one statically typed component kind.
// Handles index a slot array; freed slots are reused LIFO.
type Store[T any] struct {
	desc   *Descriptor
	pool   *pool.Pool[T]
	items  []*T
	owners []EntityHandle
	free   []uint32
	index  map[*T]uint32
	log    *zap.Logger
}

// RegisterStore creates a Store for T and registers its descriptor under name.
func RegisterStore[T any](types *TypeTable, name string, p *pool.Pool[T], log *zap.Logger) (*Store[T], error) {
	if log == nil {
		log = zap.NewNop()
	}
	if p == nil {
		p = pool.New[T](pool.Config{})
	}
	s := &Store[T]{
		pool:   p,
		items:  make([]*T, 0, 64),
		owners: make([]EntityHandle, 0, 64),
		index:  make(map[*T]uint32, 64),
		log:    log.With(zap.String("component", name)),
	}
	var zero T
	desc, err := types.Register(Descriptor{
		Name:  name,
		Size:  unsafe.Sizeof(zero),
		Align: unsafe.Alignof(zero),
		Create: func(e EntityHandle, params any) any {
			c, _, err := s.Create(e, params)
			if err != nil {
				s.log.Warn("component create failed", zap.Error(err))
				return nil
			}
			return c
		},
		GetHandle: func(component any) (ComponentHandle, bool) {
			c, ok := component.(*T)
			if !ok {
				return ComponentHandle{}, false
			}
			return s.HandleOf(c)
		},
		Destroy: s.Destroy,
	})
	if err != nil {
		return nil, err
	}
	s.desc = desc
	return s, nil
}

func (s *Store[T]) Descriptor() *Descriptor { return s.desc }

// Create allocates a component for e. params may be nil, func(*T), T, *T or
// a ParamDecoder.
func (s *Store[T]) Create(e EntityHandle, params any) (*T, ComponentHandle, error) {
	init, err := s.initializer(params)
	if err != nil {
		return nil, ComponentHandle{}, err
	}
	c := s.pool.Alloc(init)

	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
		s.items[idx] = c
		s.owners[idx] = e
	} else {
		idx = uint32(len(s.items))
		s.items = append(s.items, c)
		s.owners = append(s.owners, e)
	}
	s.index[c] = idx
	return c, ComponentHandle{Type: s.desc.ID, Index: idx}, nil
}

func (s *Store[T]) initializer(params any) (func(*T), error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case func(*T):
		return p, nil
	case T:
		return func(v *T) { *v = p }, nil
	case *T:
		if p == nil {
			return nil, nil
		}
		val := *p
		return func(v *T) { *v = val }, nil
	case ParamDecoder:
		var val T
		if err := p.Decode(&val); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
		return func(v *T) { *v = val }, nil
	default:
		return nil, fmt.Errorf("unsupported params %T", params)
	}
}

func (s *Store[T]) Get(h ComponentHandle) (*T, bool) {
	if !s.live(h) {
		return nil, false
	}
	return s.items[h.Index], true
}

// Owner returns the entity the component was created for.
func (s *Store[T]) Owner(h ComponentHandle) (EntityHandle, bool) {
	if !s.live(h) {
		return InvalidEntity, false
	}
	return s.owners[h.Index], true
}

func (s *Store[T]) HandleOf(c *T) (ComponentHandle, bool) {
	idx, ok := s.index[c]
	if !ok {
		return ComponentHandle{}, false
	}
	return ComponentHandle{Type: s.desc.ID, Index: idx}, true
}

// Destroy frees the component behind h and recycles its slot.
func (s *Store[T]) Destroy(h ComponentHandle) bool {
	if !s.live(h) {
		return false
	}
	c := s.items[h.Index]
	delete(s.index, c)
	s.items[h.Index] = nil
	s.owners[h.Index] = InvalidEntity
	s.free = append(s.free, h.Index)
	s.pool.Free(c)
	return true
}

func (s *Store[T]) Len() int { return len(s.index) }

// Each visits live components in slot order.
func (s *Store[T]) Each(fn func(ComponentHandle, EntityHandle, *T)) {
	for i, c := range s.items {
		if c != nil {
			fn(ComponentHandle{Type: s.desc.ID, Index: uint32(i)}, s.owners[i], c)
		}
	}
}

func (s *Store[T]) live(h ComponentHandle) bool {
	return h.Type == s.desc.ID && int(h.Index) < len(s.items) && s.items[h.Index] != nil
}
