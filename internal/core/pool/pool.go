// Package pool implements a fixed-block slab allocator with on-demand arena
// growth. A Pool hands out *T values carved from arenas of fixed-size cells;
// freed cells go back on a free list threaded through the cells themselves.
// Types larger than the pool's block size are served from the heap instead,
// and each cell records which path it came from so Free never has to guess.
package pool

import (
	"sync"
	"unsafe"
)

const (
	DefaultBlockSize uintptr = 64
	DefaultArenaSize         = 256
)

// Config sizes a pool. Zero fields take the defaults.
type Config struct {
	BlockSize uintptr
	ArenaSize int
}

// Releaser is the destructor hook: Free calls Release before the cell is
// reused.
type Releaser interface {
	Release()
}

type cellState uint8

const (
	cellFree cellState = iota
	cellLive
	cellHeap
	// Release is running; a second Free of the cell panics.
	cellReleasingLive
	cellReleasingHeap
)

// cell is one block. value must stay the first field: Free recovers the
// cell from the *T it handed out.
type cell[T any] struct {
	value T
	next  *cell[T]
	state cellState
}

type arena[T any] struct {
	cells  []cell[T]
	next   *arena[T]
	linked bool
}

// Stats is a snapshot of pool occupancy.
type Stats struct {
	Arenas    int
	ArenaSize int
	Live      int // pooled cells in use
	HeapLive  int // oversize values in use
	Free      int // cells on the free list
	Peak      int // highest Live seen
}

// Pool is safe for concurrent use; every Alloc and Free takes the pool mutex.
type Pool[T any] struct {
	mu        sync.Mutex
	blockSize uintptr
	arenaSize int
	pooled    bool

	arenas     *arena[T]
	arenaCount int
	free       *cell[T]
	freeCount  int
	live       int
	heapLive   int
	peak       int
}

func New[T any](cfg Config) *Pool[T] {
	if cfg.BlockSize == 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.ArenaSize <= 0 {
		cfg.ArenaSize = DefaultArenaSize
	}
	var zero T
	return &Pool[T]{
		blockSize: cfg.BlockSize,
		arenaSize: cfg.ArenaSize,
		pooled:    unsafe.Sizeof(zero) <= cfg.BlockSize,
	}
}

// Pooled reports whether T fits in one block. When false every Alloc is a
// heap allocation.
func (p *Pool[T]) Pooled() bool { return p.pooled }

// BlockSize returns the fixed cell size this pool was built with.
func (p *Pool[T]) BlockSize() uintptr { return p.blockSize }

// Alloc returns a zeroed T, initialized by init when non-nil. It never fails;
// an empty free list grows a new arena.
func (p *Pool[T]) Alloc(init func(*T)) *T {
	p.mu.Lock()
	var c *cell[T]
	if p.pooled {
		if p.free == nil {
			p.grow()
		}
		c = p.free
		p.free = c.next
		p.freeCount--
		c.next = nil
		c.state = cellLive
		p.live++
		if p.live > p.peak {
			p.peak = p.live
		}
	} else {
		c = &cell[T]{state: cellHeap}
		p.heapLive++
	}
	p.mu.Unlock()

	if init != nil {
		init(&c.value)
	}
	return &c.value
}

// Free destroys v and returns its block. v must have come from Alloc on this
// pool; freeing twice panics.
func (p *Pool[T]) Free(v *T) {
	if v == nil {
		return
	}
	c := (*cell[T])(unsafe.Pointer(v))
	p.mu.Lock()
	switch c.state {
	case cellLive:
		c.state = cellReleasingLive
	case cellHeap:
		c.state = cellReleasingHeap
	default:
		p.mu.Unlock()
		panic("pool: free of a block that is not live")
	}
	p.mu.Unlock()

	// Release may allocate or free on this pool, so it runs unlocked.
	if r, ok := any(v).(Releaser); ok {
		r.Release()
	}
	var zero T

	p.mu.Lock()
	defer p.mu.Unlock()
	c.value = zero
	if c.state == cellReleasingLive {
		c.next = p.free
		p.free = c
		p.freeCount++
		p.live--
	} else {
		p.heapLive--
	}
	c.state = cellFree
}

// grow links a fresh arena at the front of the arena list and threads its
// cells onto the free list. Caller holds p.mu.
func (p *Pool[T]) grow() {
	a := &arena[T]{cells: make([]cell[T], p.arenaSize)}
	p.link(a)
	for i := range a.cells {
		if i+1 < len(a.cells) {
			a.cells[i].next = &a.cells[i+1]
		} else {
			a.cells[i].next = p.free
		}
	}
	p.free = &a.cells[0]
	p.freeCount += len(a.cells)
}

func (p *Pool[T]) link(a *arena[T]) {
	if a.linked {
		panic("pool: arena linked twice")
	}
	a.linked = true
	a.next = p.arenas
	p.arenas = a
	p.arenaCount++
}

func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Arenas:    p.arenaCount,
		ArenaSize: p.arenaSize,
		Live:      p.live,
		HeapLive:  p.heapLive,
		Free:      p.freeCount,
		Peak:      p.peak,
	}
}
