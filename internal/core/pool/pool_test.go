package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type small struct {
	A, B int64
}

type big struct {
	Data [32]int64
}

type tracked struct {
	released *int
}

func (t *tracked) Release() { *t.released++ }

func TestAllocFreeAllocReusesBlock(t *testing.T) {
	p := New[small](Config{ArenaSize: 4})
	require.True(t, p.Pooled())

	a := p.Alloc(func(s *small) { s.A = 7 })
	require.Equal(t, int64(7), a.A)
	p.Free(a)

	b := p.Alloc(nil)
	require.Same(t, a, b)
	require.Equal(t, small{}, *b, "freed block must come back zeroed")
	require.Equal(t, 1, p.Stats().Arenas)
}

func TestFreeListIsLIFO(t *testing.T) {
	p := New[small](Config{ArenaSize: 8})
	a := p.Alloc(nil)
	b := p.Alloc(nil)
	p.Free(a)
	p.Free(b)
	require.Same(t, b, p.Alloc(nil))
	require.Same(t, a, p.Alloc(nil))
}

func TestArenaCountBoundedByPeak(t *testing.T) {
	const arenaSize = 16
	p := New[small](Config{ArenaSize: arenaSize})

	var live []*small
	for round := 0; round < 5; round++ {
		for i := 0; i < 37; i++ {
			live = append(live, p.Alloc(nil))
		}
		for _, v := range live[:20] {
			p.Free(v)
		}
		live = live[20:]
	}

	st := p.Stats()
	require.Equal(t, len(live), st.Live)
	maxArenas := (st.Peak + arenaSize - 1) / arenaSize
	require.LessOrEqual(t, st.Arenas, maxArenas)
	require.Equal(t, st.Arenas*arenaSize, st.Live+st.Free)
}

func TestOversizeFallsBackToHeap(t *testing.T) {
	p := New[big](Config{BlockSize: 64, ArenaSize: 4})
	require.False(t, p.Pooled())

	v := p.Alloc(func(b *big) { b.Data[31] = 9 })
	require.Equal(t, int64(9), v.Data[31])
	st := p.Stats()
	require.Equal(t, 0, st.Arenas)
	require.Equal(t, 1, st.HeapLive)

	p.Free(v)
	require.Equal(t, 0, p.Stats().HeapLive)
}

func TestFreeCallsRelease(t *testing.T) {
	n := 0
	p := New[tracked](Config{})
	v := p.Alloc(func(tr *tracked) { tr.released = &n })
	p.Free(v)
	require.Equal(t, 1, n)
}

func TestDoubleFreePanics(t *testing.T) {
	p := New[small](Config{ArenaSize: 2})
	v := p.Alloc(nil)
	p.Free(v)
	require.Panics(t, func() { p.Free(v) })
}

type selfFreeing struct {
	pool     *Pool[selfFreeing]
	released *int
}

func (s *selfFreeing) Release() {
	*s.released++
	s.pool.Free(s)
}

func TestFreeDuringReleasePanicsBeforeSecondRelease(t *testing.T) {
	n := 0
	p := New[selfFreeing](Config{ArenaSize: 2})
	v := p.Alloc(func(s *selfFreeing) {
		s.pool = p
		s.released = &n
	})
	require.PanicsWithValue(t, "pool: free of a block that is not live", func() { p.Free(v) })
	require.Equal(t, 1, n)
	require.Equal(t, 1, p.Stats().Live)
}

func TestArenaLinkedTwicePanics(t *testing.T) {
	p := New[small](Config{ArenaSize: 2})
	a := &arena[small]{cells: make([]cell[small], 2)}
	p.link(a)
	require.Panics(t, func() { p.link(a) })
}

func TestConcurrentAllocFree(t *testing.T) {
	p := New[small](Config{ArenaSize: 32})
	const workers = 8
	const perWorker = 500

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			held := make([]*small, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				v := p.Alloc(func(s *small) { s.A = id })
				held = append(held, v)
			}
			for _, v := range held {
				if v.A != id {
					t.Errorf("block shared between workers: got %d want %d", v.A, id)
				}
				p.Free(v)
			}
		}(int64(w))
	}
	wg.Wait()

	st := p.Stats()
	require.Zero(t, st.Live)
	require.Equal(t, st.Arenas*32, st.Free)
}
