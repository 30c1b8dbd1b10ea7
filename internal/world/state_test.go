package world

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/l1jgo/scenecore/internal/component"
	"github.com/l1jgo/scenecore/internal/config"
	"github.com/l1jgo/scenecore/internal/core/ecs"
	"github.com/l1jgo/scenecore/internal/core/scene"
	"github.com/l1jgo/scenecore/internal/data"
	"github.com/l1jgo/scenecore/internal/scripting"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const layoutYAML = `
nodes:
  - name: sun
    components:
      - kind: spin
        params:
          axis: [0, 1, 0]
          degrees_per_second: 30
    children:
      - name: planet
        position: [10, 0, 0]
        components:
          - kind: tag
            params:
              name: planet
              labels: [orbiting]
          - kind: missing
        children:
          - name: moon
            position: [2, 0, 0]
  - name: camera
    position: [0, 5, -20]
`

func newTestState(t *testing.T) (*State, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	s, err := NewState(config.Default(), zap.New(core))
	require.NoError(t, err)
	return s, logs
}

func TestNewStateRegistersBuiltinKinds(t *testing.T) {
	s, _ := newTestState(t)
	_, ok := s.Types.LookupName(KindSpin)
	require.True(t, ok)
	_, ok = s.Types.LookupName(KindTag)
	require.True(t, ok)
	require.True(t, s.SpinPool.Pooled())
	require.True(t, s.TagPool.Pooled())
}

func TestSpawnBuildsHierarchy(t *testing.T) {
	s, logs := newTestState(t)
	layout, err := data.ParseSceneLayout([]byte(layoutYAML))
	require.NoError(t, err)

	require.Equal(t, 4, s.Spawn(layout))
	require.Equal(t, 4, s.Graph.Count())
	require.Equal(t, 4, s.Registry.Len())
	require.Len(t, s.Graph.Roots(), 2)
	require.Equal(t, 1, s.Spins.Len())
	require.Equal(t, 1, s.Tags.Len())
	require.Equal(t, 1, logs.FilterMessage("spawn component failed").Len())

	sun := s.Graph.Roots()[0]
	require.Equal(t, "sun", sun.Name)
	planet := sun.Children()[0]
	moon := planet.Children()[0]
	require.Equal(t, "moon", moon.Name)

	s.Graph.DeepClean()
	require.Equal(t, mgl64.Vec3{12, 0, 0}, moon.GetWorldTransformCheck().Position)

	details := s.Registry.GetAllComponents(planet.Entity())
	require.Len(t, details, 1)
	tag, ok := s.Tags.Get(details[0].Component)
	require.True(t, ok)
	require.Equal(t, "planet", tag.Name)
	require.True(t, tag.Has("orbiting"))

	s.Spins.Each(func(_ ecs.ComponentHandle, owner ecs.EntityHandle, sp *component.Spin) {
		require.Equal(t, sun.Entity(), owner)
		require.Equal(t, 30.0, sp.DegreesPerSecond)
	})
}

func TestNodeOf(t *testing.T) {
	s, _ := newTestState(t)
	n := s.Graph.CreateRoot(nil)
	got, ok := s.NodeOf(n.Entity())
	require.True(t, ok)
	require.Same(t, n, got)

	bare := s.Registry.CreateEntity(nil)
	_, ok = s.NodeOf(bare)
	require.False(t, ok)

	n.Destroy(true)
	_, ok = s.NodeOf(n.Entity())
	require.False(t, ok)
}

func TestDestroyQueueSkipsDeadHandles(t *testing.T) {
	s, _ := newTestState(t)
	root := s.Graph.CreateRoot(nil)
	child := root.CreateChild(nil)
	other := s.Graph.CreateRoot(nil)

	// child dies with root before its own entry is reached.
	s.MarkForDestruction(root.Entity())
	s.MarkForDestruction(child.Entity())
	require.Equal(t, 2, s.PendingDestruction())

	s.FlushDestroyQueue()
	require.Equal(t, 0, s.PendingDestruction())
	require.True(t, root.Destroyed())
	require.True(t, child.Destroyed())
	require.False(t, other.Destroyed())
	require.Equal(t, 1, s.Registry.Len())
	require.Equal(t, 1, s.Graph.Count())
}

func TestFlushDestroysEntitiesMarkedDuringFlush(t *testing.T) {
	s, _ := newTestState(t)
	a := s.Graph.CreateRoot(nil)
	b := s.Graph.CreateRoot(nil)
	c := s.Graph.CreateRoot(nil)
	a.OnCleaned(func(*scene.Node) { s.MarkForDestruction(b.Entity()) })
	b.OnCleaned(func(*scene.Node) { s.MarkForDestruction(c.Entity()) })

	s.MarkForDestruction(a.Entity())
	s.FlushDestroyQueue()
	require.True(t, a.Destroyed())
	require.True(t, b.Destroyed())
	require.True(t, c.Destroyed())
	require.False(t, s.Registry.Alive(b.Entity()))
	require.Equal(t, 0, s.PendingDestruction())
	require.Equal(t, 0, s.Registry.Len())
}

// spawnShippedScene loads the repository's scripts and demo layout the way
// cmd/scenecore does.
func spawnShippedScene(t *testing.T) (*State, *scripting.Engine, *observer.ObservedLogs) {
	t.Helper()
	s, _ := newTestState(t)
	core, luaLogs := observer.New(zapcore.DebugLevel)
	eng, err := scripting.NewEngine("../../scripts", zap.New(core))
	require.NoError(t, err)
	require.NoError(t, eng.Bind(s.Types))

	layout, err := data.LoadSceneLayout("../../data/yaml/scene.yaml")
	require.NoError(t, err)
	require.Equal(t, layout.Count(), s.Spawn(layout))
	require.Equal(t, 1, eng.Live("beacon"))
	require.Equal(t, 2, eng.Live("health"))
	return s, eng, luaLogs
}

func TestShutdownRunsScriptDestroyHooksBeforeEngineCloses(t *testing.T) {
	s, eng, luaLogs := spawnShippedScene(t)
	eng.Update(16 * time.Millisecond)

	require.NotPanics(t, func() {
		s.Close()
		eng.Close()
	})
	require.Equal(t, 1, luaLogs.FilterMessage("sun-beacon switched off after 1 pulses").Len())
	require.Zero(t, eng.Live("beacon"))
	require.Zero(t, eng.Live("health"))
	require.Equal(t, 0, s.Registry.Len())
}

func TestShutdownAfterEngineClosedReleasesScriptedComponents(t *testing.T) {
	s, eng, luaLogs := spawnShippedScene(t)

	require.NotPanics(t, func() {
		eng.Close()
		eng.Update(16 * time.Millisecond)
		s.Close()
	})
	require.Zero(t, luaLogs.FilterMessageSnippet("switched off").Len())
	require.Equal(t, 3, luaLogs.FilterMessage("scripted component released after close").Len())
	require.Zero(t, eng.Live("beacon"))
	require.Zero(t, eng.Live("health"))
	require.Equal(t, 0, s.Registry.DetailCount())
}

func TestCloseReleasesEverything(t *testing.T) {
	s, _ := newTestState(t)
	layout, err := data.ParseSceneLayout([]byte(layoutYAML))
	require.NoError(t, err)
	s.Spawn(layout)
	s.MarkForDestruction(s.Graph.Roots()[1].Entity())

	s.Close()
	require.Equal(t, 0, s.Graph.Count())
	require.Equal(t, 0, s.Registry.Len())
	require.Equal(t, 0, s.Registry.DetailCount())
	require.Equal(t, 0, s.Spins.Len())
	require.Equal(t, 0, s.SpinPool.Stats().Live)
	require.Equal(t, 0, s.TagPool.Stats().Live)
}
