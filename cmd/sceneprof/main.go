// Profiling:
// go build ./cmd/sceneprof
// ./sceneprof -mode mem -rounds 50 -nodes 1000
// go tool pprof -http=":8000" -nodefraction=0.001 ./sceneprof mem.pprof

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/l1jgo/scenecore/internal/component"
	"github.com/l1jgo/scenecore/internal/config"
	"github.com/l1jgo/scenecore/internal/core/ecs"
	"github.com/l1jgo/scenecore/internal/core/scene"
	"github.com/l1jgo/scenecore/internal/vmath"
	"github.com/l1jgo/scenecore/internal/world"
	"github.com/pkg/profile"
)

func main() {
	cfg := config.Default()
	if p := os.Getenv("SCENECORE_CONFIG"); p != "" {
		loaded, err := config.Load(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	fs := flag.NewFlagSet("sceneprof", flag.ExitOnError)
	mode := fs.String("mode", cfg.Profile.Mode, "profile mode: cpu or mem")
	path := fs.String("path", cfg.Profile.Path, "directory for the profile output")
	rounds := fs.Int("rounds", cfg.Profile.Rounds, "churn rounds")
	nodes := fs.Int("nodes", cfg.Profile.Nodes, "nodes per round")
	_ = fs.Parse(os.Args[1:])

	opts := []func(*profile.Profile){profile.ProfilePath(*path), profile.NoShutdownHook}
	switch *mode {
	case "mem":
		opts = append(opts, profile.MemProfileAllocs)
	case "cpu":
		opts = append(opts, profile.CPUProfile)
	default:
		fmt.Fprintf(os.Stderr, "fatal: unknown profile mode %q\n", *mode)
		os.Exit(2)
	}

	ws, err := world.NewState(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	defer ws.Close()

	p := profile.Start(opts...)
	run(ws, *rounds, *nodes)
	p.Stop()
}

// run builds a chain-and-fan hierarchy each round, spins and cleans it, then
// tears half down through the destroy queue and the rest through the graph.
func run(ws *world.State, rounds, numNodes int) {
	step := vmath.AxisAngle(mgl64.Vec3{0, 1, 0}, 1)
	for range rounds {
		root := ws.Graph.CreateRoot(nil)
		parent := root
		for i := range numNodes {
			n := parent.CreateChild(nil)
			if i%8 == 0 {
				parent = n
			}
			n.SetPosition(mgl64.Vec3{1, 0, 0})
			ecs.AddComponent(ws.Registry, ws.Spins, n.Entity(), func(s *component.Spin) {
				s.Axis = mgl64.Vec3{0, 1, 0}
				s.DegreesPerSecond = 90
			})
		}

		for range 4 {
			root.Rotate(step)
			ws.Graph.DeepClean()
		}

		i := 0
		ws.Graph.Walk(func(n *scene.Node) bool {
			if i%2 == 1 {
				ws.MarkForDestruction(n.Entity())
			}
			i++
			return true
		})
		ws.FlushDestroyQueue()
		ws.Graph.Clear()
	}
}
