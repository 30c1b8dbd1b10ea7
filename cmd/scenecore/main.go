package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/scenecore/internal/config"
	coresys "github.com/l1jgo/scenecore/internal/core/system"
	"github.com/l1jgo/scenecore/internal/data"
	"github.com/l1jgo/scenecore/internal/scripting"
	"github.com/l1jgo/scenecore/internal/system"
	"github.com/l1jgo/scenecore/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             scenecore  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      entity lifecycle · scene graph       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ──────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/scenecore.toml"
	if p := os.Getenv("SCENECORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. World context
	printSection("World")
	ws, err := world.NewState(cfg, log)
	if err != nil {
		return fmt.Errorf("world: %w", err)
	}
	var engine *scripting.Engine
	// The world goes first: scripted components run their destroy hooks
	// on the engine's VM.
	defer func() {
		ws.Close()
		if engine != nil {
			engine.Close()
		}
	}()
	printOK(fmt.Sprintf("registry ready (chunk %d)", cfg.Registry.ChunkSize))
	if ws.SpinPool.Pooled() {
		printOK(fmt.Sprintf("pools ready (block %dB, arena %d)", cfg.Pool.BlockSize, cfg.Pool.ArenaSize))
	}
	fmt.Println()

	// 4. Scripted component kinds; bound before the layout so it can use them
	if cfg.Scripting.Enabled {
		printSection("Scripting")
		engine, err = scripting.NewEngine(cfg.Scripting.Dir, log.Named("lua"))
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		if err := engine.Bind(ws.Types); err != nil {
			return fmt.Errorf("bind scripted kinds: %w", err)
		}
		printStat("scripted kinds", len(engine.Kinds()))
		fmt.Println()
	}

	// 5. Scene layout
	printSection("Scene")
	if cfg.Scene.Layout != "" {
		layout, err := data.LoadSceneLayout(cfg.Scene.Layout)
		if err != nil {
			return fmt.Errorf("scene layout: %w", err)
		}
		printStat("nodes spawned", ws.Spawn(layout))
	}
	printStat("roots", len(ws.Graph.Roots()))
	printStat("component kinds", ws.Types.Len())
	fmt.Println()

	// 6. Register systems
	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(ws.Bus))
	runner.Register(system.NewSpinSystem(ws))
	if engine != nil {
		runner.Register(system.NewScriptSystem(engine))
	}
	runner.Register(system.NewTransformSystem(ws.Graph))
	runner.Register(system.NewTelemetrySystem(ws, cfg.Frame.TelemetryInterval, log.Named("telemetry")))
	runner.Register(system.NewCleanupSystem(ws))
	runner.SetPaused(cfg.Frame.StartPaused)

	// 7. Frame loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Frame.TickRate)
	defer ticker.Stop()

	printSection("Running")
	printReady(fmt.Sprintf("frame loop started (tick: %s)", cfg.Frame.TickRate))
	if runner.Paused() {
		printReady("simulation paused; transforms still resolve")
	}
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Frame.TickRate)
			if cfg.Frame.MaxTicks > 0 && runner.Ticks() >= uint64(cfg.Frame.MaxTicks) {
				log.Info("tick limit reached", zap.Uint64("ticks", runner.Ticks()))
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			log.Info("stopped", zap.Uint64("ticks", runner.Ticks()), zap.Int("entities", ws.Registry.Len()))
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
