package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Pool      PoolConfig      `toml:"pool"`
	Registry  RegistryConfig  `toml:"registry"`
	Frame     FrameConfig     `toml:"frame"`
	Scripting ScriptingConfig `toml:"scripting"`
	Scene     SceneConfig     `toml:"scene"`
	Logging   LoggingConfig   `toml:"logging"`
	Profile   ProfileConfig   `toml:"profile"`
}

type PoolConfig struct {
	BlockSize int `toml:"block_size"` // bytes per cell; larger types fall back to the heap
	ArenaSize int `toml:"arena_size"` // cells per arena
}

type RegistryConfig struct {
	ChunkSize      int `toml:"chunk_size"` // entity slots per chunk
	DetailCapacity int `toml:"detail_capacity"`
}

type FrameConfig struct {
	TickRate          time.Duration `toml:"tick_rate"`
	MaxTicks          int           `toml:"max_ticks"` // 0 = run until signalled
	StartPaused       bool          `toml:"start_paused"`
	TelemetryInterval int           `toml:"telemetry_interval"` // ticks between telemetry lines
}

type ScriptingConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type SceneConfig struct {
	Layout string `toml:"layout"` // empty = start with an empty graph
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ProfileConfig struct {
	Mode   string `toml:"mode"` // "cpu", "mem" or "" for off
	Path   string `toml:"path"`
	Rounds int    `toml:"rounds"`
	Nodes  int    `toml:"nodes"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when a key is absent from the file.
func Default() *Config {
	return &Config{
		Pool: PoolConfig{
			BlockSize: 64,
			ArenaSize: 256,
		},
		Registry: RegistryConfig{
			ChunkSize:      256,
			DetailCapacity: 1024,
		},
		Frame: FrameConfig{
			TickRate:          16 * time.Millisecond,
			TelemetryInterval: 300,
		},
		Scripting: ScriptingConfig{
			Enabled: true,
			Dir:     "scripts",
		},
		Scene: SceneConfig{
			Layout: "data/yaml/scene.yaml",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Profile: ProfileConfig{
			Mode:   "cpu",
			Path:   ".",
			Rounds: 50,
			Nodes:  1000,
		},
	}
}
