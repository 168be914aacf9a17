package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/milk9111/shmup/common"
)

type Config struct {
	Window  WindowConfig  `toml:"window"`
	Field   FieldConfig   `toml:"field"`
	Game    GameConfig    `toml:"game"`
	Logging LoggingConfig `toml:"logging"`
	Save    SaveConfig    `toml:"save"`
	Assets  AssetsConfig  `toml:"assets"`
}

type WindowConfig struct {
	Title string `toml:"title"`
	Scale int    `toml:"scale"`
}

type FieldConfig struct {
	Width      float64 `toml:"width"`
	Height     float64 `toml:"height"`
	CullMargin float64 `toml:"cull_margin"` // pixels past the edge before removal
}

type GameConfig struct {
	Round        string `toml:"round"`
	TicksPerUnit int    `toml:"ticks_per_unit"`
	HotReload    bool   `toml:"hot_reload"`
	Debug        bool   `toml:"debug"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

type SaveConfig struct {
	AppName string `toml:"app_name"`
	Slot    string `toml:"slot"`
}

type AssetsConfig struct {
	Dir string `toml:"dir"`
}

// Bounds returns the playfield.
func (c *Config) Bounds() common.Bounds {
	return common.Bounds{Width: c.Field.Width, Height: c.Field.Height}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Field.Width <= 0 || c.Field.Height <= 0 {
		return fmt.Errorf("field size must be positive, got %vx%v", c.Field.Width, c.Field.Height)
	}
	// Entities read a zero margin as unset, so 0 cannot mean the exact edge.
	if c.Field.CullMargin <= 0 {
		return fmt.Errorf("cull_margin must be positive, got %v", c.Field.CullMargin)
	}
	if c.Game.TicksPerUnit <= 0 {
		return fmt.Errorf("ticks_per_unit must be positive")
	}
	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}
	return nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Window: WindowConfig{
			Title: "shmup",
			Scale: 1,
		},
		Field: FieldConfig{
			Width:      480,
			Height:     640,
			CullMargin: common.DefaultCullMargin,
		},
		Game: GameConfig{
			Round:        "round_1",
			TicksPerUnit: common.TicksPerSecond,
			HotReload:    true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Save: SaveConfig{
			AppName: "milk9111_shmup",
			Slot:    "quick",
		},
		Assets: AssetsConfig{
			Dir: "assets",
		},
	}
}
