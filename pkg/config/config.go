// Package config loads and saves qaflow settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/ha1tch/qaflow/pkg/canvas"
	"github.com/ha1tch/qaflow/pkg/flow"
)

// Config holds qaflow configuration.
type Config struct {
	Canvas CanvasConfig `toml:"canvas"`
	Node   NodeConfig   `toml:"node"`
	Spawn  SpawnConfig  `toml:"spawn"`
	Text   TextConfig   `toml:"text"`
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`
}

// CanvasConfig is the visible canvas size in pixels.
type CanvasConfig struct {
	Width  float64 `toml:"width" validate:"gt=0"`
	Height float64 `toml:"height" validate:"gt=0"`
}

// NodeConfig sizes node cards and places edge anchors, in pixels.
type NodeConfig struct {
	Width        float64 `toml:"width" validate:"gt=0"`
	BaseHeight   float64 `toml:"base_height" validate:"gt=0"`
	OptionHeight float64 `toml:"option_height" validate:"gte=0"`
	HeaderAnchor float64 `toml:"header_anchor" validate:"gte=0"`
	OptionAnchor float64 `toml:"option_anchor" validate:"gte=0"`
	OptionStep   float64 `toml:"option_step" validate:"gte=0"`
}

// SpawnConfig places nodes created by "add option".
type SpawnConfig struct {
	OffsetX float64 `toml:"offset_x"`
	StepY   float64 `toml:"step_y"`
}

// TextConfig holds the default texts of new items.
type TextConfig struct {
	Root     string `toml:"root"`
	Question string `toml:"question"`
	Answer   string `toml:"answer"`
	Option   string `toml:"option" validate:"required,contains=%d"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `toml:"level" validate:"oneof=debug info warn error"`
	File        string `toml:"file"` // empty: stderr, or a file under Dir() for the editor
	Development bool   `toml:"development"`
}

// ServerConfig controls "qaflow serve".
type ServerConfig struct {
	Addr        string   `toml:"addr" validate:"required"`
	CORSOrigins []string `toml:"cors_origins"`
}

var validate = validator.New()

// Default returns the default configuration.
func Default() *Config {
	m := canvas.DefaultMetrics()
	s := flow.DefaultSettings()
	return &Config{
		Canvas: CanvasConfig{Width: 1600, Height: 1200},
		Node: NodeConfig{
			Width:        m.NodeWidth,
			BaseHeight:   m.BaseHeight,
			OptionHeight: m.OptionHeight,
			HeaderAnchor: m.HeaderAnchor,
			OptionAnchor: m.OptionAnchor,
			OptionStep:   m.OptionStep,
		},
		Spawn: SpawnConfig{OffsetX: s.SpawnOffsetX, StepY: s.SpawnStepY},
		Text: TextConfig{
			Root:     s.RootText,
			Question: s.NodeText,
			Answer:   s.AnswerText,
			Option:   s.OptionLabel,
		},
		Log:    LogConfig{Level: "info"},
		Server: ServerConfig{Addr: ":8080", CORSOrigins: []string{"*"}},
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Metrics returns the card metrics described by the config.
func (c *Config) Metrics() canvas.Metrics {
	return canvas.Metrics{
		NodeWidth:    c.Node.Width,
		BaseHeight:   c.Node.BaseHeight,
		OptionHeight: c.Node.OptionHeight,
		HeaderAnchor: c.Node.HeaderAnchor,
		OptionAnchor: c.Node.OptionAnchor,
		OptionStep:   c.Node.OptionStep,
	}
}

// Bounds returns the canvas size.
func (c *Config) Bounds() canvas.Size {
	return canvas.Size{W: c.Canvas.Width, H: c.Canvas.Height}
}

// Settings returns the store defaults described by the config.
func (c *Config) Settings() flow.Settings {
	s := flow.DefaultSettings()
	s.RootText = c.Text.Root
	s.NodeText = c.Text.Question
	s.AnswerText = c.Text.Answer
	s.OptionLabel = c.Text.Option
	s.SpawnOffsetX = c.Spawn.OffsetX
	s.SpawnStepY = c.Spawn.StepY
	return s
}

// Dir returns the qaflow config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "qaflow")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config at path over the defaults. A missing file yields
// the defaults; a malformed or invalid one is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path, creating its directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
