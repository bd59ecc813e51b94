package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jtafstn/webidle/internal/catalog"
)

const (
	DefaultSaveKey    = "webidle-save"
	DefaultTick       = time.Second
	DefaultAutosave   = 30 * time.Second
	DefaultVersion    = 2
	DefaultDifficulty = "default"
)

type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Difficulty string           `yaml:"difficulty" json:"difficulty"`
	Game       GameConfig       `yaml:"game" json:"game"`
	Economy    catalog.Document `yaml:"economy" json:"economy"`
}

type GameConfig struct {
	SaveKey          string        `yaml:"save_key" json:"save_key"`
	TickInterval     time.Duration `yaml:"tick_interval" json:"tick_interval"`
	AutosaveInterval time.Duration `yaml:"autosave_interval" json:"autosave_interval"`
	// OfflineCatchUp credits ticks missed while no session was running, up
	// to this long. Zero disables catch-up.
	OfflineCatchUp time.Duration `yaml:"offline_catch_up" json:"offline_catch_up"`
}

func (g *GameConfig) ApplyDefaults() {
	if g.SaveKey == "" {
		g.SaveKey = DefaultSaveKey
	}
	if g.TickInterval <= 0 {
		g.TickInterval = DefaultTick
	}
	if g.AutosaveInterval <= 0 {
		g.AutosaveInterval = DefaultAutosave
	}
	if g.OfflineCatchUp < 0 {
		g.OfflineCatchUp = 0
	}
}

func (c *Config) ApplyDefaults() {
	if c.Version == 0 {
		c.Version = DefaultVersion
	}
	if c.Difficulty == "" {
		c.Difficulty = DefaultDifficulty
	}
	c.Game.ApplyDefaults()
	if len(c.Economy.Items) == 0 && len(c.Economy.Skills) == 0 {
		c.Economy = catalog.DefaultDocument()
	}
}

// Default returns the shipped configuration.
func Default() *Config {
	var c Config
	c.ApplyDefaults()
	return &c
}

// Load reads a YAML config file. An empty path yields Default.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	var r Config
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	r.ApplyDefaults()
	return &r, nil
}

// Catalog applies the difficulty preset to the economy document and builds
// the catalog. Errors here are fatal at startup.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	b, ok := Preset(c.Difficulty)
	if !ok {
		return nil, fmt.Errorf("config: unknown difficulty %q", c.Difficulty)
	}
	cat, err := catalog.Build(b.Apply(c.Economy))
	if err != nil {
		return nil, fmt.Errorf("config: build catalog: %w", err)
	}
	return cat, nil
}
