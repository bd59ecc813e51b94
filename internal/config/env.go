package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends selectable with WEBIDLE_STORE.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreBolt   = "bolt"
	StoreSQLite = "sqlite"
)

// Env is the process configuration read from the environment.
type Env struct {
	Addr       string        `env:"WEBIDLE_ADDR"       envDefault:":42069"`
	DataDir    string        `env:"WEBIDLE_DATA_DIR"   envDefault:"data"`
	Store      string        `env:"WEBIDLE_STORE"      envDefault:"file"`
	ConfigPath string        `env:"WEBIDLE_CONFIG"`
	Difficulty string        `env:"WEBIDLE_DIFFICULTY"`
	Tick       time.Duration `env:"WEBIDLE_TICK"`
	Autosave   time.Duration `env:"WEBIDLE_AUTOSAVE"`
	Lang       string        `env:"WEBIDLE_LANG"       envDefault:"en"`
	LogLevel   string        `env:"WEBIDLE_LOG_LEVEL"  envDefault:"info"`
}

// FromEnv parses the process environment.
func FromEnv() (Env, error) {
	return parseEnv(env.Options{})
}

func parseEnv(opts env.Options) (Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, opts); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	e.Store = strings.ToLower(strings.TrimSpace(e.Store))
	switch e.Store {
	case StoreMemory, StoreFile, StoreBolt, StoreSQLite:
	default:
		return Env{}, fmt.Errorf("parse env: unknown store %q", e.Store)
	}
	return e, nil
}

// Overlay lets explicitly set environment values win over the file config.
func (e Env) Overlay(c *Config) {
	if e.Difficulty != "" {
		c.Difficulty = e.Difficulty
	}
	if e.Tick > 0 {
		c.Game.TickInterval = e.Tick
	}
	if e.Autosave > 0 {
		c.Game.AutosaveInterval = e.Autosave
	}
}

// SlogLevel maps WEBIDLE_LOG_LEVEL to a slog level, defaulting to info.
func (e Env) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
