package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtafstn/webidle/internal/player"
)

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSaveKey, cfg.Game.SaveKey)
	assert.Equal(t, time.Second, cfg.Game.TickInterval)
	assert.Equal(t, DefaultAutosave, cfg.Game.AutosaveInterval)
	assert.Equal(t, DefaultDifficulty, cfg.Difficulty)
	assert.NotEmpty(t, cfg.Economy.Items)

	cat, err := cfg.Catalog()
	require.NoError(t, err)
	_, ok := cat.Item("farm100")
	assert.True(t, ok)
}

func TestLoad_FileOverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webidle.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
difficulty: hard
game:
  tick_interval: 500ms
  save_key: slot-2
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hard", cfg.Difficulty)
	assert.Equal(t, 500*time.Millisecond, cfg.Game.TickInterval)
	assert.Equal(t, "slot-2", cfg.Game.SaveKey)
	assert.Equal(t, DefaultAutosave, cfg.Game.AutosaveInterval)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_CustomEconomy(t *testing.T) {
	cfg, err := Parse([]byte(`
economy:
  items:
    - id: lamp
      name: Lamp
      cost: { kind: fixed, amount: 7 }
      unlock: { kind: always }
      effects:
        - { kind: add_production, amount: 2 }
`))
	require.NoError(t, err)
	cat, err := cfg.Catalog()
	require.NoError(t, err)
	require.Len(t, cat.Items(), 1)

	s := player.Default(time.Unix(0, 0))
	lamp, _ := cat.Item("lamp")
	assert.Equal(t, int64(7), lamp.Price(&s))
}

func TestCatalog_UnknownDifficulty(t *testing.T) {
	cfg := Default()
	cfg.Difficulty = "nightmare"
	_, err := cfg.Catalog()
	require.Error(t, err)
}

func TestBalance_PresetsScaleEconomy(t *testing.T) {
	s := player.Default(time.Unix(0, 0))

	build := func(difficulty string) map[string]int64 {
		cfg := Default()
		cfg.Difficulty = difficulty
		cat, err := cfg.Catalog()
		require.NoError(t, err)
		out := map[string]int64{}
		for _, id := range []string{"farm1", "farm2", "core1", "hire_staff", "start"} {
			d, ok := cat.Item(id)
			require.True(t, ok, id)
			out[id] = d.Price(&s)
		}
		return out
	}

	def := build("default")
	hard := build("hard")
	casual := build("casual")

	assert.Equal(t, int64(10), def["farm1"])
	assert.Equal(t, int64(15), hard["farm1"])
	assert.Equal(t, int64(3000), hard["core1"])
	assert.Equal(t, int64(750), hard["hire_staff"])
	assert.Equal(t, int64(8), casual["farm1"])
	assert.Equal(t, int64(0), casual["start"], "free items stay free")
}

func TestBalance_ApplyKeepsOriginal(t *testing.T) {
	cfg := Default()
	before := cfg.Economy.Items[1].Family.Breakpoints[0].Cost
	_ = Hard().Apply(cfg.Economy)
	assert.Equal(t, before, cfg.Economy.Items[1].Family.Breakpoints[0].Cost)
}

func TestBalance_BreakpointsStayIncreasing(t *testing.T) {
	cfg := Default()
	scaled := Balance{CostMultiplier: 0.01, ProductionMultiplier: 1}.Apply(cfg.Economy)
	bps := scaled.Items[1].Family.Breakpoints
	for i := 1; i < len(bps); i++ {
		assert.Greater(t, bps[i].Cost, bps[i-1].Cost)
	}
}

func TestBalance_CasualProduction(t *testing.T) {
	cfg := Default()
	cfg.Difficulty = "casual"
	cat, err := cfg.Catalog()
	require.NoError(t, err)

	s := player.Default(time.Unix(0, 0))
	farm1, _ := cat.Item("farm1")
	farm1.Apply(&s)
	assert.Equal(t, 1.5, s.GPS)
}

func TestEnv_DefaultsAndOverrides(t *testing.T) {
	e, err := parseEnv(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, ":42069", e.Addr)
	assert.Equal(t, StoreFile, e.Store)
	assert.Equal(t, slog.LevelInfo, e.SlogLevel())

	e, err = parseEnv(env.Options{Environment: map[string]string{
		"WEBIDLE_STORE":      "Bolt",
		"WEBIDLE_TICK":       "250ms",
		"WEBIDLE_LOG_LEVEL":  "debug",
		"WEBIDLE_DIFFICULTY": "casual",
	}})
	require.NoError(t, err)
	assert.Equal(t, StoreBolt, e.Store)
	assert.Equal(t, slog.LevelDebug, e.SlogLevel())

	cfg := Default()
	e.Overlay(cfg)
	assert.Equal(t, 250*time.Millisecond, cfg.Game.TickInterval)
	assert.Equal(t, DefaultAutosave, cfg.Game.AutosaveInterval)
	assert.Equal(t, "casual", cfg.Difficulty)
}

func TestEnv_RejectsUnknownStore(t *testing.T) {
	_, err := parseEnv(env.Options{Environment: map[string]string{"WEBIDLE_STORE": "redis"}})
	require.Error(t, err)

	_, err = parseEnv(env.Options{Environment: map[string]string{"WEBIDLE_TICK": "soon"}})
	require.Error(t, err)
}
