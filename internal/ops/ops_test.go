package ops

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jtafstn/webidle/internal/catalog"
	"github.com/jtafstn/webidle/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var opsNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func TestWriteSchemas(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "schema")
	paths, err := WriteSchemas(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, SaveSchemaFile), filepath.Join(dir, CatalogSchemaFile)}, paths)

	raw, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	var save struct {
		Title      string                     `json:"title"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &save))
	assert.Equal(t, "webidle save", save.Title)
	for _, field := range []string{"saveVersion", "gold", "maxGold", "gps", "gpc", "upgrades", "unlockedItems", "learnedSkills", "counters", "lastSeenMs"} {
		assert.Contains(t, save.Properties, field)
	}
	var upgrades struct {
		Type        string `json:"type"`
		UniqueItems bool   `json:"uniqueItems"`
	}
	require.NoError(t, json.Unmarshal(save.Properties["upgrades"], &upgrades))
	assert.Equal(t, "array", upgrades.Type)
	assert.True(t, upgrades.UniqueItems)

	raw, err = os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"webidle economy"`)
	assert.Contains(t, string(raw), `"Entry"`)

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestInspect(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	lastSeen := opsNow.Add(-3 * time.Hour).UnixMilli()
	blob := `{"saveVersion":2,"gold":1234567,"maxGold":2000000,"gps":5,"upgrades":["start","farm1","farm2"],` +
		`"learnedSkills":["farm_a"],"counters":{"rep":40,"staff":2},"lastSeenMs":` + jsonInt(lastSeen) + `}`
	require.NoError(t, store.Put(ctx, "webidle-save", []byte(blob)))

	ins, err := Inspect(ctx, store, "webidle-save", opsNow)
	require.NoError(t, err)
	assert.True(t, ins.Found)
	assert.Equal(t, len(blob), ins.Bytes)
	assert.Equal(t, int64(1234567), ins.State.Gold)

	var out bytes.Buffer
	require.NoError(t, WriteInspection(&out, ins, catalog.Default(), opsNow))
	text := out.String()
	assert.Contains(t, text, "status:     ok")
	assert.Contains(t, text, "gold:       1,234,567 (max 2,000,000)")
	assert.Contains(t, text, "last seen:  3 hours ago")
	assert.Contains(t, text, "skills:     farm_a")
	assert.Contains(t, text, "family:     farm at level 2 of 100")
	assert.Contains(t, text, "counter:    rep = 40")
}

func TestInspect_MissingAndMalformed(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()

	ins, err := Inspect(ctx, store, "nobody", opsNow)
	require.NoError(t, err)
	assert.False(t, ins.Found)
	var out bytes.Buffer
	require.NoError(t, WriteInspection(&out, ins, nil, opsNow))
	assert.Contains(t, out.String(), "no save stored")

	require.NoError(t, store.Put(ctx, "broken", []byte("{{")))
	ins, err = Inspect(ctx, store, "broken", opsNow)
	require.NoError(t, err)
	assert.True(t, ins.Report.Malformed)
	out.Reset()
	require.NoError(t, WriteInspection(&out, ins, nil, opsNow))
	assert.Contains(t, out.String(), "malformed")

	_, err = Inspect(ctx, store, "../etc", opsNow)
	require.ErrorIs(t, err, storage.ErrInvalidKey)
}

func TestFamilyLadder(t *testing.T) {
	cat := catalog.Default()
	rungs, err := FamilyLadder(cat, "farm")
	require.NoError(t, err)
	require.Len(t, rungs, 100)
	assert.Equal(t, Rung{Level: 1, ID: "farm1", Cost: 10, Reference: rungs[0].Reference}, rungs[0])
	assert.Equal(t, int64(180000), rungs[99].Cost)
	for i := 1; i < len(rungs); i++ {
		assert.GreaterOrEqual(t, rungs[i].Cost, rungs[i-1].Cost)
	}

	_, err = FamilyLadder(cat, "castle")
	require.Error(t, err)
}

func TestWriteLadder(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteLadder(&out, catalog.Default(), "core"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Contains(t, lines[0], "level")
	assert.Contains(t, out.String(), "core1")
	assert.Contains(t, out.String(), "105,000,000")
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
