package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Usage(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, run(nil, &out, &errOut))
	assert.Contains(t, errOut.String(), "usage:")
	assert.Equal(t, 2, run([]string{"bogus"}, &out, &errOut))
}

func TestRun_BackupRestoreInspect(t *testing.T) {
	data := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(data, "saves"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "saves", "webidle-save.json"),
		[]byte(`{"saveVersion":2,"gold":4200,"upgrades":["start"]}`), 0o644))

	archive := filepath.Join(t.TempDir(), "b.tar.gz")
	var out, errOut bytes.Buffer
	require.Equal(t, 0, run([]string{"backup", "--data-dir", data, "--out", archive}, &out, &errOut), errOut.String())
	assert.Contains(t, out.String(), "1 files")

	target := filepath.Join(t.TempDir(), "restored")
	out.Reset()
	require.Equal(t, 0, run([]string{"restore", "--archive", archive, "--target-dir", target}, &out, &errOut), errOut.String())

	out.Reset()
	require.Equal(t, 0, run([]string{"inspect", "--data-dir", target}, &out, &errOut), errOut.String())
	assert.Contains(t, out.String(), "gold:       4,200")

	out.Reset()
	require.Equal(t, 0, run([]string{"inspect", "--data-dir", target, "--json"}, &out, &errOut), errOut.String())
	assert.Contains(t, out.String(), `"gold": 4200`)

	assert.Equal(t, 1, run([]string{"restore"}, &out, &errOut))
}

func TestRun_CurveAndSchema(t *testing.T) {
	var out, errOut bytes.Buffer
	require.Equal(t, 0, run([]string{"curve", "--family", "farm", "--difficulty", "hard"}, &out, &errOut), errOut.String())
	assert.Contains(t, out.String(), "farm100")
	assert.Contains(t, out.String(), "270,000")

	assert.Equal(t, 1, run([]string{"curve", "--family", "castle"}, &out, &errOut))

	dir := filepath.Join(t.TempDir(), "schema")
	out.Reset()
	require.Equal(t, 0, run([]string{"schema", "--out", dir}, &out, &errOut), errOut.String())
	assert.FileExists(t, filepath.Join(dir, "save.schema.json"))
	assert.FileExists(t, filepath.Join(dir, "catalog.schema.json"))
}
