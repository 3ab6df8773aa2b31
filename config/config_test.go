package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
logging:
  level: debug
  encoding: json
pools:
  - name: bullet
    initial: 64
    prewarm: 16
  - name: spark
    initial: 8
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Encoding)
	require.Len(t, cfg.Pools, 2)

	p, ok := cfg.Preset("bullet")
	require.True(t, ok)
	assert.Equal(t, PoolPreset{Name: "bullet", Initial: 64, Prewarm: 16}, p)

	_, ok = cfg.Preset("missing")
	assert.False(t, ok)
}

func TestParseRejectsBadPresets(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{"no_name", "pools:\n  - initial: 1\n", ErrInvalidPreset},
		{"negative", "pools:\n  - name: a\n    initial: -1\n", ErrInvalidPreset},
		{"duplicate", "pools:\n  - name: a\n  - name: a\n", ErrDuplicatePreset},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.doc))
			assert.ErrorIs(t, err, c.want)
		})
	}

	_, err := Parse([]byte("pools: ["))
	assert.Error(t, err)
	_, err = Parse([]byte("pool:\n  - name: a\n"))
	assert.Error(t, err)

	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Pools)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Pools, 2)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestWatcherReportsYAMLChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	path := filepath.Join(dir, "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	select {
	case got := <-w.Events:
		assert.Equal(t, path, got)
	case err := <-w.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for yaml file")
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	_, ok := <-w.Events
	assert.False(t, ok)
}
