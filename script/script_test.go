package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/milk9111/gamearch/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterScript = `
on_spawn := func(s) {
	s.spawns = s.spawns + 1
}

on_spawn_with := func(s, d) {
	s.speed = d.speed
}

on_despawn := func(s) {
	s.despawns = s.despawns + 1
}

on_cleared := func(s) {
	s.cleared = true
}
`

func TestScriptedEntityLifecycle(t *testing.T) {
	prog, err := Compile("counter", []byte(counterScript))
	require.NoError(t, err)

	p, err := NewPool(prog, map[string]any{"spawns": 0, "despawns": 0}, 1, nil)
	require.NoError(t, err)

	e, err := pool.SpawnWith(p, map[string]any{"speed": 3})
	require.NoError(t, err)
	require.NoError(t, e.Err())
	assert.Equal(t, int64(1), e.State["spawns"])
	assert.Equal(t, int64(3), e.State["speed"])

	require.True(t, p.Despawn(e))
	assert.Equal(t, int64(1), e.State["despawns"])

	again, err := p.Spawn()
	require.NoError(t, err)
	assert.Same(t, e, again)
	assert.Equal(t, int64(2), e.State["spawns"])

	p.Clear()
	assert.Equal(t, true, e.State["cleared"])
}

func TestScriptedEntitiesKeepSeparateState(t *testing.T) {
	prog, err := Compile("counter", []byte(counterScript))
	require.NoError(t, err)
	p, err := NewPool(prog, map[string]any{"spawns": 0, "despawns": 0}, 0, nil)
	require.NoError(t, err)

	a, err := p.Spawn()
	require.NoError(t, err)
	b, err := p.Spawn()
	require.NoError(t, err)
	require.True(t, p.Despawn(a))
	_, err = p.Spawn()
	require.NoError(t, err)

	assert.Equal(t, int64(2), a.State["spawns"])
	assert.Equal(t, int64(1), b.State["spawns"])
	assert.Equal(t, 0, p.Sample().State["spawns"])
}

func TestScriptErrors(t *testing.T) {
	t.Run("missing_hook", func(t *testing.T) {
		_, err := Compile("partial", []byte(`on_spawn := func(s) {}`))
		assert.Error(t, err)
	})

	t.Run("runtime_error_keeps_state", func(t *testing.T) {
		prog, err := Compile("counter", []byte(counterScript))
		require.NoError(t, err)
		e := NewEntity(prog, map[string]any{}, nil)

		e.OnSpawn()
		assert.Error(t, e.Err())
		assert.Empty(t, e.State)
	})

	t.Run("load_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hooks.tengo")
		require.NoError(t, os.WriteFile(path, []byte(counterScript), 0o644))
		prog, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, path, prog.Name())

		_, err = Load(filepath.Join(t.TempDir(), "missing.tengo"))
		assert.Error(t, err)
	})
}
