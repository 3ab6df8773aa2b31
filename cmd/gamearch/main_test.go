package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/milk9111/gamearch/config"
	"github.com/milk9111/gamearch/store"
)

func newTestSim(t *testing.T, seed uint64) *sim {
	t.Helper()
	st, err := store.Open("")
	require.NoError(t, err)
	c, err := newContainer(zap.NewNop(), seed, st, nil)
	require.NoError(t, err)
	program, err := loadSparkProgram("")
	require.NoError(t, err)
	s, err := newSim(c, config.Default(), program)
	require.NoError(t, err)
	return s
}

func stepN(s *sim, n int) {
	for i := 0; i < n; i++ {
		s.dispatcher.Step(s.dispatcher.StepSize().Seconds())
	}
}

func TestSimBulletsExpireThemselves(t *testing.T) {
	s := newTestSim(t, 7)
	stepN(s, 600)

	require.Greater(t, s.fired, 0)
	require.Greater(t, s.expired, 0)
	assert.Equal(t, s.fired, s.expired+s.bullets.SpawnedLen())
	assert.Equal(t, s.bullets.Stats().Created, s.bullets.Len())
	assert.Equal(t, len(s.pieces), s.debris.SpawnedLen())

	var spawns int64
	for _, e := range s.sparks.Clear() {
		require.NoError(t, e.Err())
		assert.Equal(t, true, e.State["cleared"])
		spawns += e.State["spawns"].(int64)
	}
	assert.Equal(t, int64(s.expired), spawns)

	require.NoError(t, s.close())
	assert.Equal(t, 0, s.registry.Len())
}

func TestSimIsDeterministic(t *testing.T) {
	a, b := newTestSim(t, 42), newTestSim(t, 42)
	stepN(a, 600)
	stepN(b, 600)

	assert.Equal(t, a.fired, b.fired)
	assert.Equal(t, a.expired, b.expired)
	assert.Equal(t, a.registry.Stats(), b.registry.Stats())

	pa, pb := a.debris.Spawned(), b.debris.Spawned()
	require.Len(t, pb, len(pa))
	for i := range pa {
		assert.Equal(t, pa[i].Position(), pb[i].Position(), "debris %d", i)
	}
	require.Len(t, b.pieces, len(a.pieces))
	for i := range a.pieces {
		assert.Equal(t, a.pieces[i].age, b.pieces[i].age)
		assert.Equal(t, a.pieces[i].body.Position(), b.pieces[i].body.Position())
	}
}

func TestSimApplyPresets(t *testing.T) {
	s := newTestSim(t, 1)
	cfg := config.Config{Pools: []config.PoolPreset{
		{Name: "bullet", Prewarm: 50},
		{Name: "unknown", Prewarm: 3},
	}}
	require.NoError(t, s.applyPresets(cfg))
	assert.Equal(t, 50, s.bullets.FreeLen())

	require.NoError(t, s.applyPresets(cfg))
	assert.Equal(t, 50, s.bullets.FreeLen())
}

func TestRunSimPersistsTotals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.yaml")
	opts := runOptions{Ticks: 240, Seed: 3, StorePath: path}

	var out bytes.Buffer
	require.NoError(t, runSim(context.Background(), &out, config.Default(), opts, zap.NewNop()))
	assert.Contains(t, out.String(), "frames=240")
	assert.Contains(t, out.String(), "bullet")

	st, err := store.Open(path)
	require.NoError(t, err)
	first, ok, err := store.Get[int](st, "totals.fired")
	require.NoError(t, err)
	require.True(t, ok)
	require.Greater(t, first, 0)

	require.NoError(t, runSim(context.Background(), &out, config.Default(), opts, zap.NewNop()))
	require.NoError(t, st.Load())
	second, _, err := store.Get[int](st, "totals.fired")
	require.NoError(t, err)
	assert.Equal(t, 2*first, second)

	err = runSim(context.Background(), &out, config.Default(), runOptions{}, zap.NewNop())
	assert.Error(t, err)
}

func TestPresetsCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"presets"})
	require.NoError(t, root.Execute())

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &cfg))
	assert.Equal(t, config.Default().Pools, cfg.Pools)
}

func TestRunSimClosesPeerWhenSetupFails(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	opts := runOptions{
		Ticks:      1,
		Peer:       ln.Addr().String(),
		ScriptPath: filepath.Join(t.TempDir(), "missing.tengo"),
	}
	err = runSim(context.Background(), io.Discard, config.Default(), opts, zap.NewNop())
	require.Error(t, err)

	var conn net.Conn
	select {
	case conn = <-accepted:
	case <-time.After(5 * time.Second):
		t.Fatal("peer never connected")
	}
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}
