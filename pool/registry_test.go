package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type token struct {
	Owner[*token]
	cleared int
}

func (t *token) OnCleared() { t.cleared++ }

func newToken(*token) *token { return &token{} }

func TestRegistryInitPoolClearsEveryPrewarmedEntity(t *testing.T) {
	r := NewRegistry()
	p, err := InitPool(r, &token{}, 5, newToken)
	require.NoError(t, err)
	require.Equal(t, 5, p.FreeLen())

	cleared := r.Clear()
	require.Len(t, cleared, 1)
	assert.Equal(t, 0, r.Len())

	assert.Equal(t, 0, p.Len())

	_, err = Spawn[*token](r)
	assert.ErrorIs(t, err, ErrPoolNotFound)
	_, err = p.Spawn()
	assert.ErrorIs(t, err, ErrPoolCleared)
}

func TestRegistryClearNotifiesEachEntityOnce(t *testing.T) {
	r := NewRegistry()
	var made []*token
	_, err := InitPool(r, &token{}, 5, func(*token) *token {
		e := &token{}
		made = append(made, e)
		return e
	})
	require.NoError(t, err)

	r.Clear()
	require.Len(t, made, 5)
	for _, e := range made {
		assert.Equal(t, 1, e.cleared)
	}
}

func TestRegistryRejectsDuplicatePool(t *testing.T) {
	r := NewRegistry()
	original, err := InitPool(r, &token{}, 1, newToken)
	require.NoError(t, err)

	_, err = InitPool(r, &token{}, 1, newToken)
	assert.ErrorIs(t, err, ErrPoolExists)

	other, err := New(&token{}, 0, newToken)
	require.NoError(t, err)
	assert.ErrorIs(t, AddPool(r, other), ErrPoolExists)
	assert.ErrorIs(t, AddPool[*token](r, nil), ErrNilPool)

	got, err := GetPool[*token](r)
	require.NoError(t, err)
	assert.Same(t, original, got)

	e, err := Spawn[*token](r)
	require.NoError(t, err)
	ok, err := Despawn(r, e)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegistryForwarding(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		call func() error
	}{
		{"spawn", func() error { _, err := Spawn[*widget](r); return err }},
		{"spawn_from", func() error { _, err := SpawnFrom[*widget](r, 1); return err }},
		{"despawn", func() error { _, err := Despawn(r, &widget{}); return err }},
		{"despawn_all", func() error { _, err := DespawnAll[*widget](r); return err }},
		{"get", func() error { _, err := GetPool[*widget](r); return err }},
		{"dispose", func() error { return DisposePool[*widget](r) }},
	}
	for _, tc := range tests {
		t.Run(tc.name+"_missing", func(t *testing.T) {
			assert.ErrorIs(t, tc.call(), ErrPoolNotFound)
		})
	}

	f := &widgetFactory{}
	_, err := InitPool(r, &widget{}, 0, f.build)
	require.NoError(t, err)
	require.True(t, Has[*widget](r))

	e, err := SpawnFrom[*widget](r, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, e.data)

	ok, err := Despawn(r, &widget{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Spawn[*widget](r)
	require.NoError(t, err)
	n, err := DespawnAll[*widget](r)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, DisposePool[*widget](r))
	assert.False(t, Has[*widget](r))
	for _, w := range f.produced {
		assert.True(t, w.destroyed)
	}
}

func TestRegistryRemovePoolKeepsEntities(t *testing.T) {
	r := NewRegistry()
	p, err := InitPool(r, &token{}, 1, newToken)
	require.NoError(t, err)
	e, err := p.Spawn()
	require.NoError(t, err)

	removed, ok := RemovePool[*token](r)
	require.True(t, ok)
	assert.Same(t, p, removed)
	assert.Equal(t, 0, e.cleared)
	assert.True(t, p.IsSpawned(e))

	assert.False(t, e.Release(e), "registry handle no longer resolves")
	assert.True(t, p.Despawn(e))

	_, ok = RemovePool[*token](r)
	assert.False(t, ok)
}

func TestRefResolvesThroughRegistry(t *testing.T) {
	r := NewRegistry()
	p, err := InitPool(r, &token{}, 0, newToken)
	require.NoError(t, err)
	e, err := p.Spawn()
	require.NoError(t, err)

	ref := p.Ref()
	got, ok := ref.Resolve()
	require.True(t, ok)
	assert.Same(t, p, got)

	RemovePool[*token](r)
	replacement, err := InitPool(r, &token{}, 0, newToken)
	require.NoError(t, err)

	_, ok = ref.Resolve()
	assert.False(t, ok)
	assert.False(t, e.Release(e))
	assert.Equal(t, 0, replacement.SpawnedLen())
}

func TestRegistryDisposeAndStats(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := NewRegistry(WithLogger(zap.New(core)))

	_, err := InitPool(r, &token{}, 2, newToken)
	require.NoError(t, err)
	f := &widgetFactory{}
	_, err = InitPool(r, &widget{}, 1, f.build)
	require.NoError(t, err)
	_, err = Spawn[*widget](r)
	require.NoError(t, err)

	stats := r.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, Stats{Name: "*pool.token", Free: 2, Created: 2}, stats[0])
	assert.Equal(t, Stats{Name: "*pool.widget", Spawned: 1, Created: 1}, stats[1])

	f.produced[0].destroyErr = assert.AnError
	err = r.Dispose()
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, r.Len())
	assert.NotZero(t, logs.FilterMessage("pool registered").Len())
	assert.NotZero(t, logs.FilterMessage("pool disposed").Len())
}

func TestRegistryClearedPoolsStillDisposeTheirEntities(t *testing.T) {
	r := NewRegistry()
	f := &widgetFactory{}
	_, err := InitPool(r, &widget{}, 3, f.build)
	require.NoError(t, err)
	_, err = Spawn[*widget](r)
	require.NoError(t, err)
	f.produced[1].dead = true

	cleared := r.Clear()
	require.Len(t, cleared, 1)
	for _, w := range f.produced {
		assert.False(t, w.destroyed)
		assert.Equal(t, 1, count(w.events, "cleared"))
	}

	for _, m := range cleared {
		require.NoError(t, m.Dispose())
		require.NoError(t, m.Dispose())
	}
	assert.True(t, f.produced[0].destroyed)
	assert.False(t, f.produced[1].destroyed)
	assert.True(t, f.produced[2].destroyed)
	for _, w := range f.produced {
		assert.Equal(t, 1, count(w.events, "cleared"), "entity %d", w.id)
	}
}

func TestRegistryClearUnbindsReinitializedPool(t *testing.T) {
	r := NewRegistry()
	p, err := InitPool(r, &token{}, 1, newToken)
	require.NoError(t, err)
	r.Clear()

	require.NoError(t, p.Init(0))
	e, err := p.Spawn()
	require.NoError(t, err)
	assert.True(t, e.Release(e))
	assert.True(t, p.IsFree(e))
}

func TestRegistryDespawnOnClearedPool(t *testing.T) {
	r := NewRegistry()
	p, err := InitPool(r, &token{}, 0, newToken)
	require.NoError(t, err)
	e, err := p.Spawn()
	require.NoError(t, err)

	p.Clear()
	ok, err := Despawn(r, e)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrPoolCleared)
}

func count(events []string, name string) int {
	n := 0
	for _, ev := range events {
		if ev == name {
			n++
		}
	}
	return n
}
