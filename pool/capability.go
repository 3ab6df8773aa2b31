package pool

// Spawner is notified after every successful Spawn.
type Spawner interface {
	OnSpawn()
}

// DataSpawner is notified after Spawner when an entity is spawned with data
// of type D.
type DataSpawner[D any] interface {
	OnSpawnWith(data D)
}

// Despawner is notified after the entity moved from spawned to free.
type Despawner interface {
	OnDespawn()
}

// Clearer is notified once per entity when its pool is cleared.
type Clearer interface {
	OnCleared()
}

// Liveness reports whether an entity is still usable. Entities destroyed
// out-of-band report false and are discarded by the pool instead of being
// handed out again.
type Liveness interface {
	Alive() bool
}

// Destroyer releases resources an entity owns beyond its bookkeeping. It is
// called by Dispose.
type Destroyer interface {
	Destroy() error
}

// Releaser returns a spawned entity to its pool.
type Releaser[T any] interface {
	Despawn(entity T) bool
}

// Binder receives a handle to its pool when the pool creates it, so the
// entity can despawn itself later.
type Binder[T any] interface {
	BindPool(r Releaser[T])
}

// Owner is an embeddable Binder. Embed it in the entity struct and call
// Release with the entity itself.
type Owner[T any] struct {
	releaser Releaser[T]
}

// BindPool records the pool that created the entity.
func (o *Owner[T]) BindPool(r Releaser[T]) {
	o.releaser = r
}

// Release despawns self through the bound pool. It reports false when the
// entity was never bound or was not spawned.
func (o *Owner[T]) Release(self T) bool {
	if o == nil || o.releaser == nil {
		return false
	}
	return o.releaser.Despawn(self)
}

func notifySpawn[T any](e T) {
	if s, ok := any(e).(Spawner); ok {
		s.OnSpawn()
	}
}

func notifySpawnWith[T, D any](e T, data D) {
	if s, ok := any(e).(DataSpawner[D]); ok {
		s.OnSpawnWith(data)
	}
}

func notifyDespawn[T any](e T) {
	if d, ok := any(e).(Despawner); ok {
		d.OnDespawn()
	}
}

func notifyCleared[T any](e T) {
	if c, ok := any(e).(Clearer); ok {
		c.OnCleared()
	}
}

func isAlive[T any](e T) bool {
	if l, ok := any(e).(Liveness); ok {
		return l.Alive()
	}
	return true
}
