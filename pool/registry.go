package pool

import (
	"fmt"
	"reflect"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Managed is the type-erased view of a Pool the Registry keeps.
type Managed interface {
	Name() string
	Stats() Stats
	DespawnAll() int
	Dispose() error
	detachFromRegistry() int
}

// Registry holds at most one pool per entity type. It is an ordinary value:
// construct one and pass it to whatever needs pooling.
type Registry struct {
	pools map[reflect.Type]Managed
	log   *zap.Logger
}

// NewRegistry creates an empty registry. Only WithLogger applies.
func NewRegistry(opts ...Option) *Registry {
	s := newSettings(opts)
	return &Registry{
		pools: make(map[reflect.Type]Managed),
		log:   s.logger,
	}
}

// AddPool registers p for T.
func AddPool[T comparable](r *Registry, p *Pool[T]) error {
	if p == nil {
		return ErrNilPool
	}
	key := reflect.TypeFor[T]()
	if _, ok := r.pools[key]; ok {
		return fmt.Errorf("%w: %s", ErrPoolExists, key)
	}
	p.registry = r
	r.pools[key] = p
	r.log.Debug("pool registered", zap.String("type", key.String()), zap.Int("free", p.FreeLen()))
	return nil
}

// InitPool builds a pool for T with initial prewarmed entities and registers
// it. Entities it creates despawn themselves through the registry.
func InitPool[T comparable](r *Registry, sample T, initial int, factory Factory[T], opts ...Option) (*Pool[T], error) {
	key := reflect.TypeFor[T]()
	if _, ok := r.pools[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolExists, key)
	}
	opts = append([]Option{WithLogger(r.log), WithName(key.String())}, opts...)
	p, err := New(sample, initial, factory, append(opts, withRegistry(r))...)
	if err != nil {
		return nil, err
	}
	if err := AddPool(r, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPool returns the pool registered for T.
func GetPool[T comparable](r *Registry) (*Pool[T], error) {
	p, ok := TryGetPool[T](r)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, reflect.TypeFor[T]())
	}
	return p, nil
}

// TryGetPool is GetPool that reports a missing pool with false.
func TryGetPool[T comparable](r *Registry) (*Pool[T], bool) {
	if r == nil {
		return nil, false
	}
	m, ok := r.pools[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	p, ok := m.(*Pool[T])
	return p, ok
}

// Has reports whether a pool is registered for T.
func Has[T comparable](r *Registry) bool {
	_, ok := TryGetPool[T](r)
	return ok
}

// RemovePool unregisters the pool for T without touching its entities.
func RemovePool[T comparable](r *Registry) (*Pool[T], bool) {
	p, ok := TryGetPool[T](r)
	if !ok {
		return nil, false
	}
	delete(r.pools, reflect.TypeFor[T]())
	p.registry = nil
	r.log.Debug("pool removed", zap.String("type", p.Name()))
	return p, true
}

// DisposePool unregisters the pool for T and disposes it.
func DisposePool[T comparable](r *Registry) error {
	p, ok := RemovePool[T](r)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPoolNotFound, reflect.TypeFor[T]())
	}
	return p.Dispose()
}

// Spawn spawns from the pool registered for T.
func Spawn[T comparable](r *Registry) (T, error) {
	p, err := GetPool[T](r)
	if err != nil {
		var zero T
		return zero, err
	}
	return p.Spawn()
}

// SpawnFrom spawns from the pool for T and passes data to DataSpawner[D].
func SpawnFrom[T comparable, D any](r *Registry, data D) (T, error) {
	p, err := GetPool[T](r)
	if err != nil {
		var zero T
		return zero, err
	}
	return SpawnWith(p, data)
}

// Despawn releases e to the pool for T. A missing or cleared pool is an
// error; an entity that is not spawned is reported as false.
func Despawn[T comparable](r *Registry, e T) (bool, error) {
	p, err := GetPool[T](r)
	if err != nil {
		return false, err
	}
	return p.TryDespawn(e)
}

// DespawnAll despawns everything spawned from the pool for T.
func DespawnAll[T comparable](r *Registry) (int, error) {
	p, err := GetPool[T](r)
	if err != nil {
		return 0, err
	}
	return p.DespawnAll(), nil
}

// Clear clears every registered pool and unregisters them all. Each pool
// keeps the entities it drained, so disposing a pool from the returned map
// still destroys their resources.
func (r *Registry) Clear() map[reflect.Type]Managed {
	out := r.pools
	r.pools = make(map[reflect.Type]Managed)
	for _, key := range sortedKeys(out) {
		n := out[key].detachFromRegistry()
		r.log.Debug("pool cleared", zap.String("type", key.String()), zap.Int("entities", n))
	}
	return out
}

// Dispose disposes every registered pool and empties the registry. Errors
// from individual pools are combined.
func (r *Registry) Dispose() error {
	pools := r.pools
	r.pools = make(map[reflect.Type]Managed)
	var err error
	for _, key := range sortedKeys(pools) {
		err = multierr.Append(err, pools[key].Dispose())
	}
	return err
}

// Len is the number of registered pools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.pools)
}

// Stats returns one entry per pool, sorted by pool name.
func (r *Registry) Stats() []Stats {
	if r == nil {
		return nil
	}
	out := make([]Stats, 0, len(r.pools))
	for _, key := range sortedKeys(r.pools) {
		out = append(out, r.pools[key].Stats())
	}
	return out
}

func sortedKeys(pools map[reflect.Type]Managed) []reflect.Type {
	keys := make([]reflect.Type, 0, len(pools))
	for k := range pools {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return pools[keys[i]].Name() < pools[keys[j]].Name()
	})
	return keys
}
