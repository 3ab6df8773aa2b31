// Package pool reuses entity instances instead of allocating new ones.
//
// A Pool owns every entity it creates. Each entity lives in exactly one of
// two places: the free list, where it waits for reuse, or the spawned set,
// where it is in use by a caller. Only the pool moves entities between the
// two. Entities opt into lifecycle notifications by implementing any subset
// of Spawner, DataSpawner, Despawner, Clearer, Binder, Liveness and
// Destroyer.
//
// Pools are not safe for concurrent use. Every call runs to completion on
// the caller's goroutine. An entity may despawn itself from inside its own
// OnDespawn or OnCleared hook, and DespawnAll/Clear tolerate that. Calling
// Spawn on a pool from inside a hook fired by that same pool is not
// supported and can corrupt the free list.
package pool

import (
	"fmt"
	"reflect"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Factory builds a new entity from the pool's sample. It must not touch the
// pool and must never return an entity the pool already tracks.
type Factory[T any] func(sample T) T

// Stats is a point-in-time summary of a pool.
type Stats struct {
	Name      string
	Free      int
	Spawned   int
	Created   int
	Discarded int
}

// Pool manages reuse of one entity type.
//
// Entities are stored in an arena: slots holds every tracked entity, free
// is a LIFO stack of slot indices and spawned is a sparse set of slot
// indices. Slot indices stay stable while hooks run.
type Pool[T comparable] struct {
	name    string
	sample  T
	factory Factory[T]
	log     *zap.Logger

	slots   []T
	index   map[T]int
	free    []int
	spawned slotSet
	vacant  []int

	created   int
	discarded int
	cleared   bool
	disposed  bool

	// detached holds entities drained by Registry.Clear until Dispose
	// destroys them.
	detached []T

	registry  *Registry
	onAcquire []func(T)
	onRelease []func(T)
	onDispose []func(T)
}

// New creates a pool and prewarms it with initial entities built by factory.
func New[T comparable](sample T, initial int, factory Factory[T], opts ...Option) (*Pool[T], error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	s := newSettings(opts)
	p := &Pool[T]{
		name:     s.name,
		sample:   sample,
		factory:  factory,
		log:      s.logger,
		registry: s.registry,
		cleared:  true,
	}
	if p.name == "" {
		p.name = typeName[T]()
	}

	var err error
	if p.onAcquire, err = typedHooks[T](s.acquire); err != nil {
		return nil, err
	}
	if p.onRelease, err = typedHooks[T](s.release); err != nil {
		return nil, err
	}
	if p.onDispose, err = typedHooks[T](s.dispose); err != nil {
		return nil, err
	}

	if err := p.Init(initial); err != nil {
		return nil, err
	}
	return p, nil
}

// Init brings a cleared pool back to life with initial free entities.
// It fails with ErrPoolInitialized on a pool that is still live.
func (p *Pool[T]) Init(initial int) error {
	if p.disposed {
		return fmt.Errorf("pool %s: %w", p.name, ErrPoolDisposed)
	}
	if !p.cleared {
		return fmt.Errorf("pool %s: %w", p.name, ErrPoolInitialized)
	}
	if initial < 0 {
		return fmt.Errorf("pool %s: %w", p.name, ErrNegativeSize)
	}
	p.cleared = false
	p.index = make(map[T]int, initial)
	p.slots = make([]T, 0, initial)
	p.free = make([]int, 0, initial)
	if err := p.Prewarm(initial); err != nil {
		return err
	}
	p.log.Debug("pool initialized", zap.String("pool", p.name), zap.Int("initial", initial))
	return nil
}

// Prewarm adds n factory-built entities to the free list.
func (p *Pool[T]) Prewarm(n int) error {
	if p.cleared {
		return fmt.Errorf("pool %s: %w", p.name, ErrPoolCleared)
	}
	for i := 0; i < n; i++ {
		slot, e, err := p.create()
		if err != nil {
			return err
		}
		p.free = append(p.free, slot)
		runHooks(p.onRelease, e)
	}
	return nil
}

// Spawn hands out the most recently freed entity, or a new one from the
// factory when the free list is empty. Spawner hooks always fire.
func (p *Pool[T]) Spawn() (T, error) {
	e, err := p.acquire()
	if err != nil {
		return e, err
	}
	notifySpawn(e)
	return e, nil
}

// SpawnWith spawns like Spawn and then passes data to the entity's
// DataSpawner[D] hook, if it has one.
func SpawnWith[T comparable, D any](p *Pool[T], data D) (T, error) {
	if p == nil {
		var zero T
		return zero, ErrNilPool
	}
	e, err := p.Spawn()
	if err != nil {
		return e, err
	}
	notifySpawnWith(e, data)
	return e, nil
}

// Despawn returns a spawned entity to the free list. It reports false,
// without side effects, for entities that are not currently spawned by this
// pool and for a cleared pool. Use TryDespawn to tell the two apart.
func (p *Pool[T]) Despawn(e T) bool {
	ok, _ := p.TryDespawn(e)
	return ok
}

// TryDespawn is Despawn that fails with ErrPoolCleared on a cleared pool.
// A stale handle is still reported as false with a nil error.
func (p *Pool[T]) TryDespawn(e T) (bool, error) {
	if p == nil {
		return false, ErrNilPool
	}
	if p.cleared {
		return false, fmt.Errorf("pool %s: %w", p.name, ErrPoolCleared)
	}
	slot, ok := p.index[e]
	if !ok || !p.spawned.remove(slot) {
		return false, nil
	}
	if !isAlive(e) {
		p.discard(slot)
		return true, nil
	}
	p.free = append(p.free, slot)
	notifyDespawn(e)
	runHooks(p.onRelease, e)
	return true, nil
}

// DespawnAll despawns every spawned entity and returns how many left the
// spawned set during the call, including those released by hooks that
// despawn re-entrantly.
func (p *Pool[T]) DespawnAll() int {
	if p == nil || p.cleared {
		return 0
	}
	before := p.spawned.len()
	for _, slot := range p.spawned.snapshot() {
		if p.cleared {
			break
		}
		if !p.spawned.has(slot) {
			continue
		}
		p.Despawn(p.slots[slot])
	}
	if p.cleared {
		return before
	}
	return before - p.spawned.len()
}

// Clear detaches every tracked entity, spawned ones first, notifies each
// Clearer and leaves the pool empty. The pool must be reinitialized with
// Init before it is used again.
func (p *Pool[T]) Clear() []T {
	if p == nil {
		return nil
	}
	out := p.drain()
	for _, e := range out {
		notifyCleared(e)
	}
	if len(out) > 0 {
		p.log.Debug("pool cleared", zap.String("pool", p.name), zap.Int("entities", len(out)))
	}
	return out
}

// Dispose clears the pool and destroys the resources its entities own,
// including entities detached by an earlier Registry.Clear. Entities that
// already died out-of-band are skipped. The pool cannot be reinitialized
// afterwards.
func (p *Pool[T]) Dispose() error {
	if p == nil || p.disposed {
		return nil
	}
	detached := p.detached
	p.detached = nil
	entities := p.drain()
	p.disposed = true

	var err error
	for _, e := range entities {
		notifyCleared(e)
		err = multierr.Append(err, p.destroy(e))
	}
	for _, e := range detached {
		err = multierr.Append(err, p.destroy(e))
	}
	p.log.Debug("pool disposed", zap.String("pool", p.name),
		zap.Int("entities", len(entities)), zap.Int("detached", len(detached)))
	if err != nil {
		return fmt.Errorf("pool %s: dispose: %w", p.name, err)
	}
	return nil
}

func (p *Pool[T]) destroy(e T) error {
	if !isAlive(e) {
		return nil
	}
	runHooks(p.onDispose, e)
	if d, ok := any(e).(Destroyer); ok {
		return d.Destroy()
	}
	return nil
}

// Prune discards dead entities waiting on the free list and returns how
// many it removed.
func (p *Pool[T]) Prune() int {
	if p == nil || p.cleared {
		return 0
	}
	kept := p.free[:0]
	var dead []int
	for _, slot := range p.free {
		if isAlive(p.slots[slot]) {
			kept = append(kept, slot)
			continue
		}
		dead = append(dead, slot)
	}
	p.free = kept
	for _, slot := range dead {
		p.discard(slot)
	}
	return len(dead)
}

// IsSpawned reports whether e is currently handed out by this pool.
func (p *Pool[T]) IsSpawned(e T) bool {
	if p == nil || p.cleared {
		return false
	}
	slot, ok := p.index[e]
	return ok && p.spawned.has(slot)
}

// IsFree reports whether e is waiting on the free list.
func (p *Pool[T]) IsFree(e T) bool {
	if p == nil || p.cleared {
		return false
	}
	slot, ok := p.index[e]
	return ok && !p.spawned.has(slot)
}

// Spawned returns a snapshot of the spawned entities.
func (p *Pool[T]) Spawned() []T {
	if p == nil {
		return nil
	}
	out := make([]T, 0, p.spawned.len())
	for _, slot := range p.spawned.dense {
		out = append(out, p.slots[slot])
	}
	return out
}

// FreeLen is the number of entities waiting on the free list.
func (p *Pool[T]) FreeLen() int { return len(p.free) }

// SpawnedLen is the number of entities currently handed out.
func (p *Pool[T]) SpawnedLen() int { return p.spawned.len() }

// Len is the number of entities the pool tracks.
func (p *Pool[T]) Len() int { return len(p.index) }

// Name identifies the pool in logs and stats.
func (p *Pool[T]) Name() string { return p.name }

// Sample is the prototype passed to the factory.
func (p *Pool[T]) Sample() T { return p.sample }

// Cleared reports whether the pool needs Init before it is used again.
func (p *Pool[T]) Cleared() bool { return p.cleared }

// Stats returns the pool's counters.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Name:      p.name,
		Free:      len(p.free),
		Spawned:   p.spawned.len(),
		Created:   p.created,
		Discarded: p.discarded,
	}
}

// Ref returns a non-owning handle entities can use to despawn themselves.
func (p *Pool[T]) Ref() Ref[T] {
	return Ref[T]{registry: p.registry, pool: p}
}

func (p *Pool[T]) acquire() (T, error) {
	var zero T
	if p == nil {
		return zero, ErrNilPool
	}
	if p.cleared {
		return zero, fmt.Errorf("pool %s: %w", p.name, ErrPoolCleared)
	}

	for len(p.free) > 0 {
		last := len(p.free) - 1
		slot := p.free[last]
		p.free = p.free[:last]

		e := p.slots[slot]
		if !isAlive(e) {
			p.discard(slot)
			continue
		}
		p.spawned.add(slot)
		runHooks(p.onAcquire, e)
		return e, nil
	}

	slot, e, err := p.create()
	if err != nil {
		return zero, err
	}
	p.spawned.add(slot)
	runHooks(p.onAcquire, e)
	return e, nil
}

func (p *Pool[T]) create() (int, T, error) {
	var zero T
	e := p.factory(p.sample)
	if !isAlive(e) {
		return -1, zero, fmt.Errorf("pool %s: %w", p.name, ErrDeadEntity)
	}
	if _, ok := p.index[e]; ok {
		return -1, zero, fmt.Errorf("pool %s: %w", p.name, ErrFactoryReuse)
	}

	var slot int
	if n := len(p.vacant); n > 0 {
		slot = p.vacant[n-1]
		p.vacant = p.vacant[:n-1]
		p.slots[slot] = e
	} else {
		slot = len(p.slots)
		p.slots = append(p.slots, e)
	}
	p.index[e] = slot
	p.created++

	if b, ok := any(e).(Binder[T]); ok {
		b.BindPool(p.Ref())
	}
	return slot, e, nil
}

// discard forgets the entity in slot. The slot must already be out of both
// the free list and the spawned set.
func (p *Pool[T]) discard(slot int) {
	var zero T
	e := p.slots[slot]
	delete(p.index, e)
	p.slots[slot] = zero
	p.vacant = append(p.vacant, slot)
	p.discarded++
	p.log.Debug("pool discarded dead entity", zap.String("pool", p.name), zap.Int("slot", slot))
}

func (p *Pool[T]) drain() []T {
	if p.cleared {
		return nil
	}
	out := make([]T, 0, len(p.index))
	for _, slot := range p.spawned.dense {
		out = append(out, p.slots[slot])
	}
	for i := len(p.free) - 1; i >= 0; i-- {
		out = append(out, p.slots[p.free[i]])
	}

	p.cleared = true
	p.slots = nil
	p.index = nil
	p.free = nil
	p.vacant = nil
	p.spawned.reset()
	return out
}

// detachFromRegistry clears the pool on behalf of Registry.Clear. The
// drained entities are kept for Dispose, and new entities stop resolving
// through the registry that dropped the pool.
func (p *Pool[T]) detachFromRegistry() int {
	out := p.Clear()
	p.detached = append(p.detached, out...)
	p.registry = nil
	return len(out)
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
