package pool

// Ref is a non-owning handle to a pool. When the pool was registered in a
// Registry at the time the handle was made, the pool is looked up by type on
// every call, so a removed or replaced pool is never reached through a stale
// pointer.
type Ref[T comparable] struct {
	registry *Registry
	pool     *Pool[T]
}

// Resolve returns the live pool the handle points at.
func (r Ref[T]) Resolve() (*Pool[T], bool) {
	if r.registry != nil {
		p, ok := TryGetPool[T](r.registry)
		if !ok || p != r.pool {
			return nil, false
		}
		return p, true
	}
	if r.pool == nil || r.pool.cleared {
		return nil, false
	}
	return r.pool, true
}

// Despawn forwards to the resolved pool. It reports false once the pool is
// gone.
func (r Ref[T]) Despawn(e T) bool {
	p, ok := r.Resolve()
	if !ok {
		return false
	}
	return p.Despawn(e)
}
