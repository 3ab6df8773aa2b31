package pool

import "errors"

var (
	ErrPoolExists      = errors.New("pool: pool already registered for type")
	ErrPoolNotFound    = errors.New("pool: no pool registered for type")
	ErrPoolCleared     = errors.New("pool: pool cleared, reinitialize before use")
	ErrPoolInitialized = errors.New("pool: pool already initialized")
	ErrNilFactory      = errors.New("pool: factory is nil")
	ErrNegativeSize    = errors.New("pool: initial size is negative")
	ErrDeadEntity      = errors.New("pool: factory produced a dead entity")
)

var (
	ErrPoolDisposed = errors.New("pool: pool disposed")
	ErrFactoryReuse = errors.New("pool: factory returned an entity the pool already tracks")
	ErrHookType     = errors.New("pool: hook does not match pool entity type")
	ErrNilPool      = errors.New("pool: pool is nil")
)
