package pool

import (
	"fmt"

	"go.uber.org/zap"
)

// Option configures a Pool or a Registry.
type Option func(*settings)

type settings struct {
	name     string
	logger   *zap.Logger
	acquire  []any
	release  []any
	dispose  []any
	registry *Registry
}

func newSettings(opts []Option) *settings {
	s := &settings{}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// WithName overrides the name used in logs and stats.
func WithName(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

// WithLogger sets the logger. Pools and registries default to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithAcquire adds a hook run after an entity enters the spawned set and
// before any Spawner notification.
func WithAcquire[T any](fn func(T)) Option {
	return func(s *settings) {
		s.acquire = append(s.acquire, fn)
	}
}

// WithRelease adds a hook run after an entity is pushed onto the free list,
// including freshly prewarmed entities.
func WithRelease[T any](fn func(T)) Option {
	return func(s *settings) {
		s.release = append(s.release, fn)
	}
}

// WithDispose adds a hook run for every live entity during Dispose, before
// its Destroyer.
func WithDispose[T any](fn func(T)) Option {
	return func(s *settings) {
		s.dispose = append(s.dispose, fn)
	}
}

func withRegistry(r *Registry) Option {
	return func(s *settings) {
		s.registry = r
	}
}

func typedHooks[T any](hooks []any) ([]func(T), error) {
	if len(hooks) == 0 {
		return nil, nil
	}
	out := make([]func(T), 0, len(hooks))
	for _, h := range hooks {
		fn, ok := h.(func(T))
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrHookType, h)
		}
		if fn != nil {
			out = append(out, fn)
		}
	}
	return out, nil
}

func runHooks[T any](hooks []func(T), e T) {
	for _, fn := range hooks {
		fn(e)
	}
}
