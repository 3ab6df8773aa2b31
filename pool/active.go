package pool

// Activator is an entity with a live and an inert state.
type Activator interface {
	SetActive(active bool)
}

// Attacher is an Activator that hangs off a parent, such as a sprite in a
// layer or a body in a physics space.
type Attacher[P any] interface {
	Activator
	Parent() P
	SetParent(parent P)
}

// NewActive creates a pool whose entities are activated when spawned and
// deactivated when they return to the free list. Prewarmed entities start
// inactive.
func NewActive[T interface {
	comparable
	Activator
}](sample T, initial int, factory Factory[T], opts ...Option) (*Pool[T], error) {
	hooks := []Option{
		WithAcquire(func(e T) { e.SetActive(true) }),
		WithRelease(func(e T) { e.SetActive(false) }),
	}
	return New(sample, initial, factory, append(hooks, opts...)...)
}

// NewAttached is NewActive that also moves every released entity back under
// the sample's parent.
func NewAttached[T interface {
	comparable
	Attacher[P]
}, P any](sample T, initial int, factory Factory[T], opts ...Option) (*Pool[T], error) {
	home := sample.Parent()
	hooks := []Option{
		WithAcquire(func(e T) { e.SetActive(true) }),
		WithRelease(func(e T) {
			e.SetActive(false)
			e.SetParent(home)
		}),
	}
	return New(sample, initial, factory, append(hooks, opts...)...)
}
