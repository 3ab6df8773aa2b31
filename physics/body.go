// Package physics pools chipmunk bodies. A spawned Body is simulated by its
// space; a free one is removed from it.
package physics

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/gamearch/pool"
)

// Launch places and pushes a body when it is spawned.
type Launch struct {
	Position cp.Vector
	Velocity cp.Vector
}

// Body is a circular dynamic body owned by a space.
type Body struct {
	Mass   float64
	Radius float64

	body   *cp.Body
	shape  *cp.Shape
	space  *cp.Space
	active bool
}

// NewBody creates an inactive body for space. It is not simulated until
// SetActive(true).
func NewBody(space *cp.Space, mass, radius float64) *Body {
	body := cp.NewBody(mass, cp.MomentForCircle(mass, 0, radius, cp.Vector{}))
	shape := cp.NewCircle(body, radius, cp.Vector{})
	shape.SetFriction(0.8)
	return &Body{
		Mass:   mass,
		Radius: radius,
		body:   body,
		shape:  shape,
		space:  space,
	}
}

// Clone is the pool Factory: a fresh body with the sample's shape and space.
func Clone(sample *Body) *Body {
	return NewBody(sample.space, sample.Mass, sample.Radius)
}

// NewPool creates a body pool whose spawned bodies are added to their space
// and whose released bodies are moved back to the sample's space, inert.
func NewPool(sample *Body, initial int, opts ...pool.Option) (*pool.Pool[*Body], error) {
	return pool.NewAttached[*Body, *cp.Space](sample, initial, Clone, opts...)
}

func (b *Body) SetActive(active bool) {
	if b.body == nil || b.active == active {
		return
	}
	b.active = active
	if b.space == nil {
		return
	}
	if active {
		b.space.AddBody(b.body)
		b.space.AddShape(b.shape)
		return
	}
	b.space.RemoveShape(b.shape)
	b.space.RemoveBody(b.body)
}

func (b *Body) Active() bool        { return b.active }
func (b *Body) Parent() *cp.Space   { return b.space }
func (b *Body) CP() *cp.Body        { return b.body }
func (b *Body) Position() cp.Vector { return b.body.Position() }
func (b *Body) Velocity() cp.Vector { return b.body.Velocity() }
func (b *Body) Alive() bool         { return b.body != nil }

// SetParent moves the body to another space, keeping its active state.
func (b *Body) SetParent(space *cp.Space) {
	if b.space == space {
		return
	}
	active := b.active
	b.SetActive(false)
	b.space = space
	b.SetActive(active)
}

func (b *Body) OnSpawnWith(l Launch) {
	b.body.SetPosition(l.Position)
	b.body.SetVelocity(l.Velocity.X, l.Velocity.Y)
}

// OnDespawn zeroes motion so a reused body starts at rest.
func (b *Body) OnDespawn() {
	b.body.SetVelocity(0, 0)
	b.body.SetAngularVelocity(0)
}

// Destroy removes the body from its space and drops the chipmunk objects.
func (b *Body) Destroy() error {
	b.SetActive(false)
	b.body = nil
	b.shape = nil
	return nil
}
