// Package gameobj provides pooled sprites that live in draw layers.
package gameobj

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/gamearch/pool"
)

// Placement positions a sprite when it is spawned.
type Placement struct {
	X, Y float64
}

// Sprite is an image drawn at a position inside a Layer. Inactive sprites
// stay attached but are not drawn.
type Sprite struct {
	X, Y float64

	image     *ebiten.Image
	parent    *Layer
	active    bool
	destroyed bool
}

// NewSprite creates an active sprite attached to parent. The sprite owns img
// and deallocates it on Destroy.
func NewSprite(img *ebiten.Image, parent *Layer) *Sprite {
	s := &Sprite{image: img, active: true}
	s.SetParent(parent)
	return s
}

// Clone builds a sprite from sample with its own copy of the image, under
// the same parent. It is the Factory used by NewPool.
func Clone(sample *Sprite) *Sprite {
	if sample == nil {
		return &Sprite{active: true}
	}
	var img *ebiten.Image
	if sample.image != nil {
		img = ebiten.NewImageFromImage(sample.image)
	}
	s := NewSprite(img, sample.parent)
	s.X, s.Y = sample.X, sample.Y
	return s
}

// NewPool creates a sprite pool. Spawned sprites are active, released ones
// are inactive and moved back into the sample's layer.
func NewPool(sample *Sprite, initial int, opts ...pool.Option) (*pool.Pool[*Sprite], error) {
	return pool.NewAttached[*Sprite, *Layer](sample, initial, Clone, opts...)
}

// SetActive shows or hides the sprite without detaching it.
func (s *Sprite) SetActive(active bool) { s.active = active }
func (s *Sprite) Active() bool          { return s.active }
func (s *Sprite) Parent() *Layer        { return s.parent }
func (s *Sprite) Image() *ebiten.Image  { return s.image }

// SetParent moves the sprite to another layer. A nil layer detaches it.
func (s *Sprite) SetParent(l *Layer) {
	if s.parent == l {
		return
	}
	if s.parent != nil {
		s.parent.detach(s)
	}
	s.parent = l
	if l != nil {
		l.attach(s)
	}
}

// OnSpawnWith moves the sprite to its spawn position.
func (s *Sprite) OnSpawnWith(p Placement) {
	s.X, s.Y = p.X, p.Y
}

// Alive reports false once the sprite has been destroyed.
func (s *Sprite) Alive() bool {
	return !s.destroyed
}

// Destroy detaches the sprite and deallocates its image. It is safe to call
// more than once.
func (s *Sprite) Destroy() error {
	if s.destroyed {
		return nil
	}
	s.SetParent(nil)
	if s.image != nil {
		s.image.Deallocate()
		s.image = nil
	}
	s.active = false
	s.destroyed = true
	return nil
}
