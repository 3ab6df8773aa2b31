package gameobj

import "github.com/hajimehoshi/ebiten/v2"

// Layer groups sprites drawn together, in attach order.
type Layer struct {
	Name string

	children []*Sprite
}

// NewLayer creates an empty layer.
func NewLayer(name string) *Layer {
	return &Layer{Name: name}
}

// Children returns the attached sprites.
func (l *Layer) Children() []*Sprite {
	if l == nil {
		return nil
	}
	out := make([]*Sprite, len(l.children))
	copy(out, l.children)
	return out
}

// Len is the number of attached sprites, active or not.
func (l *Layer) Len() int {
	if l == nil {
		return 0
	}
	return len(l.children)
}

// ActiveLen counts the sprites that would be drawn.
func (l *Layer) ActiveLen() int {
	if l == nil {
		return 0
	}
	n := 0
	for _, s := range l.children {
		if s.active {
			n++
		}
	}
	return n
}

// Draw renders every active sprite with an image onto screen.
func (l *Layer) Draw(screen *ebiten.Image) {
	if l == nil || screen == nil {
		return
	}
	for _, s := range l.children {
		if !s.active || s.image == nil {
			continue
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(s.X, s.Y)
		screen.DrawImage(s.image, op)
	}
}

func (l *Layer) attach(s *Sprite) {
	l.children = append(l.children, s)
}

func (l *Layer) detach(s *Sprite) {
	for i, c := range l.children {
		if c == s {
			l.children = append(l.children[:i], l.children[i+1:]...)
			return
		}
	}
}
