package tick

import "github.com/hajimehoshi/ebiten/v2"

// Game runs a Dispatcher from ebiten's update loop. Each ebiten tick is one
// dispatcher step.
type Game struct {
	Dispatcher *Dispatcher
	DrawFunc   func(screen *ebiten.Image)
	Width      int
	Height     int
}

func (g *Game) Update() error {
	g.Dispatcher.Step(1 / float64(ebiten.TPS()))
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.DrawFunc != nil {
		g.DrawFunc(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.Width > 0 && g.Height > 0 {
		return g.Width, g.Height
	}
	return outsideWidth, outsideHeight
}

var _ ebiten.Game = (*Game)(nil)
