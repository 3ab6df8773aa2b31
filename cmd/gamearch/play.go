package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/milk9111/gamearch/config"
	"github.com/milk9111/gamearch/gameobj"
	"github.com/milk9111/gamearch/pool"
	"github.com/milk9111/gamearch/rng"
	"github.com/milk9111/gamearch/tick"
)

const (
	screenWidth  = 640
	screenHeight = 360
	sparkleTTL   = 45
)

func newPlayCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "play",
		Short:   "Open a window drawing pooled sprites",
		PreRunE: bindFlags(v),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfigAndLogger(v)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			scene, err := newPlayScene(cfg, v.GetUint64("seed"), logger)
			if err != nil {
				return err
			}
			defer scene.sprites.Dispose()

			ebiten.SetWindowSize(screenWidth*2, screenHeight*2)
			ebiten.SetWindowTitle("gamearch")
			return ebiten.RunGame(scene.game)
		},
	}
	cmd.Flags().Uint64("seed", 1, "random seed")
	return cmd
}

type sparkle struct {
	sprite *gameobj.Sprite
	age    int
}

// playScene sprinkles pooled sprites across the screen and lets them fade.
type playScene struct {
	layer   *gameobj.Layer
	sprites *pool.Pool[*gameobj.Sprite]
	live    []sparkle
	rng     *rng.Source
	game    *tick.Game
	log     *zap.Logger
}

func newPlayScene(cfg config.Config, seed uint64, logger *zap.Logger) (*playScene, error) {
	img := ebiten.NewImage(4, 4)
	img.Fill(color.RGBA{R: 0xff, G: 0xc8, B: 0x40, A: 0xff})

	layer := gameobj.NewLayer("sparkles")
	sample := gameobj.NewSprite(img, layer)
	sample.SetActive(false)

	preset, _ := cfg.Preset("spark")
	sprites, err := gameobj.NewPool(sample, preset.Initial, pool.WithName("sprite"), pool.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	s := &playScene{
		layer:   layer,
		sprites: sprites,
		rng:     rng.New(seed),
		log:     logger,
	}
	d := tick.NewDispatcher(0, 0)
	d.Add(tick.SystemFunc(s.spawn), 0)
	d.Add(tick.SystemFunc(s.fade), 10)
	s.game = &tick.Game{
		Dispatcher: d,
		DrawFunc:   layer.Draw,
		Width:      screenWidth,
		Height:     screenHeight,
	}
	return s, nil
}

func (s *playScene) spawn(float64) {
	for i := 0; i < 3; i++ {
		sp, err := pool.SpawnWith(s.sprites, gameobj.Placement{
			X: s.rng.Range(0, screenWidth),
			Y: s.rng.Range(0, screenHeight),
		})
		if err != nil {
			s.log.Warn("sprite spawn failed", zap.Error(err))
			return
		}
		s.live = append(s.live, sparkle{sprite: sp})
	}
}

func (s *playScene) fade(float64) {
	kept := s.live[:0]
	for _, sk := range s.live {
		sk.age++
		if sk.age < sparkleTTL {
			sk.sprite.Y--
			kept = append(kept, sk)
			continue
		}
		s.sprites.Despawn(sk.sprite)
	}
	s.live = kept
}
