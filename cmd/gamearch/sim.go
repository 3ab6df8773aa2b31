package main

import (
	"context"
	"fmt"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/gamearch/config"
	"github.com/milk9111/gamearch/di"
	"github.com/milk9111/gamearch/msg"
	"github.com/milk9111/gamearch/physics"
	"github.com/milk9111/gamearch/pool"
	"github.com/milk9111/gamearch/relay"
	"github.com/milk9111/gamearch/rng"
	"github.com/milk9111/gamearch/script"
	"github.com/milk9111/gamearch/store"
	"github.com/milk9111/gamearch/tick"
)

const (
	fireCommand = "fire"
	debrisTTL   = 90
	arenaWidth  = 640
)

// bullet is a pooled projectile that releases itself when it expires.
type bullet struct {
	pool.Owner[*bullet]

	id  int
	pos cp.Vector
	vel cp.Vector
	age int
	ttl int
}

// fire is the payload of a fire command and the spawn data of a bullet.
type fire struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	VX  float64 `json:"vx"`
	VY  float64 `json:"vy"`
	TTL int     `json:"ttl"`
}

func (b *bullet) OnSpawnWith(f fire) {
	b.pos = cp.Vector{X: f.X, Y: f.Y}
	b.vel = cp.Vector{X: f.VX, Y: f.VY}
	b.ttl = f.TTL
	b.age = 0
}

func (b *bullet) OnDespawn() { b.vel = cp.Vector{} }

// advance moves the bullet one step and reports whether it has expired.
func (b *bullet) advance(dt float64) bool {
	b.pos = b.pos.Add(b.vel.Mult(dt))
	b.age++
	return b.age >= b.ttl
}

type BulletSpawned struct {
	ID    int
	Frame uint64
}

type BulletExpired struct {
	ID  int
	Age int
	Pos cp.Vector
}

// piece is spawned debris and the frames it has been alive.
type piece struct {
	body *physics.Body
	age  int
}

// sizer is the part of a pool presets can resize.
type sizer interface {
	FreeLen() int
	Prewarm(n int) error
}

// sim is the headless world driven by the run command.
type sim struct {
	log        *zap.Logger
	registry   *pool.Registry
	broker     *msg.Broker
	dispatcher *tick.Dispatcher
	rng        *rng.Source
	store      *store.Store
	relay      *relay.Relay

	space   *cp.Space
	bullets *pool.Pool[*bullet]
	debris  *pool.Pool[*physics.Body]
	sparks  *pool.Pool[*script.Entity]
	pieces  []piece
	pools   map[string]sizer

	fireChance float64
	nextID     int
	fired      int
	expired    int
}

// newContainer binds the shared services every system resolves.
func newContainer(logger *zap.Logger, seed uint64, st *store.Store, transport relay.Transport) (*di.Container, error) {
	c := di.New()
	binds := []error{
		di.Bind(c, logger),
		di.Bind(c, pool.NewRegistry(pool.WithLogger(logger))),
		di.Bind(c, msg.NewBroker()),
		di.Bind(c, tick.NewDispatcher(0, 0)),
		di.Bind(c, rng.New(seed)),
		di.Bind(c, st),
		di.Bind(c, relay.New(transport, logger)),
	}
	for _, err := range binds {
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func newSim(c *di.Container, cfg config.Config, program *script.Program) (*sim, error) {
	s := &sim{
		pools:      make(map[string]sizer),
		fireChance: 0.25,
	}
	var err error
	if s.log, err = di.Resolve[*zap.Logger](c); err != nil {
		return nil, err
	}
	if s.registry, err = di.Resolve[*pool.Registry](c); err != nil {
		return nil, err
	}
	if s.broker, err = di.Resolve[*msg.Broker](c); err != nil {
		return nil, err
	}
	if s.dispatcher, err = di.Resolve[*tick.Dispatcher](c); err != nil {
		return nil, err
	}
	if s.rng, err = di.Resolve[*rng.Source](c); err != nil {
		return nil, err
	}
	if s.store, err = di.Resolve[*store.Store](c); err != nil {
		return nil, err
	}
	if s.relay, err = di.Resolve[*relay.Relay](c); err != nil {
		return nil, err
	}

	if err := s.buildPools(cfg, program); err != nil {
		return nil, err
	}
	s.wire()
	return s, nil
}

func (s *sim) buildPools(cfg config.Config, program *script.Program) error {
	bp, _ := cfg.Preset("bullet")
	bullets, err := pool.InitPool(s.registry, &bullet{}, bp.Initial, s.newBullet, pool.WithName("bullet"))
	if err != nil {
		return err
	}
	s.bullets = bullets
	s.pools["bullet"] = bullets

	s.space = cp.NewSpace()
	s.space.SetGravity(cp.Vector{Y: -100})
	dp, _ := cfg.Preset("debris")
	debris, err := physics.NewPool(physics.NewBody(s.space, 1, 2), dp.Initial,
		pool.WithName("debris"), pool.WithLogger(s.log))
	if err != nil {
		return err
	}
	if err := pool.AddPool(s.registry, debris); err != nil {
		return err
	}
	s.debris = debris
	s.pools["debris"] = debris

	sp, _ := cfg.Preset("spark")
	sparks, err := script.NewPool(program, map[string]any{"spawns": 0, "despawns": 0, "flight": 0}, sp.Initial,
		s.log, pool.WithName("spark"))
	if err != nil {
		return err
	}
	if err := pool.AddPool(s.registry, sparks); err != nil {
		return err
	}
	s.sparks = sparks
	s.pools["spark"] = sparks

	return s.applyPresets(cfg)
}

func (s *sim) newBullet(*bullet) *bullet {
	s.nextID++
	return &bullet{id: s.nextID}
}

// applyPresets grows each pool's free list to at least its Prewarm size.
func (s *sim) applyPresets(cfg config.Config) error {
	for _, p := range cfg.Pools {
		target, ok := s.pools[p.Name]
		if !ok {
			s.log.Warn("preset for unknown pool", zap.String("pool", p.Name))
			continue
		}
		if n := p.Prewarm - target.FreeLen(); n > 0 {
			if err := target.Prewarm(n); err != nil {
				return fmt.Errorf("prewarm %s: %w", p.Name, err)
			}
		}
	}
	return nil
}

func (s *sim) wire() {
	s.relay.Handle(fireCommand, s.handleFire)

	msg.Subscribe(s.broker, func(BulletSpawned) { s.fired++ })
	msg.Subscribe(s.broker, s.onExpired)

	s.dispatcher.Add(tick.SystemFunc(s.fireSystem), 0)
	s.dispatcher.Add(tick.SystemFunc(s.moveSystem), 10)
	s.dispatcher.Add(tick.SystemFunc(s.physicsSystem), 20)
	s.dispatcher.Add(tick.SystemFunc(func(float64) { s.sparks.DespawnAll() }), 30)
	s.dispatcher.Add(tick.SystemFunc(func(float64) { s.broker.Flush() }), 90)
}

func (s *sim) fireSystem(float64) {
	if !s.rng.Chance(s.fireChance) {
		return
	}
	cmd, err := relay.NewCommand(fireCommand, s.dispatcher.Frame(), fire{
		X:   s.rng.Range(0, arenaWidth),
		VX:  s.rng.Range(-40, 40),
		VY:  s.rng.Range(60, 120),
		TTL: 20 + s.rng.Intn(40),
	})
	if err == nil {
		err = s.relay.Send(context.Background(), cmd)
	}
	if err != nil {
		s.log.Warn("fire failed", zap.Error(err))
	}
}

func (s *sim) handleFire(_ context.Context, cmd relay.Command) error {
	var f fire
	if err := cmd.Decode(&f); err != nil {
		return err
	}
	b, err := pool.SpawnWith(s.bullets, f)
	if err != nil {
		return err
	}
	msg.Publish(s.broker, BulletSpawned{ID: b.id, Frame: cmd.Tick})
	return nil
}

func (s *sim) moveSystem(dt float64) {
	for _, b := range s.bullets.Spawned() {
		if !b.advance(dt) {
			continue
		}
		msg.Post(s.broker, BulletExpired{ID: b.id, Age: b.age, Pos: b.pos})
		b.Release(b)
	}
}

func (s *sim) physicsSystem(dt float64) {
	s.space.Step(dt)
	kept := s.pieces[:0]
	for _, p := range s.pieces {
		p.age++
		if p.age < debrisTTL {
			kept = append(kept, p)
			continue
		}
		s.debris.Despawn(p.body)
	}
	s.pieces = kept
}

func (s *sim) onExpired(e BulletExpired) {
	s.expired++

	body, err := pool.SpawnWith(s.debris, physics.Launch{
		Position: e.Pos,
		Velocity: cp.Vector{X: s.rng.Range(-20, 20), Y: s.rng.Range(10, 40)},
	})
	if err != nil {
		s.log.Warn("debris spawn failed", zap.Error(err))
	} else {
		s.pieces = append(s.pieces, piece{body: body})
	}

	if _, err := pool.SpawnWith(s.sparks, map[string]any{"id": e.ID, "age": e.Age}); err != nil {
		s.log.Warn("spark spawn failed", zap.Error(err))
	}
}

// persist adds this run's totals to the store and saves it when it has a
// path.
func (s *sim) persist() error {
	for key, n := range map[string]int{"totals.fired": s.fired, "totals.expired": s.expired} {
		prev, _, err := store.Get[int](s.store, key)
		if err != nil {
			return err
		}
		if err := s.store.Set(key, prev+n); err != nil {
			return err
		}
	}
	if err := s.store.Set("last_run", map[string]any{
		"seed":   s.rng.Seed(),
		"frames": s.dispatcher.Frame(),
	}); err != nil {
		return err
	}
	if s.store.Path() == "" {
		return nil
	}
	return s.store.Save()
}

func (s *sim) close() error {
	return s.registry.Dispose()
}
