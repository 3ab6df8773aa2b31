// Package script lets tengo scripts implement pooled entity lifecycle hooks.
//
// A script must define four functions, each receiving the entity's state
// map: on_spawn(state), on_spawn_with(state, data), on_despawn(state) and
// on_cleared(state). Changes the script makes to state are kept.
package script

import (
	"fmt"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/gamearch/pool"
	"go.uber.org/zap"
)

const lifecycleDispatchScript = `
if __phase == "spawn" {
	on_spawn(__state)
} else if __phase == "spawn_with" {
	on_spawn_with(__state, __data)
} else if __phase == "despawn" {
	on_despawn(__state)
} else if __phase == "cleared" {
	on_cleared(__state)
}
`

// Program is a compiled lifecycle script shared by every entity of a pool.
type Program struct {
	name     string
	compiled *tengo.Compiled
}

// Compile compiles src with the tengo standard library available.
func Compile(name string, src []byte) (*Program, error) {
	full := string(src) + "\n" + lifecycleDispatchScript
	s := tengo.NewScript([]byte(full))
	_ = s.Add("__phase", "")
	_ = s.Add("__state", map[string]any{})
	_ = s.Add("__data", nil)
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script %s: compile: %w", name, err)
	}
	return &Program{name: name, compiled: compiled}, nil
}

// Load reads and compiles a script file.
func Load(path string) (*Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: load %s: %w", path, err)
	}
	return Compile(path, src)
}

func (p *Program) Name() string { return p.name }

func (p *Program) run(phase string, state map[string]any, data any) (map[string]any, error) {
	if err := p.compiled.Set("__phase", phase); err != nil {
		return state, err
	}
	if err := p.compiled.Set("__state", state); err != nil {
		return state, err
	}
	if err := p.compiled.Set("__data", data); err != nil {
		return state, err
	}
	if err := p.compiled.Run(); err != nil {
		return state, err
	}
	return p.compiled.Get("__state").Map(), nil
}

// Entity is a pooled value whose lifecycle hooks run its program.
type Entity struct {
	State map[string]any

	program *Program
	log     *zap.Logger
	err     error
}

// NewEntity creates an entity with a copy of state.
func NewEntity(program *Program, state map[string]any, logger *zap.Logger) *Entity {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Entity{State: copyState(state), program: program, log: logger}
}

// Clone is the pool Factory: a new entity sharing the sample's program and
// starting from a copy of its state.
func Clone(sample *Entity) *Entity {
	return NewEntity(sample.program, sample.State, sample.log)
}

// NewPool creates a pool of scripted entities built from state.
func NewPool(program *Program, state map[string]any, initial int, logger *zap.Logger, opts ...pool.Option) (*pool.Pool[*Entity], error) {
	sample := NewEntity(program, state, logger)
	return pool.New(sample, initial, Clone, append([]pool.Option{pool.WithLogger(logger)}, opts...)...)
}

func (e *Entity) OnSpawn()   { e.run("spawn", nil) }
func (e *Entity) OnDespawn() { e.run("despawn", nil) }
func (e *Entity) OnCleared() { e.run("cleared", nil) }

func (e *Entity) OnSpawnWith(data map[string]any) {
	e.run("spawn_with", data)
}

// Err returns the error from the most recent hook, if it failed.
func (e *Entity) Err() error {
	return e.err
}

func (e *Entity) run(phase string, data map[string]any) {
	var arg any
	if data != nil {
		arg = data
	}
	state, err := e.program.run(phase, e.State, arg)
	e.err = err
	if err != nil {
		e.log.Warn("script hook failed",
			zap.String("script", e.program.name),
			zap.String("phase", phase),
			zap.Error(err))
		return
	}
	e.State = state
}

func copyState(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
