// Package config loads pool presets and logging settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/gamearch/logging"
)

var (
	ErrDuplicatePreset = errors.New("config: duplicate pool preset")
	ErrInvalidPreset   = errors.New("config: invalid pool preset")
)

// PoolPreset sizes one pool. Initial entities are built when the pool is
// created; Prewarm more are added once the game has started.
type PoolPreset struct {
	Name    string `yaml:"name"`
	Initial int    `yaml:"initial"`
	Prewarm int    `yaml:"prewarm"`
}

type Config struct {
	Logging logging.Config `yaml:"logging"`
	Pools   []PoolPreset   `yaml:"pools"`
}

// Default is used when no config file is given.
func Default() Config {
	return Config{
		Logging: logging.Default(),
		Pools: []PoolPreset{
			{Name: "bullet", Initial: 32},
			{Name: "debris", Initial: 16},
			{Name: "spark", Initial: 4},
		},
	}
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML document. Unknown fields are rejected.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Pools))
	for i, p := range c.Pools {
		if p.Name == "" {
			return fmt.Errorf("%w: pools[%d]: name is required", ErrInvalidPreset, i)
		}
		if p.Initial < 0 || p.Prewarm < 0 {
			return fmt.Errorf("%w: %s: sizes must not be negative", ErrInvalidPreset, p.Name)
		}
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePreset, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// Preset returns the preset named name.
func (c Config) Preset(name string) (PoolPreset, bool) {
	for _, p := range c.Pools {
		if p.Name == name {
			return p, true
		}
	}
	return PoolPreset{}, false
}
