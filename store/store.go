// Package store keeps persistent key-value game data in a YAML file.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

var ErrEmptyKey = errors.New("store: empty key")

// Store holds values in memory until Save writes them to disk.
type Store struct {
	path  string
	data  map[string]yaml.Node
	dirty bool
}

// Open loads the store at path. A missing file gives an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, data: make(map[string]yaml.Node)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the in-memory values with the file contents.
func (s *Store) Load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.data = make(map[string]yaml.Node)
		s.dirty = false
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: read %s: %w", s.path, err)
	}
	data := make(map[string]yaml.Node)
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("store: unmarshal %s: %w", s.path, err)
	}
	s.data = data
	s.dirty = false
	return nil
}

// Set encodes v under key.
func (s *Store) Set(key string, v any) error {
	if key == "" {
		return ErrEmptyKey
	}
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	s.data[key] = node
	s.dirty = true
	return nil
}

// Get decodes the value under key into T. ok is false when the key is
// absent.
func Get[T any](s *Store, key string) (value T, ok bool, err error) {
	node, found := s.data[key]
	if !found {
		return value, false, nil
	}
	if err := node.Decode(&value); err != nil {
		return value, true, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Has(key string) bool {
	_, ok := s.data[key]
	return ok
}

func (s *Store) Delete(key string) bool {
	if _, ok := s.data[key]; !ok {
		return false
	}
	delete(s.data, key)
	s.dirty = true
	return true
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) Dirty() bool  { return s.dirty }
func (s *Store) Path() string { return s.path }

// Save writes the store through a temporary file and rename, so a crash
// never leaves a half-written file behind.
func (s *Store) Save() error {
	raw, err := yaml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("store: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: rename %s: %w", s.path, err)
	}
	s.dirty = false
	return nil
}
