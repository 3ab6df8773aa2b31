// Package di binds one instance per type. A Container is constructed
// explicitly and handed to the code that needs it.
package di

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrAlreadyBound = errors.New("di: type already bound")
	ErrNotBound     = errors.New("di: type not bound")
)

type Container struct {
	bindings map[reflect.Type]any
}

func New() *Container {
	return &Container{bindings: make(map[reflect.Type]any)}
}

// Bind stores v as the instance for T.
func Bind[T any](c *Container, v T) error {
	key := reflect.TypeFor[T]()
	if _, ok := c.bindings[key]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyBound, key)
	}
	c.bindings[key] = v
	return nil
}

// Rebind stores v for T, replacing any existing binding.
func Rebind[T any](c *Container, v T) {
	c.bindings[reflect.TypeFor[T]()] = v
}

func Resolve[T any](c *Container) (T, error) {
	v, ok := TryResolve[T](c)
	if !ok {
		return v, fmt.Errorf("%w: %s", ErrNotBound, reflect.TypeFor[T]())
	}
	return v, nil
}

func TryResolve[T any](c *Container) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	v, ok := c.bindings[reflect.TypeFor[T]()]
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// Unbind removes the binding for T and reports whether there was one.
func Unbind[T any](c *Container) bool {
	key := reflect.TypeFor[T]()
	if _, ok := c.bindings[key]; !ok {
		return false
	}
	delete(c.bindings, key)
	return true
}

func (c *Container) Len() int {
	return len(c.bindings)
}
