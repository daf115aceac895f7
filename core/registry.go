package core

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Key identifies a capability in the Registry.
type Key struct {
	t reflect.Type
}

// KeyFor returns the key naming capability T, usually an interface type.
func KeyFor[T any]() Key { return Key{t: reflect.TypeFor[T]()} }

// KeyOf returns the key m is published under: its BindKey when it
// implements Bindable, its concrete type otherwise.
func KeyOf(m Module) Key {
	if b, ok := m.(Bindable); ok {
		if k := b.BindKey(); !k.IsZero() {
			return k
		}
	}
	return Key{t: reflect.TypeOf(m)}
}

func (k Key) IsZero() bool { return k.t == nil }

func (k Key) String() string {
	if k.t == nil {
		return "<nil>"
	}
	return k.t.String()
}

// Resolver is the read side of the Registry handed to module hooks.
type Resolver interface {
	Lookup(key Key) (Module, error)
}

// Registry maps each capability key to at most one module. A later Bind
// for the same key replaces the earlier one.
type Registry struct {
	mu  sync.RWMutex
	reg map[Key]Module
}

func NewRegistry() *Registry {
	return &Registry{reg: make(map[Key]Module)}
}

func (r *Registry) Bind(key Key, m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reg[key] = m
}

// Unbind removes the binding for key. It reports whether one existed.
func (r *Registry) Unbind(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reg[key]; !ok {
		return false
	}
	delete(r.reg, key)
	return true
}

func (r *Registry) Lookup(key Key) (Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.reg[key]
	if !ok {
		return nil, fmt.Errorf("registry: %s: %w", key, ErrNotBound)
	}
	return m, nil
}

// Keys returns the bound keys sorted by name.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]Key, 0, len(r.reg))
	for k := range r.reg {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reg = make(map[Key]Module)
}

// Resolve looks up capability T and asserts the bound module implements it.
func Resolve[T any](r Resolver) (T, error) {
	var zero T
	key := KeyFor[T]()
	m, err := r.Lookup(key)
	if err != nil {
		return zero, err
	}
	v, ok := m.(T)
	if !ok {
		return zero, fmt.Errorf("registry: have=%T want=%s: %w", m, key, ErrWrongType)
	}
	return v, nil
}

// MustResolve is Resolve for wiring that cannot proceed without T.
func MustResolve[T any](r Resolver) T {
	v, err := Resolve[T](r)
	if err != nil {
		panic(err)
	}
	return v
}
