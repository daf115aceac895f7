package core

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// Manager owns the module set, the binding registry and every lifecycle
// transition. Lifecycle calls must be serialized by the caller; Modules,
// Contains, Lookup and Enabled may be called from any goroutine.
type Manager struct {
	mu      sync.RWMutex
	modules []Module
	members map[Module]struct{}

	registry  *Registry
	logger    *slog.Logger
	observers observers
	enabled   atomic.Bool
}

type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observers = append(m.observers, o) }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		members:  make(map[Module]struct{}),
		registry: NewRegistry(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// AddModule tracks mods in insertion order. Already tracked modules are
// skipped. Nothing is started or bound.
func (m *Manager) AddModule(mods ...Module) {
	for _, mod := range mods {
		m.track(mod)
	}
}

// RemoveModule stops tracking mods. It neither stops nor unbinds them; use
// StopModule first when the module must go down.
func (m *Manager) RemoveModule(mods ...Module) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mod := range mods {
		if _, ok := m.members[mod]; !ok {
			continue
		}
		delete(m.members, mod)
		m.modules = slices.DeleteFunc(m.modules, func(x Module) bool { return x == mod })
	}
}

func (m *Manager) Contains(mod Module) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.members[mod]
	return ok
}

// Modules returns the tracked modules in insertion order.
func (m *Manager) Modules() []Module {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.modules)
}

func (m *Manager) Enabled() bool { return m.enabled.Load() }

func (m *Manager) Registry() Resolver { return m.registry }

func (m *Manager) Lookup(key Key) (Module, error) {
	return m.registry.Lookup(key)
}

// Enable binds every tracked module, then configures all of them, then
// starts all of them. Binding happens first so hooks can resolve any
// collaborator in the set. The first failure aborts; modules started
// before it stay running.
func (m *Manager) Enable(ctx context.Context) error {
	if m.enabled.Load() {
		return ErrAlreadyEnabled
	}
	mods := m.Modules()
	order, err := plan(mods, m.bound)
	if err != nil {
		return err
	}

	for _, mod := range mods {
		m.registry.Bind(KeyOf(mod), mod)
	}
	m.enabled.Store(true)

	for _, mod := range order {
		if err := mod.Configure(m.registry); err != nil {
			return m.fail(mod, StageConfigure, err)
		}
	}
	for _, mod := range order {
		m.logger.Info("starting module", "module", mod.Name(), "key", KeyOf(mod).String())
		if err := mod.Start(ctx, m.registry); err != nil {
			return m.fail(mod, StageStart, err)
		}
		mod.setRunning(true)
		m.observers.started(mod)
	}
	return nil
}

// Disable stops every tracked module in reverse start order, then drops
// all bindings. A stop failure aborts before the registry is reset.
func (m *Manager) Disable(ctx context.Context) error {
	mods := m.Modules()
	order, err := plan(mods, func(Key) bool { return true })
	if err != nil {
		order = mods
	}
	for i := len(order) - 1; i >= 0; i-- {
		mod := order[i]
		m.logger.Info("stopping module", "module", mod.Name(), "key", KeyOf(mod).String())
		if err := mod.Stop(ctx, m.registry); err != nil {
			return m.fail(mod, StageStop, err)
		}
		mod.setRunning(false)
		m.observers.stopped(mod)
	}
	m.registry.Reset()
	m.enabled.Store(false)
	return nil
}

// StartModule configures and starts mod, tracks it and publishes it under
// its key. Other modules are untouched.
func (m *Manager) StartModule(ctx context.Context, mod Module) error {
	if err := mod.Configure(m.registry); err != nil {
		return m.fail(mod, StageConfigure, err)
	}
	m.logger.Info("starting module", "module", mod.Name(), "key", KeyOf(mod).String())
	if err := mod.Start(ctx, m.registry); err != nil {
		return m.fail(mod, StageStart, err)
	}
	m.track(mod)
	mod.setRunning(true)
	m.registry.Bind(KeyOf(mod), mod)
	m.observers.started(mod)
	return nil
}

// StopModule stops mod and drops the binding for its key, whichever
// instance holds it. The module stays tracked.
func (m *Manager) StopModule(ctx context.Context, mod Module) error {
	m.logger.Info("stopping module", "module", mod.Name(), "key", KeyOf(mod).String())
	if err := mod.Stop(ctx, m.registry); err != nil {
		return m.fail(mod, StageStop, err)
	}
	mod.setRunning(false)
	m.registry.Unbind(KeyOf(mod))
	m.observers.stopped(mod)
	return nil
}

func (m *Manager) track(mod Module) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[mod]; ok {
		return
	}
	m.members[mod] = struct{}{}
	m.modules = append(m.modules, mod)
}

func (m *Manager) bound(key Key) bool {
	_, err := m.registry.Lookup(key)
	return err == nil
}

func (m *Manager) fail(mod Module, stage Stage, err error) error {
	m.observers.failed(mod, stage, err)
	return &LifecycleError{Stage: stage, Module: mod.Name(), Err: err}
}
