package core

import (
	"context"
	"sync/atomic"
)

// Module is a unit of capability that participates in the app lifecycle.
//
// Implementations embed Base, which supplies the running flag and no-op
// hooks. Only the Manager flips the running flag.
type Module interface {
	Name() string
	// Running reports whether the Manager has started the module.
	Running() bool
	// Configure applies settings before Start. It may run more than once.
	Configure(r Resolver) error
	// Start brings the module into a usable state.
	Start(ctx context.Context, r Resolver) error
	// Stop releases what Start acquired. Safe to call without Start.
	Stop(ctx context.Context, r Resolver) error

	setRunning(running bool)
}

// Bindable is implemented by modules that publish themselves under a
// capability other than their concrete type.
type Bindable interface {
	BindKey() Key
}

// Dependent is implemented by modules that must be configured and started
// after the modules publishing the given capabilities.
type Dependent interface {
	DependsOn() []Key
}

// Base provides the running flag and no-op lifecycle hooks. The flag may be
// read from any goroutine.
type Base struct {
	running atomic.Bool
}

func (b *Base) Running() bool { return b.running.Load() }

func (b *Base) setRunning(running bool) { b.running.Store(running) }

func (b *Base) Configure(Resolver) error { return nil }

func (b *Base) Start(context.Context, Resolver) error { return nil }

func (b *Base) Stop(context.Context, Resolver) error { return nil }
