package config

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// Manager loads configuration from an ordered list of sources, binds and
// validates it into a user struct, and notifies subscribers of changes.
//
// A reload that fails to load, bind or validate leaves the current
// configuration untouched. All methods are safe for concurrent use.
type Manager struct {
	sources []ConfigSource
	config  any
	binder  *Binder
	mu      sync.RWMutex
	subs    []chan Event

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Options struct {
	// AutoReload starts a watcher per source and reloads on every event.
	AutoReload bool
}

// NewManager binds cfg, a pointer to a struct, from sources. Later sources
// override earlier ones, so [defaults, file, env, cli] lets flags win.
//
//	var cfg config.Root
//	mgr, err := config.NewManager(&cfg, config.Options{},
//	    &config.DefaultsSource{},
//	    &source.FileSource{BasePath: "configs"},
//	    &source.EnvSource{},
//	    &source.CLISource{},
//	)
func NewManager(cfg any, opts Options, sources ...ConfigSource) (*Manager, error) {
	if v := reflect.ValueOf(cfg); v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("config: target must be a pointer to a struct, got %T", cfg)
	}
	m := &Manager{
		sources: sources,
		config:  cfg,
		binder:  NewBinder(),
	}

	if err := m.Reload(context.Background()); err != nil {
		return nil, err
	}

	if opts.AutoReload {
		m.startWatchers()
	}

	return m, nil
}

// Reload loads every source, merges them in order, binds and validates
// the result into a fresh value, then swaps it into the user struct.
// Subscribers are notified only when a field actually changed.
func (m *Manager) Reload(ctx context.Context) error {
	merged := map[string]any{}
	for _, src := range m.sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		vals, err := src.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load config from %s: %w", src.Name(), err)
		}
		mergeMaps(merged, vals)
	}

	typ := reflect.TypeOf(m.config).Elem()
	newCfg := reflect.New(typ).Interface()
	if err := m.binder.Bind(merged, newCfg); err != nil {
		return fmt.Errorf("failed to bind config: %w", err)
	}

	m.mu.Lock()
	oldCfg := reflect.New(typ).Interface()
	reflect.ValueOf(oldCfg).Elem().Set(reflect.ValueOf(m.config).Elem())
	reflect.ValueOf(m.config).Elem().Set(reflect.ValueOf(newCfg).Elem())
	m.mu.Unlock()

	if !reflect.DeepEqual(oldCfg, newCfg) {
		m.notify(diffEvent(oldCfg, newCfg))
	}
	return nil
}

// Subscribe registers ch for change events. Sends never block: a full
// channel misses the event, so use a buffered channel. The Manager never
// closes ch.
func (m *Manager) Subscribe(ch chan Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, ch)
}

// Close stops the auto-reload watchers and waits for them to exit.
func (m *Manager) Close() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

func (m *Manager) notify(evt Event) {
	m.mu.RLock()
	subs := append([]chan Event(nil), m.subs...)
	m.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (m *Manager) startWatchers() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	for _, src := range m.sources {
		ch := make(chan Event, 1)
		m.wg.Add(2)
		go func() {
			defer m.wg.Done()
			_ = src.Watch(ctx, ch)
		}()
		go func() {
			defer m.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ch:
					// a failed reload keeps the previous configuration
					_ = m.Reload(ctx)
				}
			}
		}()
	}
}
