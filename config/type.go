package config

import "context"

// ConfigSource is one layer of configuration: defaults, a file, the
// environment, command-line flags.
//
// Load must be safe for concurrent use and must return a map the caller may
// modify. Watch is optional; sources that cannot watch return nil at once.
type ConfigSource interface {
	// Load returns this layer as a string-keyed map, nested for
	// hierarchical keys. It returns ctx.Err() when ctx is cancelled.
	Load(ctx context.Context) (map[string]any, error)

	// Watch sends an Event on ch whenever the layer changes, until ctx ends.
	// The channel is never closed by the source.
	Watch(ctx context.Context, ch chan<- Event) error

	// Name identifies the source in errors and logs ("file", "env", "cli").
	Name() string
}

// Event is sent to subscribers when a reload changes the configuration.
type Event struct {
	// ChangedKeys lists the top-level struct fields that differ.
	// If only Server.Addr changed, ChangedKeys is ["Server"].
	ChangedKeys []string

	OldConfig any
	NewConfig any
}
