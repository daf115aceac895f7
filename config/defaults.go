package config

import "context"

// DefaultsSource supplies built-in values. Put it first so every other
// source overrides it.
type DefaultsSource struct {
	// Values replaces the built-in defaults when non-nil.
	Values map[string]any
}

func (d *DefaultsSource) Name() string { return "defaults" }

func (d *DefaultsSource) Load(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := d.Values
	if src == nil {
		src = Defaults()
	}
	out := map[string]any{}
	mergeMaps(out, src)
	return out, nil
}

func (d *DefaultsSource) Watch(ctx context.Context, ch chan<- Event) error { return nil }

// Defaults returns the values Root falls back to when no source sets them.
func Defaults() map[string]any {
	return map[string]any{
		"app": map[string]any{
			"name":    "arc",
			"version": "dev",
		},
		"logging": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"server": map[string]any{
			"enabled":      true,
			"addr":         ":8080",
			"readTimeout":  "5s",
			"writeTimeout": "10s",
			"idleTimeout":  "60s",
		},
		"httpClient": map[string]any{
			"timeout":   "30s",
			"userAgent": "arc",
		},
		"observability": map[string]any{
			"metrics": map[string]any{"enabled": true},
		},
		"actuator": map[string]any{
			"basePath": "/actuator",
		},
	}
}
