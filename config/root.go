package config

import "time"

type AppInfo struct {
	Name    string `config:"name" validate:"required"`
	Version string `config:"version" validate:"required"`
}

type LoggingConfig struct {
	Level  string `config:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `config:"format" validate:"omitempty,oneof=text json pretty"`
}

type ServerConfig struct {
	Enabled      bool          `config:"enabled"`
	Addr         string        `config:"addr" validate:"required"`
	ReadTimeout  time.Duration `config:"readTimeout"`
	WriteTimeout time.Duration `config:"writeTimeout"`
	IdleTimeout  time.Duration `config:"idleTimeout"`
}

// HTTPClientConfig drives the outbound HTTP client module.
type HTTPClientConfig struct {
	BaseURL   string            `config:"baseURL" validate:"required,url"`
	Timeout   time.Duration     `config:"timeout" validate:"min=0"`
	UserAgent string            `config:"userAgent"`
	Headers   map[string]string `config:"headers"`
}

// ProbeConfig drives the probe module. An empty Path only logs the
// client's base URL.
type ProbeConfig struct {
	Path   string `config:"path"`
	Strict bool   `config:"strict"`
}

type MetricsConfig struct {
	Enabled bool `config:"enabled"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `config:"metrics"`
}

type ActuatorConfig struct {
	BasePath string `config:"basePath" validate:"required,startswith=/"`
}

type Root struct {
	App           AppInfo             `config:"app"`
	Logging       LoggingConfig       `config:"logging"`
	Server        ServerConfig        `config:"server"`
	HTTPClient    HTTPClientConfig    `config:"httpClient"`
	Probe         ProbeConfig         `config:"probe"`
	Observability ObservabilityConfig `config:"observability"`
	Actuator      ActuatorConfig      `config:"actuator"`
}
