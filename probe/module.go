// Package probe holds a small module that checks the HTTP client capability
// is wired: on start it resolves the client and, optionally, calls it.
package probe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skekre98/arc/config"
	"github.com/skekre98/arc/core"
	"github.com/skekre98/arc/httpclient"
)

const Name = "probe"

type Module struct {
	core.Base
	cfg    config.ProbeConfig
	logger *slog.Logger

	// LastStatus is the status code of the last probe request, 0 if none.
	LastStatus int
}

func New(cfg config.ProbeConfig, logger *slog.Logger) *Module {
	return &Module{cfg: cfg, logger: logger}
}

func (m *Module) Name() string { return Name }

func (m *Module) DependsOn() []core.Key {
	return []core.Key{core.KeyFor[httpclient.Client]()}
}

func (m *Module) Start(ctx context.Context, r core.Resolver) error {
	client, err := core.Resolve[httpclient.Client](r)
	if err != nil {
		return err
	}
	m.logger.Info("http client resolved", "base_url", client.BaseURL())

	if m.cfg.Path == "" {
		return nil
	}
	resp, err := client.Get(ctx, m.cfg.Path)
	if err != nil {
		if m.cfg.Strict {
			return err
		}
		m.logger.Warn("probe request failed", "path", m.cfg.Path, "error", err)
		return nil
	}
	m.LastStatus = resp.StatusCode()
	m.logger.Info("probe request done", "path", m.cfg.Path, "status", m.LastStatus)
	if m.cfg.Strict && !resp.IsSuccess() {
		return fmt.Errorf("probe %s: status %d", m.cfg.Path, m.LastStatus)
	}
	return nil
}
