package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"resty.dev/v3"

	"github.com/skekre98/arc/config"
	"github.com/skekre98/arc/core"
)

const Name = "http-client"

// Module is the default Client. It publishes itself under KeyFor[Client]
// so collaborators depend on the capability, not this type.
type Module struct {
	core.Base
	cfg config.HTTPClientConfig

	mu      sync.RWMutex
	client  *resty.Client
	started bool
}

var _ Client = (*Module)(nil)

func New(cfg config.HTTPClientConfig) *Module {
	return &Module{cfg: cfg}
}

func (m *Module) Name() string { return Name }
func (m *Module) BindKey() core.Key { return core.KeyFor[Client]() }
func (m *Module) BaseURL() string { return m.cfg.BaseURL }

// Configure builds the underlying client once; later calls keep it.
func (m *Module) Configure(core.Resolver) error {
	if m.cfg.BaseURL == "" {
		return errors.New("httpclient: base URL is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return nil
	}

	c := resty.New().SetBaseURL(m.cfg.BaseURL)
	if m.cfg.Timeout > 0 {
		c.SetTimeout(m.cfg.Timeout)
	}
	if m.cfg.UserAgent != "" {
		c.SetHeader("User-Agent", m.cfg.UserAgent)
	}
	if len(m.cfg.Headers) > 0 {
		c.SetHeaders(m.cfg.Headers)
	}
	m.client = c
	return nil
}

func (m *Module) Start(_ context.Context, r core.Resolver) error {
	if err := m.Configure(r); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return nil
}

// Stop closes the client. It is a no-op when Configure never ran.
func (m *Module) Stop(context.Context, core.Resolver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = false
	if m.client == nil {
		return nil
	}
	err := m.client.Close()
	m.client = nil
	return err
}

func (m *Module) Get(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return m.do(ctx, http.MethodGet, endpoint, nil, opts)
}

func (m *Module) Post(ctx context.Context, endpoint string, body any, opts ...RequestOption) (*Response, error) {
	return m.do(ctx, http.MethodPost, endpoint, body, opts)
}

func (m *Module) Put(ctx context.Context, endpoint string, body any, opts ...RequestOption) (*Response, error) {
	return m.do(ctx, http.MethodPut, endpoint, body, opts)
}

func (m *Module) Delete(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return m.do(ctx, http.MethodDelete, endpoint, nil, opts)
}

func (m *Module) Patch(ctx context.Context, endpoint string, body any, opts ...RequestOption) (*Response, error) {
	return m.do(ctx, http.MethodPatch, endpoint, body, opts)
}

func (m *Module) do(ctx context.Context, method, endpoint string, body any, opts []RequestOption) (*Response, error) {
	m.mu.RLock()
	client, started := m.client, m.started
	m.mu.RUnlock()
	if !started || client == nil {
		return nil, ErrNotStarted
	}
	if endpoint == "" {
		endpoint = "/"
	}

	o := buildOptions(opts)
	req := client.R().SetContext(ctx).SetHeaders(o.headers)
	if len(o.cookies) > 0 {
		req.SetCookies(o.httpCookies())
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return resp, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	return resp, nil
}
