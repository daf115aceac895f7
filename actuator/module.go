package actuator

import (
	"errors"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skekre98/arc/config"
	"github.com/skekre98/arc/core"
	"github.com/skekre98/arc/web"
)

const Name = "actuator"

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

// ErrServerServing is returned by Configure when the web server already
// serves requests. Enable the actuator together with the server.
var ErrServerServing = errors.New("actuator: web server already serving")

// ModuleLister is the view of the module set the actuator reports on.
// *core.Manager satisfies it.
type ModuleLister interface {
	Modules() []core.Module
}

// Actuator adds operational endpoints to the web server. Start and Stop
// are Base's no-ops: the routes live and die with the server.
type Actuator struct {
	core.Base
	app      config.AppInfo
	cfg      config.ActuatorConfig
	lister   ModuleLister
	gatherer prometheus.Gatherer

	configured bool
}

var _ core.Module = (*Actuator)(nil)

// New builds the actuator. A nil gatherer disables /metrics.
func New(app config.AppInfo, cfg config.ActuatorConfig, lister ModuleLister, gatherer prometheus.Gatherer) *Actuator {
	return &Actuator{app: app, cfg: cfg, lister: lister, gatherer: gatherer}
}

func (a *Actuator) Name() string { return Name }

func (a *Actuator) DependsOn() []core.Key { return []core.Key{web.Key()} }

type moduleStatus struct {
	Name   string `json:"name"`
	Key    string `json:"key"`
	Status string `json:"status"`
}

func (a *Actuator) Configure(r core.Resolver) error {
	if a.configured {
		return nil
	}
	srv, err := core.Resolve[*web.Server](r)
	if err != nil {
		return err
	}
	if srv.Serving() {
		return ErrServerServing
	}

	srv.Routes(func(r web.Router) {
		group := r.Group(a.cfg.BasePath)
		group.GET("/health", a.health)
		group.GET("/info", a.info)
		group.GET("/modules", a.modules)
		if a.gatherer != nil {
			group.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})))
		}
	})
	a.configured = true
	return nil
}

func (a *Actuator) statuses() ([]moduleStatus, bool) {
	mods := a.lister.Modules()
	out := make([]moduleStatus, 0, len(mods))
	allUp := true
	for _, m := range mods {
		status := StatusUp
		if !m.Running() {
			status = StatusDown
			allUp = false
		}
		out = append(out, moduleStatus{Name: m.Name(), Key: core.KeyOf(m).String(), Status: status})
	}
	return out, allUp
}

func (a *Actuator) health(c *gin.Context) {
	checks, allUp := a.statuses()
	code, status := http.StatusOK, StatusUp
	if !allUp {
		code, status = http.StatusServiceUnavailable, StatusDown
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
	})
}

func (a *Actuator) info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app": gin.H{
			"name":    a.app.Name,
			"version": a.app.Version,
		},
		"runtime": gin.H{
			"go":           runtime.Version(),
			"numGoroutine": runtime.NumGoroutine(),
			"time":         time.Now().UTC().Format(time.RFC3339),
			"pid":          os.Getpid(),
		},
	})
}

func (a *Actuator) modules(c *gin.Context) {
	checks, _ := a.statuses()
	c.JSON(http.StatusOK, checks)
}
