package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/skekre98/arc/actuator"
	"github.com/skekre98/arc/config"
	"github.com/skekre98/arc/config/source"
	"github.com/skekre98/arc/core"
	"github.com/skekre98/arc/httpclient"
	"github.com/skekre98/arc/logging"
	"github.com/skekre98/arc/metrics"
	"github.com/skekre98/arc/probe"
	"github.com/skekre98/arc/web"
)

func main() {
	// 1) config
	var cfg config.Root
	cfgMgr, err := config.NewManager(&cfg, config.Options{},
		&config.DefaultsSource{},
		&source.FileSource{BasePath: "configs", Profile: os.Getenv("ARC_PROFILE"), Optional: true},
		&source.EnvSource{},
		&source.CLISource{},
	)
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	defer cfgMgr.Close()

	// 2) logging
	logger := logging.New(cfg.Logging).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
	)

	// 3) metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// 4) modules
	mgr := core.NewManager(core.WithLogger(logger), core.WithObserver(collector))
	mgr.AddModule(
		httpclient.New(cfg.HTTPClient),
		probe.New(cfg.Probe, logger),
	)
	if cfg.Server.Enabled {
		var gatherer prometheus.Gatherer
		if cfg.Observability.Metrics.Enabled {
			gatherer = reg
		}
		mgr.AddModule(
			web.New(cfg.Server, logger, web.WithRoutes(func(r web.Router) {
				r.GET("/hello", func(c *gin.Context) {
					c.JSON(200, gin.H{"message": "world"})
				})
			})),
			actuator.New(cfg.App, cfg.Actuator, mgr, gatherer),
		)
	}

	// 5) run
	if err := core.NewApp(logger, mgr).Run(context.Background()); err != nil {
		logger.Error("app error", "error", err)
		os.Exit(1)
	}
}
