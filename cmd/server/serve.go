package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cityos/internal/adapter"
	"cityos/internal/cache"
	"cityos/internal/config"
	"cityos/internal/handler"
	"cityos/internal/hub"
	"cityos/internal/logging"
	"cityos/internal/repository/sqlite"
	"cityos/internal/service"
	"cityos/internal/telemetry"
	"cityos/internal/watcher"
)

var (
	serveAddr  string
	serveWatch bool
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the CityOS HTTP API: government data proxies, question answering,
the demo console simulation and the /events stream.

With --watch, edits to the config file retune the demo loop without a restart.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload demo settings when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	logger.Info("starting cityos", zap.String("config", cfgPath), zap.String("summary", cfg.Summary()))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	responses, err := cache.Open(ctx, cfg.Cache.RedisURL)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer responses.Close()

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()
	logger.Info("database opened", zap.String("path", cfg.Database.Path))

	bus := service.NewEventBus()

	registry, err := adapter.Bootstrap(cfg.Upstream, responses, cfg.Cache.TTL, logger, func(res adapter.ProbeResult) {
		bus.Publish(service.Event{Type: service.EventSourceStatus, Payload: res})
	})
	if err != nil {
		return fmt.Errorf("bootstrap adapters: %w", err)
	}
	if err := registry.Start(ctx); err != nil {
		return fmt.Errorf("start adapters: %w", err)
	}
	defer registry.Stop()

	llm := adapter.NewCompleter(cfg.LLM, logging.Named(logger, "llm"))
	if llm == nil {
		logger.Info("no LLM configured, using deterministic answers")
	}
	renderer := adapter.NewQuickChart(cfg.Upstream.QuickChartURL, cfg.Upstream.Timeout.Duration(), logging.Named(logger, "quickchart"))

	analysis := service.NewAnalysisService(registry, llm, repo, bus, cfg.Analysis, logging.Named(logger, "analysis"))
	demo := service.NewDemoService(cfg.Demo, cfg.Location(), repo, bus, logging.Named(logger, "demo"))
	defer demo.Stop()

	events := hub.New(hub.WithLogger(logging.Named(logger, "hub")))
	relay := make(chan service.Event, 100)
	bus.Subscribe(relay)
	defer bus.Unsubscribe(relay)

	router := handler.NewRouter(handler.Deps{
		Gov: handler.NewGovHandler(service.NewGovDataService(registry, logging.Named(logger, "govdata")), logger),
		AI: handler.NewAIHandler(
			analysis,
			service.NewAskService(cfg.Analysis.AskDelay.Duration()),
			service.NewChatService(llm, logging.Named(logger, "chat")),
			service.NewChartService(renderer, logging.Named(logger, "chart")),
			logger,
		),
		Demo:       handler.NewDemoHandler(demo, logger),
		Urban:      handler.NewUrbanHandler(),
		Leads:      handler.NewLeadHandler(service.NewLeadService(repo, bus, logging.Named(logger, "leads")), logger),
		System:     handler.NewSystemHandler(registry),
		Events:     events,
		CORSOrigin: cfg.Server.CORSOrigin,
		Logger:     logging.Named(logger, "http"),
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout.Duration(),
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events.Run(gctx)
		return nil
	})
	g.Go(func() error {
		events.Relay(gctx, relay)
		return nil
	})
	if cfg.Demo.AutoStart {
		demo.Start(gctx)
	}
	if serveWatch && cfgPath != "" {
		g.Go(func() error {
			w := watcher.New(cfgPath, func() { reloadDemo(gctx, demo) }).WithLogger(logging.Named(logger, "watcher"))
			if err := w.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("config watch stopped", zap.Error(err))
			}
			return nil
		})
	}
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		demo.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

// reloadDemo applies the demo section of the edited config file
func reloadDemo(ctx context.Context, demo *service.DemoService) {
	next, _, err := config.LoadFromPath(cfgPath)
	if err != nil {
		logger.Warn("config reload failed, keeping current settings", zap.Error(err))
		return
	}

	demo.SetInterval(next.Demo.TickInterval.Duration())
	switch {
	case next.Demo.AutoStart && !demo.Running():
		demo.Start(ctx)
	case !next.Demo.AutoStart && demo.Running():
		demo.Stop()
	}
	logger.Info("demo settings reloaded",
		zap.Duration("interval", demo.Interval()),
		zap.Bool("running", demo.Running()),
	)
}
