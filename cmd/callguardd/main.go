package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/haukened/callguard/internal/guard/common/clock"
	"github.com/haukened/callguard/internal/guard/common/log"
	"github.com/haukened/callguard/internal/guard/config"
	"github.com/haukened/callguard/internal/guard/domain"
	"github.com/haukened/callguard/internal/guard/gateways/advisory"
	"github.com/haukened/callguard/internal/guard/gateways/feed"
	"github.com/haukened/callguard/internal/guard/gateways/feed/bolt"
	"github.com/haukened/callguard/internal/guard/gateways/httpapi"
	"github.com/haukened/callguard/internal/guard/metrics"
	"github.com/haukened/callguard/internal/guard/repos/denylist"
	"github.com/haukened/callguard/internal/guard/repos/denylist/bloom"
	"github.com/haukened/callguard/internal/guard/repos/denylist/lru"
	"github.com/haukened/callguard/internal/guard/repos/eventlog"
	"github.com/haukened/callguard/internal/guard/repos/reportqueue"
	"github.com/haukened/callguard/internal/guard/services/detector"
	"github.com/haukened/callguard/internal/guard/services/evaluator"
	"github.com/haukened/callguard/internal/guard/services/lexicon"
	"github.com/haukened/callguard/internal/guard/services/refresh"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "callguardd"

	defaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

// Application holds all the components of the call guard daemon
type Application struct {
	config    *config.AppConfig
	server    *http.Server
	refresher *refresh.Refresher
	simulator *detector.Simulator
	closers   []func() error

	mu   sync.Mutex
	addr string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info(map[string]any{
		"app":            appName,
		"version":        version,
		"env":            cfg.Env,
		"log_level":      cfg.LogLevel,
		"port":           cfg.Port,
		"cache_size":     cfg.CacheSize,
		"event_log_size": cfg.EventLogSize,
		"feed_dir":       cfg.FeedDir,
		"feed_db":        cfg.FeedDB,
		"keywords":       cfg.Keywords,
	}, "Starting call guard")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, "Call guard stopped gracefully")
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	clk := &clock.RealClock{}
	logger := log.GetLogger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	repos, err := buildRepositories(cfg, logger, m)
	if err != nil {
		return nil, fmt.Errorf("failed to build repositories: %w", err)
	}

	gws, err := buildGateways(cfg, clk, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateways: %w", err)
	}

	engine := evaluator.NewEngine(evaluator.EngineOptions{
		Denylist:  repos.denylist,
		Scorer:    lexicon.New(cfg.Keywords),
		Reports:   repos.reports,
		Clock:     clk,
		Logger:    log.Component(logger, "evaluator"),
		Metrics:   m,
		Observers: []evaluator.Observer{repos.events},
	})

	refresher := refresh.New(refresh.Options{
		Supplier: gws.supplier,
		Store:    repos.denylist,
		Advisory: gws.advisory,
		Clock:    clk,
		Logger:   log.Component(logger, "refresh"),
		Metrics:  m,
	})

	var sim *detector.Simulator
	if !cfg.DisableSimulator {
		sim = detector.NewSimulator(detector.SimulatorOptions{
			Sink:     repos.events,
			Interval: cfg.SimulatorInterval,
			Clock:    clk,
			Logger:   log.Component(logger, "simulator"),
			Metrics:  m,
		})
	}

	handler := httpapi.NewHandler(httpapi.HandlerOptions{
		Evaluator: engine,
		Denylist:  repos.denylist,
		Refresher: refresher,
		Reports:   repos.reports,
		Events:    repos.events,
		Advisory:  gws.advisory,
		Defaults:  domain.DefaultOptions(),
		Logger:    log.Component(logger, "httpapi"),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpapi.NewRouter(handler, reg),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return &Application{
		config:    cfg,
		server:    server,
		refresher: refresher,
		simulator: sim,
		closers:   gws.closers,
	}, nil
}

// repositories holds all repository implementations
type repositories struct {
	denylist *denylist.Store
	reports  *reportqueue.Queue
	events   *eventlog.Log
}

// gateways holds all gateway implementations
type gateways struct {
	supplier feed.Supplier
	advisory *advisory.Rotator
	closers  []func() error
}

// buildRepositories creates and configures all repository implementations
func buildRepositories(cfg *config.AppConfig, logger log.Logger, m *metrics.Metrics) (*repositories, error) {
	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create decision cache: %w", err)
	}
	log.Info(map[string]any{
		"type": "LRU",
		"size": cfg.CacheSize,
	}, "Denylist decision cache configured")

	store := denylist.New(denylist.Options{
		Cache:   cache,
		Factory: bloom.NewFactory(),
		FPRate:  cfg.BloomFPRate,
		Logger:  log.Component(logger, "denylist"),
	})

	return &repositories{
		denylist: store,
		reports:  reportqueue.New(log.Component(logger, "reportqueue")),
		events: eventlog.New(eventlog.Options{
			Capacity: cfg.EventLogSize,
			Logger:   log.Component(logger, "eventlog"),
			Metrics:  m,
		}),
	}, nil
}

// buildGateways creates the authority feed and advisory source
func buildGateways(cfg *config.AppConfig, clk clock.Clock, logger log.Logger) (*gateways, error) {
	gw := &gateways{advisory: advisory.NewRotator(advisory.DefaultAdvisories)}

	var supplier feed.Supplier
	if cfg.FeedDir != "" {
		supplier = feed.NewDirectory(cfg.FeedDir, clk, log.Component(logger, "feed"))
		log.Info(map[string]any{"feed_dir": cfg.FeedDir}, "Authority list directory configured")
	} else {
		supplier = feed.NewStatic(feed.DefaultSeed)
		log.Info(map[string]any{"entries": len(feed.DefaultSeed)}, "Using built-in authority list")
	}

	if cfg.FeedDB != "" {
		store, err := bolt.New(cfg.FeedDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open feed mirror %s: %w", cfg.FeedDB, err)
		}
		gw.closers = append(gw.closers, store.Close)
		supplier = feed.NewMirror(feed.MirrorOptions{
			Primary: supplier,
			Store:   store,
			Clock:   clk,
			Logger:  log.Component(logger, "feed"),
		})
		st := store.Stats()
		log.Info(map[string]any{
			"feed_db": cfg.FeedDB,
			"entries": st.Count,
			"version": st.Version,
		}, "Authority list mirror opened")
	}

	gw.supplier = supplier
	return gw, nil
}

// Address returns the bound HTTP address once Run is listening.
func (app *Application) Address() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.addr
}

// Run seeds the denylist, starts the simulator and the HTTP server, and blocks
// until ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	notice := app.refresher.Seed(ctx)
	switch {
	case notice.Stale:
		log.Warn(map[string]any{"message": notice.Message, "entries": notice.Accepted}, "Starting with a stale authority list")
	case !notice.OK:
		log.Warn(map[string]any{"message": notice.Message}, "Starting with an empty authority list")
	}

	ln, err := net.Listen("tcp", app.server.Addr)
	if err != nil {
		app.close()
		return fmt.Errorf("failed to listen on %s: %w", app.server.Addr, err)
	}
	app.mu.Lock()
	app.addr = ln.Addr().String()
	app.mu.Unlock()

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var wg sync.WaitGroup
	if app.simulator != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.simulator.Run(runCtx)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.server.Serve(ln)
	}()

	log.Info(map[string]any{
		"address":   app.Address(),
		"authority": notice.Accepted,
	}, "Call guard API started")

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		stop()
		wg.Wait()
		app.close()
		return fmt.Errorf("http server: %w", err)
	}

	log.Info(nil, "Shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	err = app.server.Shutdown(shutdownCtx)
	stop()
	wg.Wait()
	app.close()

	if err != nil {
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout, "error": err}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info(nil, "Graceful shutdown completed")
	return nil
}

func (app *Application) close() {
	for _, c := range app.closers {
		if err := c(); err != nil {
			log.Warn(map[string]any{"error": err}, "Error closing resource")
		}
	}
	app.closers = nil
}
