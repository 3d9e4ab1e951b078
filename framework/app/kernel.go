// Package app is the application kernel. It owns the catalog the providers
// register into, the resolver pool, the router and the metrics, and runs the
// two bootstrap phases in Boot.
//
//	application := app.New(cfg, logger)
//	application.Register(&greeting.Provider{})
//	if err := application.Run(ctx); err != nil { ... }
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-resolver/framework/catalog"
	"github.com/km-arc/go-resolver/framework/config"
	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/manifest"
	"github.com/km-arc/go-resolver/framework/metrics"
	"github.com/km-arc/go-resolver/framework/routing"
)

const shutdownTimeout = 10 * time.Second

// Application is the top-level application.
type Application struct {
	Config    *config.Config
	Logger    *zap.Logger
	Catalog   *catalog.Catalog
	Pool      *container.Pool
	Providers *ProviderRegistry
	Metrics   *metrics.Collector
	Router    *routing.Router

	boot      sync.Mutex
	mu        sync.RWMutex
	booted    bool
	consumers []any
}

// New creates the application. Nothing is scanned until Boot.
func New(cfg *config.Config, logger *zap.Logger) *Application {
	if logger == nil {
		logger = zap.NewNop()
	}
	collector := metrics.NewCollector(metricNamespace(cfg.App.Name))

	router := routing.New(logger)
	router.Middleware(collector.Middleware)

	a := &Application{
		Config:  cfg,
		Logger:  logger,
		Catalog: catalog.New(),
		Pool: container.NewPool(
			container.WithPoolLogger(logger),
			container.WithPoolObserver(collector),
		),
		Metrics: collector,
		Router:  router,
	}
	a.Providers = NewProviderRegistry(a)
	return a
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider ServiceProvider) error {
	return a.Providers.Register(provider)
}

// ── Bootstrap ─────────────────────────────────────────────────────────────────

// Boot runs the bootstrap once:
//  1. merge the provider manifests and the configured manifest file
//  2. bind the framework services, then scan every resolver into the pool
//  3. resolve the pool and build the consumers
//  4. mount the consumers that have routes, plus /metrics
//  5. boot the providers
//
// Later calls are no-ops. A failed Boot leaves the application unusable.
func (a *Application) Boot() error {
	a.boot.Lock()
	defer a.boot.Unlock()
	if a.Booted() {
		return nil
	}
	start := time.Now()

	m, err := a.Manifest()
	if err != nil {
		return err
	}

	opts := a.scanOptions()
	framework, err := a.frameworkResolver(opts...)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if _, err := a.Pool.Add(framework); err != nil {
		return fmt.Errorf("app: %w", err)
	}

	if _, err := m.Build(a.Catalog, a.Pool, opts...); err != nil {
		return err
	}
	consumers, err := m.Bootstrap(a.Catalog, a.Pool)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.consumers = consumers
	a.mu.Unlock()

	mounted := 0
	for _, consumer := range consumers {
		if mt, ok := consumer.(routing.Mountable); ok {
			a.Router.Mount(mt)
			mounted++
		}
	}
	a.Router.Handle("/metrics", a.Metrics.Handler())

	if err := a.Providers.Boot(); err != nil {
		return err
	}
	a.mu.Lock()
	a.booted = true
	a.mu.Unlock()

	a.Logger.Info("application booted",
		zap.Strings("resolvers", a.Pool.Namespaces()),
		zap.Int("consumers", len(consumers)),
		zap.Int("mounted", mounted),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Manifest is the layout Boot uses: the provider manifests merged in
// registration order, with the configured manifest file on top.
func (a *Application) Manifest() (manifest.Manifest, error) {
	m := a.Providers.Manifest()
	if path := a.Config.Resolver.Manifest; path != "" {
		file, err := manifest.Load(path)
		if err != nil {
			return manifest.Manifest{}, err
		}
		m = m.Merge(file)
	}
	if err := m.Validate(); err != nil {
		return manifest.Manifest{}, err
	}
	return m, nil
}

func (a *Application) scanOptions() []container.Option {
	opts := []container.Option{
		container.WithLogger(a.Logger),
		container.WithObserver(a.Metrics),
		container.Workers(a.Config.Resolver.Workers),
	}
	if a.Config.Resolver.Strict {
		opts = append(opts, container.Strict())
	}
	return opts
}

// Booted reports whether Boot succeeded.
func (a *Application) Booted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.booted
}

// Consumers returns the consumers built by Boot.
func (a *Application) Consumers() []any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]any(nil), a.consumers...)
}

// ── Introspection ─────────────────────────────────────────────────────────────

// Binding is one row of the pool's binding table.
type Binding struct {
	Namespace      string
	Contract       string
	Qualifier      string
	Implementation string
}

// Bindings lists every binding of every resolver, in pool order.
func (a *Application) Bindings() []Binding {
	var out []Binding
	for _, r := range a.Pool.ResolversExcept("") {
		for _, key := range r.Bindings() {
			b := Binding{
				Namespace: r.Namespace(),
				Contract:  key.Contract.String(),
				Qualifier: key.Qualifier,
			}
			if instance, err := r.Implementation(key.Contract, key.Qualifier); err == nil {
				b.Implementation = reflect.TypeOf(instance).String()
			}
			out = append(out, b)
		}
	}
	return out
}

// ── Serving ───────────────────────────────────────────────────────────────────

// Handler boots the application if needed and returns its router.
func (a *Application) Handler() (http.Handler, error) {
	if err := a.Boot(); err != nil {
		return nil, err
	}
	return a.Router, nil
}

// Run boots the application and serves HTTP on APP_PORT until ctx is
// cancelled. The server is shut down gracefully and the pool destroyed
// before Run returns.
func (a *Application) Run(ctx context.Context) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}
	defer a.Pool.Destroy()

	srv := &http.Server{
		Addr:              a.Config.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	a.Logger.Info("http server started",
		zap.String("app", a.Config.App.Name),
		zap.String("addr", srv.Addr),
		zap.String("env", a.Config.App.Env),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	return nil
}

// ── Environment ───────────────────────────────────────────────────────────────

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config.App.Debug }

// metricNamespace turns an app name into a valid Prometheus namespace.
func metricNamespace(name string) string {
	ns := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
	if ns == "" || (ns[0] >= '0' && ns[0] <= '9') {
		ns = "app_" + ns
	}
	return ns
}
