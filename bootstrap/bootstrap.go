// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/contentgate/adapters/clock"
	contenthttp "github.com/artpar/contentgate/adapters/http"
	"github.com/artpar/contentgate/adapters/idgen"
	"github.com/artpar/contentgate/adapters/memory"
	"github.com/artpar/contentgate/adapters/metrics"
	"github.com/artpar/contentgate/adapters/render"
	"github.com/artpar/contentgate/adapters/sqlite"
	"github.com/artpar/contentgate/app"
	"github.com/artpar/contentgate/config"
	"github.com/artpar/contentgate/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Stores are the storage adapters the application runs on.
type Stores struct {
	Templates    ports.TemplateStore
	ContentTypes ports.ContentTypeStore
	Content      ports.ContentStore
	Menus        ports.MenuStore
	Settings     ports.SettingsStore
}

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	DB         *sqlite.DB     // nil with the memory driver
	Memory     *memory.Stores // nil with the sqlite driver
	Stores     Stores
	HTTPServer *http.Server
	Metrics    *metrics.Collector
	Registry   *prometheus.Registry
	Settings   *app.SettingsService
	Renderer   *render.Renderer
	Catalog    *app.CatalogService
	Resolver   *app.Resolver

	holder  *config.Holder
	watcher *app.TemplateWatcher
	ctx     context.Context // cancelled on Shutdown
	cancel  context.CancelFunc
}

// Options configures application initialization.
type Options struct {
	// ConfigPath is the YAML file to load. A missing file falls back to
	// CONTENTGATE_* environment variables.
	ConfigPath string

	// Config is used as is when set; ConfigPath is then ignored.
	Config *config.Config

	// Memory forces the in-memory store regardless of database.driver.
	Memory bool

	// LogOutput overrides the log destination (default stdout).
	LogOutput io.Writer

	Version string
}

// New creates and initializes the application.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.LoadWithFallback(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if opts.Memory {
		cfg.Database.Driver = config.DriverMemory
	}

	logger := NewLogger(cfg.Logging, opts.LogOutput)
	logger.Info().Str("version", opts.Version).Msg("initializing contentgate")

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		Logger: logger,
		Config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := a.initStores(); err != nil {
		cancel()
		return nil, fmt.Errorf("init stores: %w", err)
	}

	a.Settings = app.NewSettingsService(a.Stores.Settings, logger)
	if err := a.Settings.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to load settings, using defaults")
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.NewWithRegistry(a.Registry)

	if err := a.initContent(); err != nil {
		a.close()
		return nil, err
	}

	a.initHTTPServer(opts.Version)

	if opts.Config == nil && opts.ConfigPath != "" {
		if _, err := os.Stat(opts.ConfigPath); err == nil {
			a.initHolder(opts.ConfigPath)
		}
	}

	return a, nil
}

func (a *App) initStores() error {
	switch a.Config.Database.Driver {
	case config.DriverMemory:
		m := memory.New()
		a.Memory = m
		a.Stores = Stores{
			Templates:    m.Templates,
			ContentTypes: m.ContentTypes,
			Content:      m.Content,
			Menus:        m.Menus,
			Settings:     m.Settings,
		}
		a.Logger.Info().Msg("using in-memory store")
		return nil

	default:
		dsn := a.Config.Database.DSN
		db, err := sqlite.Open(dsn)
		if err != nil {
			return err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return fmt.Errorf("migrate: %w", err)
		}
		a.DB = db
		a.Stores = Stores{
			Templates:    sqlite.NewTemplateStore(db),
			ContentTypes: sqlite.NewContentTypeStore(db),
			Content:      sqlite.NewContentStore(db),
			Menus:        sqlite.NewMenuStore(db),
			Settings:     sqlite.NewSettingsStore(db),
		}
		a.Logger.Info().Str("dsn", dsn).Msg("database initialized")
		return nil
	}
}

func (a *App) initContent() error {
	tc := a.Config.Templates
	fsys := os.DirFS(tc.Root)

	a.Renderer = render.New(fsys, tc.Extension)

	a.Catalog = app.NewCatalogService(
		fsys,
		a.Stores.Templates,
		a.Stores.ContentTypes,
		a.Renderer,
		clock.System,
		idgen.Prefixed("tpl_"),
		a.Metrics,
		a.Logger,
		app.CatalogConfig{
			Extension:     tc.Extension,
			DefaultModule: a.Config.Content.DefaultModule,
			Workers:       tc.Workers,
		},
	)
	if err := a.Catalog.EnsureSystemTypes(a.ctx); err != nil {
		return fmt.Errorf("register system content types: %w", err)
	}

	a.Resolver = app.NewResolver(
		app.Stores{
			Templates:    a.Stores.Templates,
			ContentTypes: a.Stores.ContentTypes,
			Content:      a.Stores.Content,
			Menus:        a.Stores.Menus,
		},
		a.Settings,
		a.Renderer,
		a.Metrics,
		a.Logger,
		app.ResolverConfig{DefaultModule: a.Config.Content.DefaultModule},
	)
	return nil
}

func (a *App) initHTTPServer(version string) {
	cfg := a.Config

	routerCfg := contenthttp.RouterConfig{
		Metrics:        a.Metrics,
		CatalogHandler: contenthttp.NewCatalogHandler(a.Catalog, a.Stores.Templates, a.Stores.ContentTypes, a.Logger).Router(),
		Version:        version,
		RequestTimeout: cfg.Server.WriteTimeout,
	}
	// Metrics are always collected; the flag only exposes the endpoint.
	if cfg.Metrics.Enabled {
		routerCfg.MetricsPath = cfg.Metrics.Path
		routerCfg.MetricsHandler = promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
		a.Logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	site := contenthttp.NewSiteHandler(a.Resolver, a.Renderer, a.Logger)
	router := contenthttp.NewRouter(site, a.Logger, routerCfg)

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

func (a *App) initHolder(path string) {
	h, err := config.NewHolder(path, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("config hot reload disabled")
		return
	}
	h.OnChange(func(cfg *config.Config) {
		level, err := zerolog.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return
		}
		zerolog.SetGlobalLevel(level)
	})
	a.holder = h
}

// Start runs the background work: the initial catalog sync, the settings
// reload loop, the template watcher and config hot reload. It does not
// start the HTTP server.
func (a *App) Start() error {
	tc := a.Config.Templates

	if tc.ShouldSyncOnStart() {
		if _, err := a.Catalog.Sync(a.ctx); err != nil {
			a.Logger.Error().Err(err).Msg("initial catalog sync failed, serving the stored catalog")
		}
	}

	a.Settings.Start(a.ctx, a.Config.Settings.RefreshInterval)

	if tc.Watch {
		w, err := app.NewTemplateWatcher(tc.Root, a.Catalog, tc.Debounce, a.Logger)
		if err != nil {
			return fmt.Errorf("watch templates: %w", err)
		}
		a.watcher = w
		go w.Run(a.ctx)
	}

	if a.holder != nil {
		if err := a.holder.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watch disabled")
		}
		a.holder.WatchSignals()
	}
	return nil
}

// Run starts the background work and the HTTP server, and blocks until
// SIGINT or SIGTERM.
func (a *App) Run() error {
	if err := a.Start(); err != nil {
		a.Shutdown()
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Str("templates", a.Config.Templates.Root).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application. A sync in flight is
// cancelled.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	a.cancel()

	if a.watcher != nil {
		select {
		case <-a.watcher.Done():
		case <-ctx.Done():
		}
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.holder != nil {
		a.holder.Stop()
		a.holder = nil
	}

	a.close()
	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func (a *App) close() {
	a.cancel()
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
		a.DB = nil
	}
}

// NewLogger builds the process logger and sets the global level.
// Unknown levels fall back to info.
func NewLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(out).With().Timestamp().Logger()
}
