// Package config provides configuration loading and hot reload.
package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// reloadDebounce coalesces the bursts of events editors emit for one save.
const reloadDebounce = 100 * time.Millisecond

// field is one config value tracked across reloads.
type field struct {
	name       string
	reloadable bool
	get        func(*Config) any
}

// fields lists every value a running server reads from the config. Only the
// log level is applied live; bootstrap reads the rest once.
var fields = []field{
	{"logging.level", true, func(c *Config) any { return c.Logging.Level }},
	{"logging.format", false, func(c *Config) any { return c.Logging.Format }},
	{"server.host", false, func(c *Config) any { return c.Server.Host }},
	{"server.port", false, func(c *Config) any { return c.Server.Port }},
	{"database.driver", false, func(c *Config) any { return c.Database.Driver }},
	{"database.dsn", false, func(c *Config) any { return c.Database.DSN }},
	{"templates.root", false, func(c *Config) any { return c.Templates.Root }},
	{"templates.extension", false, func(c *Config) any { return c.Templates.Extension }},
	{"templates.watch", false, func(c *Config) any { return c.Templates.Watch }},
	{"templates.debounce", false, func(c *Config) any { return c.Templates.Debounce }},
	{"content.default_module", false, func(c *Config) any { return c.Content.DefaultModule }},
	{"settings.refresh_interval", false, func(c *Config) any { return c.Settings.RefreshInterval }},
	{"metrics.enabled", false, func(c *Config) any { return c.Metrics.Enabled }},
	{"metrics.path", false, func(c *Config) any { return c.Metrics.Path }},
}

// Change is one field that differs between two configs.
type Change struct {
	Field      string
	Old, New   any
	Reloadable bool
}

// Diff reports the tracked fields that differ between old and new.
func Diff(old, new *Config) []Change {
	var changes []Change
	for _, f := range fields {
		o, n := f.get(old), f.get(new)
		if reflect.DeepEqual(o, n) {
			continue
		}
		changes = append(changes, Change{Field: f.name, Old: o, New: n, Reloadable: f.reloadable})
	}
	return changes
}

// ReloadableFields returns which fields can be changed without restart.
func ReloadableFields() []string {
	return fieldNames(true)
}

// NonReloadableFields returns which fields require a restart.
func NonReloadableFields() []string {
	return fieldNames(false)
}

func fieldNames(reloadable bool) []string {
	var names []string
	for _, f := range fields {
		if f.reloadable == reloadable {
			names = append(names, f.name)
		}
	}
	return names
}

// Holder provides thread-safe access to configuration with hot reload support.
type Holder struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	logger   zerolog.Logger
	onChange []func(*Config)

	watcher  *fsnotify.Watcher
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewHolder creates a new config holder and loads the initial configuration.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	return &Holder{
		config: cfg,
		path:   absPath,
		logger: logger.With().Str("service", "config").Logger(),
		stop:   make(chan struct{}),
	}, nil
}

// Get returns the current configuration (thread-safe).
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// OnChange registers a callback run after every successful reload.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// Reload reads the file again. An invalid file keeps the current config.
func (h *Holder) Reload() error {
	next, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Str("path", h.path).Msg("config reload failed, keeping current config")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	prev := h.config
	h.config = next
	listeners := append([]func(*Config){}, h.onChange...)
	h.mu.Unlock()

	for _, c := range Diff(prev, next) {
		if c.Reloadable {
			h.logger.Info().Str("field", c.Field).Interface("old", c.Old).Interface("new", c.New).Msg("config value applied")
			continue
		}
		h.logger.Warn().Str("field", c.Field).Interface("old", c.Old).Interface("new", c.New).Msg("config value changed, restart required")
	}

	for _, fn := range listeners {
		fn(next)
	}
	return nil
}

// WatchFile reloads when the config file is written or replaced. The
// parent directory is watched so that editors saving through a rename are
// seen as well.
func (h *Holder) WatchFile() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(h.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	h.watcher = w

	h.wg.Add(1)
	go h.watchLoop(w)

	h.logger.Info().Str("path", h.path).Msg("watching config file")
	return nil
}

// WatchSignals reloads on SIGHUP.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer signal.Stop(sigCh)
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("SIGHUP received")
				_ = h.Reload()
			case <-h.stop:
				return
			}
		}
	}()
}

// Stop ends file and signal watching. It is safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
	h.wg.Wait()
}

func (h *Holder) watchLoop(w *fsnotify.Watcher) {
	defer h.wg.Done()

	name := filepath.Base(h.path)
	timer := time.NewTimer(reloadDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(reloadDebounce)

		case <-timer.C:
			_ = h.Reload()

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("config watcher error")

		case <-h.stop:
			return
		}
	}
}
