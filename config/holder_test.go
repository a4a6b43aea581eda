package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/artpar/contentgate/config"
	"github.com/rs/zerolog"
)

func TestHolder_Get(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Templates.Root != "site" {
		t.Errorf("Templates.Root = %s, want site", got.Templates.Root)
	}
}

func TestHolder_Reload(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	if lvl := h.Get().Logging.Level; lvl != "info" {
		t.Errorf("initial level = %s, want info", lvl)
	}

	rewrite(t, path, `
templates:
  root: "site"
logging:
  level: "debug"
`)

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if lvl := h.Get().Logging.Level; lvl != "debug" {
		t.Errorf("reloaded level = %s, want debug", lvl)
	}
}

func TestHolder_OnChange(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var mu sync.Mutex
	var received *config.Config
	h.OnChange(func(cfg *config.Config) {
		mu.Lock()
		received = cfg
		mu.Unlock()
	})

	rewrite(t, path, `
templates:
  root: "other"
`)
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if received == nil {
		t.Fatal("OnChange callback was not called")
	}
	if received.Templates.Root != "other" {
		t.Errorf("callback received root = %s, want other", received.Templates.Root)
	}
}

func TestHolder_ReloadInvalidConfig(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	rewrite(t, path, `
logging:
  level: "loud"
`)

	if err := h.Reload(); err == nil {
		t.Error("Reload should fail for invalid config")
	}
	if root := h.Get().Templates.Root; root != "site" {
		t.Errorf("should keep old config, got root = %s", root)
	}
}

func TestHolder_WatchFile(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	changed := make(chan *config.Config, 8)
	h.OnChange(func(cfg *config.Config) {
		select {
		case changed <- cfg:
		default:
		}
	})

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}

	rewrite(t, path, `
templates:
  root: "watched"
`)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changed:
			if cfg.Templates.Root == "watched" {
				return
			}
		case <-deadline:
			t.Fatalf("file watcher did not reload, root = %s", h.Get().Templates.Root)
		}
	}
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if h.Get() == nil {
					t.Error("concurrent Get returned nil")
				}
			}
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Reload()
		}()
	}
	wg.Wait()
}

func TestFieldLists(t *testing.T) {
	contains := func(list []string, s string) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	}

	if !contains(config.ReloadableFields(), "logging.level") {
		t.Error("logging.level should be reloadable")
	}
	for _, f := range []string{"server.port", "database.dsn", "templates.root"} {
		if !contains(config.NonReloadableFields(), f) {
			t.Errorf("%s not in NonReloadableFields", f)
		}
		if contains(config.ReloadableFields(), f) {
			t.Errorf("%s listed as both reloadable and not", f)
		}
	}
}

func TestDiff(t *testing.T) {
	old := &config.Config{}
	old.Logging.Level = "info"
	old.Templates.Root = "site"
	old.Server.Port = 8080

	next := *old
	next.Logging.Level = "debug"
	next.Templates.Root = "other"

	changes := config.Diff(old, &next)
	if len(changes) != 2 {
		t.Fatalf("changes = %+v, want 2", changes)
	}
	if c := changes[0]; c.Field != "logging.level" || !c.Reloadable || c.Old != "info" || c.New != "debug" {
		t.Errorf("changes[0] = %+v", c)
	}
	if c := changes[1]; c.Field != "templates.root" || c.Reloadable {
		t.Errorf("changes[1] = %+v", c)
	}

	if changes := config.Diff(old, old); len(changes) != 0 {
		t.Errorf("identical configs produced %+v", changes)
	}
}

func TestHolder_StopTwice(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}
	h.WatchSignals()

	h.Stop()
	h.Stop()
}

// Helpers

func validConfig() string {
	return `
templates:
  root: "site"
`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contentgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func rewrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
}
