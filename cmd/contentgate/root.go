package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/artpar/contentgate/adapters/sqlite"
	"github.com/artpar/contentgate/bootstrap"
	"github.com/artpar/contentgate/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "contentgate",
	Short: "Template-driven content server",
	Long: `contentgate serves pages rendered from a tree of HTML templates.

Templates declare their editable regions with data-region attributes. The
catalog sync discovers those regions and registers one content type per
template directory; requests are then resolved to a content record and
rendered with its fields, SEO context, menus and embeddable blocks.

Quick start:
  contentgate serve             # Sync templates and start the server
  contentgate sync              # Sync the template catalog once

Inspection:
  contentgate regions <file>    # Show the regions a template declares
  contentgate resolve <path>    # Show how a request path resolves
  contentgate settings list     # Show site settings`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "contentgate.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr while running one-shot commands")
}

// newApp builds the application for a one-shot command. Logs are discarded
// unless --verbose is set.
func newApp() (*bootstrap.App, error) {
	var logOutput io.Writer = io.Discard
	if verbose {
		logOutput = os.Stderr
	}
	a, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		LogOutput:  logOutput,
		Version:    version,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing: %w", err)
	}
	return a, nil
}

// openDatabase opens and migrates the configured SQLite database.
func openDatabase() (*sqlite.DB, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Driver != config.DriverSQLite {
		return nil, fmt.Errorf("database driver %q has no persistent store", cfg.Database.Driver)
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// writeOutput encodes v as json or yaml.
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
