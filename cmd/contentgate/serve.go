package main

import (
	"fmt"
	"os"

	"github.com/artpar/contentgate/bootstrap"
	"github.com/spf13/cobra"
)

var serveMemory bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the content server",
	Long: `Start the contentgate HTTP server.

The server will:
  - Load configuration from contentgate.yaml (or --config)
  - Or load configuration from CONTENTGATE_* environment variables
  - Open the database and apply migrations
  - Sync the template catalog (unless templates.sync_on_start is false)
  - Watch the template tree when templates.watch is set
  - Serve rendered pages, /healthz and the catalog API

Environment variables:
  CONTENTGATE_TEMPLATES_ROOT   - Template tree (default: templates)
  CONTENTGATE_DATABASE_DSN     - Database path (default: contentgate.db)
  CONTENTGATE_SERVER_PORT      - Server port (default: 8080)
  CONTENTGATE_LOG_LEVEL        - Log level: debug, info, warn, error

Examples:
  contentgate serve
  contentgate serve --config /etc/contentgate/config.yaml
  contentgate serve --memory`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "use the in-memory store instead of the database")
}

func runServe(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "No config file at %s, using environment variables\n", cfgFile)
	}

	a, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Memory:     serveMemory,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return a.Run()
}
