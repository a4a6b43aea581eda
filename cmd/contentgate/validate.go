package main

import (
	"fmt"
	"os"

	"github.com/artpar/contentgate/adapters/sqlite"
	"github.com/artpar/contentgate/config"
	"github.com/spf13/cobra"
)

var validateCheckDatabase bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the contentgate configuration file.

Checks:
  - YAML syntax is valid
  - Field values are in range
  - Template root exists
  - Database opens and migrates (optional)

Examples:
  contentgate validate
  contentgate validate --config /etc/contentgate/config.yaml --check-database`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check that the database opens and migrates")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)

	if info, err := os.Stat(cfg.Templates.Root); err != nil || !info.IsDir() {
		fmt.Fprintf(out, "  %s Template root: %s\n", crossMark, cfg.Templates.Root)
		return fmt.Errorf("template root is not a directory: %s", cfg.Templates.Root)
	}
	fmt.Fprintf(out, "  %s Template root: %s (*%s)\n", checkMark, cfg.Templates.Root, cfg.Templates.Extension)
	fmt.Fprintf(out, "  %s Listen address: %s\n", checkMark, cfg.Server.Addr())
	fmt.Fprintf(out, "  %s Database: %s (%s)\n", checkMark, cfg.Database.DSN, cfg.Database.Driver)
	fmt.Fprintf(out, "  %s Default module: %s\n", checkMark, cfg.Content.DefaultModule)

	if validateCheckDatabase && cfg.Database.Driver == config.DriverSQLite {
		if err := checkDatabase(cfg.Database.DSN); err != nil {
			fmt.Fprintf(out, "  %s Database migrates\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s Database migrates\n", checkMark)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func checkDatabase(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate()
}
