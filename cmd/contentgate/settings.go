package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/artpar/contentgate/adapters/sqlite"
	"github.com/artpar/contentgate/domain/settings"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage site settings",
	Long: `Manage site settings stored in the database.

Settings feed the site context every template receives: the site URL used
for canonical links, the site name, the home page record and the default
meta description. Any other key is exposed to templates as .Site.Values.

Examples:
  contentgate settings list
  contentgate settings get site.url
  contentgate settings set site.url https://example.com
  contentgate settings set site.home_record_id rec_123`,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all settings",
	RunE:  runSettingsList,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a setting value",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting value",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a stored setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsDelete,
}

func init() {
	rootCmd.AddCommand(settingsCmd)

	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsDeleteCmd)
}

func loadSettings() (settings.Settings, error) {
	db, err := openDatabase()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	stored, err := sqlite.NewSettingsStore(db).GetAll(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return stored, nil
}

func runSettingsList(cmd *cobra.Command, args []string) error {
	stored, err := loadSettings()
	if err != nil {
		return err
	}
	merged := settings.Merge(stored)

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE\tSOURCE")
	fmt.Fprintln(w, "---\t-----\t------")
	for _, key := range keys {
		source := "stored"
		if _, ok := stored[key]; !ok {
			source = "default"
		}
		// Truncate long values for display
		value := merged[key]
		if len(value) > 50 {
			value = value[:47] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", key, value, source)
	}
	return w.Flush()
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	setting, err := sqlite.NewSettingsStore(db).Get(context.Background(), args[0])
	if errors.Is(err, sqlite.ErrNotFound) {
		value, ok := settings.Defaults()[args[0]]
		if !ok {
			return fmt.Errorf("setting not found: %s", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get setting: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), setting.Value)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlite.NewSettingsStore(db).Set(context.Background(), args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Set %s\n", checkMark, args[0])
	return nil
}

func runSettingsDelete(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlite.NewSettingsStore(db).Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %s\n", checkMark, args[0])
	return nil
}
