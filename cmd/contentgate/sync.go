package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/artpar/contentgate/app"
	"github.com/spf13/cobra"
)

var syncOutput string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the template catalog",
	Long: `Walk the template tree, extract every template's regions and store the
resulting schemas. A content type is registered for each new top-level
template directory.

Examples:
  contentgate sync
  contentgate sync --output json`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVarP(&syncOutput, "output", "o", "table", "output format: table, json, yaml")
}

// syncReport is the printable form of a sync result.
type syncReport struct {
	Templates    []syncTemplate    `json:"templates" yaml:"templates"`
	Created      int               `json:"created" yaml:"created"`
	Updated      int               `json:"updated" yaml:"updated"`
	Unchanged    int               `json:"unchanged" yaml:"unchanged"`
	ContentTypes []string          `json:"content_types_registered" yaml:"content_types_registered"`
	Skipped      []app.SkippedFile `json:"skipped" yaml:"skipped"`
	DurationMS   int64             `json:"duration_ms" yaml:"duration_ms"`
}

type syncTemplate struct {
	Path        string `json:"path" yaml:"path"`
	ContentType string `json:"content_type" yaml:"content_type"`
	Regions     int    `json:"regions" yaml:"regions"`
}

func newSyncReport(res app.SyncResult) syncReport {
	report := syncReport{
		Templates:    make([]syncTemplate, 0, len(res.Templates)),
		Created:      res.Created,
		Updated:      res.Updated,
		Unchanged:    res.Unchanged,
		ContentTypes: res.ContentTypes,
		Skipped:      res.Skipped,
		DurationMS:   res.Duration.Milliseconds(),
	}
	for _, s := range res.Templates {
		report.Templates = append(report.Templates, syncTemplate{
			Path:        s.TemplatePath,
			ContentType: s.ContentType,
			Regions:     len(s.Regions),
		})
	}
	if report.ContentTypes == nil {
		report.ContentTypes = []string{}
	}
	if report.Skipped == nil {
		report.Skipped = []app.SkippedFile{}
	}
	return report
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Shutdown()

	res, err := a.Catalog.Sync(context.Background())
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	report := newSyncReport(res)

	out := cmd.OutOrStdout()
	if syncOutput != "table" {
		return writeOutput(out, syncOutput, report)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TEMPLATE\tCONTENT TYPE\tREGIONS")
	fmt.Fprintln(w, "--------\t------------\t-------")
	for _, t := range report.Templates {
		fmt.Fprintf(w, "%s\t%s\t%d\n", t.Path, t.ContentType, t.Regions)
	}
	w.Flush()

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s Synced %d templates in %dms (%d created, %d updated, %d unchanged)\n",
		checkMark, len(report.Templates), report.DurationMS, report.Created, report.Updated, report.Unchanged)
	if len(report.ContentTypes) > 0 {
		fmt.Fprintf(out, "%s Registered content types: %s\n", checkMark, strings.Join(report.ContentTypes, ", "))
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(out, "%s Skipped %s: %s\n", crossMark, s.Path, s.Reason)
	}
	return nil
}
