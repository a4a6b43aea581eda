package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/artpar/contentgate/app"
	"github.com/artpar/contentgate/ports"
	"github.com/spf13/cobra"
)

var (
	resolveSync   bool
	resolveRender bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Show how a request path resolves",
	Long: `Resolve a request path the way the server would and print the chosen
template, record and SEO context. With --render the page HTML is
printed instead.

Examples:
  contentgate resolve /about
  contentgate resolve /products --sync
  contentgate resolve /about --render`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().BoolVar(&resolveSync, "sync", false, "sync the template catalog first")
	resolveCmd.Flags().BoolVar(&resolveRender, "render", false, "print the rendered page")
}

func runResolve(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Shutdown()

	ctx := context.Background()
	if resolveSync {
		if _, err := a.Catalog.Sync(ctx); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
	}

	rc, err := a.Resolver.Resolve(ctx, args[0])
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, app.ErrNotFound) {
			status = http.StatusNotFound
		}
		return fmt.Errorf("%s %d %s: %w", crossMark, status, http.StatusText(status), err)
	}

	out := cmd.OutOrStdout()
	if resolveRender {
		var blocks ports.BlockRenderer
		if rc.Blocks != nil {
			blocks = rc.Blocks
		}
		return a.Renderer.Render(out, rc.Template, rc, blocks)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Path:\t%s\n", rc.Path)
	fmt.Fprintf(w, "Template:\t%s\n", rc.Template)
	if rc.IsIndex {
		fmt.Fprintf(w, "Listing:\t%s (%d records)\n", rc.ContentType.Name, len(rc.Records))
	} else {
		fmt.Fprintf(w, "Content:\t%s (%s)\n", rc.Content.ID, rc.Content.Title)
		fmt.Fprintf(w, "Module:\t%s\n", rc.Content.Module)
	}
	fmt.Fprintf(w, "Regions:\t%s\n", strings.Join(rc.Schema.Names(), ", "))
	fmt.Fprintf(w, "Title:\t%s\n", rc.SEO.Title)
	fmt.Fprintf(w, "Description:\t%s\n", rc.SEO.Description)
	fmt.Fprintf(w, "Canonical:\t%s\n", rc.SEO.Canonical)
	fmt.Fprintf(w, "Robots:\t%s\n", rc.SEO.Robots)
	return w.Flush()
}
