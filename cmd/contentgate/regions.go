package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/artpar/contentgate/domain/region"
	"github.com/spf13/cobra"
)

var regionsOutput string

var regionsCmd = &cobra.Command{
	Use:   "regions <file>",
	Short: "Print the regions a template declares",
	Long: `Extract the data-region declarations from one template file and print
the resulting schema. The file is read directly; the catalog is not
touched.

Examples:
  contentgate regions templates/pages/about.html
  contentgate regions templates/blocks/cta.html --output yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runRegions,
}

func init() {
	rootCmd.AddCommand(regionsCmd)

	regionsCmd.Flags().StringVarP(&regionsOutput, "output", "o", "json", "output format: json, yaml")
}

func runRegions(cmd *cobra.Command, args []string) error {
	file := args[0]
	markup, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	tplPath := strings.TrimSuffix(filepath.ToSlash(file), filepath.Ext(file))
	schema := region.TemplateSchema{
		TemplatePath: tplPath,
		DisplayName:  region.DisplayName(tplPath),
		Regions:      region.Extract(string(markup)),
	}
	return writeOutput(cmd.OutOrStdout(), regionsOutput, schema)
}
