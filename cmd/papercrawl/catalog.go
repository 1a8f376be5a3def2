package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var catalogYAML bool

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the effective catalog and scope",
	Long: `Catalog prints the groups and pages a crawl would visit with the current
configuration. Use --yaml to print the catalog in its file format, e.g. as a
starting point for a custom catalog_file.`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().BoolVar(&catalogYAML, "yaml", false, "print the full catalog as YAML")
}

func runCatalog(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	if catalogYAML {
		data, err := cat.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	selected := cat.Select(cfg.Scope)
	if selected.PageCount() == 0 {
		fmt.Println("No catalog pages match the configured scope.")
		return nil
	}

	rows := [][]string{{"GROUP", "SITE", "YEAR", "URL"}}
	for _, g := range selected.Groups {
		for _, p := range g.Pages {
			rows = append(rows, []string{g.Name, g.Site, p.Year, p.URL})
		}
	}
	printTable(os.Stdout, rows)

	fmt.Printf("\n%d groups, %d pages", len(selected.Groups), selected.PageCount())
	if cfg.Scope.MaxPapers > 0 {
		fmt.Printf(", at most %d papers per page", cfg.Scope.MaxPapers)
	}
	fmt.Println()

	return nil
}
