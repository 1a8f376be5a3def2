package main

import (
	"os"

	"github.com/pevans/papercrawl/sites"
	"github.com/spf13/cobra"
)

// sitesCmd represents the sites command
var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the site identifiers the crawler can extract",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry := sites.Default()

		rows := [][]string{{"SITE", "ENCODING", "DESCRIPTION"}}
		for _, id := range registry.IDs() {
			site, _ := registry.Lookup(id)
			encoding := site.Encoding
			if encoding == "" {
				encoding = "declared"
			}
			rows = append(rows, []string{site.ID, encoding, site.Description})
		}

		printTable(os.Stdout, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}
