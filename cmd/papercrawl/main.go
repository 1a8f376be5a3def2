// Command papercrawl harvests paper metadata, PDFs and abstracts from
// conference and journal proceedings sites.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pevans/papercrawl/catalog"
	"github.com/pevans/papercrawl/config"
	"github.com/pevans/papercrawl/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "papercrawl",
	Short: "Harvest paper metadata, PDFs and abstracts from proceedings sites",
	Long: `papercrawl walks a catalog of proceedings index pages (ICML, JMLR, NIPS,
CVPR/ICCV, ACL), downloads every listed paper with its abstract, and writes a
CSV index of what it stored.

Configuration is read from $HOME/.papercrawl/config.yaml (or --config) and
PAPERCRAWL_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.papercrawl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

// loadConfig reads the configuration and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(cfg.LogLevel, os.Stderr)
}

// loadCatalog returns the configured catalog file, or the built-in one.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	cat, err := catalog.LoadFile(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
