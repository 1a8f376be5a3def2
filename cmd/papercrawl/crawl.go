package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pevans/papercrawl/archive"
	"github.com/pevans/papercrawl/config"
	"github.com/pevans/papercrawl/crawler"
	"github.com/pevans/papercrawl/fetch"
	"github.com/pevans/papercrawl/ledger"
	"github.com/pevans/papercrawl/sites"
	"github.com/spf13/cobra"
)

var (
	crawlGroups    []string
	crawlYears     []string
	crawlMaxPages  int
	crawlMaxPapers int
	crawlOutput    string
	crawlIndex     string
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the catalog and store every paper",
	Long: `Crawl fetches every selected catalog page, stores each paper's PDF and
abstract under <output>/<group>/<year>/ and writes one CSV row per stored
paper. The output directory is emptied first.

Examples:
  papercrawl crawl
  papercrawl crawl --group ICML --year 2015
  papercrawl crawl --group nips --max-pages 1 --max-papers 5`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringSliceVarP(&crawlGroups, "group", "g", nil, "only crawl groups with this name or site id (repeatable)")
	crawlCmd.Flags().StringSliceVarP(&crawlYears, "year", "y", nil, "only crawl pages for this year (repeatable)")
	crawlCmd.Flags().IntVar(&crawlMaxPages, "max-pages", 0, "crawl at most N pages per group (0 = all)")
	crawlCmd.Flags().IntVar(&crawlMaxPapers, "max-papers", 0, "store at most N papers per page (0 = all)")
	crawlCmd.Flags().StringVarP(&crawlOutput, "output", "o", "", "archive directory (overrides config)")
	crawlCmd.Flags().StringVar(&crawlIndex, "index", "", "CSV index path (overrides config)")
}

// applyCrawlFlags lets explicitly set flags override the configured values.
func applyCrawlFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("group") {
		cfg.Scope.Groups = crawlGroups
	}
	if flags.Changed("year") {
		cfg.Scope.Years = crawlYears
	}
	if flags.Changed("max-pages") {
		cfg.Scope.MaxPages = crawlMaxPages
	}
	if flags.Changed("max-papers") {
		cfg.Scope.MaxPapers = crawlMaxPapers
	}
	if crawlOutput != "" {
		cfg.OutputDir = crawlOutput
	}
	if crawlIndex != "" {
		cfg.IndexFile = crawlIndex
	}
}

func runCrawl(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCrawlFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := newLogger(cfg)

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	if cat.Select(cfg.Scope).PageCount() == 0 {
		return errors.New("no catalog pages match the selected groups and years")
	}

	arch, err := archive.New(cfg.OutputDir)
	if err != nil {
		return err
	}

	idx, err := archive.CreateIndex(cfg.IndexFile)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := idx.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	fetcher := fetch.NewHTTPFetcher(
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithRateLimit(cfg.RequestsPerSecond),
	)

	opts := []crawler.Option{crawler.WithLogger(log)}
	if cfg.LedgerDSN != "" {
		store, err := ledger.NewStore(cfg.LedgerDSN)
		if err != nil {
			return fmt.Errorf("failed to open run history: %w", err)
		}
		defer store.Close()
		opts = append(opts, crawler.WithLedger(store))
	}

	driver := crawler.New(sites.Default(), fetcher, arch, idx, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := driver.Run(ctx, cat, cfg.Scope)
	if result != nil {
		printCrawlSummary(result)
	}
	if runErr != nil {
		return fmt.Errorf("crawl failed: %w", runErr)
	}

	fmt.Printf("\nIndex written to %s\n", idx.Path())

	return nil
}

// printCrawlSummary prints one line per page and the run totals.
func printCrawlSummary(result *crawler.Result) {
	rows := [][]string{{"GROUP", "YEAR", "SITE", "DONE", "FAILED", "ERROR"}}
	for _, p := range result.Pages {
		errText := ""
		if p.Err != nil {
			errText = p.Err.Error()
		}
		rows = append(rows, []string{
			p.Group,
			p.Year,
			p.Site,
			strconv.Itoa(p.Completed) + "/" + strconv.Itoa(p.Total),
			strconv.Itoa(p.Failed),
			truncate(errText, 60),
		})
	}

	fmt.Println()
	printTable(os.Stdout, rows)
	fmt.Println()
	fmt.Printf("Run %s: %d papers stored, %d failed, %d pages\n",
		result.RunID, result.Papers, result.Failed, len(result.Pages))
}
