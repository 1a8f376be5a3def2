package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/papercrawl/ledger"
	"github.com/spf13/cobra"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recent crawl runs, or the pages of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show (0 = all)")
}

func openLedger() (*ledger.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.LedgerDSN == "" {
		return nil, errors.New("run history is disabled (ledger_dsn is empty)")
	}
	return ledger.NewStore(cfg.LedgerDSN)
}

func runHistory(_ *cobra.Command, args []string) error {
	store, err := openLedger()
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		runID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run ID: %w", err)
		}
		return printRunPages(store, runID)
	}

	runs, err := store.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	rows := [][]string{{"RUN", "STARTED", "DURATION", "PAGES", "PAPERS", "FAILED", "ERROR"}}
	for _, run := range runs {
		duration := "running"
		if run.FinishedAt != nil {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		errText := ""
		if run.Error != nil {
			errText = truncate(*run.Error, 50)
		}
		rows = append(rows, []string{
			run.RunID.String(),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			duration,
			strconv.Itoa(run.Pages),
			strconv.Itoa(run.Papers),
			strconv.Itoa(run.Failed),
			errText,
		})
	}
	printTable(os.Stdout, rows)

	return nil
}

func printRunPages(store *ledger.Store, runID uuid.UUID) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}

	pages, err := store.ListPages(runID)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s started %s\n\n", run.RunID, run.StartedAt.Local().Format("2006-01-02 15:04:05"))

	rows := [][]string{{"#", "GROUP", "YEAR", "DONE", "FAILED", "URL"}}
	for _, p := range pages {
		rows = append(rows, []string{
			strconv.Itoa(p.Seq),
			p.Group,
			p.Year,
			strconv.Itoa(p.Completed) + "/" + strconv.Itoa(p.Total),
			strconv.Itoa(p.Failed),
			p.URL,
		})
	}
	printTable(os.Stdout, rows)

	return nil
}
