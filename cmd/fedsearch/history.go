package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fedsearch/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent searches",
	Run:   runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)

	store, err := history.Open(resolveDir(), cfg.History.Keep, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening history: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(historyLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
		os.Exit(1)
	}

	if outputFormat == "json" {
		if err := printJSON(entries); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding response: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if len(entries) == 0 {
		fmt.Println("No recorded searches.")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  %4d matches  %d failures  %5dms  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Matches, e.Failures, e.DurationMs, e.Query)
	}
}
