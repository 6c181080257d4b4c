package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fedsearch/internal/backends"
	"fedsearch/internal/history"
)

var (
	searchServers     []string
	searchCollections []string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search collections across the configured servers",
	Long: `Search collections across one or more configured servers and merge the
results by descending relevance.

Query language:
  key:value pairs (subject:foo, from:"some name", since:1w), implicit and,
  or, not / leading -, near, and parenthesized groups. Meta prefixes
  thread:, limit:, raw:/no-parse: and count: are recognized ahead of the
  query proper.

Examples:
  fedsearch search 'subject:hello -mark:r'
  fedsearch search --servers=work 'from:alice since:2w'
  fedsearch search 'limit:20 contact:bob or subject:standup'`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchServers, "servers", nil,
		"Servers to search (default: all configured)")
	searchCmd.Flags().StringSliceVar(&searchCollections, "collections", nil,
		"Collections to search on each server (default: per-server config)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)

	servers := searchServers
	if len(servers) == 0 {
		for name := range cfg.Servers {
			servers = append(servers, name)
		}
	}
	if len(servers) == 0 {
		fmt.Fprintln(os.Stderr, "No servers configured; run 'fedsearch init' first")
		os.Exit(1)
	}

	groups := make(map[string][]string, len(servers))
	for _, name := range servers {
		groups[name] = searchCollections
	}

	var store *history.Store
	if cfg.History.Enabled {
		s, err := history.Open(resolveDir(), cfg.History.Keep, logger)
		if err != nil {
			logger.Warn("History disabled", map[string]interface{}{"error": err.Error()})
		} else {
			store = s
			defer func() { _ = store.Close() }()
		}
	}

	dispatcher := backends.NewDispatcher(backends.DispatcherOptions{
		Config:  cfg,
		Parser:  buildParser(cfg, logger),
		Logger:  logger,
		History: store,
	})

	resp, err := dispatcher.Search(context.Background(), backends.Request{
		Query:  args[0],
		Groups: groups,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if outputFormat == "json" {
		if err := printJSON(resp); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding response: %v\n", err)
			os.Exit(1)
		}
		return
	}

	for _, f := range resp.Failures {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", f.Server, f.Message)
	}
	if resp.Meta.Count {
		fmt.Println(len(resp.Matches))
		return
	}
	if len(resp.Matches) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, m := range resp.Matches {
		fmt.Printf("%8.0f  %s %d\n", m.Score, m.Collection, m.Article)
	}
	if len(resp.Failures) > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d backends failed; results may be incomplete\n",
			len(resp.Failures), len(groups))
	}
}
