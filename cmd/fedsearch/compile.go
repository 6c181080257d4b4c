package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"fedsearch/internal/backends"
	"fedsearch/internal/query"
)

var compileEngines []string

var compileCmd = &cobra.Command{
	Use:   "compile <query>",
	Short: "Parse a query and print each engine's native rendering",
	Long: `Parse a query and print the native query each engine would receive,
without running any search. Useful for debugging query syntax and seeing
which parts of a query a given engine cannot express.

Examples:
  fedsearch compile 'subject:hello -mark:r'
  fedsearch compile --engines=imap,notmuch 'from:alice since:2w'`,
	Args: cobra.ExactArgs(1),
	Run:  runCompile,
}

func init() {
	compileCmd.Flags().StringSliceVar(&compileEngines, "engines", nil,
		"Engines to render for (default: all)")
	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	parser := buildParser(cfg, logger)

	meta, rest := query.StripMeta(args[0])
	if meta.Raw {
		fmt.Println(rest)
		return
	}

	ast, err := parser.Parse(rest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	engines := compileEngines
	if len(engines) == 0 {
		engines = []string{"imap", "notmuch", "mu", "mairix", "namazu", "swish++"}
	}
	sort.Strings(engines)

	now := time.Now()
	if outputFormat == "json" {
		rendered := make(map[string]string, len(engines))
		for _, e := range engines {
			rendered[e] = backends.Transform(backends.EngineID(e), ast, now)
		}
		if err := printJSON(rendered); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding response: %v\n", err)
			os.Exit(1)
		}
		return
	}
	for _, e := range engines {
		fmt.Printf("%-8s %s\n", e, backends.Transform(backends.EngineID(e), ast, now))
	}
}
