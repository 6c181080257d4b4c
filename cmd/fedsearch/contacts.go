package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fedsearch/internal/query"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts <name>",
	Short: "Resolve a contact name through the configured lookup chain",
	Args:  cobra.ExactArgs(1),
	Run:   runContacts,
}

func init() {
	rootCmd.AddCommand(contactsCmd)
}

func runContacts(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	name := args[0]

	if len(cfg.Contacts.Files) == 0 && len(cfg.Contacts.Static) == 0 {
		fmt.Fprintln(os.Stderr, "No contact lookup sources configured.")
		os.Exit(1)
	}

	// The parser owns the lookup chain ordering; go through a throwaway
	// contact query so the CLI and the search path can never disagree.
	parser := buildParser(cfg, logger)
	ast, err := parser.Parse("contact-from:" + quoteArg(name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	addresses := collectValues(ast)
	if outputFormat == "json" {
		if err := printJSON(addresses); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding response: %v\n", err)
			os.Exit(1)
		}
		return
	}
	for _, a := range addresses {
		fmt.Println(a)
	}
}

// quoteArg quotes a name for embedding in a query, escaping any quote
// characters the name itself carries.
func quoteArg(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// collectValues gathers the distinct addresses a contact query expanded to.
func collectValues(nodes query.Query) []string {
	seen := make(map[string]bool)
	var addresses []string
	var walk func(n query.Node)
	walk = func(n query.Node) {
		switch v := n.(type) {
		case *query.KeyValue:
			if s, ok := v.Value.(string); ok && !seen[s] {
				seen[s] = true
				addresses = append(addresses, s)
			}
		case *query.Or:
			walk(v.Left)
			walk(v.Right)
		case *query.Group:
			for _, sub := range v.Nodes {
				walk(sub)
			}
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return addresses
}
