package main

import (
	"encoding/json"
	"fmt"
	"os"

	"fedsearch/internal/config"
	"fedsearch/internal/logging"
	"fedsearch/internal/query"
)

// mustLoadConfig loads and validates the configuration, exiting on failure.
func mustLoadConfig() *config.Config {
	cfg, err := config.LoadConfig(resolveDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error validating config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// buildParser constructs the query parser with the configured contact
// lookup chain: address-book files first, the inline table last.
func buildParser(cfg *config.Config, logger *logging.Logger) *query.Parser {
	var sources []query.ContactSource
	for _, path := range cfg.Contacts.Files {
		book, err := query.LoadAddressBook(path)
		if err != nil {
			logger.Warn("Skipping unreadable address book", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}
		sources = append(sources, book)
	}
	if len(cfg.Contacts.Static) > 0 {
		sources = append(sources, query.StaticContacts(cfg.Contacts.Static))
	}
	return query.New(query.Options{Contacts: sources})
}

// printJSON writes v as indented JSON on stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
