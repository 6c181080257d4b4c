package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fedsearch/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration",
	Long: `Write a default config.json into the configuration directory with a
single example notmuch server to edit. Existing configuration is left
alone unless --force is given.`,
	Run: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) {
	dir := resolveDir()
	path := filepath.Join(dir, "config.json")

	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Fprintf(os.Stderr, "%s already exists (use --force to overwrite)\n", path)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.Servers = map[string]config.ServerConfig{
		"local": {
			Engine:       "notmuch",
			RemovePrefix: filepath.Join(os.Getenv("HOME"), "Mail"),
		},
	}

	if err := cfg.Save(dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}
