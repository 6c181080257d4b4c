package main

import (
	"os"

	"github.com/spf13/cobra"

	"fedsearch/internal/config"
	"fedsearch/internal/logging"
)

var (
	// configDir is the CLI --dir flag value
	configDir string
	// outputFormat is the CLI --format flag value
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "fedsearch",
	Short: "fedsearch - federated search query compiler",
	Long: `fedsearch compiles a small boolean query language into the native syntax of
pluggable search backends (IMAP sessions, notmuch, mu, mairix, namazu, swish++),
dispatches searches across configured servers and merges the results.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "dir", "",
		"Configuration directory (default: $FEDSEARCH_DIR or ~/.fedsearch)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "human",
		"Output format (json, human)")
}

// resolveDir determines the effective configuration directory.
// Precedence: CLI flag > FEDSEARCH_DIR env var > ~/.fedsearch
func resolveDir() string {
	if configDir != "" {
		return configDir
	}
	return config.Dir()
}

func newLogger(cfg *config.Config) *logging.Logger {
	lc := logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.LogLevel(cfg.Logging.Level),
	}
	if env := os.Getenv("FEDSEARCH_LOG_LEVEL"); env != "" {
		lc.Level = logging.LogLevel(env)
	}
	return logging.NewLogger(lc)
}
