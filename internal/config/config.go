package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"fedsearch/internal/errors"
)

// Config represents the complete fedsearch configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	// Servers maps server names to their search configuration.
	Servers map[string]ServerConfig `json:"servers" mapstructure:"servers"`

	// Engines holds global per-engine defaults, overridden per server.
	Engines map[string]EngineDefaults `json:"engines" mapstructure:"engines"`

	// DefaultEngines maps a server type to the engine used when a server
	// does not name one.
	DefaultEngines map[string]string `json:"defaultEngines" mapstructure:"defaultEngines"`

	Contacts ContactsConfig `json:"contacts" mapstructure:"contacts"`
	History  HistoryConfig  `json:"history" mapstructure:"history"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// ServerConfig configures one searchable server
type ServerConfig struct {
	// Engine names the search engine for this server. Empty falls back to
	// the DefaultEngines entry for Type.
	Engine string `json:"engine" mapstructure:"engine"`

	// Type is the server flavor (maildir, nnml, imap) used for engine
	// defaulting.
	Type string `json:"type" mapstructure:"type"`

	// Program overrides the engine's search executable.
	Program string `json:"program,omitempty" mapstructure:"program"`

	// Args overrides the extra arguments passed before the query.
	Args []string `json:"args,omitempty" mapstructure:"args"`

	// RemovePrefix is stripped from hit paths before mapping them to
	// collection names.
	RemovePrefix string `json:"removePrefix,omitempty" mapstructure:"removePrefix"`

	// RawQueries forwards the user's query string verbatim, skipping the
	// parser and transform entirely for this server.
	RawQueries bool `json:"rawQueries,omitempty" mapstructure:"rawQueries"`

	// Collections searched when a request does not name any.
	Collections []string `json:"collections,omitempty" mapstructure:"collections"`
}

// EngineDefaults holds process-wide defaults for one engine type
type EngineDefaults struct {
	Program      string   `json:"program,omitempty" mapstructure:"program"`
	Args         []string `json:"args,omitempty" mapstructure:"args"`
	RemovePrefix string   `json:"removePrefix,omitempty" mapstructure:"removePrefix"`
}

// ContactsConfig configures the contact lookup chain
type ContactsConfig struct {
	// Files are YAML address books, consulted in order.
	Files []string `json:"files,omitempty" mapstructure:"files"`

	// Static is an inline name-to-addresses table, consulted after Files.
	Static map[string][]string `json:"static,omitempty" mapstructure:"static"`
}

// HistoryConfig configures the search-history store
type HistoryConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// Keep caps the rows retained; older searches are pruned.
	Keep int `json:"keep" mapstructure:"keep"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Servers: map[string]ServerConfig{},
		Engines: map[string]EngineDefaults{},
		DefaultEngines: map[string]string{
			"maildir": "notmuch",
			"nnml":    "namazu",
			"imap":    "imap",
		},
		History: HistoryConfig{
			Enabled: true,
			Keep:    500,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Dir returns the configuration directory: $FEDSEARCH_DIR if set, else
// ~/.fedsearch.
func Dir() string {
	if dir := os.Getenv("FEDSEARCH_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fedsearch"
	}
	return filepath.Join(home, ".fedsearch")
}

// LoadConfig loads configuration from <dir>/config.json, returning defaults
// when no config file exists.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetDefault("version", 1)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "cannot parse config", err)
	}
	return cfg, nil
}

// Save writes the configuration to <dir>/config.json
func (c *Config) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is structurally valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return errors.Newf(errors.ConfigInvalid, "unsupported config version %d", c.Version)
	}
	for name, sc := range c.Servers {
		if sc.Engine == "" && c.DefaultEngines[sc.Type] == "" {
			return errors.Newf(errors.ConfigInvalid,
				"server %q names no engine and has no default for type %q", name, sc.Type)
		}
	}
	return nil
}
