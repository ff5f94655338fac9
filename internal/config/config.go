package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/schemasync/internal/logging"
	"github.com/tordrt/schemasync/internal/sqlbuilder"
)

// Config represents the top-level YAML configuration.
type Config struct {
	Database Database `yaml:"database"`
	Model    string   `yaml:"model"` // desired schema model file
	Output   Output   `yaml:"output"`
	Apply    Apply    `yaml:"apply"`
	Log      Log      `yaml:"log"`
}

// Database holds the connection and the tables to read.
type Database struct {
	URL          string   `yaml:"url"`
	Dialect      string   `yaml:"dialect"` // overrides the dialect derived from the URL
	SQLiteDriver string   `yaml:"sqlite_driver"`
	Catalog      string   `yaml:"catalog"`
	Schema       string   `yaml:"schema"`
	TableTypes   []string `yaml:"table_types"`
	Tables       []string `yaml:"tables"`
	Exclude      []string `yaml:"exclude_tables"`
}

// Output controls DDL rendering.
type Output struct {
	Comments             bool                          `yaml:"comments"`
	DelimitedIdentifiers bool                          `yaml:"delimited_identifiers"`
	CreationParameters   map[string][]sqlbuilder.Param `yaml:"creation_parameters"`
}

// Apply controls live execution.
type Apply struct {
	ContinueOnError bool `yaml:"continue_on_error"`
}

// Log selects the log level and format.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BuilderOptions returns the rendering options of the config.
func (c *Config) BuilderOptions() sqlbuilder.Options {
	return sqlbuilder.Options{
		Comments:             c.Output.Comments,
		DelimitedIdentifiers: c.Output.DelimitedIdentifiers,
		CreationParameters:   c.Output.CreationParameters,
	}
}

// Default returns a config built from the environment only.
func Default() (*Config, error) {
	var cfg Config
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnv fills in empty fields from environment variables.
// YAML values take precedence; env vars are used only as fallback.
func (c *Config) applyEnv() {
	if c.Database.URL == "" {
		c.Database.URL = envOr("SCHEMASYNC_DATABASE_URL", "DATABASE_URL")
	}
	if c.Database.Dialect == "" {
		c.Database.Dialect = envOr("SCHEMASYNC_DIALECT")
	}
	if c.Log.Level == "" {
		c.Log.Level = envOr("SCHEMASYNC_LOG_LEVEL")
	}
}

// envOr returns the first non-empty value from the given env var names.
func envOr(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// validate checks enumerated fields and fills defaults.
func (c *Config) validate() error {
	c.Database.Dialect = strings.ToLower(strings.TrimSpace(c.Database.Dialect))
	switch c.Database.SQLiteDriver {
	case "":
		c.Database.SQLiteDriver = "sqlite3"
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("database.sqlite_driver must be sqlite3 or sqlite, got %q", c.Database.SQLiteDriver)
	}
	for i, t := range c.Database.Tables {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("database.tables[%d] is empty", i)
		}
	}
	for table, params := range c.Output.CreationParameters {
		for i, p := range params {
			if p.Key == "" {
				return fmt.Errorf("output.creation_parameters.%s[%d].key is required", table, i)
			}
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return err
	}
	return nil
}
