package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemasync.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/shop
  dialect: PostgreSQL
  schema: public
  tables: [customers, orders]
model: shop.yaml
output:
  comments: true
  creation_parameters:
    orders:
      - key: TABLESPACE
        value: fast
apply:
  continue_on_error: true
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "postgres://localhost/shop" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.Database.Dialect != "postgresql" {
		t.Errorf("Database.Dialect = %q, want postgresql", cfg.Database.Dialect)
	}
	if cfg.Database.SQLiteDriver != "sqlite3" {
		t.Errorf("Database.SQLiteDriver = %q, want sqlite3", cfg.Database.SQLiteDriver)
	}
	if len(cfg.Database.Tables) != 2 {
		t.Errorf("Database.Tables = %v", cfg.Database.Tables)
	}
	if !cfg.Apply.ContinueOnError {
		t.Error("Apply.ContinueOnError = false, want true")
	}

	opts := cfg.BuilderOptions()
	if !opts.Comments {
		t.Error("BuilderOptions().Comments = false, want true")
	}
	params := opts.CreationParameters["orders"]
	if len(params) != 1 || params[0].Key != "TABLESPACE" || params[0].Value != "fast" {
		t.Errorf("CreationParameters[orders] = %v", params)
	}
}

func TestLoadEnvFallback(t *testing.T) {
	t.Setenv("SCHEMASYNC_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "sqlite://shop.db")

	cfg, err := Load(writeConfig(t, "model: shop.yaml\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "sqlite://shop.db" {
		t.Errorf("Database.URL = %q, want DATABASE_URL value", cfg.Database.URL)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v, want warn/text defaults", cfg.Log)
	}
}

func TestLoadFilePrecedence(t *testing.T) {
	t.Setenv("SCHEMASYNC_DATABASE_URL", "mysql://env/db")

	cfg, err := Load(writeConfig(t, "database:\n  url: sqlite://file.db\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "sqlite://file.db" {
		t.Errorf("Database.URL = %q, want the file value", cfg.Database.URL)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "database: [\n"},
		{"bad sqlite driver", "database:\n  sqlite_driver: cgo\n"},
		{"empty table name", "database:\n  tables: ['']\n"},
		{"parameter without key", "output:\n  creation_parameters:\n    t:\n      - value: x\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"bad log format", "log:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() error = nil, want error")
	}
}

func TestDefault(t *testing.T) {
	t.Setenv("SCHEMASYNC_DATABASE_URL", "postgres://env/db")
	t.Setenv("SCHEMASYNC_LOG_LEVEL", "error")

	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if cfg.Database.URL != "postgres://env/db" || cfg.Log.Level != "error" {
		t.Errorf("Default() = %+v", cfg)
	}
}
