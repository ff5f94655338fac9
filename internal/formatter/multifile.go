package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tordrt/schemasync/internal/schema"
	"github.com/tordrt/schemasync/internal/sqlbuilder"
)

// MultiFileFormatter writes a schema to one file per table in a directory
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text" or "markdown"
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes the schema to multiple files
func (f *MultiFileFormatter) Format(db *schema.Database) error {
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(db); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, table := range db.Tables {
		if err := f.writeTableFile(table, db); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", table.Name, err)
		}
	}

	return nil
}

// writeOverview lists the tables alphabetically with the tables they reference
func (f *MultiFileFormatter) writeOverview(db *schema.Database) error {
	ext := f.getFileExtension()
	file, err := os.Create(filepath.Join(f.OutputDir, "_overview"+ext))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	sorted := make([]*schema.Table, len(db.Tables))
	copy(sorted, db.Tables)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	if f.OutputFormat == formatMarkdown {
		_, _ = fmt.Fprintf(file, "# Schema Overview\n\n")
		_, _ = fmt.Fprintf(file, "Each table has a corresponding file: `<table_name>%s`\n\n", ext)
		_, _ = fmt.Fprintf(file, "## Tables\n\n")
	} else {
		_, _ = fmt.Fprintf(file, "SCHEMA OVERVIEW\n")
		_, _ = fmt.Fprintf(file, "Each table has a file: <table_name>%s\n\n", ext)
	}

	for _, table := range sorted {
		name := table.Name
		if f.OutputFormat == formatMarkdown {
			name = "- **" + name + "**"
		}
		_, _ = fmt.Fprint(file, name)
		if targets := referencedTables(table); len(targets) > 0 {
			_, _ = fmt.Fprintf(file, " (references: %s)", strings.Join(targets, ", "))
		}
		_, _ = fmt.Fprintln(file)
	}
	return nil
}

func referencedTables(table *schema.Table) []string {
	var targets []string
	seen := make(map[string]bool)
	for _, fk := range table.ForeignKeys {
		if !seen[fk.ForeignTableName] {
			seen[fk.ForeignTableName] = true
			targets = append(targets, fk.ForeignTableName)
		}
	}
	return targets
}

// writeTableFile writes a single table to its own file, followed by the foreign keys
// of other tables pointing at it
func (f *MultiFileFormatter) writeTableFile(table *schema.Table, db *schema.Database) error {
	file, err := os.Create(filepath.Join(f.OutputDir, table.Name+f.getFileExtension()))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	incoming := db.ReferencingForeignKeys(table.Name, true)
	if f.OutputFormat == formatMarkdown {
		NewMarkdownFormatter(file).FormatTable(table)
		if len(incoming) > 0 {
			_, _ = fmt.Fprintf(file, "### Referenced by\n\n")
			for _, ref := range incoming {
				_, _ = fmt.Fprintf(file, "- %s.%s\n", ref.Table.Name, formatForeignKey(ref.ForeignKey))
			}
			_, _ = fmt.Fprintln(file)
		}
		return nil
	}

	NewTextFormatter(file).formatTable(table)
	if len(incoming) > 0 {
		_, _ = fmt.Fprintln(file)
		_, _ = fmt.Fprintln(file, "  REFERENCED BY:")
		for _, ref := range incoming {
			_, _ = fmt.Fprintf(file, "    %s.%s\n", ref.Table.Name, formatForeignKey(ref.ForeignKey))
		}
	}
	return nil
}

func (f *MultiFileFormatter) getFileExtension() string {
	if f.OutputFormat == formatMarkdown {
		return ".md"
	}
	return ".txt"
}

// SQLFileWriter splits a DDL script into numbered files, one per run of consecutive
// statements on the same table, so running the files in name order keeps the script order
type SQLFileWriter struct {
	OutputDir string
}

// NewSQLFileWriter creates a writer for dir
func NewSQLFileWriter(dir string) *SQLFileWriter {
	return &SQLFileWriter{OutputDir: dir}
}

// Write writes the script and returns the created file names in execution order
func (w *SQLFileWriter) Write(script *sqlbuilder.Script) ([]string, error) {
	if err := os.MkdirAll(w.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var names []string
	for i, part := range script.Split() {
		table := part.Statements[0].Table
		if table == "" {
			table = "database"
		}
		name := fmt.Sprintf("%03d_%s.sql", i+1, table)
		if err := os.WriteFile(filepath.Join(w.OutputDir, name), []byte(part.String()), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
		names = append(names, name)
	}
	return names, nil
}
