package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemasync/internal/compare"
	"github.com/tordrt/schemasync/internal/schema"
)

// MarkdownFormatter formats schemas and plans as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the schema in markdown format
func (f *MarkdownFormatter) Format(db *schema.Database) error {
	_, _ = fmt.Fprintf(f.writer, "# Database Schema: %s\n", db.Name)
	_, _ = fmt.Fprintln(f.writer)

	for _, table := range db.Tables {
		f.FormatTable(table)
	}
	return nil
}

// FormatPlan writes the changes as a markdown list grouped under their table
func (f *MarkdownFormatter) FormatPlan(changes []compare.Change) error {
	_, _ = fmt.Fprintln(f.writer, "# Migration Plan")
	_, _ = fmt.Fprintln(f.writer)
	if len(changes) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No changes.")
		return nil
	}
	for i, ch := range changes {
		_, _ = fmt.Fprintf(f.writer, "%d. `%s` %s\n", i+1, ch.Kind(), ch)
		if rc, ok := ch.(*compare.RecreateTable); ok {
			for _, inner := range rc.Changes {
				_, _ = fmt.Fprintf(f.writer, "   - %s\n", inner)
			}
		}
	}
	return nil
}

// FormatTable formats a single table (exported for use by multifile formatter)
func (f *MarkdownFormatter) FormatTable(table *schema.Table) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Name)

	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)
	for _, col := range table.Columns {
		if constraintStr := formatConstraints(col); constraintStr != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name, typeString(col), constraintStr)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, typeString(col))
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	if len(table.ForeignKeys) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, fk := range table.ForeignKeys {
			_, _ = fmt.Fprintf(f.writer, "- %s\n", formatForeignKey(fk))
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Indexes")
		_, _ = fmt.Fprintln(f.writer)
		for _, idx := range table.Indexes {
			if idx.Unique {
				_, _ = fmt.Fprintf(f.writer, "- %s on (%s), unique\n", idx.Name, strings.Join(idx.ColumnNames(), ", "))
			} else {
				_, _ = fmt.Fprintf(f.writer, "- %s on (%s)\n", idx.Name, strings.Join(idx.ColumnNames(), ", "))
			}
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func formatConstraints(col *schema.Column) string {
	var constraints []string
	if col.PrimaryKey {
		constraints = append(constraints, "PK")
	}
	if col.Required {
		constraints = append(constraints, "NOT NULL")
	}
	if col.AutoIncrement {
		constraints = append(constraints, "AUTO_INCREMENT")
	}
	if col.DefaultValue != nil {
		constraints = append(constraints, fmt.Sprintf("DEFAULT %s", *col.DefaultValue))
	}
	return strings.Join(constraints, ", ")
}
