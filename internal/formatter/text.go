package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemasync/internal/compare"
	"github.com/tordrt/schemasync/internal/schema"
)

// TextFormatter formats schemas and plans as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the schema in compact text format
func (f *TextFormatter) Format(db *schema.Database) error {
	for i, table := range db.Tables {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}
		f.formatTable(table)
	}
	return nil
}

// FormatPlan writes one numbered line per change
func (f *TextFormatter) FormatPlan(changes []compare.Change) error {
	if len(changes) == 0 {
		_, _ = fmt.Fprintln(f.writer, "no changes")
		return nil
	}
	for i, ch := range changes {
		_, _ = fmt.Fprintf(f.writer, "%3d. %s\n", i+1, ch)
		if rc, ok := ch.(*compare.RecreateTable); ok {
			for _, inner := range rc.Changes {
				_, _ = fmt.Fprintf(f.writer, "       - %s\n", inner)
			}
		}
	}
	return nil
}

func (f *TextFormatter) formatTable(table *schema.Table) {
	pkStr := ""
	if pk := table.PrimaryKeyNames(); len(pk) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(pk, ", "))
	}
	_, _ = fmt.Fprintf(f.writer, "TABLE %s%s\n", table.Name, pkStr)

	for _, col := range table.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", formatColumn(col))
	}

	if len(table.ForeignKeys) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  FOREIGN KEYS:")
		for _, fk := range table.ForeignKeys {
			_, _ = fmt.Fprintf(f.writer, "    %s\n", formatForeignKey(fk))
		}
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  INDEXES:")
		for _, idx := range table.Indexes {
			unique := ""
			if idx.Unique {
				unique = " UNIQUE"
			}
			_, _ = fmt.Fprintf(f.writer, "    %s (%s)%s\n", idx.Name, strings.Join(idx.ColumnNames(), ", "), unique)
		}
	}
}

func formatColumn(col *schema.Column) string {
	parts := []string{col.Name + ":", typeString(col)}
	if col.Required {
		parts = append(parts, "NOT NULL")
	}
	if col.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}
	if col.DefaultValue != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", *col.DefaultValue))
	}
	return strings.Join(parts, " ")
}

// typeString renders the neutral type code with its size
func typeString(col *schema.Column) string {
	name := col.Type.String()
	switch {
	case col.Size <= 0:
		return name
	case col.Scale > 0 || col.Type == schema.TypeDecimal || col.Type == schema.TypeNumeric:
		return fmt.Sprintf("%s(%d,%d)", name, col.Size, col.Scale)
	default:
		return fmt.Sprintf("%s(%d)", name, col.Size)
	}
}

func formatForeignKey(fk *schema.ForeignKey) string {
	s := fk.Name + " " + fk.String()
	if fk.OnUpdate != schema.ActionNone {
		s += " ON UPDATE " + fk.OnUpdate.SQL()
	}
	if fk.OnDelete != schema.ActionNone {
		s += " ON DELETE " + fk.OnDelete.SQL()
	}
	return s
}
