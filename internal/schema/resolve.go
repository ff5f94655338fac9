package schema

import (
	"fmt"

	apperrors "github.com/tordrt/schemasync/internal/errors"
)

// Resolve cross-links name based references to model objects and validates the model.
// Names are compared case-sensitively. A *errors.ModelIntegrityError is returned for
// duplicate or missing names and dangling index or foreign key references.
func (d *Database) Resolve() error {
	if d.Name == "" {
		return apperrors.NewModelIntegrity("database", "", "name is required")
	}
	return d.resolveTables(true)
}

// Validate runs the checks of Resolve without requiring a database name, matching
// names with the given case sensitivity. Object pointers are relinked as a side effect.
func (d *Database) Validate(caseSensitive bool) error {
	return d.resolveTables(caseSensitive)
}

func nameKey(name string, cs bool) string {
	if cs {
		return name
	}
	return FoldName(name)
}

func (d *Database) resolveTables(cs bool) error {
	tableNames := make(map[string]bool, len(d.Tables))
	for i, t := range d.Tables {
		if t == nil || t.Name == "" {
			return apperrors.NewModelIntegrity("table", fmt.Sprintf("#%d", i), "name is required")
		}
		if tableNames[nameKey(t.Name, cs)] {
			return apperrors.NewModelIntegrity("table", t.Name, "duplicate table name")
		}
		tableNames[nameKey(t.Name, cs)] = true

		if err := t.resolveColumns(cs); err != nil {
			return err
		}
		if err := t.resolveIndexes(cs); err != nil {
			return err
		}
	}

	for _, t := range d.Tables {
		if err := d.resolveForeignKeys(t, cs); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) resolveColumns(cs bool) error {
	names := make(map[string]bool, len(t.Columns))
	for i, c := range t.Columns {
		if c == nil || c.Name == "" {
			return apperrors.NewModelIntegrity("column", fmt.Sprintf("%s.#%d", t.Name, i), "name is required")
		}
		if names[nameKey(c.Name, cs)] {
			return apperrors.NewModelIntegrity("column", t.Name+"."+c.Name, "duplicate column name")
		}
		if !c.Type.Valid() {
			return apperrors.NewModelIntegrity("column", t.Name+"."+c.Name, fmt.Sprintf("unknown type code %d", int(c.Type)))
		}
		names[nameKey(c.Name, cs)] = true
	}
	return nil
}

func (t *Table) resolveIndexes(cs bool) error {
	names := make(map[string]bool, len(t.Indexes))
	for i, idx := range t.Indexes {
		label := t.Name + "." + idx.Name
		if idx.Name == "" {
			label = fmt.Sprintf("%s.#%d", t.Name, i)
		} else {
			if names[nameKey(idx.Name, cs)] {
				return apperrors.NewModelIntegrity("index", label, "duplicate index name")
			}
			names[nameKey(idx.Name, cs)] = true
		}
		if len(idx.Columns) == 0 {
			return apperrors.NewModelIntegrity("index", label, "at least one column is required")
		}
		for n := range idx.Columns {
			ic := &idx.Columns[n]
			col := t.FindColumn(ic.Name, cs)
			if col == nil {
				return apperrors.NewModelIntegrity("index", label, fmt.Sprintf("unknown column %s", ic.Name))
			}
			ic.Column = col
			ic.Ordinal = n
		}
	}
	return nil
}

func (d *Database) resolveForeignKeys(t *Table, cs bool) error {
	for i, fk := range t.ForeignKeys {
		label := t.Name + "." + fk.Name
		if fk.Name == "" {
			label = fmt.Sprintf("%s.#%d", t.Name, i)
		}
		target := d.FindTable(fk.ForeignTableName, cs)
		if target == nil {
			return apperrors.NewModelIntegrity("foreign key", label, fmt.Sprintf("unknown foreign table %q", fk.ForeignTableName))
		}
		fk.ForeignTable = target
		if len(fk.References) == 0 {
			return apperrors.NewModelIntegrity("foreign key", label, "at least one reference is required")
		}
		for n := range fk.References {
			ref := &fk.References[n]
			local := t.FindColumn(ref.LocalColumnName, cs)
			if local == nil {
				return apperrors.NewModelIntegrity("foreign key", label, fmt.Sprintf("unknown local column %s", ref.LocalColumnName))
			}
			foreign := target.FindColumn(ref.ForeignColumnName, cs)
			if foreign == nil {
				return apperrors.NewModelIntegrity("foreign key", label,
					fmt.Sprintf("unknown foreign column %s.%s", target.Name, ref.ForeignColumnName))
			}
			ref.LocalColumn = local
			ref.ForeignColumn = foreign
			ref.Sequence = n
		}
	}
	return nil
}

// link sets object pointers for every name that resolves, without validating.
// It is used on working copies that may be transiently incomplete.
func (d *Database) link(caseSensitive bool) {
	for _, t := range d.Tables {
		for _, idx := range t.Indexes {
			for n := range idx.Columns {
				idx.Columns[n].Column = t.FindColumn(idx.Columns[n].Name, caseSensitive)
				idx.Columns[n].Ordinal = n
			}
		}
		for _, fk := range t.ForeignKeys {
			fk.ForeignTable = d.FindTable(fk.ForeignTableName, caseSensitive)
			for n := range fk.References {
				ref := &fk.References[n]
				ref.LocalColumn = t.FindColumn(ref.LocalColumnName, caseSensitive)
				ref.ForeignColumn = nil
				if fk.ForeignTable != nil {
					ref.ForeignColumn = fk.ForeignTable.FindColumn(ref.ForeignColumnName, caseSensitive)
				}
				ref.Sequence = n
			}
		}
	}
}

// Relink refreshes object pointers after in-place edits of a working copy
func (d *Database) Relink(caseSensitive bool) {
	d.link(caseSensitive)
}
