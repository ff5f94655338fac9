package schema

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// FoldName returns the case-folded form of an identifier.
func FoldName(name string) string {
	return folder.String(name)
}

// EqualNames compares two identifiers, optionally ignoring case
func EqualNames(a, b string, caseSensitive bool) bool {
	if caseSensitive {
		return a == b
	}
	return a == b || FoldName(a) == FoldName(b)
}

// FindTable returns the table with the given name, or nil
func (d *Database) FindTable(name string, caseSensitive bool) *Table {
	for _, t := range d.Tables {
		if EqualNames(t.Name, name, caseSensitive) {
			return t
		}
	}
	return nil
}

// TableIndex returns the position of the named table, or -1
func (d *Database) TableIndex(name string, caseSensitive bool) int {
	for i, t := range d.Tables {
		if EqualNames(t.Name, name, caseSensitive) {
			return i
		}
	}
	return -1
}

// AddTable appends a table
func (d *Database) AddTable(t *Table) {
	d.Tables = append(d.Tables, t)
}

// RemoveTable drops the named table and reports whether it existed
func (d *Database) RemoveTable(name string, caseSensitive bool) bool {
	idx := d.TableIndex(name, caseSensitive)
	if idx < 0 {
		return false
	}
	d.Tables = append(d.Tables[:idx], d.Tables[idx+1:]...)
	return true
}

// ReferencingForeignKeys returns every foreign key of another table that points at the named table.
// The owning table is returned alongside each key.
func (d *Database) ReferencingForeignKeys(name string, caseSensitive bool) []OwnedForeignKey {
	var out []OwnedForeignKey
	for _, t := range d.Tables {
		if EqualNames(t.Name, name, caseSensitive) {
			continue
		}
		for _, fk := range t.ForeignKeys {
			if EqualNames(fk.ForeignTableName, name, caseSensitive) {
				out = append(out, OwnedForeignKey{Table: t, ForeignKey: fk})
			}
		}
	}
	return out
}

// OwnedForeignKey is a foreign key together with the table that declares it
type OwnedForeignKey struct {
	Table      *Table
	ForeignKey *ForeignKey
}

// QualifiedName returns schema.name when a schema is set
func (t *Table) QualifiedName() string {
	if t.Schema != "" {
		return t.Schema + "." + t.Name
	}
	return t.Name
}

// FindColumn returns the column with the given name, or nil
func (t *Table) FindColumn(name string, caseSensitive bool) *Column {
	for _, c := range t.Columns {
		if EqualNames(c.Name, name, caseSensitive) {
			return c
		}
	}
	return nil
}

// ColumnIndex returns the position of the named column, or -1
func (t *Table) ColumnIndex(name string, caseSensitive bool) int {
	for i, c := range t.Columns {
		if EqualNames(c.Name, name, caseSensitive) {
			return i
		}
	}
	return -1
}

// ColumnNames returns all column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKeyColumns returns the primary key columns in column order
func (t *Table) PrimaryKeyColumns() []*Column {
	var pk []*Column
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c)
		}
	}
	return pk
}

// PrimaryKeyNames returns the primary key column names in column order
func (t *Table) PrimaryKeyNames() []string {
	var names []string
	for _, c := range t.PrimaryKeyColumns() {
		names = append(names, c.Name)
	}
	return names
}

// HasPrimaryKey reports whether any column is part of the primary key
func (t *Table) HasPrimaryKey() bool {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return true
		}
	}
	return false
}

// AutoIncrementColumns returns the columns whose values are generated by the database
func (t *Table) AutoIncrementColumns() []*Column {
	var cols []*Column
	for _, c := range t.Columns {
		if c.AutoIncrement {
			cols = append(cols, c)
		}
	}
	return cols
}

// FindIndex returns the index with the given name, or nil
func (t *Table) FindIndex(name string, caseSensitive bool) *Index {
	for _, idx := range t.Indexes {
		if EqualNames(idx.Name, name, caseSensitive) {
			return idx
		}
	}
	return nil
}

// FindEquivalentIndex returns an index with the same content as idx, ignoring the name
func (t *Table) FindEquivalentIndex(idx *Index, caseSensitive bool) *Index {
	for _, cur := range t.Indexes {
		if cur.SameContent(idx, caseSensitive) {
			return cur
		}
	}
	return nil
}

// FindForeignKeyByName returns the foreign key with the given name, or nil
func (t *Table) FindForeignKeyByName(name string, caseSensitive bool) *ForeignKey {
	for _, fk := range t.ForeignKeys {
		if EqualNames(fk.Name, name, caseSensitive) {
			return fk
		}
	}
	return nil
}

// FindEquivalentForeignKey returns a foreign key with the same target and references as fk
func (t *Table) FindEquivalentForeignKey(fk *ForeignKey, caseSensitive bool) *ForeignKey {
	for _, cur := range t.ForeignKeys {
		if cur.SameReferences(fk, caseSensitive) {
			return cur
		}
	}
	return nil
}

// RemoveIndex drops idx (matched by content) and reports whether it existed
func (t *Table) RemoveIndex(idx *Index, caseSensitive bool) bool {
	for i, cur := range t.Indexes {
		if cur == idx || (EqualNames(cur.Name, idx.Name, caseSensitive) && cur.SameContent(idx, caseSensitive)) {
			t.Indexes = append(t.Indexes[:i], t.Indexes[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveForeignKey drops fk (matched by references) and reports whether it existed
func (t *Table) RemoveForeignKey(fk *ForeignKey, caseSensitive bool) bool {
	for i, cur := range t.ForeignKeys {
		if cur == fk || cur.SameReferences(fk, caseSensitive) {
			t.ForeignKeys = append(t.ForeignKeys[:i], t.ForeignKeys[i+1:]...)
			return true
		}
	}
	return false
}

// IsFeasibleAppend reports whether the column can be added to a populated table
func (c *Column) IsFeasibleAppend() bool {
	return !c.Required || c.DefaultValue != nil || c.AutoIncrement
}

// HasDefault reports whether a default value is set
func (c *Column) HasDefault() bool {
	return c.DefaultValue != nil
}

// SetDefault sets the raw default value text
func (c *Column) SetDefault(v string) {
	c.DefaultValue = &v
	c.parsed = nil
}

// ClearDefault removes the default value
func (c *Column) ClearDefault() {
	c.DefaultValue = nil
	c.parsed = nil
}

// ColumnNames returns the index column names in ordinal order
func (i *Index) ColumnNames() []string {
	names := make([]string, len(i.Columns))
	for n, c := range i.Columns {
		names[n] = c.Name
	}
	return names
}

// SameContent reports whether two indexes have the same uniqueness and ordered columns
func (i *Index) SameContent(other *Index, caseSensitive bool) bool {
	if i.Unique != other.Unique || len(i.Columns) != len(other.Columns) {
		return false
	}
	for n := range i.Columns {
		if !EqualNames(i.Columns[n].Name, other.Columns[n].Name, caseSensitive) {
			return false
		}
	}
	return true
}

// HasColumnSet reports whether the index covers exactly the given columns, in any order
func (i *Index) HasColumnSet(names []string, caseSensitive bool) bool {
	return sameNameSet(i.ColumnNames(), names, caseSensitive)
}

// LocalColumnNames returns the local column names in reference order
func (f *ForeignKey) LocalColumnNames() []string {
	names := make([]string, len(f.References))
	for i, r := range f.References {
		names[i] = r.LocalColumnName
	}
	return names
}

// ForeignColumnNames returns the referenced column names in reference order
func (f *ForeignKey) ForeignColumnNames() []string {
	names := make([]string, len(f.References))
	for i, r := range f.References {
		names[i] = r.ForeignColumnName
	}
	return names
}

// SameReferences reports whether two foreign keys point at the same table with the same ordered column pairs.
// Names and cascade actions are ignored.
func (f *ForeignKey) SameReferences(other *ForeignKey, caseSensitive bool) bool {
	if !EqualNames(f.ForeignTableName, other.ForeignTableName, caseSensitive) {
		return false
	}
	if len(f.References) != len(other.References) {
		return false
	}
	for i := range f.References {
		a, b := f.References[i], other.References[i]
		if !EqualNames(a.LocalColumnName, b.LocalColumnName, caseSensitive) ||
			!EqualNames(a.ForeignColumnName, b.ForeignColumnName, caseSensitive) {
			return false
		}
	}
	return true
}

// String renders the foreign key as t(a,b) -> u(x,y) for logs and plan output
func (f *ForeignKey) String() string {
	return "(" + strings.Join(f.LocalColumnNames(), ",") + ") -> " +
		f.ForeignTableName + "(" + strings.Join(f.ForeignColumnNames(), ",") + ")"
}

func sameNameSet(a, b []string, caseSensitive bool) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	key := func(s string) string {
		if caseSensitive {
			return s
		}
		return FoldName(s)
	}
	for _, s := range a {
		seen[key(s)]++
	}
	for _, s := range b {
		k := key(s)
		if seen[k] == 0 {
			return false
		}
		seen[k]--
	}
	return true
}

// SameNameSet reports whether two name lists contain the same names, ignoring order
func SameNameSet(a, b []string, caseSensitive bool) bool {
	return sameNameSet(a, b, caseSensitive)
}
