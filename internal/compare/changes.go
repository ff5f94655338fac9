// Package compare diffs two schema models into typed changes and orders them
// so they can be executed safely.
package compare

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tordrt/schemasync/internal/schema"
)

// Kind identifies the variant of a Change
type Kind int

// Change kinds
const (
	KindAddTable Kind = iota
	KindRemoveTable
	KindAddColumn
	KindRemoveColumn
	KindColumnDefinitionChange
	KindColumnOrderChange
	KindAddPrimaryKey
	KindRemovePrimaryKey
	KindPrimaryKeyChange
	KindAddIndex
	KindRemoveIndex
	KindAddForeignKey
	KindRemoveForeignKey
	KindRecreateTable
)

var kindNames = map[Kind]string{
	KindAddTable:               "AddTable",
	KindRemoveTable:            "RemoveTable",
	KindAddColumn:              "AddColumn",
	KindRemoveColumn:           "RemoveColumn",
	KindColumnDefinitionChange: "ColumnDefinitionChange",
	KindColumnOrderChange:      "ColumnOrderChange",
	KindAddPrimaryKey:          "AddPrimaryKey",
	KindRemovePrimaryKey:       "RemovePrimaryKey",
	KindPrimaryKeyChange:       "PrimaryKeyChange",
	KindAddIndex:               "AddIndex",
	KindRemoveIndex:            "RemoveIndex",
	KindAddForeignKey:          "AddForeignKey",
	KindRemoveForeignKey:       "RemoveForeignKey",
	KindRecreateTable:          "RecreateTable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Change is one schema delta. Changes refer to tables and columns by name so they stay
// valid against any snapshot of the same schema.
type Change interface {
	Kind() Kind
	// TableName is the table the change belongs to
	TableName() string
	// Apply performs the change on a working model
	Apply(db *schema.Database, caseSensitive bool) error
	fmt.Stringer
}

func findTable(db *schema.Database, name string, caseSensitive bool) (*schema.Table, error) {
	t := db.FindTable(name, caseSensitive)
	if t == nil {
		return nil, fmt.Errorf("table %s not found", name)
	}
	return t, nil
}

// AddTable creates a table. Foreign keys of the new table are added by separate
// AddForeignKey changes.
type AddTable struct {
	Table *schema.Table
}

func (c *AddTable) Kind() Kind        { return KindAddTable }
func (c *AddTable) TableName() string { return c.Table.Name }
func (c *AddTable) String() string    { return "add table " + c.Table.Name }

// Apply adds a copy of the table without its foreign keys
func (c *AddTable) Apply(db *schema.Database, caseSensitive bool) error {
	if db.FindTable(c.Table.Name, caseSensitive) != nil {
		return fmt.Errorf("table %s already exists", c.Table.Name)
	}
	t := c.Table.Clone()
	t.ForeignKeys = nil
	db.AddTable(t)
	db.Relink(caseSensitive)
	return nil
}

// RemoveTable drops a table
type RemoveTable struct {
	Table string
}

func (c *RemoveTable) Kind() Kind        { return KindRemoveTable }
func (c *RemoveTable) TableName() string { return c.Table }
func (c *RemoveTable) String() string    { return "remove table " + c.Table }

func (c *RemoveTable) Apply(db *schema.Database, caseSensitive bool) error {
	if !db.RemoveTable(c.Table, caseSensitive) {
		return fmt.Errorf("table %s not found", c.Table)
	}
	db.Relink(caseSensitive)
	return nil
}

// AddColumn adds a column before NextColumn, or at the end when NextColumn is empty
type AddColumn struct {
	Table      string
	Column     *schema.Column
	NextColumn string
}

func (c *AddColumn) Kind() Kind        { return KindAddColumn }
func (c *AddColumn) TableName() string { return c.Table }

// AtEnd reports whether the column is appended after all existing columns
func (c *AddColumn) AtEnd() bool { return c.NextColumn == "" }

func (c *AddColumn) String() string {
	if c.AtEnd() {
		return fmt.Sprintf("add column %s.%s", c.Table, c.Column.Name)
	}
	return fmt.Sprintf("add column %s.%s before %s", c.Table, c.Column.Name, c.NextColumn)
}

func (c *AddColumn) Apply(db *schema.Database, caseSensitive bool) error {
	t, err := findTable(db, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	col := c.Column.Clone()
	pos := len(t.Columns)
	if !c.AtEnd() {
		if i := t.ColumnIndex(c.NextColumn, caseSensitive); i >= 0 {
			pos = i
		}
	}
	t.Columns = append(t.Columns, nil)
	copy(t.Columns[pos+1:], t.Columns[pos:])
	t.Columns[pos] = col
	db.Relink(caseSensitive)
	return nil
}

// RemoveColumn drops a column
type RemoveColumn struct {
	Table  string
	Column string
}

func (c *RemoveColumn) Kind() Kind        { return KindRemoveColumn }
func (c *RemoveColumn) TableName() string { return c.Table }
func (c *RemoveColumn) String() string    { return fmt.Sprintf("remove column %s.%s", c.Table, c.Column) }

func (c *RemoveColumn) Apply(db *schema.Database, caseSensitive bool) error {
	t, err := findTable(db, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	i := t.ColumnIndex(c.Column, caseSensitive)
	if i < 0 {
		return fmt.Errorf("column %s.%s not found", c.Table, c.Column)
	}
	t.Columns = append(t.Columns[:i], t.Columns[i+1:]...)
	db.Relink(caseSensitive)
	return nil
}

// ColumnDefinitionChange replaces the definition of a column: type, size, scale,
// required flag, auto-increment or default value
type ColumnDefinitionChange struct {
	Table     string
	Column    string
	OldColumn *schema.Column
	NewColumn *schema.Column
}

// AutoIncrementChanged reports whether the column gains or loses auto-increment
func (c *ColumnDefinitionChange) AutoIncrementChanged() bool {
	return c.OldColumn != nil && c.OldColumn.AutoIncrement != c.NewColumn.AutoIncrement
}

func (c *ColumnDefinitionChange) Kind() Kind        { return KindColumnDefinitionChange }
func (c *ColumnDefinitionChange) TableName() string { return c.Table }
func (c *ColumnDefinitionChange) String() string {
	return fmt.Sprintf("change column %s.%s", c.Table, c.Column)
}

// Apply copies the new definition but keeps the primary key flag of the working column
func (c *ColumnDefinitionChange) Apply(db *schema.Database, caseSensitive bool) error {
	t, err := findTable(db, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	i := t.ColumnIndex(c.Column, caseSensitive)
	if i < 0 {
		return fmt.Errorf("column %s.%s not found", c.Table, c.Column)
	}
	col := c.NewColumn.Clone()
	col.PrimaryKey = t.Columns[i].PrimaryKey
	t.Columns[i] = col
	db.Relink(caseSensitive)
	return nil
}

// ColumnOrderChange reorders the existing columns of a table
type ColumnOrderChange struct {
	Table string
	Order []string // new order of the columns present before and after
}

func (c *ColumnOrderChange) Kind() Kind        { return KindColumnOrderChange }
func (c *ColumnOrderChange) TableName() string { return c.Table }
func (c *ColumnOrderChange) String() string {
	return fmt.Sprintf("reorder columns of %s to (%s)", c.Table, strings.Join(c.Order, ", "))
}

// Apply moves the listed columns into the given order; unlisted columns keep their slots
func (c *ColumnOrderChange) Apply(db *schema.Database, caseSensitive bool) error {
	t, err := findTable(db, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	var slots []int
	var cols []*schema.Column
	for _, name := range c.Order {
		i := t.ColumnIndex(name, caseSensitive)
		if i < 0 {
			return fmt.Errorf("column %s.%s not found", c.Table, name)
		}
		slots = append(slots, i)
		cols = append(cols, t.Columns[i])
	}
	sort.Ints(slots)
	for n, slot := range slots {
		t.Columns[slot] = cols[n]
	}
	return nil
}

func setPrimaryKey(t *schema.Table, columns []string, caseSensitive bool) error {
	for _, col := range t.Columns {
		col.PrimaryKey = false
	}
	for _, name := range columns {
		col := t.FindColumn(name, caseSensitive)
		if col == nil {
			return fmt.Errorf("column %s.%s not found", t.Name, name)
		}
		col.PrimaryKey = true
	}
	return nil
}

// AddPrimaryKey adds a primary key to a table without one
type AddPrimaryKey struct {
	Table   string
	Columns []string
}

func (c *AddPrimaryKey) Kind() Kind        { return KindAddPrimaryKey }
func (c *AddPrimaryKey) TableName() string { return c.Table }
func (c *AddPrimaryKey) String() string {
	return fmt.Sprintf("add primary key %s(%s)", c.Table, strings.Join(c.Columns, ", "))
}

func (c *AddPrimaryKey) Apply(db *schema.Database, caseSensitive bool) error {
	t, err := findTable(db, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	return setPrimaryKey(t, c.Columns, caseSensitive)
}

// RemovePrimaryKey drops the primary key of a table
type RemovePrimaryKey struct {
	Table   string
	Columns []string
}

func (c *RemovePrimaryKey) Kind() Kind        { return KindRemovePrimaryKey }
func (c *RemovePrimaryKey) TableName() string { return c.Table }
func (c *RemovePrimaryKey) String() string    { return "remove primary key of " + c.Table }

func (c *RemovePrimaryKey) Apply(db *schema.Database, caseSensitive bool) error {
	t, err := findTable(db, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	return setPrimaryKey(t, nil, caseSensitive)
}

// PrimaryKeyChange replaces the primary key columns of a table
type PrimaryKeyChange struct {
	Table      string
	OldColumns []string
	NewColumns []string
}

func (c *PrimaryKeyChange) Kind() Kind        { return KindPrimaryKeyChange }
func (c *PrimaryKeyChange) TableName() string { return c.Table }
func (c *PrimaryKeyChange) String() string {
	return fmt.Sprintf("change primary key of %s from (%s) to (%s)", c.Table,
		strings.Join(c.OldColumns, ", "), strings.Join(c.NewColumns, ", "))
}

func (c *PrimaryKeyChange) Apply(db *schema.Database, caseSensitive bool) error {
	t, err := findTable(db, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	return setPrimaryKey(t, c.NewColumns, caseSensitive)
}

// AddIndex creates an index
type AddIndex struct {
	Table string
	Index *schema.Index
}

func (c *AddIndex) Kind() Kind        { return KindAddIndex }
func (c *AddIndex) TableName() string { return c.Table }
func (c *AddIndex) String() string {
	return fmt.Sprintf("add index %s on %s(%s)", c.Index.Name, c.Table, strings.Join(c.Index.ColumnNames(), ", "))
}

func (c *AddIndex) Apply(db *schema.Database, caseSensitive bool) error {
	t, err := findTable(db, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	t.Indexes = append(t.Indexes, c.Index.Clone())
	db.Relink(caseSensitive)
	return nil
}

// RemoveIndex drops an index
type RemoveIndex struct {
	Table string
	Index *schema.Index
}

func (c *RemoveIndex) Kind() Kind        { return KindRemoveIndex }
func (c *RemoveIndex) TableName() string { return c.Table }
func (c *RemoveIndex) String() string    { return fmt.Sprintf("remove index %s on %s", c.Index.Name, c.Table) }

func (c *RemoveIndex) Apply(db *schema.Database, caseSensitive bool) error {
	t, err := findTable(db, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	if !t.RemoveIndex(c.Index, caseSensitive) {
		return fmt.Errorf("index %s on %s not found", c.Index.Name, c.Table)
	}
	return nil
}

// AddForeignKey creates a foreign key
type AddForeignKey struct {
	Table      string
	ForeignKey *schema.ForeignKey
}

func (c *AddForeignKey) Kind() Kind        { return KindAddForeignKey }
func (c *AddForeignKey) TableName() string { return c.Table }
func (c *AddForeignKey) String() string {
	return fmt.Sprintf("add foreign key %s on %s%s", c.ForeignKey.Name, c.Table, c.ForeignKey)
}

func (c *AddForeignKey) Apply(db *schema.Database, caseSensitive bool) error {
	t, err := findTable(db, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	t.ForeignKeys = append(t.ForeignKeys, c.ForeignKey.Clone())
	db.Relink(caseSensitive)
	return nil
}

// RemoveForeignKey drops a foreign key
type RemoveForeignKey struct {
	Table      string
	ForeignKey *schema.ForeignKey
}

func (c *RemoveForeignKey) Kind() Kind        { return KindRemoveForeignKey }
func (c *RemoveForeignKey) TableName() string { return c.Table }
func (c *RemoveForeignKey) String() string {
	return fmt.Sprintf("remove foreign key %s on %s%s", c.ForeignKey.Name, c.Table, c.ForeignKey)
}

func (c *RemoveForeignKey) Apply(db *schema.Database, caseSensitive bool) error {
	t, err := findTable(db, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	if !t.RemoveForeignKey(c.ForeignKey, caseSensitive) {
		return fmt.Errorf("foreign key %s on %s not found", c.ForeignKey.Name, c.Table)
	}
	return nil
}

// RecreateTable rebuilds a table in its target shape because some of its changes
// cannot be applied in place. Changes holds the original per-table changes.
type RecreateTable struct {
	Table       string
	TargetTable *schema.Table
	Changes     []Change
}

func (c *RecreateTable) Kind() Kind        { return KindRecreateTable }
func (c *RecreateTable) TableName() string { return c.Table }
func (c *RecreateTable) String() string {
	return fmt.Sprintf("recreate table %s (%d changes)", c.Table, len(c.Changes))
}

// PreservesData reports whether existing rows can be copied into the new table.
// It is false when a required column without default or auto-increment is added.
func (c *RecreateTable) PreservesData() bool {
	for _, ch := range c.Changes {
		add, ok := ch.(*AddColumn)
		if ok && !add.Column.IsFeasibleAppend() {
			return false
		}
	}
	return true
}

// Apply replaces the table with its target shape. Foreign keys are taken over from
// the working table; those of the target are added by AddForeignKey changes.
func (c *RecreateTable) Apply(db *schema.Database, caseSensitive bool) error {
	i := db.TableIndex(c.Table, caseSensitive)
	if i < 0 {
		return fmt.Errorf("table %s not found", c.Table)
	}
	t := c.TargetTable.Clone()
	t.ForeignKeys = db.Tables[i].ForeignKeys
	db.Tables[i] = t
	db.Relink(caseSensitive)
	return nil
}
