package sqlbuilder

import (
	"fmt"

	"github.com/tordrt/schemasync/internal/compare"
	apperrors "github.com/tordrt/schemasync/internal/errors"
	"github.com/tordrt/schemasync/internal/logging"
)

// baseHandlers render every change kind with portable ALTER TABLE statements
var baseHandlers = map[compare.Kind]Handler{
	compare.KindAddTable:               addTable,
	compare.KindRemoveTable:            removeTable,
	compare.KindAddColumn:              addColumn,
	compare.KindRemoveColumn:           removeColumn,
	compare.KindColumnDefinitionChange: changeColumn,
	compare.KindColumnOrderChange:      reorderColumns,
	compare.KindAddPrimaryKey:          addPrimaryKey,
	compare.KindRemovePrimaryKey:       removePrimaryKey,
	compare.KindPrimaryKeyChange:       changePrimaryKey,
	compare.KindAddIndex:               addIndex,
	compare.KindRemoveIndex:            removeIndex,
	compare.KindAddForeignKey:          addForeignKey,
	compare.KindRemoveForeignKey:       removeForeignKey,
	compare.KindRecreateTable:          recreateTable,
}

func addTable(b *Builder, change compare.Change) error {
	c := change.(*compare.AddTable)
	if err := b.createTable(c.Table, c.Table.Name, tableShape{indexes: true}); err != nil {
		return err
	}
	return c.Apply(b.model, b.cs)
}

func removeTable(b *Builder, change compare.Change) error {
	c := change.(*compare.RemoveTable)
	t, err := b.table(c.Table)
	if err != nil {
		return err
	}
	b.dropTable(t, t.Name)
	return c.Apply(b.model, b.cs)
}

func addColumn(b *Builder, change compare.Change) error {
	c := change.(*compare.AddColumn)
	t, err := b.table(c.Table)
	if err != nil {
		return err
	}
	def, err := b.columnDefinition(t, c.Column, false)
	if err != nil {
		return err
	}

	stmt := "ALTER TABLE " + b.tableName(t.Name) + " " + b.sql.addColumn + " " + def
	if !c.AtEnd() {
		if b.info.Features().AddColumnAfterSupported {
			if i := t.ColumnIndex(c.NextColumn, b.cs); i == 0 {
				stmt += " FIRST"
			} else if i > 0 {
				stmt += " AFTER " + b.columnName(t.Columns[i-1].Name)
			}
		} else {
			logging.Warn("column appended at the end instead of its position",
				"dialect", b.info.Name(), "table", t.Name, "column", c.Column.Name)
		}
	}
	b.script.add(t.Name, stmt)
	return c.Apply(b.model, b.cs)
}

func removeColumn(b *Builder, change compare.Change) error {
	c := change.(*compare.RemoveColumn)
	t, err := b.table(c.Table)
	if err != nil {
		return err
	}
	b.script.add(t.Name, "ALTER TABLE "+b.tableName(t.Name)+" DROP COLUMN "+b.columnName(c.Column))
	return c.Apply(b.model, b.cs)
}

func changeColumn(b *Builder, change compare.Change) error {
	c := change.(*compare.ColumnDefinitionChange)
	t, err := b.table(c.Table)
	if err != nil {
		return err
	}
	old := t.FindColumn(c.Column, b.cs)
	if old == nil {
		return fmt.Errorf("column %s.%s not found in working model", c.Table, c.Column)
	}
	stmts, err := b.sql.alterColumn(b, t, old, c.NewColumn)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		b.script.add(t.Name, stmt)
	}
	return c.Apply(b.model, b.cs)
}

func reorderColumns(b *Builder, change compare.Change) error {
	err := apperrors.NewUnsupported(b.info.Name(), "column reordering")
	err.Reason = "the table has to be recreated"
	return err
}

func addPrimaryKey(b *Builder, change compare.Change) error {
	c := change.(*compare.AddPrimaryKey)
	t, err := b.table(c.Table)
	if err != nil {
		return err
	}
	b.script.add(t.Name, "ALTER TABLE "+b.tableName(t.Name)+" ADD "+b.primaryKeyClause(t.Name, c.Columns))
	return c.Apply(b.model, b.cs)
}

func removePrimaryKey(b *Builder, change compare.Change) error {
	c := change.(*compare.RemovePrimaryKey)
	t, err := b.table(c.Table)
	if err != nil {
		return err
	}
	b.script.add(t.Name, b.sql.dropPrimaryKey(b, t.Name))
	return c.Apply(b.model, b.cs)
}

func changePrimaryKey(b *Builder, change compare.Change) error {
	c := change.(*compare.PrimaryKeyChange)
	t, err := b.table(c.Table)
	if err != nil {
		return err
	}
	b.script.add(t.Name, b.sql.dropPrimaryKey(b, t.Name))
	b.script.add(t.Name, "ALTER TABLE "+b.tableName(t.Name)+" ADD "+b.primaryKeyClause(t.Name, c.NewColumns))
	return c.Apply(b.model, b.cs)
}

func addIndex(b *Builder, change compare.Change) error {
	c := change.(*compare.AddIndex)
	t, err := b.table(c.Table)
	if err != nil {
		return err
	}
	b.script.add(t.Name, b.createIndex(t.Name, c.Index))
	return c.Apply(b.model, b.cs)
}

func removeIndex(b *Builder, change compare.Change) error {
	c := change.(*compare.RemoveIndex)
	t, err := b.table(c.Table)
	if err != nil {
		return err
	}
	b.script.add(t.Name, b.sql.dropIndex(b, t.Name, c.Index))
	return c.Apply(b.model, b.cs)
}

func addForeignKey(b *Builder, change compare.Change) error {
	c := change.(*compare.AddForeignKey)
	t, err := b.table(c.Table)
	if err != nil {
		return err
	}
	b.script.add(t.Name, "ALTER TABLE "+b.tableName(t.Name)+" ADD "+b.foreignKeyClause(t.Name, c.ForeignKey))
	return c.Apply(b.model, b.cs)
}

func removeForeignKey(b *Builder, change compare.Change) error {
	c := change.(*compare.RemoveForeignKey)
	t, err := b.table(c.Table)
	if err != nil {
		return err
	}
	b.script.add(t.Name, b.sql.dropForeignKey(b, t.Name, c.ForeignKey))
	return c.Apply(b.model, b.cs)
}

func recreateTable(b *Builder, change compare.Change) error {
	c := change.(*compare.RecreateTable)
	if err := b.recreate(c, nil); err != nil {
		return err
	}
	return c.Apply(b.model, b.cs)
}
