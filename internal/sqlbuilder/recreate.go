package sqlbuilder

import (
	"strings"

	"github.com/tordrt/schemasync/internal/compare"
	"github.com/tordrt/schemasync/internal/logging"
	"github.com/tordrt/schemasync/internal/schema"
)

// recreate rebuilds a table in its target shape. Rows are carried over through a
// temporary table unless the original changes add a required column that has
// neither a default nor auto-increment; then the table is dropped and created empty.
// foreignKeys selects the target foreign keys declared inline, nil for none.
func (b *Builder) recreate(c *compare.RecreateTable, foreignKeys func(*schema.ForeignKey) bool) error {
	old, err := b.table(c.Table)
	if err != nil {
		return err
	}
	target := c.TargetTable
	final := tableShape{foreignKeys: foreignKeys, indexes: true}

	if !c.PreservesData() {
		logging.Warn("recreating table without preserving its data", "dialect", b.info.Name(), "table", old.Name)
		b.comment(old.Name, "data of table %s is not preserved: a required column without default is added", old.Name)
		b.dropTable(old, old.Name)
		return b.createTable(target, target.Name, final)
	}

	b.keepSequences = b.sharedIdentities(old, target)
	defer func() { b.keepSequences = nil }()

	var from, to []string
	for _, col := range target.Columns {
		if cur := old.FindColumn(col.Name, b.cs); cur != nil {
			from = append(from, cur.Name)
			to = append(to, col.Name)
		}
	}

	tempName := shortenName(target.Name+"_tmp", b.info.Limits().MaxTableNameLength)
	temp := target.Clone()
	temp.Indexes = nil
	temp.ForeignKeys = nil
	for _, col := range temp.Columns {
		col.AutoIncrement = false
	}

	if err := b.createTable(temp, tempName, tableShape{}); err != nil {
		return err
	}
	if len(to) > 0 {
		b.script.add(old.Name, b.copyRows(tempName, to, old.Name, from))
	}
	b.dropTable(old, old.Name)
	if err := b.createTable(target, target.Name, final); err != nil {
		return err
	}
	if len(to) > 0 {
		identity := b.info.Features().IdentityInsertRequired && copiesIdentity(target, to, b.cs)
		if identity {
			b.script.add(target.Name, "SET IDENTITY_INSERT "+b.tableName(target.Name)+" ON")
		}
		b.script.add(target.Name, b.copyRows(target.Name, to, tempName, to))
		if identity {
			b.script.add(target.Name, "SET IDENTITY_INSERT "+b.tableName(target.Name)+" OFF")
		}
		if b.sql.afterCopy != nil {
			b.sql.afterCopy(b, target, target.Name)
		}
	}
	b.script.add(target.Name, "DROP TABLE "+b.tableName(tempName))
	return nil
}

func (b *Builder) copyRows(into string, intoColumns []string, from string, fromColumns []string) string {
	return "INSERT INTO " + b.tableName(into) + " (" + b.columnList(intoColumns) + ") SELECT " +
		b.columnList(fromColumns) + " FROM " + b.tableName(from)
}

func copiesIdentity(t *schema.Table, columns []string, cs bool) bool {
	for _, name := range columns {
		if col := t.FindColumn(name, cs); col != nil && col.AutoIncrement {
			return true
		}
	}
	return false
}

// sharedIdentities returns the auto-increment columns present in both shapes, whose
// sequences survive the rebuild
func (b *Builder) sharedIdentities(old, target *schema.Table) map[string]bool {
	keep := make(map[string]bool)
	for _, col := range old.AutoIncrementColumns() {
		if t := target.FindColumn(col.Name, b.cs); t != nil && t.AutoIncrement {
			keep[strings.ToLower(col.Name)] = true
		}
	}
	return keep
}
