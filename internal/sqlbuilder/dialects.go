package sqlbuilder

import (
	"strings"

	"github.com/tordrt/schemasync/internal/compare"
	"github.com/tordrt/schemasync/internal/logging"
	"github.com/tordrt/schemasync/internal/platform"
	"github.com/tordrt/schemasync/internal/schema"
)

// dialectSQL holds the statement shapes that differ between dialects
type dialectSQL struct {
	addColumn        string // clause after ALTER TABLE t
	paramSeparator   string // between creation parameter key and value
	serialTypes      bool   // identity expressed through SERIAL types
	sequenceIdentity bool   // identity emulated with a sequence and a trigger
	inlineIdentity   bool   // identity only valid on an inline PRIMARY KEY column

	columnType       func(b *Builder, table string, col *schema.Column) (string, error)
	inlinePrimaryKey func(b *Builder, t *schema.Table) *schema.Column
	alterColumn      func(b *Builder, t *schema.Table, old, col *schema.Column) ([]string, error)
	dropIndex        func(b *Builder, table string, idx *schema.Index) string
	dropForeignKey   func(b *Builder, table string, fk *schema.ForeignKey) string
	dropPrimaryKey   func(b *Builder, table string) string
	primaryKeyName   func(b *Builder, table string) string // empty leaves the key unnamed

	afterCreateTable func(b *Builder, t *schema.Table, name string)
	afterDropTable   func(b *Builder, t *schema.Table, name string)
	afterCopy        func(b *Builder, t *schema.Table, name string)
}

func baseSQL() dialectSQL {
	return dialectSQL{
		addColumn:      "ADD COLUMN",
		paramSeparator: " ",
		columnType: func(b *Builder, table string, col *schema.Column) (string, error) {
			return b.columnType(table, col)
		},
		inlinePrimaryKey: func(*Builder, *schema.Table) *schema.Column { return nil },
		alterColumn:      alterColumnSQL92,
		dropIndex: func(b *Builder, table string, idx *schema.Index) string {
			return "DROP INDEX " + b.indexName(table, idx)
		},
		dropForeignKey: func(b *Builder, table string, fk *schema.ForeignKey) string {
			return "ALTER TABLE " + b.tableName(table) + " DROP CONSTRAINT " + b.foreignKeyName(table, fk)
		},
		dropPrimaryKey: func(b *Builder, table string) string {
			return "ALTER TABLE " + b.tableName(table) + " DROP CONSTRAINT " + b.sql.primaryKeyName(b, table)
		},
		primaryKeyName: func(b *Builder, table string) string {
			return b.constraintName("pk_" + table)
		},
	}
}

func unnamedPrimaryKey(*Builder, string) string { return "" }

func dropPrimaryKeyClause(b *Builder, table string) string {
	return "ALTER TABLE " + b.tableName(table) + " DROP PRIMARY KEY"
}

// sqlFor returns the statement shapes of a dialect
func sqlFor(info *platform.Info) dialectSQL {
	d := baseSQL()
	switch info.Name() {
	case "postgresql":
		d.serialTypes = true
		d.columnType = postgresColumnType
		d.alterColumn = alterColumnPostgres
		// the server names unnamed keys <table>_pkey
		d.primaryKeyName = unnamedPrimaryKey
		d.dropPrimaryKey = func(b *Builder, table string) string {
			return "ALTER TABLE " + b.tableName(table) + " DROP CONSTRAINT " + b.constraintName(table+"_pkey")
		}
		d.afterCopy = postgresResetSequences
	case "mysql", "mysql5", "mariadb":
		d.paramSeparator = "="
		d.alterColumn = func(b *Builder, t *schema.Table, _, col *schema.Column) ([]string, error) {
			def, err := b.columnDefinition(t, col, false)
			if err != nil {
				return nil, err
			}
			return []string{"ALTER TABLE " + b.tableName(t.Name) + " MODIFY COLUMN " + def}, nil
		}
		d.dropIndex = func(b *Builder, table string, idx *schema.Index) string {
			return "DROP INDEX " + b.indexName(table, idx) + " ON " + b.tableName(table)
		}
		d.dropForeignKey = func(b *Builder, table string, fk *schema.ForeignKey) string {
			return "ALTER TABLE " + b.tableName(table) + " DROP FOREIGN KEY " + b.foreignKeyName(table, fk)
		}
		d.primaryKeyName = unnamedPrimaryKey
		d.dropPrimaryKey = dropPrimaryKeyClause
	case "sqlite":
		d.inlineIdentity = true
		d.primaryKeyName = unnamedPrimaryKey
		d.columnType = func(b *Builder, table string, col *schema.Column) (string, error) {
			// AUTOINCREMENT requires the exact type INTEGER
			if col.AutoIncrement && col.PrimaryKey {
				return "INTEGER", nil
			}
			return b.columnType(table, col)
		}
		d.inlinePrimaryKey = func(_ *Builder, t *schema.Table) *schema.Column {
			if pk := t.PrimaryKeyColumns(); len(pk) == 1 && pk[0].AutoIncrement {
				return pk[0]
			}
			return nil
		}
	case "mssql":
		d.addColumn = "ADD"
		d.alterColumn = alterColumnMSSQL
		d.dropIndex = func(b *Builder, table string, idx *schema.Index) string {
			return "DROP INDEX " + b.indexName(table, idx) + " ON " + b.tableName(table)
		}
	case "sybase", "sybasease15":
		d.addColumn = "ADD"
		d.alterColumn = alterColumnSybase
		d.dropIndex = func(b *Builder, table string, idx *schema.Index) string {
			return "DROP INDEX " + b.tableName(table) + "." + b.indexName(table, idx)
		}
	case "oracle8", "oracle9", "oracle10":
		d.addColumn = "ADD"
		d.sequenceIdentity = true
		d.alterColumn = alterColumnOracle
		d.dropPrimaryKey = dropPrimaryKeyClause
		d.afterCreateTable = oracleCreateSequences
		d.afterDropTable = oracleDropSequences
	case "db2", "db2v8", "derby", "cloudscape":
		d.addColumn = "ADD"
		d.dropPrimaryKey = dropPrimaryKeyClause
	case "h2":
		d.dropPrimaryKey = dropPrimaryKeyClause
	case "firebird", "interbase", "maxdb", "sapdb":
		d.addColumn = "ADD"
	}
	return d
}

// dialectHandlers shadow base handlers for single dialects
var dialectHandlers = map[string]map[compare.Kind]Handler{
	"sqlite": {
		compare.KindAddTable:         sqliteAddTable,
		compare.KindAddForeignKey:    sqliteAddForeignKey,
		compare.KindRemoveForeignKey: sqliteRemoveForeignKey,
		compare.KindRecreateTable:    sqliteRecreateTable,
	},
	"mysql":   {compare.KindColumnOrderChange: mysqlReorderColumns},
	"mysql5":  {compare.KindColumnOrderChange: mysqlReorderColumns},
	"mariadb": {compare.KindColumnOrderChange: mysqlReorderColumns},
}

// alterColumnSQL92 emits one ALTER COLUMN statement per changed property
func alterColumnSQL92(b *Builder, t *schema.Table, old, col *schema.Column) ([]string, error) {
	prefix := "ALTER TABLE " + b.tableName(t.Name) + " ALTER COLUMN " + b.columnName(old.Name)
	return alterColumnParts(b, t, old, col, alterSyntax{
		setType:     func(typ string) string { return prefix + " SET DATA TYPE " + typ },
		setDefault:  func(v string) string { return prefix + " SET DEFAULT " + v },
		dropDefault: prefix + " DROP DEFAULT",
		setNotNull:  prefix + " SET NOT NULL",
		dropNotNull: prefix + " DROP NOT NULL",
	})
}

// alterColumnPostgres renders types without the SERIAL shorthands, which are only valid
// in CREATE TABLE
func alterColumnPostgres(b *Builder, t *schema.Table, old, col *schema.Column) ([]string, error) {
	prefix := "ALTER TABLE " + b.tableName(t.Name) + " ALTER COLUMN " + b.columnName(old.Name)
	return alterColumnParts(b, t, old, col, alterSyntax{
		columnType:  b.columnType,
		setType:     func(typ string) string { return prefix + " TYPE " + typ },
		setDefault:  func(v string) string { return prefix + " SET DEFAULT " + v },
		dropDefault: prefix + " DROP DEFAULT",
		setNotNull:  prefix + " SET NOT NULL",
		dropNotNull: prefix + " DROP NOT NULL",
	})
}

func alterColumnOracle(b *Builder, t *schema.Table, old, col *schema.Column) ([]string, error) {
	prefix := "ALTER TABLE " + b.tableName(t.Name) + " MODIFY (" + b.columnName(old.Name)
	return alterColumnParts(b, t, old, col, alterSyntax{
		setType:     func(typ string) string { return prefix + " " + typ + ")" },
		setDefault:  func(v string) string { return prefix + " DEFAULT " + v + ")" },
		dropDefault: prefix + " DEFAULT NULL)",
		setNotNull:  prefix + " NOT NULL)",
		dropNotNull: prefix + " NULL)",
	})
}

type alterSyntax struct {
	columnType  func(table string, col *schema.Column) (string, error) // nil uses the dialect's column type
	setType     func(typ string) string
	setDefault  func(v string) string
	dropDefault string
	setNotNull  string
	dropNotNull string
}

func alterColumnParts(b *Builder, t *schema.Table, old, col *schema.Column, syn alterSyntax) ([]string, error) {
	columnType := syn.columnType
	if columnType == nil {
		columnType = func(table string, c *schema.Column) (string, error) {
			return b.sql.columnType(b, table, c)
		}
	}
	oldType, err := columnType(t.Name, old)
	if err != nil {
		return nil, err
	}
	newType, err := columnType(t.Name, col)
	if err != nil {
		return nil, err
	}

	var stmts []string
	if oldType != newType {
		stmts = append(stmts, syn.setType(newType))
	}
	if renderedDefault(b, old) != renderedDefault(b, col) {
		if col.DefaultValue != nil && !col.AutoIncrement {
			stmts = append(stmts, syn.setDefault(b.defaultValue(col)))
		} else {
			stmts = append(stmts, syn.dropDefault)
		}
	}
	if old.Required != col.Required {
		if col.Required {
			stmts = append(stmts, syn.setNotNull)
		} else {
			stmts = append(stmts, syn.dropNotNull)
		}
	}
	return stmts, nil
}

func renderedDefault(b *Builder, col *schema.Column) string {
	if col.DefaultValue == nil || col.AutoIncrement {
		return ""
	}
	return b.defaultValue(col)
}

func nullability(col *schema.Column) string {
	if col.Required || col.PrimaryKey {
		return " NOT NULL"
	}
	return " NULL"
}

// alterColumnMSSQL restates type and nullability together; defaults live in
// separate constraints
func alterColumnMSSQL(b *Builder, t *schema.Table, old, col *schema.Column) ([]string, error) {
	typ, err := b.columnType(t.Name, col)
	if err != nil {
		return nil, err
	}
	oldType, err := b.columnType(t.Name, old)
	if err != nil {
		return nil, err
	}

	var stmts []string
	if typ != oldType || old.Required != col.Required {
		stmts = append(stmts, "ALTER TABLE "+b.tableName(t.Name)+" ALTER COLUMN "+b.columnName(old.Name)+" "+typ+nullability(col))
	}
	if renderedDefault(b, old) != renderedDefault(b, col) {
		if old.DefaultValue != nil {
			logging.Warn("existing default constraint has to be dropped manually",
				"dialect", b.info.Name(), "table", t.Name, "column", old.Name)
			b.comment(t.Name, "drop the default constraint of %s.%s before applying the new default", t.Name, old.Name)
		}
		if col.DefaultValue != nil && !col.AutoIncrement {
			stmts = append(stmts, "ALTER TABLE "+b.tableName(t.Name)+" ADD DEFAULT "+b.defaultValue(col)+" FOR "+b.columnName(old.Name))
		}
	}
	return stmts, nil
}

func alterColumnSybase(b *Builder, t *schema.Table, old, col *schema.Column) ([]string, error) {
	typ, err := b.columnType(t.Name, col)
	if err != nil {
		return nil, err
	}
	oldType, err := b.columnType(t.Name, old)
	if err != nil {
		return nil, err
	}

	var stmts []string
	if typ != oldType || old.Required != col.Required {
		stmts = append(stmts, "ALTER TABLE "+b.tableName(t.Name)+" MODIFY "+b.columnName(old.Name)+" "+typ+nullability(col))
	}
	if renderedDefault(b, old) != renderedDefault(b, col) {
		value := "NULL"
		if col.DefaultValue != nil && !col.AutoIncrement {
			value = b.defaultValue(col)
		}
		stmts = append(stmts, "ALTER TABLE "+b.tableName(t.Name)+" REPLACE "+b.columnName(old.Name)+" DEFAULT "+value)
	}
	return stmts, nil
}

func postgresColumnType(b *Builder, table string, col *schema.Column) (string, error) {
	if col.AutoIncrement {
		switch b.info.TargetType(col.Type) {
		case schema.TypeBigInt:
			return "BIGSERIAL", nil
		case schema.TypeSmallInt, schema.TypeTinyInt:
			return "SMALLSERIAL", nil
		case schema.TypeInteger:
			return "SERIAL", nil
		}
	}
	return b.columnType(table, col)
}

// postgresResetSequences moves serial sequences past the copied values
func postgresResetSequences(b *Builder, t *schema.Table, name string) {
	for _, col := range t.AutoIncrementColumns() {
		column := b.columnName(col.Name)
		b.script.add(t.Name, "SELECT setval(pg_get_serial_sequence("+b.quoteValue(b.tableName(name))+", "+
			b.quoteValue(b.columnName(col.Name))+"), COALESCE(MAX("+column+"), 0) + 1, false) FROM "+b.tableName(name))
	}
}

func oracleSequenceName(b *Builder, table, column string) string {
	return b.constraintName("seq_" + table + "_" + column)
}

func oracleCreateSequences(b *Builder, t *schema.Table, name string) {
	for _, col := range t.AutoIncrementColumns() {
		seq := oracleSequenceName(b, name, col.Name)
		if !b.keepSequences[strings.ToLower(col.Name)] {
			b.script.add(t.Name, "CREATE SEQUENCE "+seq)
		}
		trigger := b.constraintName("trg_" + name + "_" + col.Name)
		column := b.columnName(col.Name)
		b.script.addTerminated(t.Name,
			"CREATE OR REPLACE TRIGGER "+trigger+" BEFORE INSERT ON "+b.tableName(name)+
				" FOR EACH ROW WHEN (new."+column+" IS NULL)\nBEGIN\n  SELECT "+seq+".nextval INTO :new."+column+
				" FROM dual;\nEND;", "\n/")
	}
}

func oracleDropSequences(b *Builder, t *schema.Table, name string) {
	for _, col := range t.AutoIncrementColumns() {
		if !b.keepSequences[strings.ToLower(col.Name)] {
			b.script.add(t.Name, "DROP SEQUENCE "+oracleSequenceName(b, name, col.Name))
		}
	}
}

// allForeignKeys embeds every foreign key; SQLite resolves REFERENCES only when rows
// are written, so the target table may be created later in the script
func allForeignKeys(*schema.ForeignKey) bool { return true }

// sqliteAddTable declares foreign keys inside CREATE TABLE, since SQLite cannot
// add them later
func sqliteAddTable(b *Builder, change compare.Change) error {
	c := change.(*compare.AddTable)
	if err := b.createTable(c.Table, c.Table.Name, tableShape{foreignKeys: allForeignKeys, indexes: true}); err != nil {
		return err
	}
	if err := c.Apply(b.model, b.cs); err != nil {
		return err
	}
	t, err := b.table(c.Table.Name)
	if err != nil {
		return err
	}
	for _, fk := range c.Table.ForeignKeys {
		t.ForeignKeys = append(t.ForeignKeys, fk.Clone())
	}
	b.model.Relink(b.cs)
	return nil
}

func sqliteAddForeignKey(b *Builder, change compare.Change) error {
	c := change.(*compare.AddForeignKey)
	t, err := b.table(c.Table)
	if err != nil {
		return err
	}
	if t.FindEquivalentForeignKey(c.ForeignKey, b.cs) != nil {
		return nil
	}
	logging.Warn("foreign key cannot be added to an existing table",
		"dialect", b.info.Name(), "table", t.Name, "foreign_key", c.ForeignKey.String())
	b.comment(t.Name, "foreign key %s%s cannot be added to existing table %s", c.ForeignKey.Name, c.ForeignKey, t.Name)
	return nil
}

func sqliteRemoveForeignKey(b *Builder, change compare.Change) error {
	c := change.(*compare.RemoveForeignKey)
	b.comment(c.Table, "foreign key %s%s is removed together with its table", c.ForeignKey.Name, c.ForeignKey)
	return c.Apply(b.model, b.cs)
}

// sqliteRecreateTable rebuilds with foreign key enforcement off, so dropping the old
// table neither fails nor cascades into referencing tables
func sqliteRecreateTable(b *Builder, change compare.Change) error {
	c := change.(*compare.RecreateTable)

	b.script.add(c.Table, "PRAGMA foreign_keys = OFF")
	if err := b.recreate(c, allForeignKeys); err != nil {
		return err
	}
	b.script.add(c.Table, "PRAGMA foreign_keys = ON")

	if err := c.Apply(b.model, b.cs); err != nil {
		return err
	}
	t, err := b.table(c.TargetTable.Name)
	if err != nil {
		return err
	}
	t.ForeignKeys = c.TargetTable.Clone().ForeignKeys
	b.model.Relink(b.cs)
	return nil
}

// mysqlReorderColumns moves each column behind its predecessor in the new order
func mysqlReorderColumns(b *Builder, change compare.Change) error {
	c := change.(*compare.ColumnOrderChange)
	t, err := b.table(c.Table)
	if err != nil {
		return err
	}
	prev := ""
	for _, name := range c.Order {
		col := t.FindColumn(name, b.cs)
		if col == nil {
			continue
		}
		def, err := b.columnDefinition(t, col, false)
		if err != nil {
			return err
		}
		position := " FIRST"
		if prev != "" {
			position = " AFTER " + b.columnName(prev)
		}
		b.script.add(t.Name, "ALTER TABLE "+b.tableName(t.Name)+" MODIFY COLUMN "+def+position)
		prev = col.Name
	}
	return c.Apply(b.model, b.cs)
}
