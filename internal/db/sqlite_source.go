package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/schemasync/internal/schema"
)

// SQLiteSource reads catalog metadata from SQLite through PRAGMA queries.
// It works with both registered SQLite drivers.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource creates a SQLite metadata source
func NewSQLiteSource(client *SQLiteClient) *SQLiteSource {
	return &SQLiteSource{db: client.GetDB()}
}

// quoteIdent quotes a name for use inside a PRAGMA call
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Tables lists the user tables of the database
func (s *SQLiteSource) Tables(ctx context.Context, _ TableFilter) ([]TableRow, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []TableRow
	for rows.Next() {
		row := TableRow{Type: "TABLE"}
		if err := rows.Scan(&row.Name); err != nil {
			return nil, err
		}
		tables = append(tables, row)
	}

	return tables, rows.Err()
}

type sqliteColumn struct {
	cid          int
	name         string
	declType     string
	notNull      int
	defaultValue sql.NullString
	pk           int
}

func (s *SQLiteSource) tableInfo(ctx context.Context, tableName string) ([]sqliteColumn, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []sqliteColumn
	for rows.Next() {
		var c sqliteColumn
		if err := rows.Scan(&c.cid, &c.name, &c.declType, &c.notNull, &c.defaultValue, &c.pk); err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}

	return columns, rows.Err()
}

// hasAutoIncrement reports whether the table was declared with AUTOINCREMENT
func (s *SQLiteSource) hasAutoIncrement(ctx context.Context, tableName string) (bool, error) {
	var ddl sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", tableName).Scan(&ddl)
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToUpper(ddl.String), "AUTOINCREMENT"), nil
}

// Columns lists the columns of a table in declaration order
func (s *SQLiteSource) Columns(ctx context.Context, table TableRow) ([]ColumnRow, error) {
	info, err := s.tableInfo(ctx, table.Name)
	if err != nil {
		return nil, err
	}
	autoInc, err := s.hasAutoIncrement(ctx, table.Name)
	if err != nil {
		return nil, err
	}

	pkCount := 0
	for _, c := range info {
		if c.pk > 0 {
			pkCount++
		}
	}

	columns := make([]ColumnRow, 0, len(info))
	for _, c := range info {
		base, size, scale := splitTypeName(c.declType)
		col := ColumnRow{
			ColumnName:      c.name,
			TypeName:        c.declType,
			DataType:        sqliteTypeCode(base),
			ColumnSize:      size,
			DecimalDigits:   scale,
			Nullable:        c.notNull == 0,
			OrdinalPosition: c.cid + 1,
		}
		// only a lone INTEGER PRIMARY KEY can carry AUTOINCREMENT
		if autoInc && c.pk > 0 && pkCount == 1 && col.DataType == schema.TypeInteger {
			col.AutoIncrement = true
		}
		if c.defaultValue.Valid && !col.AutoIncrement {
			col.ColumnDef = normalizeDefault(&c.defaultValue.String)
		}
		columns = append(columns, col)
	}
	return columns, nil
}

// sqliteTypeCode maps a declared type name to a type code
func sqliteTypeCode(base string) schema.TypeCode {
	switch base {
	case "int", "integer", "mediumint":
		return schema.TypeInteger
	case "double", "double precision":
		return schema.TypeDouble
	case "character":
		return schema.TypeChar
	case "character varying", "nvarchar", "nchar varying":
		return schema.TypeVarchar
	case "text", "long varchar", "longvarchar":
		return schema.TypeLongVarchar
	case "long varbinary", "longvarbinary":
		return schema.TypeLongVarBinary
	case "datetime":
		return schema.TypeTimestamp
	case "bool":
		return schema.TypeBoolean
	}
	if code, err := schema.ParseTypeCode(base); err == nil {
		return code
	}
	return schema.TypeOther
}

// PrimaryKeys lists the primary key columns of a table
func (s *SQLiteSource) PrimaryKeys(ctx context.Context, table TableRow) ([]PrimaryKeyRow, error) {
	info, err := s.tableInfo(ctx, table.Name)
	if err != nil {
		return nil, err
	}

	var pk []PrimaryKeyRow
	for _, c := range info {
		if c.pk > 0 {
			pk = append(pk, PrimaryKeyRow{ColumnName: c.name, KeySeq: c.pk})
		}
	}
	return pk, nil
}

// ForeignKeys lists the foreign key column pairs of a table.
// SQLite does not keep constraint names, so names are derived from the key id.
func (s *SQLiteSource) ForeignKeys(ctx context.Context, table TableRow) ([]ForeignKeyRow, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table.Name))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKeyRow
	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, onUpdate, onDelete, match string
		var toCol sql.NullString

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		fks = append(fks, ForeignKeyRow{
			FKName:       fmt.Sprintf("fk_%s_%d", table.Name, id),
			FKColumnName: fromCol,
			PKTableName:  targetTable,
			PKColumnName: toCol.String,
			KeySeq:       seq + 1,
			UpdateRule:   onUpdate,
			DeleteRule:   onDelete,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// REFERENCES t without a column list points at the primary key of t
	for i := range fks {
		if fks[i].PKColumnName != "" {
			continue
		}
		pk, err := s.PrimaryKeys(ctx, TableRow{Name: fks[i].PKTableName})
		if err != nil {
			return nil, err
		}
		for _, p := range pk {
			if p.KeySeq == fks[i].KeySeq {
				fks[i].PKColumnName = p.ColumnName
			}
		}
	}
	return fks, nil
}

// Indexes lists the index columns of a table
func (s *SQLiteSource) Indexes(ctx context.Context, table TableRow) ([]IndexRow, error) {
	query := fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(table.Name))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	type indexEntry struct {
		name   string
		unique bool
	}
	var entries []indexEntry
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, indexEntry{name: name, unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var indexes []IndexRow
	for _, entry := range entries {
		cols, err := s.indexColumns(ctx, entry.name)
		if err != nil {
			return nil, err
		}
		for i, col := range cols {
			indexes = append(indexes, IndexRow{
				IndexName:       entry.name,
				NonUnique:       !entry.unique,
				ColumnName:      col,
				OrdinalPosition: i + 1,
			})
		}
	}
	return indexes, nil
}

func (s *SQLiteSource) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	query := fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(indexName))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString
		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}
	return columns, rows.Err()
}

// SystemIndexFilter additionally drops the indexes SQLite creates for PRIMARY KEY
// and UNIQUE constraints.
func (s *SQLiteSource) SystemIndexFilter(base SystemIndexFilter) SystemIndexFilter {
	return func(table *schema.Table, idx *schema.Index) bool {
		if strings.HasPrefix(idx.Name, "sqlite_autoindex_") {
			return true
		}
		return base(table, idx)
	}
}
