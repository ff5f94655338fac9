package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tordrt/schemasync/internal/schema"
)

// MySQLSource reads catalog metadata from MySQL and MariaDB
type MySQLSource struct {
	db         *sql.DB
	schemaName string
}

// NewMySQLSource creates a MySQL metadata source.
// An empty schema name falls back to the database named in the DSN.
func NewMySQLSource(client *MySQLClient, schemaName string) *MySQLSource {
	if schemaName == "" {
		schemaName = client.DatabaseName()
	}
	return &MySQLSource{db: client.GetDB(), schemaName: schemaName}
}

// Tables lists the base tables of the schema
func (s *MySQLSource) Tables(ctx context.Context, filter TableFilter) ([]TableRow, error) {
	schemaName := s.schemaName
	if filter.Schema != "" {
		schemaName = filter.Schema
	}

	query := `
		SELECT table_name, table_comment
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := s.db.QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []TableRow
	for rows.Next() {
		row := TableRow{Catalog: schemaName, Type: "TABLE"}
		if err := rows.Scan(&row.Name, &row.Remarks); err != nil {
			return nil, err
		}
		tables = append(tables, row)
	}

	return tables, rows.Err()
}

// Columns lists the columns of a table in ordinal order
func (s *MySQLSource) Columns(ctx context.Context, table TableRow) ([]ColumnRow, error) {
	query := `
		SELECT
			column_name,
			data_type,
			column_type,
			character_maximum_length,
			numeric_precision,
			numeric_scale,
			is_nullable,
			column_default,
			extra,
			ordinal_position,
			column_comment
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := s.db.QueryContext(ctx, query, table.Catalog, table.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []ColumnRow
	for rows.Next() {
		var col ColumnRow
		var dataType, columnType, nullable, extra string
		var charMaxLength, numericPrecision, numericScale sql.NullInt64
		var defaultVal sql.NullString

		if err := rows.Scan(&col.ColumnName, &dataType, &columnType, &charMaxLength, &numericPrecision,
			&numericScale, &nullable, &defaultVal, &extra, &col.OrdinalPosition, &col.Remarks); err != nil {
			return nil, err
		}

		col.TypeName = columnType
		col.DataType = mysqlTypeCode(strings.ToLower(dataType))
		col.Nullable = nullable == "YES"
		col.AutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")

		switch col.DataType {
		case schema.TypeChar, schema.TypeVarchar, schema.TypeBinary, schema.TypeVarBinary:
			if charMaxLength.Valid {
				col.ColumnSize = intPtr(int(charMaxLength.Int64))
			}
		case schema.TypeDecimal, schema.TypeNumeric:
			if numericPrecision.Valid {
				col.ColumnSize = intPtr(int(numericPrecision.Int64))
			}
			if numericScale.Valid {
				col.DecimalDigits = intPtr(int(numericScale.Int64))
			}
		}

		if defaultVal.Valid && !col.AutoIncrement {
			col.ColumnDef = normalizeDefault(&defaultVal.String)
		}
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// mysqlTypeCode maps information_schema data types to type codes
func mysqlTypeCode(dataType string) schema.TypeCode {
	switch dataType {
	case "bit":
		return schema.TypeBit
	case "tinyint":
		return schema.TypeTinyInt
	case "smallint":
		return schema.TypeSmallInt
	case "mediumint", "int", "integer":
		return schema.TypeInteger
	case "bigint":
		return schema.TypeBigInt
	case "float":
		return schema.TypeReal
	case "double":
		return schema.TypeDouble
	case "decimal":
		return schema.TypeDecimal
	case "numeric":
		return schema.TypeNumeric
	case "char":
		return schema.TypeChar
	case "varchar":
		return schema.TypeVarchar
	case "tinytext", "text", "mediumtext":
		return schema.TypeLongVarchar
	case "longtext":
		return schema.TypeClob
	case "date":
		return schema.TypeDate
	case "time":
		return schema.TypeTime
	case "datetime", "timestamp":
		return schema.TypeTimestamp
	case "binary":
		return schema.TypeBinary
	case "varbinary":
		return schema.TypeVarBinary
	case "tinyblob", "blob", "mediumblob":
		return schema.TypeLongVarBinary
	case "longblob":
		return schema.TypeBlob
	default:
		return schema.TypeOther
	}
}

// PrimaryKeys lists the primary key columns of a table
func (s *MySQLSource) PrimaryKeys(ctx context.Context, table TableRow) ([]PrimaryKeyRow, error) {
	query := `
		SELECT column_name, ordinal_position
		FROM information_schema.key_column_usage
		WHERE table_schema = ? AND table_name = ? AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`

	rows, err := s.db.QueryContext(ctx, query, table.Catalog, table.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk []PrimaryKeyRow
	for rows.Next() {
		row := PrimaryKeyRow{PKName: "PRIMARY"}
		if err := rows.Scan(&row.ColumnName, &row.KeySeq); err != nil {
			return nil, err
		}
		pk = append(pk, row)
	}

	return pk, rows.Err()
}

// ForeignKeys lists the foreign key column pairs of a table
func (s *MySQLSource) ForeignKeys(ctx context.Context, table TableRow) ([]ForeignKeyRow, error) {
	query := `
		SELECT
			kcu.constraint_name,
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name,
			kcu.ordinal_position,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_schema = kcu.constraint_schema
			AND rc.constraint_name = kcu.constraint_name
			AND rc.table_name = kcu.table_name
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position
	`

	rows, err := s.db.QueryContext(ctx, query, table.Catalog, table.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKeyRow
	for rows.Next() {
		var row ForeignKeyRow
		if err := rows.Scan(&row.FKName, &row.FKColumnName, &row.PKTableName, &row.PKColumnName,
			&row.KeySeq, &row.UpdateRule, &row.DeleteRule); err != nil {
			return nil, err
		}
		fks = append(fks, row)
	}

	return fks, rows.Err()
}

// Indexes lists the index columns of a table
func (s *MySQLSource) Indexes(ctx context.Context, table TableRow) ([]IndexRow, error) {
	query := `
		SELECT index_name, non_unique, column_name, seq_in_index
		FROM information_schema.statistics
		WHERE table_schema = ? AND table_name = ?
		ORDER BY index_name, seq_in_index
	`

	rows, err := s.db.QueryContext(ctx, query, table.Catalog, table.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []IndexRow
	for rows.Next() {
		var row IndexRow
		var nonUnique int
		var columnName sql.NullString
		if err := rows.Scan(&row.IndexName, &nonUnique, &columnName, &row.OrdinalPosition); err != nil {
			return nil, err
		}
		// functional key parts have no column
		if !columnName.Valid {
			continue
		}
		row.NonUnique = nonUnique != 0
		row.ColumnName = columnName.String
		indexes = append(indexes, row)
	}

	return indexes, rows.Err()
}

// SystemIndexFilter drops the PRIMARY index and the indexes InnoDB creates for
// foreign keys, which carry the constraint's name.
func (s *MySQLSource) SystemIndexFilter(_ SystemIndexFilter) SystemIndexFilter {
	return func(table *schema.Table, idx *schema.Index) bool {
		if idx.Name == "PRIMARY" {
			return true
		}
		if fk := table.FindForeignKeyByName(idx.Name, false); fk != nil {
			return schema.SameNameSet(idx.ColumnNames(), fk.LocalColumnNames(), false)
		}
		return false
	}
}
