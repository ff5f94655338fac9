package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tordrt/schemasync/internal/schema"
)

// MSSQLSource reads catalog metadata from SQL Server
type MSSQLSource struct {
	db     *sql.DB
	schema string
}

// NewMSSQLSource creates a SQL Server metadata source; the schema defaults to dbo
func NewMSSQLSource(client *MSSQLClient, schemaName string) *MSSQLSource {
	if schemaName == "" {
		schemaName = "dbo"
	}
	return &MSSQLSource{db: client.GetDB(), schema: schemaName}
}

// Tables lists the base tables of the schema
func (s *MSSQLSource) Tables(ctx context.Context, filter TableFilter) ([]TableRow, error) {
	schemaName := s.schema
	if filter.Schema != "" {
		schemaName = filter.Schema
	}

	query := `
		SELECT TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`

	rows, err := s.db.QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []TableRow
	for rows.Next() {
		row := TableRow{Type: "TABLE"}
		if err := rows.Scan(&row.Catalog, &row.Schema, &row.Name); err != nil {
			return nil, err
		}
		tables = append(tables, row)
	}

	return tables, rows.Err()
}

// Columns lists the columns of a table in ordinal order
func (s *MSSQLSource) Columns(ctx context.Context, table TableRow) ([]ColumnRow, error) {
	query := `
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			c.CHARACTER_MAXIMUM_LENGTH,
			c.NUMERIC_PRECISION,
			c.NUMERIC_SCALE,
			c.IS_NULLABLE,
			c.COLUMN_DEFAULT,
			c.ORDINAL_POSITION,
			COLUMNPROPERTY(OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME)), c.COLUMN_NAME, 'IsIdentity')
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
		ORDER BY c.ORDINAL_POSITION
	`

	rows, err := s.db.QueryContext(ctx, query, table.Schema, table.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []ColumnRow
	for rows.Next() {
		var col ColumnRow
		var dataType, nullable string
		var charMaxLength, numericPrecision, numericScale, identity sql.NullInt64
		var defaultVal sql.NullString

		if err := rows.Scan(&col.ColumnName, &dataType, &charMaxLength, &numericPrecision, &numericScale,
			&nullable, &defaultVal, &col.OrdinalPosition, &identity); err != nil {
			return nil, err
		}

		col.TypeName = dataType
		col.DataType = mssqlTypeCode(strings.ToLower(dataType), charMaxLength)
		col.Nullable = nullable == "YES"
		col.AutoIncrement = identity.Valid && identity.Int64 == 1

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

		if defaultVal.Valid {
			col.ColumnDef = normalizeDefault(&defaultVal.String)
		}
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// mssqlTypeCode maps INFORMATION_SCHEMA data types to type codes.
// (MAX) types report a length of -1 and map to the long types.
func mssqlTypeCode(dataType string, maxLength sql.NullInt64) schema.TypeCode {
	isMax := maxLength.Valid && maxLength.Int64 == -1
	switch dataType {
	case "bit":
		return schema.TypeBit
	case "tinyint":
		return schema.TypeTinyInt
	case "smallint":
		return schema.TypeSmallInt
	case "int":
		return schema.TypeInteger
	case "bigint":
		return schema.TypeBigInt
	case "real":
		return schema.TypeReal
	case "float":
		return schema.TypeFloat
	case "decimal", "money", "smallmoney":
		return schema.TypeDecimal
	case "numeric":
		return schema.TypeNumeric
	case "char", "nchar":
		return schema.TypeChar
	case "varchar", "nvarchar":
		if isMax {
			return schema.TypeLongVarchar
		}
		return schema.TypeVarchar
	case "text", "ntext", "xml":
		return schema.TypeLongVarchar
	case "date":
		return schema.TypeDate
	case "time":
		return schema.TypeTime
	case "datetime", "datetime2", "smalldatetime", "datetimeoffset":
		return schema.TypeTimestamp
	case "binary":
		return schema.TypeBinary
	case "varbinary":
		if isMax {
			return schema.TypeLongVarBinary
		}
		return schema.TypeVarBinary
	case "image":
		return schema.TypeLongVarBinary
	default:
		return schema.TypeOther
	}
}

// PrimaryKeys lists the primary key columns of a table
func (s *MSSQLSource) PrimaryKeys(ctx context.Context, table TableRow) ([]PrimaryKeyRow, error) {
	query := `
		SELECT kcu.COLUMN_NAME, kcu.ORDINAL_POSITION, kcu.CONSTRAINT_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
		JOIN INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
		WHERE tc.TABLE_SCHEMA = @p1
			AND tc.TABLE_NAME = @p2
			AND tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
		ORDER BY kcu.ORDINAL_POSITION
	`

	rows, err := s.db.QueryContext(ctx, query, table.Schema, table.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk []PrimaryKeyRow
	for rows.Next() {
		var row PrimaryKeyRow
		if err := rows.Scan(&row.ColumnName, &row.KeySeq, &row.PKName); err != nil {
			return nil, err
		}
		pk = append(pk, row)
	}

	return pk, rows.Err()
}

// ForeignKeys lists the foreign key column pairs of a table
func (s *MSSQLSource) ForeignKeys(ctx context.Context, table TableRow) ([]ForeignKeyRow, error) {
	query := `
		SELECT
			fk.name,
			pc.name,
			rt.name,
			rc.name,
			fkc.constraint_column_id,
			fk.update_referential_action_desc,
			fk.delete_referential_action_desc
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
		JOIN sys.tables pt ON pt.object_id = fk.parent_object_id
		JOIN sys.schemas ps ON ps.schema_id = pt.schema_id
		JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
		JOIN sys.tables rt ON rt.object_id = fk.referenced_object_id
		JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
		WHERE ps.name = @p1 AND pt.name = @p2
		ORDER BY fk.name, fkc.constraint_column_id
	`

	rows, err := s.db.QueryContext(ctx, query, table.Schema, table.Name)
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
func (s *MSSQLSource) Indexes(ctx context.Context, table TableRow) ([]IndexRow, error) {
	query := `
		SELECT i.name, i.is_unique, c.name, ic.key_ordinal
		FROM sys.indexes i
		JOIN sys.tables t ON t.object_id = i.object_id
		JOIN sys.schemas s ON s.schema_id = t.schema_id
		JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
		JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		WHERE s.name = @p1
			AND t.name = @p2
			AND i.type > 0
			AND i.is_hypothetical = 0
			AND ic.key_ordinal > 0
		ORDER BY i.name, ic.key_ordinal
	`

	rows, err := s.db.QueryContext(ctx, query, table.Schema, table.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []IndexRow
	for rows.Next() {
		var row IndexRow
		var unique bool
		if err := rows.Scan(&row.IndexName, &unique, &row.ColumnName, &row.OrdinalPosition); err != nil {
			return nil, err
		}
		row.NonUnique = !unique
		indexes = append(indexes, row)
	}

	return indexes, rows.Err()
}
