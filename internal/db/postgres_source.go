package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tordrt/schemasync/internal/schema"
)

// PostgresSource reads catalog metadata from PostgreSQL.
// Each call borrows one pooled connection and returns it before returning.
type PostgresSource struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgresSource creates a metadata source for one PostgreSQL schema
func NewPostgresSource(client *PostgresClient, schemaName string) *PostgresSource {
	if schemaName == "" {
		schemaName = "public"
	}
	return &PostgresSource{pool: client.GetPool(), schema: schemaName}
}

// Tables lists the base tables of the schema
func (s *PostgresSource) Tables(ctx context.Context, filter TableFilter) ([]TableRow, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	query := `
		SELECT
			t.table_catalog,
			t.table_schema,
			t.table_name,
			COALESCE(obj_description(format('%I.%I', t.table_schema, t.table_name)::regclass, 'pg_class'), '')
		FROM information_schema.tables t
		WHERE t.table_schema = $1 AND t.table_type = 'BASE TABLE'
		ORDER BY t.table_name
	`

	rows, err := conn.Query(ctx, query, s.schemaFor(filter))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []TableRow
	for rows.Next() {
		row := TableRow{Type: "TABLE"}
		if err := rows.Scan(&row.Catalog, &row.Schema, &row.Name, &row.Remarks); err != nil {
			return nil, err
		}
		tables = append(tables, row)
	}

	return tables, rows.Err()
}

func (s *PostgresSource) schemaFor(filter TableFilter) string {
	if filter.Schema != "" {
		return filter.Schema
	}
	return s.schema
}

// Columns lists the columns of a table in ordinal order
func (s *PostgresSource) Columns(ctx context.Context, table TableRow) ([]ColumnRow, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			c.is_nullable,
			c.column_default,
			c.is_identity,
			c.ordinal_position,
			COALESCE(col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position::int), '')
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := conn.Query(ctx, query, table.Schema, table.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []ColumnRow
	for rows.Next() {
		var col ColumnRow
		var dataType, udtName, nullable, identity string
		var charMaxLength, numericPrecision, numericScale *int
		var defaultVal *string

		if err := rows.Scan(&col.ColumnName, &dataType, &udtName, &charMaxLength, &numericPrecision,
			&numericScale, &nullable, &defaultVal, &identity, &col.OrdinalPosition, &col.Remarks); err != nil {
			return nil, err
		}

		col.TypeName = dataType
		col.DataType = postgresTypeCode(dataType, udtName)
		col.Nullable = nullable == "YES"
		col.AutoIncrement = identity == "YES" ||
			(defaultVal != nil && strings.HasPrefix(*defaultVal, "nextval("))

		switch col.DataType {
		case schema.TypeChar, schema.TypeVarchar:
			col.ColumnSize = charMaxLength
		case schema.TypeNumeric, schema.TypeDecimal:
			col.ColumnSize = numericPrecision
			col.DecimalDigits = numericScale
		}

		if !col.AutoIncrement {
			col.ColumnDef = normalizeDefault(defaultVal)
		}
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// postgresTypeCode maps information_schema data types to type codes
func postgresTypeCode(dataType, udtName string) schema.TypeCode {
	switch dataType {
	case "smallint":
		return schema.TypeSmallInt
	case "integer":
		return schema.TypeInteger
	case "bigint":
		return schema.TypeBigInt
	case "real":
		return schema.TypeReal
	case "double precision":
		return schema.TypeDouble
	case "numeric":
		return schema.TypeNumeric
	case "boolean":
		return schema.TypeBoolean
	case "character":
		return schema.TypeChar
	case "character varying":
		return schema.TypeVarchar
	case "text":
		return schema.TypeLongVarchar
	case "bytea":
		return schema.TypeLongVarBinary
	case "date":
		return schema.TypeDate
	case "time without time zone", "time with time zone":
		return schema.TypeTime
	case "timestamp without time zone", "timestamp with time zone":
		return schema.TypeTimestamp
	case "bit", "bit varying":
		return schema.TypeBit
	case "ARRAY":
		return schema.TypeArray
	case "USER-DEFINED":
		if udtName == "oid" {
			return schema.TypeBlob
		}
		return schema.TypeOther
	default:
		return schema.TypeOther
	}
}

// PrimaryKeys lists the primary key columns of a table
func (s *PostgresSource) PrimaryKeys(ctx context.Context, table TableRow) ([]PrimaryKeyRow, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	query := `
		SELECT kcu.column_name, kcu.ordinal_position, kcu.constraint_name
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.table_constraints tc
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.table_schema = $1
			AND tc.table_name = $2
			AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
	`

	rows, err := conn.Query(ctx, query, table.Schema, table.Name)
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
func (s *PostgresSource) ForeignKeys(ctx context.Context, table TableRow) ([]ForeignKeyRow, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	query := `
		SELECT
			con.conname,
			la.attname,
			pc.relname,
			pa.attname,
			u.ord,
			con.confupdtype::text,
			con.confdeltype::text
		FROM pg_constraint con
		JOIN pg_class cc ON cc.oid = con.conrelid
		JOIN pg_namespace cn ON cn.oid = cc.relnamespace
		JOIN pg_class pc ON pc.oid = con.confrelid
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS u(child_attnum, parent_attnum, ord)
		JOIN pg_attribute la ON la.attrelid = cc.oid AND la.attnum = u.child_attnum
		JOIN pg_attribute pa ON pa.attrelid = pc.oid AND pa.attnum = u.parent_attnum
		WHERE con.contype = 'f'
			AND cn.nspname = $1
			AND cc.relname = $2
		ORDER BY con.conname, u.ord
	`

	rows, err := conn.Query(ctx, query, table.Schema, table.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKeyRow
	for rows.Next() {
		var row ForeignKeyRow
		var updType, delType string
		if err := rows.Scan(&row.FKName, &row.FKColumnName, &row.PKTableName, &row.PKColumnName,
			&row.KeySeq, &updType, &delType); err != nil {
			return nil, err
		}
		row.UpdateRule = postgresActionRule(updType)
		row.DeleteRule = postgresActionRule(delType)
		fks = append(fks, row)
	}

	return fks, rows.Err()
}

// postgresActionRule translates pg_constraint action letters
func postgresActionRule(code string) string {
	switch code {
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	case "r":
		return "RESTRICT"
	case "a":
		return "NO ACTION"
	default:
		return ""
	}
}

// Indexes lists the index columns of a table, including key-backing indexes
func (s *PostgresSource) Indexes(ctx context.Context, table TableRow) ([]IndexRow, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	query := `
		SELECT
			i.relname AS index_name,
			NOT ix.indisunique AS non_unique,
			a.attname,
			u.ord
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		CROSS JOIN LATERAL unnest(ix.indkey::int2[]) WITH ORDINALITY AS u(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = u.attnum
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND t.relname = $2
		ORDER BY i.relname, u.ord
	`

	rows, err := conn.Query(ctx, query, table.Schema, table.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []IndexRow
	for rows.Next() {
		var row IndexRow
		if err := rows.Scan(&row.IndexName, &row.NonUnique, &row.ColumnName, &row.OrdinalPosition); err != nil {
			return nil, err
		}
		indexes = append(indexes, row)
	}

	return indexes, rows.Err()
}
