package db

import (
	"context"
	"strconv"
	"strings"

	"github.com/tordrt/schemasync/internal/platform"
	"github.com/tordrt/schemasync/internal/schema"
)

// TableFilter narrows the tables a MetadataSource reports
type TableFilter struct {
	Catalog    string
	Schema     string
	TableTypes []string // e.g. "TABLE"; empty means base tables only
	Tables     []string // explicit table names; empty means all
	Exclude    []string // table names to leave out
}

func (f TableFilter) wants(name string) bool {
	if containsFold(f.Exclude, name) {
		return false
	}
	return len(f.Tables) == 0 || containsFold(f.Tables, name)
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// TableRow describes one table (TABLE_CAT, TABLE_SCHEM, TABLE_NAME, TABLE_TYPE, REMARKS)
type TableRow struct {
	Catalog string
	Schema  string
	Name    string
	Type    string
	Remarks string
}

// ColumnRow describes one column of a table
type ColumnRow struct {
	ColumnName      string          // COLUMN_NAME
	TypeName        string          // TYPE_NAME as reported by the database
	DataType        schema.TypeCode // DATA_TYPE
	ColumnSize      *int            // COLUMN_SIZE, nil when the driver omits it
	DecimalDigits   *int            // DECIMAL_DIGITS
	Nullable        bool            // NULLABLE
	ColumnDef       *string         // COLUMN_DEF, already stripped of vendor decoration
	Remarks         string          // REMARKS
	OrdinalPosition int             // ORDINAL_POSITION
	AutoIncrement   bool            // IS_AUTOINCREMENT
}

// PrimaryKeyRow is one column of a primary key
type PrimaryKeyRow struct {
	ColumnName string // COLUMN_NAME
	KeySeq     int    // KEY_SEQ
	PKName     string // PK_NAME
}

// ForeignKeyRow is one column pair of a foreign key
type ForeignKeyRow struct {
	FKName       string // FK_NAME
	FKColumnName string // FKCOLUMN_NAME
	PKTableName  string // PKTABLE_NAME
	PKColumnName string // PKCOLUMN_NAME
	KeySeq       int    // KEY_SEQ
	UpdateRule   string // UPDATE_RULE, vendor spelling
	DeleteRule   string // DELETE_RULE, vendor spelling
}

// IndexRow is one column of an index
type IndexRow struct {
	IndexName       string // INDEX_NAME
	NonUnique       bool   // NON_UNIQUE
	ColumnName      string // COLUMN_NAME
	OrdinalPosition int    // ORDINAL_POSITION
	Statistic       bool   // TYPE = tableIndexStatistic
}

// MetadataSource introspects the catalog of a connected database
type MetadataSource interface {
	Tables(ctx context.Context, filter TableFilter) ([]TableRow, error)
	Columns(ctx context.Context, table TableRow) ([]ColumnRow, error)
	PrimaryKeys(ctx context.Context, table TableRow) ([]PrimaryKeyRow, error)
	ForeignKeys(ctx context.Context, table TableRow) ([]ForeignKeyRow, error)
	Indexes(ctx context.Context, table TableRow) ([]IndexRow, error)
}

// ParseVendorAction translates a vendor referential rule into a cascade action.
// Empty or unknown rules fall back to the dialect default for kind.
func ParseVendorAction(rule string, info *platform.Info, kind platform.ActionKind) schema.CascadeAction {
	switch strings.ToUpper(strings.TrimSpace(rule)) {
	case "0":
		return schema.ActionCascade
	case "1":
		return schema.ActionRestrict
	case "2":
		return schema.ActionSetNull
	case "3":
		return schema.ActionNone
	case "4":
		return schema.ActionSetDefault
	}
	if action, err := schema.ParseCascadeAction(rule); err == nil && strings.TrimSpace(rule) != "" {
		return action
	}
	return info.DefaultAction(kind)
}

// normalizeDefault strips quoting and casts the catalogs add around default values.
// NULL defaults become nil.
func normalizeDefault(def *string) *string {
	if def == nil {
		return nil
	}
	v := strings.TrimSpace(*def)
	for len(v) >= 2 && v[0] == '(' && v[len(v)-1] == ')' {
		v = strings.TrimSpace(v[1 : len(v)-1])
	}
	if i := strings.Index(v, "::"); i > 0 && !strings.ContainsAny(v[i:], "()") {
		v = v[:i]
	}
	if strings.EqualFold(v, "NULL") {
		return nil
	}
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		v = strings.ReplaceAll(v[1:len(v)-1], "''", "'")
	}
	return &v
}

// splitTypeName splits a declared type such as "VARCHAR(50)" or "decimal(10, 2) unsigned"
// into its lowercase base name and optional size and scale.
func splitTypeName(decl string) (base string, size, scale *int) {
	decl = strings.ToLower(strings.TrimSpace(decl))
	open := strings.Index(decl, "(")
	if open < 0 {
		return decl, nil, nil
	}
	end := strings.Index(decl[open:], ")")
	if end < 0 {
		return strings.TrimSpace(decl[:open]), nil, nil
	}
	base = strings.TrimSpace(decl[:open] + decl[open+end+1:])
	parts := strings.Split(decl[open+1:open+end], ",")
	if n, ok := atoi(parts[0]); ok {
		size = &n
	}
	if len(parts) > 1 {
		if n, ok := atoi(parts[1]); ok {
			scale = &n
		}
	}
	return base, size, scale
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

func intPtr(n int) *int { return &n }
