package sqlbuilder

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/tordrt/schemasync/internal/errors"
	"github.com/tordrt/schemasync/internal/logging"
	"github.com/tordrt/schemasync/internal/platform"
	"github.com/tordrt/schemasync/internal/schema"
)

// shortenName cuts a name to max characters by keeping its head and tail around an
// underscore, so generated names stay recognisable and distinct
func shortenName(name string, max int) string {
	if max <= 0 || len(name) <= max {
		return name
	}
	if max < 3 {
		return name[:max]
	}
	head := max / 2
	tail := max - head - 1
	return name[:head] + "_" + name[len(name)-tail:]
}

func (b *Builder) quote(name string) string {
	tokens := b.info.Tokens()
	if !b.opts.DelimitedIdentifiers || !b.info.Features().DelimitedIdentifiersSupported {
		return name
	}
	escaped := strings.ReplaceAll(name, tokens.DelimiterEnd, tokens.DelimiterEnd+tokens.DelimiterEnd)
	return tokens.DelimiterStart + escaped + tokens.DelimiterEnd
}

func (b *Builder) tableName(name string) string {
	return b.quote(shortenName(name, b.info.Limits().MaxTableNameLength))
}

func (b *Builder) columnName(name string) string {
	return b.quote(shortenName(name, b.info.Limits().MaxColumnNameLength))
}

func (b *Builder) constraintName(name string) string {
	return b.quote(shortenName(name, b.info.Limits().MaxConstraintNameLength))
}

func (b *Builder) columnList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = b.columnName(n)
	}
	return strings.Join(quoted, ", ")
}

// indexName returns the index name, generating one for unnamed indexes
func (b *Builder) indexName(table string, idx *schema.Index) string {
	name := idx.Name
	if name == "" {
		name = "idx_" + table + "_" + strings.Join(idx.ColumnNames(), "_")
	}
	return b.constraintName(name)
}

// foreignKeyName returns the constraint name, generating one for unnamed keys
func (b *Builder) foreignKeyName(table string, fk *schema.ForeignKey) string {
	name := fk.Name
	if name == "" {
		name = "fk_" + table + "_" + strings.Join(fk.LocalColumnNames(), "_")
	}
	return b.quote(shortenName(name, b.info.Limits().MaxForeignKeyNameLength))
}

// columnType renders the native type of a column with its size suffix
func (b *Builder) columnType(table string, col *schema.Column) (string, error) {
	native, ok := b.info.NativeType(col.Type)
	if !ok {
		return "", apperrors.NewTypeMapping(b.info.Name(), col.Type.String(), table+"."+col.Name)
	}

	var suffix string
	switch {
	case b.info.HasSize(col.Type):
		if size := b.sizeOf(col); size > 0 {
			suffix = "(" + strconv.Itoa(size) + ")"
		}
	case b.info.HasPrecisionAndScale(col.Type):
		if size := b.sizeOf(col); size > 0 {
			suffix = fmt.Sprintf("(%d,%d)", size, col.Scale)
		}
	}

	if strings.Contains(native, "{size}") {
		return strings.Replace(native, "{size}", suffix, 1), nil
	}
	if strings.Contains(native, "(") {
		return native, nil
	}
	return native + suffix, nil
}

func (b *Builder) sizeOf(col *schema.Column) int {
	if col.Size > 0 {
		return col.Size
	}
	return b.info.DefaultSize(col.Type)
}

func isLongType(code schema.TypeCode) bool {
	switch code {
	case schema.TypeLongVarchar, schema.TypeLongVarBinary, schema.TypeBlob, schema.TypeClob:
		return true
	}
	return false
}

var sqlFunctionCall = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*\s*\(.*\)$`)

var sqlKeywordDefaults = map[string]bool{
	"CURRENT_TIMESTAMP": true,
	"CURRENT_DATE":      true,
	"CURRENT_TIME":      true,
	"LOCALTIMESTAMP":    true,
	"LOCALTIME":         true,
	"SYSDATE":           true,
	"CURRENT_USER":      true,
	"NULL":              true,
}

// defaultValue renders the default of a column as a SQL literal or expression
func (b *Builder) defaultValue(col *schema.Column) string {
	raw := strings.TrimSpace(*col.DefaultValue)
	value, _ := col.ParsedDefault()
	switch v := value.(type) {
	case bool:
		if b.info.TargetType(col.Type) == schema.TypeBoolean {
			return strings.ToUpper(strconv.FormatBool(v))
		}
		if v {
			return "1"
		}
		return "0"
	case *big.Rat:
		return raw
	}
	if sqlKeywordDefaults[strings.ToUpper(raw)] || sqlFunctionCall.MatchString(raw) {
		return raw
	}
	return b.quoteValue(*col.DefaultValue)
}

func (b *Builder) quoteValue(v string) string {
	q := b.info.Tokens().ValueQuote
	return q + strings.ReplaceAll(v, q, q+q) + q
}

// columnDefinition renders "name type [DEFAULT x] [NOT NULL] [identity]".
// inlinePK appends PRIMARY KEY for dialects that declare identity keys on the column.
func (b *Builder) columnDefinition(table *schema.Table, col *schema.Column, inlinePK bool) (string, error) {
	typ, err := b.sql.columnType(b, table.Name, col)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(b.columnName(col.Name))
	sb.WriteString(" ")
	sb.WriteString(typ)

	if col.DefaultValue != nil && !col.AutoIncrement {
		if isLongType(col.Type) && !b.info.Features().DefaultValuesForLongTypesSupported {
			logging.Warn("dropping default of long column", "dialect", b.info.Name(), "table", table.Name, "column", col.Name)
		} else {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(b.defaultValue(col))
		}
	}

	switch {
	case col.Required || col.PrimaryKey:
		sb.WriteString(" NOT NULL")
	case b.info.Features().NullAsDefaultValueRequired || b.info.HasNullDefault(col.Type):
		sb.WriteString(" NULL")
	}

	if inlinePK {
		sb.WriteString(" PRIMARY KEY")
	}
	if col.AutoIncrement {
		if clause := b.identityClause(table, col, inlinePK); clause != "" {
			sb.WriteString(" ")
			sb.WriteString(clause)
		}
	}
	return sb.String(), nil
}

// identityClause returns the inline auto-increment clause, empty when the dialect
// handles identity another way or cannot declare it on this column
func (b *Builder) identityClause(table *schema.Table, col *schema.Column, inlinePK bool) string {
	if b.sql.serialTypes || b.sql.sequenceIdentity {
		return ""
	}
	if b.sql.inlineIdentity && !inlinePK {
		logging.Warn("auto-increment needs a single column primary key",
			"dialect", b.info.Name(), "table", table.Name, "column", col.Name)
		return ""
	}
	f := b.info.Features()
	if !col.PrimaryKey && !f.NonPKIdentityColumnsSupported {
		logging.Warn("dialect cannot declare auto-increment on a non primary key column",
			"dialect", b.info.Name(), "table", table.Name, "column", col.Name)
		return ""
	}
	if !f.MultipleIdentityColumnsSupported && len(table.AutoIncrementColumns()) > 1 && table.AutoIncrementColumns()[0] != col {
		logging.Warn("dialect allows one auto-increment column per table",
			"dialect", b.info.Name(), "table", table.Name, "column", col.Name)
		return ""
	}
	return b.info.IdentityClause()
}

// tableShape selects which parts of a table CREATE TABLE renders
type tableShape struct {
	foreignKeys func(fk *schema.ForeignKey) bool // nil renders none
	indexes     bool
}

// createTable renders CREATE TABLE for t under the given name plus its indexes
func (b *Builder) createTable(t *schema.Table, name string, shape tableShape) error {
	f := b.info.Features()
	inline := b.sql.inlinePrimaryKey(b, t)

	var defs []string
	for _, col := range t.Columns {
		def, err := b.columnDefinition(t, col, inline == col)
		if err != nil {
			return err
		}
		defs = append(defs, "    "+def)
	}

	pk := t.PrimaryKeyNames()
	if len(pk) > 0 && inline == nil && f.PrimaryKeyEmbedded {
		defs = append(defs, "    "+b.primaryKeyClause(name, pk))
	}
	if shape.foreignKeys != nil {
		for _, fk := range t.ForeignKeys {
			if shape.foreignKeys(fk) {
				defs = append(defs, "    "+b.foreignKeyClause(name, fk))
			}
		}
	}
	if shape.indexes && f.IndicesEmbedded {
		for _, idx := range t.Indexes {
			kind := "INDEX"
			if idx.Unique {
				kind = "UNIQUE"
			}
			defs = append(defs, fmt.Sprintf("    %s %s (%s)", kind, b.indexName(name, idx), b.columnList(idx.ColumnNames())))
		}
	}

	stmt := "CREATE TABLE " + b.tableName(name) + " (\n" + strings.Join(defs, ",\n") + "\n)" + b.creationParameters(t.Name)
	b.script.add(t.Name, stmt)

	if len(pk) > 0 && !f.PrimaryKeyEmbedded {
		b.script.add(t.Name, "ALTER TABLE "+b.tableName(name)+" ADD "+b.primaryKeyClause(name, pk))
	}
	if shape.indexes && !f.IndicesEmbedded {
		for _, idx := range t.Indexes {
			b.script.add(t.Name, b.createIndex(name, idx))
		}
	}
	if b.sql.afterCreateTable != nil {
		b.sql.afterCreateTable(b, t, name)
	}
	return nil
}

func (b *Builder) creationParameters(table string) string {
	params := b.opts.CreationParameters[table]
	if len(params) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range params {
		sb.WriteString(" ")
		sb.WriteString(p.Key)
		if p.Value != "" {
			sb.WriteString(b.sql.paramSeparator)
			sb.WriteString(p.Value)
		}
	}
	return sb.String()
}

func (b *Builder) dropTable(t *schema.Table, name string) {
	b.script.add(t.Name, "DROP TABLE "+b.tableName(name))
	if b.sql.afterDropTable != nil {
		b.sql.afterDropTable(b, t, name)
	}
}

func (b *Builder) createIndex(table string, idx *schema.Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", unique, b.indexName(table, idx), b.tableName(table), b.columnList(idx.ColumnNames()))
}

// primaryKeyClause renders [CONSTRAINT name] PRIMARY KEY (...), naming the key when the
// dialect drops it by name
func (b *Builder) primaryKeyClause(table string, columns []string) string {
	clause := "PRIMARY KEY (" + b.columnList(columns) + ")"
	if name := b.sql.primaryKeyName(b, table); name != "" {
		return "CONSTRAINT " + name + " " + clause
	}
	return clause
}

// foreignKeyClause renders CONSTRAINT ... FOREIGN KEY ... REFERENCES ... with the
// actions the dialect can express; default actions are left implicit
func (b *Builder) foreignKeyClause(table string, fk *schema.ForeignKey) string {
	var sb strings.Builder
	sb.WriteString("CONSTRAINT ")
	sb.WriteString(b.foreignKeyName(table, fk))
	sb.WriteString(" FOREIGN KEY (")
	sb.WriteString(b.columnList(fk.LocalColumnNames()))
	sb.WriteString(") REFERENCES ")
	sb.WriteString(b.tableName(fk.ForeignTableName))
	sb.WriteString(" (")
	sb.WriteString(b.columnList(fk.ForeignColumnNames()))
	sb.WriteString(")")
	sb.WriteString(b.actionClause(fk.OnUpdate, platform.OnUpdate))
	sb.WriteString(b.actionClause(fk.OnDelete, platform.OnDelete))
	return sb.String()
}

func (b *Builder) actionClause(action schema.CascadeAction, kind platform.ActionKind) string {
	effective := b.info.EffectiveAction(action, kind)
	if effective != action {
		logging.Warn("cascade action not supported, using dialect default",
			"dialect", b.info.Name(), "kind", kind.String(), "action", action.String())
	}
	if effective == b.info.DefaultAction(kind) || effective == schema.ActionNone {
		return ""
	}
	return " " + kind.String() + " " + effective.SQL()
}
