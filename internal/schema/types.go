package schema

import (
	"fmt"
	"strings"
)

// TypeCode is the canonical, vendor-neutral column type
type TypeCode int

// Canonical type codes
const (
	TypeUnknown TypeCode = iota
	TypeBit
	TypeTinyInt
	TypeSmallInt
	TypeInteger
	TypeBigInt
	TypeFloat
	TypeReal
	TypeDouble
	TypeNumeric
	TypeDecimal
	TypeChar
	TypeVarchar
	TypeLongVarchar
	TypeDate
	TypeTime
	TypeTimestamp
	TypeBinary
	TypeVarBinary
	TypeLongVarBinary
	TypeNull
	TypeOther
	TypeJavaObject
	TypeDistinct
	TypeStruct
	TypeArray
	TypeBlob
	TypeClob
	TypeRef
	TypeDatalink
	TypeBoolean
)

// Category groups type codes
type Category int

// Type categories
const (
	CategoryUnknown Category = iota
	CategoryNumeric
	CategoryTextual
	CategoryBinary
	CategoryDateTime
	CategorySpecial
	CategoryOther
)

var typeNames = map[TypeCode]string{
	TypeBit:           "BIT",
	TypeTinyInt:       "TINYINT",
	TypeSmallInt:      "SMALLINT",
	TypeInteger:       "INTEGER",
	TypeBigInt:        "BIGINT",
	TypeFloat:         "FLOAT",
	TypeReal:          "REAL",
	TypeDouble:        "DOUBLE",
	TypeNumeric:       "NUMERIC",
	TypeDecimal:       "DECIMAL",
	TypeChar:          "CHAR",
	TypeVarchar:       "VARCHAR",
	TypeLongVarchar:   "LONGVARCHAR",
	TypeDate:          "DATE",
	TypeTime:          "TIME",
	TypeTimestamp:     "TIMESTAMP",
	TypeBinary:        "BINARY",
	TypeVarBinary:     "VARBINARY",
	TypeLongVarBinary: "LONGVARBINARY",
	TypeNull:          "NULL",
	TypeOther:         "OTHER",
	TypeJavaObject:    "JAVA_OBJECT",
	TypeDistinct:      "DISTINCT",
	TypeStruct:        "STRUCT",
	TypeArray:         "ARRAY",
	TypeBlob:          "BLOB",
	TypeClob:          "CLOB",
	TypeRef:           "REF",
	TypeDatalink:      "DATALINK",
	TypeBoolean:       "BOOLEAN",
}

var typeCategories = map[TypeCode]Category{
	TypeBit:           CategoryNumeric,
	TypeTinyInt:       CategoryNumeric,
	TypeSmallInt:      CategoryNumeric,
	TypeInteger:       CategoryNumeric,
	TypeBigInt:        CategoryNumeric,
	TypeFloat:         CategoryNumeric,
	TypeReal:          CategoryNumeric,
	TypeDouble:        CategoryNumeric,
	TypeNumeric:       CategoryNumeric,
	TypeDecimal:       CategoryNumeric,
	TypeBoolean:       CategoryNumeric,
	TypeChar:          CategoryTextual,
	TypeVarchar:       CategoryTextual,
	TypeLongVarchar:   CategoryTextual,
	TypeClob:          CategoryTextual,
	TypeBinary:        CategoryBinary,
	TypeVarBinary:     CategoryBinary,
	TypeLongVarBinary: CategoryBinary,
	TypeBlob:          CategoryBinary,
	TypeDate:          CategoryDateTime,
	TypeTime:          CategoryDateTime,
	TypeTimestamp:     CategoryDateTime,
	TypeNull:          CategorySpecial,
	TypeArray:         CategorySpecial,
	TypeDistinct:      CategorySpecial,
	TypeStruct:        CategorySpecial,
	TypeRef:           CategorySpecial,
	TypeDatalink:      CategorySpecial,
	TypeOther:         CategoryOther,
	TypeJavaObject:    CategoryOther,
}

var typeCodesByName = func() map[string]TypeCode {
	m := make(map[string]TypeCode, len(typeNames))
	for code, name := range typeNames {
		m[name] = code
	}
	return m
}()

// AllTypeCodes returns every known type code in declaration order.
func AllTypeCodes() []TypeCode {
	codes := make([]TypeCode, 0, len(typeNames))
	for code := TypeBit; code <= TypeBoolean; code++ {
		codes = append(codes, code)
	}
	return codes
}

// ParseTypeCode looks up a type code by its canonical name, case-insensitively
func ParseTypeCode(name string) (TypeCode, error) {
	code, ok := typeCodesByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return TypeUnknown, fmt.Errorf("unknown type code: %q", name)
	}
	return code, nil
}

func (t TypeCode) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TypeCode(%d)", int(t))
}

// Category returns the category of the type code
func (t TypeCode) Category() Category {
	return typeCategories[t]
}

// Valid reports whether t is a known type code
func (t TypeCode) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// IsNumeric reports whether values of this type are numbers
func (t TypeCode) IsNumeric() bool { return t.Category() == CategoryNumeric }

// IsTextual reports whether values of this type are character data
func (t TypeCode) IsTextual() bool { return t.Category() == CategoryTextual }

// IsBinary reports whether values of this type are byte data
func (t TypeCode) IsBinary() bool { return t.Category() == CategoryBinary }

// IsDateTime reports whether values of this type are dates or times
func (t TypeCode) IsDateTime() bool { return t.Category() == CategoryDateTime }

// MarshalText implements encoding.TextMarshaler
func (t TypeCode) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown type code: %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *TypeCode) UnmarshalText(text []byte) error {
	code, err := ParseTypeCode(string(text))
	if err != nil {
		return err
	}
	*t = code
	return nil
}

// CascadeAction is the behaviour applied to dependent rows on UPDATE/DELETE
type CascadeAction int

// Cascade actions
const (
	ActionNone CascadeAction = iota
	ActionCascade
	ActionSetNull
	ActionSetDefault
	ActionRestrict
)

var actionNames = map[CascadeAction]string{
	ActionNone:       "NONE",
	ActionCascade:    "CASCADE",
	ActionSetNull:    "SET_NULL",
	ActionSetDefault: "SET_DEFAULT",
	ActionRestrict:   "RESTRICT",
}

// AllCascadeActions returns every cascade action.
func AllCascadeActions() []CascadeAction {
	return []CascadeAction{ActionCascade, ActionSetNull, ActionSetDefault, ActionRestrict, ActionNone}
}

// ParseCascadeAction parses CASCADE, SET_NULL, SET NULL, SET_DEFAULT, RESTRICT, NONE or NO ACTION
func ParseCascadeAction(s string) (CascadeAction, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, " ", "_")
	switch norm {
	case "", "NONE", "NO_ACTION":
		return ActionNone, nil
	case "CASCADE":
		return ActionCascade, nil
	case "SET_NULL":
		return ActionSetNull, nil
	case "SET_DEFAULT":
		return ActionSetDefault, nil
	case "RESTRICT":
		return ActionRestrict, nil
	default:
		return ActionNone, fmt.Errorf("unknown cascade action: %q", s)
	}
}

func (a CascadeAction) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("CascadeAction(%d)", int(a))
}

// SQL returns the action as written in a REFERENCES clause
func (a CascadeAction) SQL() string {
	switch a {
	case ActionCascade:
		return "CASCADE"
	case ActionSetNull:
		return "SET NULL"
	case ActionSetDefault:
		return "SET DEFAULT"
	case ActionRestrict:
		return "RESTRICT"
	default:
		return "NO ACTION"
	}
}

// MarshalText implements encoding.TextMarshaler
func (a CascadeAction) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *CascadeAction) UnmarshalText(text []byte) error {
	action, err := ParseCascadeAction(string(text))
	if err != nil {
		return err
	}
	*a = action
	return nil
}

// Database represents a complete database schema
type Database struct {
	Name    string   `yaml:"name"`
	Version string   `yaml:"version,omitempty"`
	Tables  []*Table `yaml:"tables"`
}

// Table represents a database table
type Table struct {
	Name        string        `yaml:"name"`
	Catalog     string        `yaml:"catalog,omitempty"`
	Schema      string        `yaml:"schema,omitempty"`
	Type        string        `yaml:"type,omitempty"`
	Description string        `yaml:"description,omitempty"`
	Columns     []*Column     `yaml:"columns"`
	ForeignKeys []*ForeignKey `yaml:"foreign_keys,omitempty"`
	Indexes     []*Index      `yaml:"indexes,omitempty"`
}

// Column represents a table column
type Column struct {
	Name          string   `yaml:"name"`
	Type          TypeCode `yaml:"type"`
	Size          int      `yaml:"size,omitempty"`
	Scale         int      `yaml:"scale,omitempty"`
	Required      bool     `yaml:"required,omitempty"`
	PrimaryKey    bool     `yaml:"primary_key,omitempty"`
	AutoIncrement bool     `yaml:"auto_increment,omitempty"`
	DefaultValue  *string  `yaml:"default,omitempty"`
	Description   string   `yaml:"description,omitempty"`

	parsed *parsedDefault
}

// Index represents a database index
type Index struct {
	Name    string        `yaml:"name"`
	Unique  bool          `yaml:"unique,omitempty"`
	Columns []IndexColumn `yaml:"columns"`
}

// IndexColumn is one column of an index
type IndexColumn struct {
	Name    string  `yaml:"name"`
	Column  *Column `yaml:"-"`
	Ordinal int     `yaml:"-"`
}

// ForeignKey represents a foreign key constraint
type ForeignKey struct {
	Name             string        `yaml:"name,omitempty"`
	ForeignTableName string        `yaml:"foreign_table"`
	ForeignTable     *Table        `yaml:"-"`
	References       []Reference   `yaml:"references"`
	OnUpdate         CascadeAction `yaml:"on_update,omitempty"`
	OnDelete         CascadeAction `yaml:"on_delete,omitempty"`
}

// Reference pairs a local column with the foreign column it points at
type Reference struct {
	LocalColumnName   string  `yaml:"local"`
	LocalColumn       *Column `yaml:"-"`
	ForeignColumnName string  `yaml:"foreign"`
	ForeignColumn     *Column `yaml:"-"`
	Sequence          int     `yaml:"-"`
}
