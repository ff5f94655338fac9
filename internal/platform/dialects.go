package platform

import (
	"github.com/tordrt/schemasync/internal/schema"
)

type typeMap = map[schema.TypeCode]string
type targetMap = map[schema.TypeCode]schema.TypeCode
type sizeMap = map[schema.TypeCode]int

var allActions = []schema.CascadeAction{
	schema.ActionCascade, schema.ActionSetNull, schema.ActionSetDefault, schema.ActionRestrict, schema.ActionNone,
}

// newInfo returns the SQL92 baseline every dialect starts from
func newInfo(name string) *Info {
	i := &Info{
		name: name,
		tokens: Tokens{
			DelimiterStart:     `"`,
			DelimiterEnd:       `"`,
			ValueQuote:         "'",
			StatementDelimiter: ";",
			CommentPrefix:      "--",
		},
		limits: Limits{
			MaxTableNameLength:      Unlimited,
			MaxColumnNameLength:     Unlimited,
			MaxConstraintNameLength: Unlimited,
			MaxForeignKeyNameLength: Unlimited,
		},
		features: Features{
			DelimitedIdentifiersSupported:      true,
			CaseSensitive:                      true,
			PrimaryKeyEmbedded:                 true,
			AlterForeignKeysSupported:          true,
			DefaultValuesForLongTypesSupported: true,
			NonPKIdentityColumnsSupported:      true,
		},
		nativeTypes: typeMap{
			schema.TypeBit:           "BIT",
			schema.TypeTinyInt:       "TINYINT",
			schema.TypeSmallInt:      "SMALLINT",
			schema.TypeInteger:       "INTEGER",
			schema.TypeBigInt:        "BIGINT",
			schema.TypeFloat:         "FLOAT",
			schema.TypeReal:          "REAL",
			schema.TypeDouble:        "DOUBLE PRECISION",
			schema.TypeNumeric:       "NUMERIC",
			schema.TypeDecimal:       "DECIMAL",
			schema.TypeChar:          "CHAR",
			schema.TypeVarchar:       "VARCHAR",
			schema.TypeLongVarchar:   "LONG VARCHAR",
			schema.TypeDate:          "DATE",
			schema.TypeTime:          "TIME",
			schema.TypeTimestamp:     "TIMESTAMP",
			schema.TypeBinary:        "BINARY",
			schema.TypeVarBinary:     "VARBINARY",
			schema.TypeLongVarBinary: "LONG VARBINARY",
			schema.TypeBlob:          "BLOB",
			schema.TypeClob:          "CLOB",
			schema.TypeBoolean:       "BOOLEAN",
		},
		targetTypes:    targetMap{},
		sizeTypes:      sizeMap{schema.TypeChar: 254, schema.TypeVarchar: 254, schema.TypeBinary: 254, schema.TypeVarBinary: 254},
		precisionTypes: sizeMap{schema.TypeDecimal: 15, schema.TypeNumeric: 15},
		nullDefaults:   map[schema.TypeCode]bool{},
	}
	for k := range i.supportedActions {
		i.supportedActions[k] = map[schema.CascadeAction]bool{}
		i.equivalentActions[k] = map[[2]schema.CascadeAction]bool{}
	}
	i.setActions(OnUpdate, schema.ActionNone, allActions...)
	i.setActions(OnDelete, schema.ActionNone, allActions...)
	return i
}

func (i *Info) mapTypes(m typeMap) {
	for code, native := range m {
		if native == "" {
			delete(i.nativeTypes, code)
			continue
		}
		i.nativeTypes[code] = native
	}
}

func (i *Info) mapTargets(m targetMap) {
	for code, target := range m {
		i.targetTypes[code] = target
	}
}

func (i *Info) setSizes(sizes, precisions sizeMap) {
	if sizes != nil {
		i.sizeTypes = sizes
	}
	if precisions != nil {
		i.precisionTypes = precisions
	}
}

func (i *Info) setActions(kind ActionKind, def schema.CascadeAction, supported ...schema.CascadeAction) {
	i.supportedActions[kind] = map[schema.CascadeAction]bool{}
	for _, a := range supported {
		i.supportedActions[kind][a] = true
	}
	i.defaultActions[kind] = def
}

func (i *Info) addEquivalent(kind ActionKind, a, b schema.CascadeAction) {
	i.equivalentActions[kind][[2]schema.CascadeAction{a, b}] = true
	i.equivalentActions[kind][[2]schema.CascadeAction{b, a}] = true
}

func (i *Info) restrictIsNoAction() {
	i.addEquivalent(OnUpdate, schema.ActionRestrict, schema.ActionNone)
	i.addEquivalent(OnDelete, schema.ActionRestrict, schema.ActionNone)
}

func (i *Info) setLimits(table, column, constraint, fk int) {
	i.limits = Limits{
		MaxTableNameLength:      table,
		MaxColumnNameLength:     column,
		MaxConstraintNameLength: constraint,
		MaxForeignKeyNameLength: fk,
	}
}

func sql92() *Info {
	i := newInfo("sql92")
	i.features.AlterColumnSupported = true
	i.features.DropColumnSupported = true
	i.features.DropPrimaryKeySupported = true
	i.identityClause = "GENERATED BY DEFAULT AS IDENTITY"
	return i
}

func postgresql() *Info {
	i := newInfo("postgresql")
	i.features.CaseSensitive = true
	i.features.AlterColumnSupported = true
	i.features.DropColumnSupported = true
	i.features.DropPrimaryKeySupported = true
	i.features.DatabaseCreationSupported = true
	i.features.SystemIndicesReturned = true
	i.setLimits(63, 63, 63, 63)
	i.mapTypes(typeMap{
		schema.TypeBit:           "BOOLEAN",
		schema.TypeTinyInt:       "SMALLINT",
		schema.TypeFloat:         "DOUBLE PRECISION",
		schema.TypeLongVarchar:   "TEXT",
		schema.TypeBinary:        "BYTEA",
		schema.TypeVarBinary:     "BYTEA",
		schema.TypeLongVarBinary: "BYTEA",
		schema.TypeBlob:          "BYTEA",
		schema.TypeClob:          "TEXT",
		schema.TypeArray:         "TEXT[]",
		schema.TypeOther:         "JSONB",
	})
	i.mapTargets(targetMap{
		schema.TypeBit:       schema.TypeBoolean,
		schema.TypeTinyInt:   schema.TypeSmallInt,
		schema.TypeFloat:     schema.TypeDouble,
		schema.TypeDecimal:   schema.TypeNumeric,
		schema.TypeBinary:    schema.TypeLongVarBinary,
		schema.TypeVarBinary: schema.TypeLongVarBinary,
		schema.TypeBlob:      schema.TypeLongVarBinary,
		schema.TypeClob:      schema.TypeLongVarchar,
	})
	i.setSizes(sizeMap{schema.TypeChar: 254, schema.TypeVarchar: 254}, nil)
	i.restrictIsNoAction()
	return i
}

func mysql(name string) *Info {
	i := newInfo(name)
	i.tokens.DelimiterStart = "`"
	i.tokens.DelimiterEnd = "`"
	i.tokens.CommentPrefix = "#"
	i.features.CaseSensitive = false
	i.features.AlterColumnSupported = true
	i.features.DropColumnSupported = true
	i.features.DropPrimaryKeySupported = true
	i.features.AddColumnAfterSupported = true
	i.features.DatabaseCreationSupported = true
	i.features.SystemIndicesReturned = true
	i.features.SystemForeignKeyIndicesAlwaysNonUnique = true
	i.features.DefaultValuesForLongTypesSupported = false
	i.features.NonPKIdentityColumnsSupported = false
	i.setLimits(64, 64, 64, 64)
	i.identityClause = "AUTO_INCREMENT"
	i.mapTypes(typeMap{
		schema.TypeBit:           "TINYINT(1)",
		schema.TypeBoolean:       "TINYINT(1)",
		schema.TypeFloat:         "DOUBLE",
		schema.TypeReal:          "FLOAT",
		schema.TypeDouble:        "DOUBLE",
		schema.TypeNumeric:       "DECIMAL",
		schema.TypeLongVarchar:   "MEDIUMTEXT",
		schema.TypeTimestamp:     "DATETIME",
		schema.TypeLongVarBinary: "MEDIUMBLOB",
		schema.TypeBlob:          "LONGBLOB",
		schema.TypeClob:          "LONGTEXT",
	})
	i.mapTargets(targetMap{
		schema.TypeBit:     schema.TypeTinyInt,
		schema.TypeBoolean: schema.TypeTinyInt,
		schema.TypeFloat:   schema.TypeDouble,
		schema.TypeNumeric: schema.TypeDecimal,
	})
	i.nullDefaults[schema.TypeTimestamp] = true
	i.setActions(OnUpdate, schema.ActionNone, schema.ActionCascade, schema.ActionSetNull, schema.ActionRestrict, schema.ActionNone)
	i.setActions(OnDelete, schema.ActionNone, schema.ActionCascade, schema.ActionSetNull, schema.ActionRestrict, schema.ActionNone)
	i.restrictIsNoAction()
	return i
}

func sqlite() *Info {
	i := newInfo("sqlite")
	i.features.CaseSensitive = false
	i.features.ForeignKeysEmbedded = true
	i.features.AlterForeignKeysSupported = false
	i.features.SystemIndicesReturned = true
	i.features.NonPKIdentityColumnsSupported = false
	i.identityClause = "AUTOINCREMENT"
	i.mapTypes(typeMap{
		schema.TypeDouble:        "DOUBLE",
		schema.TypeLongVarchar:   "TEXT",
		schema.TypeLongVarBinary: "BLOB",
		schema.TypeClob:          "TEXT",
	})
	i.mapTargets(targetMap{
		schema.TypeClob:          schema.TypeLongVarchar,
		schema.TypeLongVarBinary: schema.TypeBlob,
	})
	return i
}

func mssql() *Info {
	i := newInfo("mssql")
	i.tokens.DelimiterStart = "["
	i.tokens.DelimiterEnd = "]"
	i.features.CaseSensitive = false
	i.features.AlterColumnSupported = true
	i.features.DropColumnSupported = true
	i.features.DatabaseCreationSupported = true
	i.features.SystemIndicesReturned = true
	i.features.DefaultValuesForLongTypesSupported = false
	i.features.NonPKIdentityColumnsSupported = true
	i.features.IdentityInsertRequired = true
	i.setLimits(128, 128, 128, 128)
	i.identityClause = "IDENTITY(1,1)"
	i.mapTypes(typeMap{
		schema.TypeInteger:       "INT",
		schema.TypeDouble:        "FLOAT",
		schema.TypeLongVarchar:   "TEXT",
		schema.TypeDate:          "DATETIME",
		schema.TypeTime:          "DATETIME",
		schema.TypeTimestamp:     "DATETIME",
		schema.TypeLongVarBinary: "IMAGE",
		schema.TypeBlob:          "IMAGE",
		schema.TypeClob:          "TEXT",
		schema.TypeBoolean:       "BIT",
	})
	i.mapTargets(targetMap{
		schema.TypeDouble:  schema.TypeFloat,
		schema.TypeDate:    schema.TypeTimestamp,
		schema.TypeTime:    schema.TypeTimestamp,
		schema.TypeBlob:    schema.TypeLongVarBinary,
		schema.TypeClob:    schema.TypeLongVarchar,
		schema.TypeBoolean: schema.TypeBit,
	})
	i.setActions(OnUpdate, schema.ActionNone, schema.ActionCascade, schema.ActionSetNull, schema.ActionSetDefault, schema.ActionNone)
	i.setActions(OnDelete, schema.ActionNone, schema.ActionCascade, schema.ActionSetNull, schema.ActionSetDefault, schema.ActionNone)
	return i
}

func oracle(name string, hasTimestamp bool) *Info {
	i := newInfo(name)
	i.features.CaseSensitive = false
	i.features.AlterColumnSupported = true
	i.features.DropColumnSupported = true
	i.features.DropPrimaryKeySupported = true
	i.features.DefaultValuesForLongTypesSupported = false
	i.setLimits(30, 30, 30, 30)
	i.mapTypes(typeMap{
		schema.TypeBit:           "NUMBER(1)",
		schema.TypeBoolean:       "NUMBER(1)",
		schema.TypeTinyInt:       "NUMBER(3)",
		schema.TypeSmallInt:      "NUMBER(5)",
		schema.TypeBigInt:        "NUMBER(38)",
		schema.TypeNumeric:       "NUMBER",
		schema.TypeDecimal:       "NUMBER",
		schema.TypeVarchar:       "VARCHAR2",
		schema.TypeLongVarchar:   "CLOB",
		schema.TypeTime:          "DATE",
		schema.TypeTimestamp:     "DATE",
		schema.TypeBinary:        "RAW",
		schema.TypeVarBinary:     "RAW",
		schema.TypeLongVarBinary: "BLOB",
	})
	i.mapTargets(targetMap{
		schema.TypeBit:           schema.TypeDecimal,
		schema.TypeBoolean:       schema.TypeDecimal,
		schema.TypeTinyInt:       schema.TypeDecimal,
		schema.TypeSmallInt:      schema.TypeDecimal,
		schema.TypeInteger:       schema.TypeDecimal,
		schema.TypeBigInt:        schema.TypeDecimal,
		schema.TypeNumeric:       schema.TypeDecimal,
		schema.TypeReal:          schema.TypeFloat,
		schema.TypeDouble:        schema.TypeFloat,
		schema.TypeLongVarchar:   schema.TypeClob,
		schema.TypeTime:          schema.TypeDate,
		schema.TypeTimestamp:     schema.TypeDate,
		schema.TypeBinary:        schema.TypeVarBinary,
		schema.TypeLongVarBinary: schema.TypeBlob,
	})
	if hasTimestamp {
		i.mapTypes(typeMap{schema.TypeTime: "TIMESTAMP", schema.TypeTimestamp: "TIMESTAMP"})
		i.mapTargets(targetMap{schema.TypeTime: schema.TypeTimestamp, schema.TypeTimestamp: schema.TypeTimestamp})
	}
	i.setSizes(sizeMap{schema.TypeChar: 254, schema.TypeVarchar: 254, schema.TypeBinary: 254, schema.TypeVarBinary: 254}, nil)
	i.setActions(OnUpdate, schema.ActionNone, schema.ActionNone)
	i.setActions(OnDelete, schema.ActionNone, schema.ActionCascade, schema.ActionSetNull, schema.ActionNone)
	i.restrictIsNoAction()
	return i
}

func db2(name string) *Info {
	i := newInfo(name)
	i.features.CaseSensitive = false
	i.features.AlterColumnSupported = true
	i.features.DropPrimaryKeySupported = true
	i.features.DatabaseCreationSupported = false
	i.setLimits(128, 30, 18, 18)
	i.identityClause = "GENERATED BY DEFAULT AS IDENTITY"
	i.mapTypes(typeMap{
		schema.TypeBit:           "SMALLINT",
		schema.TypeBoolean:       "SMALLINT",
		schema.TypeTinyInt:       "SMALLINT",
		schema.TypeFloat:         "DOUBLE",
		schema.TypeDouble:        "DOUBLE",
		schema.TypeNumeric:       "DECIMAL",
		schema.TypeBinary:        "CHAR{size} FOR BIT DATA",
		schema.TypeVarBinary:     "VARCHAR{size} FOR BIT DATA",
		schema.TypeLongVarBinary: "LONG VARCHAR FOR BIT DATA",
	})
	i.mapTargets(targetMap{
		schema.TypeBit:     schema.TypeSmallInt,
		schema.TypeBoolean: schema.TypeSmallInt,
		schema.TypeTinyInt: schema.TypeSmallInt,
		schema.TypeFloat:   schema.TypeDouble,
		schema.TypeNumeric: schema.TypeDecimal,
	})
	i.setActions(OnUpdate, schema.ActionNone, schema.ActionRestrict, schema.ActionNone)
	i.setActions(OnDelete, schema.ActionNone, schema.ActionCascade, schema.ActionSetNull, schema.ActionRestrict, schema.ActionNone)
	i.restrictIsNoAction()
	return i
}

func derby(name string) *Info {
	i := db2(name)
	i.setLimits(128, 128, 128, 128)
	i.mapTypes(typeMap{
		schema.TypeDouble:      "DOUBLE",
		schema.TypeLongVarchar: "LONG VARCHAR",
	})
	return i
}

func h2() *Info {
	i := newInfo("h2")
	i.features.CaseSensitive = false
	i.features.AlterColumnSupported = true
	i.features.DropColumnSupported = true
	i.features.DropPrimaryKeySupported = true
	i.identityClause = "AUTO_INCREMENT"
	i.mapTypes(typeMap{
		schema.TypeBit:           "BOOLEAN",
		schema.TypeLongVarchar:   "LONGVARCHAR",
		schema.TypeLongVarBinary: "LONGVARBINARY",
		schema.TypeJavaObject:    "OTHER",
		schema.TypeOther:         "OTHER",
	})
	i.mapTargets(targetMap{schema.TypeBit: schema.TypeBoolean})
	return i
}

func hsqldb() *Info {
	i := newInfo("hsqldb")
	i.features.CaseSensitive = false
	i.features.AlterColumnSupported = true
	i.features.DropColumnSupported = true
	i.features.DropPrimaryKeySupported = true
	i.features.NonPKIdentityColumnsSupported = false
	i.mapTypes(typeMap{
		schema.TypeBit:           "BOOLEAN",
		schema.TypeLongVarchar:   "LONGVARCHAR",
		schema.TypeLongVarBinary: "LONGVARBINARY",
		schema.TypeJavaObject:    "OTHER",
		schema.TypeOther:         "OTHER",
	})
	i.mapTargets(targetMap{schema.TypeBit: schema.TypeBoolean})
	i.identityClause = "GENERATED BY DEFAULT AS IDENTITY"
	return i
}

func firebird(name string) *Info {
	i := newInfo(name)
	i.features.CaseSensitive = false
	i.features.AlterColumnSupported = true
	i.features.DropColumnSupported = true
	i.features.DropPrimaryKeySupported = true
	i.features.DefaultValuesForLongTypesSupported = false
	i.setLimits(31, 31, 31, 31)
	i.identityClause = "GENERATED BY DEFAULT AS IDENTITY"
	i.mapTypes(typeMap{
		schema.TypeBit:           "SMALLINT",
		schema.TypeBoolean:       "SMALLINT",
		schema.TypeTinyInt:       "SMALLINT",
		schema.TypeFloat:         "DOUBLE PRECISION",
		schema.TypeLongVarchar:   "BLOB SUB_TYPE TEXT",
		schema.TypeClob:          "BLOB SUB_TYPE TEXT",
		schema.TypeBinary:        "CHAR{size} CHARACTER SET OCTETS",
		schema.TypeVarBinary:     "VARCHAR{size} CHARACTER SET OCTETS",
		schema.TypeLongVarBinary: "BLOB",
	})
	i.mapTargets(targetMap{
		schema.TypeBit:           schema.TypeSmallInt,
		schema.TypeBoolean:       schema.TypeSmallInt,
		schema.TypeTinyInt:       schema.TypeSmallInt,
		schema.TypeFloat:         schema.TypeDouble,
		schema.TypeLongVarchar:   schema.TypeClob,
		schema.TypeLongVarBinary: schema.TypeBlob,
	})
	return i
}

func interbase() *Info {
	i := firebird("interbase")
	i.identityClause = ""
	i.mapTypes(typeMap{schema.TypeBigInt: "NUMERIC(18,0)"})
	i.mapTargets(targetMap{schema.TypeBigInt: schema.TypeDecimal})
	return i
}

func maxdb(name string) *Info {
	i := newInfo(name)
	i.features.CaseSensitive = false
	i.features.AlterColumnSupported = true
	i.features.DropColumnSupported = true
	i.features.DropPrimaryKeySupported = true
	i.features.DefaultValuesForLongTypesSupported = false
	i.setLimits(32, 32, 32, 32)
	i.identityClause = "DEFAULT SERIAL(1)"
	i.mapTypes(typeMap{
		schema.TypeTinyInt:       "SMALLINT",
		schema.TypeBigInt:        "FIXED(38,0)",
		schema.TypeNumeric:       "DECIMAL",
		schema.TypeLongVarchar:   "LONG",
		schema.TypeClob:          "LONG",
		schema.TypeBinary:        "CHAR{size} BYTE",
		schema.TypeVarBinary:     "VARCHAR{size} BYTE",
		schema.TypeLongVarBinary: "LONG BYTE",
		schema.TypeBlob:          "LONG BYTE",
	})
	i.mapTargets(targetMap{
		schema.TypeTinyInt: schema.TypeSmallInt,
		schema.TypeBigInt:  schema.TypeDecimal,
		schema.TypeNumeric: schema.TypeDecimal,
		schema.TypeClob:    schema.TypeLongVarchar,
		schema.TypeBlob:    schema.TypeLongVarBinary,
	})
	i.setActions(OnUpdate, schema.ActionNone, schema.ActionRestrict, schema.ActionNone)
	i.setActions(OnDelete, schema.ActionNone, schema.ActionCascade, schema.ActionSetNull, schema.ActionSetDefault, schema.ActionRestrict, schema.ActionNone)
	i.restrictIsNoAction()
	return i
}

func mckoi() *Info {
	i := newInfo("mckoi")
	i.features.CaseSensitive = true
	i.features.AlterColumnSupported = true
	i.features.DropColumnSupported = true
	i.features.DatabaseCreationSupported = true
	i.identityClause = ""
	i.mapTypes(typeMap{
		schema.TypeBit:           "BOOLEAN",
		schema.TypeLongVarchar:   "LONGVARCHAR",
		schema.TypeLongVarBinary: "LONGVARBINARY",
		schema.TypeJavaObject:    "JAVA_OBJECT",
	})
	i.mapTargets(targetMap{schema.TypeBit: schema.TypeBoolean})
	i.setActions(OnUpdate, schema.ActionNone, schema.ActionCascade, schema.ActionSetNull, schema.ActionSetDefault, schema.ActionNone)
	i.setActions(OnDelete, schema.ActionNone, schema.ActionCascade, schema.ActionSetNull, schema.ActionSetDefault, schema.ActionNone)
	return i
}

func axion() *Info {
	i := newInfo("axion")
	i.features.CaseSensitive = false
	i.features.AlterForeignKeysSupported = true
	i.identityClause = ""
	i.mapTypes(typeMap{
		schema.TypeBit:           "BOOLEAN",
		schema.TypeTinyInt:       "BYTE",
		schema.TypeLongVarchar:   "VARCHAR",
		schema.TypeLongVarBinary: "VARBINARY",
		schema.TypeDouble:        "FLOAT",
		schema.TypeReal:          "FLOAT",
		schema.TypeJavaObject:    "JAVA_OBJECT",
	})
	i.mapTargets(targetMap{
		schema.TypeBit:           schema.TypeBoolean,
		schema.TypeLongVarchar:   schema.TypeVarchar,
		schema.TypeLongVarBinary: schema.TypeVarBinary,
		schema.TypeDouble:        schema.TypeFloat,
		schema.TypeReal:          schema.TypeFloat,
	})
	i.setActions(OnUpdate, schema.ActionNone, schema.ActionNone)
	i.setActions(OnDelete, schema.ActionNone, schema.ActionNone)
	return i
}

func sybase(name string, hasBigInt bool) *Info {
	i := newInfo(name)
	i.features.CaseSensitive = true
	i.features.AlterColumnSupported = true
	i.features.DropColumnSupported = true
	i.features.DatabaseCreationSupported = true
	i.features.SystemIndicesReturned = true
	i.features.NullAsDefaultValueRequired = true
	i.features.IdentityInsertRequired = true
	i.features.DefaultValuesForLongTypesSupported = false
	i.setLimits(30, 30, 30, 30)
	i.identityClause = "IDENTITY"
	i.mapTypes(typeMap{
		schema.TypeBoolean:       "BIT",
		schema.TypeInteger:       "INT",
		schema.TypeBigInt:        "DECIMAL(19,0)",
		schema.TypeLongVarchar:   "TEXT",
		schema.TypeDate:          "DATETIME",
		schema.TypeTime:          "DATETIME",
		schema.TypeTimestamp:     "DATETIME",
		schema.TypeLongVarBinary: "IMAGE",
		schema.TypeBlob:          "IMAGE",
		schema.TypeClob:          "TEXT",
	})
	i.mapTargets(targetMap{
		schema.TypeBoolean: schema.TypeBit,
		schema.TypeBigInt:  schema.TypeDecimal,
		schema.TypeDate:    schema.TypeTimestamp,
		schema.TypeTime:    schema.TypeTimestamp,
		schema.TypeBlob:    schema.TypeLongVarBinary,
		schema.TypeClob:    schema.TypeLongVarchar,
	})
	if hasBigInt {
		i.mapTypes(typeMap{schema.TypeBigInt: "BIGINT"})
		delete(i.targetTypes, schema.TypeBigInt)
	}
	i.setActions(OnUpdate, schema.ActionNone, schema.ActionNone)
	i.setActions(OnDelete, schema.ActionNone, schema.ActionNone)
	i.restrictIsNoAction()
	return i
}
