// Package platform holds the static, per-dialect capability facts: feature flags,
// identifier limits, SQL tokens, type mappings and cascade action support.
//
// An Info is fully built by its constructor and never modified afterwards, so a
// single instance may be shared by any number of readers, comparators and builders.
package platform

import (
	"github.com/tordrt/schemasync/internal/schema"
)

// ActionKind selects which referential action a question is about
type ActionKind int

const (
	// OnUpdate is the ON UPDATE action of a foreign key
	OnUpdate ActionKind = iota
	// OnDelete is the ON DELETE action of a foreign key
	OnDelete
)

func (k ActionKind) String() string {
	if k == OnUpdate {
		return "ON UPDATE"
	}
	return "ON DELETE"
}

// Unlimited marks an identifier length without a limit
const Unlimited = -1

// Tokens are the lexical pieces a dialect uses in generated SQL
type Tokens struct {
	DelimiterStart     string // opening identifier quote
	DelimiterEnd       string // closing identifier quote
	ValueQuote         string // string literal quote
	StatementDelimiter string // terminates a statement
	CommentPrefix      string
	CommentSuffix      string
}

// Limits are the maximum identifier lengths, Unlimited when the dialect imposes none
type Limits struct {
	MaxTableNameLength      int
	MaxColumnNameLength     int
	MaxConstraintNameLength int
	MaxForeignKeyNameLength int
}

// Features are the boolean capabilities of a dialect
type Features struct {
	DelimitedIdentifiersSupported          bool
	CaseSensitive                          bool // identifier comparison during diffs
	PrimaryKeyEmbedded                     bool // PK declared inside CREATE TABLE
	ForeignKeysEmbedded                    bool // FKs declared inside CREATE TABLE
	IndicesEmbedded                        bool // indexes declared inside CREATE TABLE
	AlterColumnSupported                   bool // column definitions can be changed in place
	DropColumnSupported                    bool
	DropPrimaryKeySupported                bool
	AlterForeignKeysSupported              bool // FKs can be added/dropped on existing tables
	AddColumnAfterSupported                bool
	DatabaseCreationSupported              bool
	SystemIndicesReturned                  bool // metadata reports PK/FK backing indexes
	SystemForeignKeyIndicesAlwaysNonUnique bool
	ForeignKeysSorted                      bool // reader sorts foreign keys by name
	NullAsDefaultValueRequired             bool // nullable columns need an explicit NULL
	DefaultValuesForLongTypesSupported     bool
	NonPKIdentityColumnsSupported          bool
	MultipleIdentityColumnsSupported       bool
	IdentityInsertRequired                 bool // copying explicit values into identity columns needs a session switch
}

// Info is the capability record of one dialect
type Info struct {
	name     string
	tokens   Tokens
	limits   Limits
	features Features

	nativeTypes    map[schema.TypeCode]string
	targetTypes    map[schema.TypeCode]schema.TypeCode
	sizeTypes      map[schema.TypeCode]int
	precisionTypes map[schema.TypeCode]int
	nullDefaults   map[schema.TypeCode]bool
	identityClause string

	supportedActions  [2]map[schema.CascadeAction]bool
	defaultActions    [2]schema.CascadeAction
	equivalentActions [2]map[[2]schema.CascadeAction]bool
}

// Name returns the registry name of the dialect
func (i *Info) Name() string { return i.name }

// Tokens returns the SQL tokens of the dialect
func (i *Info) Tokens() Tokens { return i.tokens }

// Limits returns the identifier length limits of the dialect
func (i *Info) Limits() Limits { return i.limits }

// Features returns the feature flags of the dialect
func (i *Info) Features() Features { return i.features }

// NativeType returns the native type name for a type code
func (i *Info) NativeType(code schema.TypeCode) (string, bool) {
	name, ok := i.nativeTypes[code]
	return name, ok
}

// TargetType returns the type code the database actually stores for code.
// Types without a remapping map to themselves.
func (i *Info) TargetType(code schema.TypeCode) schema.TypeCode {
	if target, ok := i.targetTypes[code]; ok {
		return target
	}
	return code
}

// HasSize reports whether the native type takes a length
func (i *Info) HasSize(code schema.TypeCode) bool {
	_, ok := i.sizeTypes[code]
	return ok
}

// DefaultSize returns the length or precision used when a column has none; 0 when there is no default
func (i *Info) DefaultSize(code schema.TypeCode) int {
	if size, ok := i.sizeTypes[code]; ok {
		return size
	}
	return i.precisionTypes[code]
}

// HasPrecisionAndScale reports whether the native type takes precision and scale
func (i *Info) HasPrecisionAndScale(code schema.TypeCode) bool {
	_, ok := i.precisionTypes[code]
	return ok
}

// IdentityClause returns the column clause declaring an auto-increment column,
// empty when the dialect has no inline syntax for it
func (i *Info) IdentityClause() string {
	return i.identityClause
}

// HasNullDefault reports whether a nullable column of this type must be declared NULL explicitly
func (i *Info) HasNullDefault(code schema.TypeCode) bool {
	return i.nullDefaults[code]
}

// IsActionSupported reports whether the dialect can express action for kind
func (i *Info) IsActionSupported(action schema.CascadeAction, kind ActionKind) bool {
	return i.supportedActions[kind][action]
}

// DefaultAction returns the action the database applies when none is given
func (i *Info) DefaultAction(kind ActionKind) schema.CascadeAction {
	return i.defaultActions[kind]
}

// AreEquivalentActions reports whether two actions behave identically in this dialect
func (i *Info) AreEquivalentActions(a, b schema.CascadeAction, kind ActionKind) bool {
	if a == b {
		return true
	}
	return i.equivalentActions[kind][[2]schema.CascadeAction{a, b}]
}

// EffectiveAction returns the action the database will really apply: unsupported
// actions fall back to the dialect default.
func (i *Info) EffectiveAction(action schema.CascadeAction, kind ActionKind) schema.CascadeAction {
	if i.IsActionSupported(action, kind) {
		return action
	}
	return i.DefaultAction(kind)
}

// SameAction reports whether two actions lead to the same behaviour: identical,
// declared equivalent, or resolving to the same effective action.
func (i *Info) SameAction(a, b schema.CascadeAction, kind ActionKind) bool {
	if i.AreEquivalentActions(a, b, kind) {
		return true
	}
	ea, eb := i.EffectiveAction(a, kind), i.EffectiveAction(b, kind)
	return ea == eb || i.AreEquivalentActions(ea, eb, kind)
}

// SupportedActions lists the supported actions for kind
func (i *Info) SupportedActions(kind ActionKind) []schema.CascadeAction {
	var out []schema.CascadeAction
	for _, a := range schema.AllCascadeActions() {
		if i.supportedActions[kind][a] {
			out = append(out, a)
		}
	}
	return out
}
