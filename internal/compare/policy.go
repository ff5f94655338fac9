package compare

import (
	"github.com/tordrt/schemasync/internal/platform"
)

// Policy decides which per-table changes can run incrementally on an existing table.
// A table with at least one infeasible change is recreated instead.
type Policy interface {
	Feasible(change Change) bool
}

// PolicyFunc adapts a function to the Policy interface
type PolicyFunc func(change Change) bool

// Feasible calls f(change)
func (f PolicyFunc) Feasible(change Change) bool { return f(change) }

// DefaultPolicy permits appending a nullable, defaulted or auto-increment column,
// adding a primary key, and index or foreign key changes
type DefaultPolicy struct{}

// Feasible implements Policy
func (DefaultPolicy) Feasible(change Change) bool {
	switch c := change.(type) {
	case *AddColumn:
		return c.AtEnd() && c.Column.IsFeasibleAppend()
	case *AddPrimaryKey, *AddIndex, *RemoveIndex, *AddForeignKey, *RemoveForeignKey:
		return true
	default:
		return false
	}
}

// AlterPolicy extends DefaultPolicy with the ALTER TABLE operations a dialect supports
type AlterPolicy struct {
	DropColumn     bool
	AlterColumn    bool
	DropPrimaryKey bool
}

// Feasible implements Policy
func (p AlterPolicy) Feasible(change Change) bool {
	if (DefaultPolicy{}).Feasible(change) {
		return true
	}
	switch c := change.(type) {
	case *RemoveColumn:
		return p.DropColumn
	case *ColumnDefinitionChange:
		// identity columns cannot be switched on or off in place
		return p.AlterColumn && !c.AutoIncrementChanged()
	case *RemovePrimaryKey, *PrimaryKeyChange:
		return p.DropPrimaryKey
	default:
		return false
	}
}

// sqlitePolicy rejects everything but plain appends and index changes, since SQLite
// cannot alter the foreign keys of an existing table
type sqlitePolicy struct{}

func (sqlitePolicy) Feasible(change Change) bool {
	switch change.(type) {
	case *AddForeignKey, *RemoveForeignKey, *AddPrimaryKey:
		return false
	}
	return DefaultPolicy{}.Feasible(change)
}

// PolicyFor returns the feasibility policy matching the capabilities of a dialect
func PolicyFor(info *platform.Info) Policy {
	f := info.Features()
	if !f.AlterForeignKeysSupported && f.ForeignKeysEmbedded {
		return sqlitePolicy{}
	}
	if !f.AlterColumnSupported && !f.DropColumnSupported && !f.DropPrimaryKeySupported {
		return DefaultPolicy{}
	}
	return AlterPolicy{
		DropColumn:     f.DropColumnSupported,
		AlterColumn:    f.AlterColumnSupported,
		DropPrimaryKey: f.DropPrimaryKeySupported,
	}
}
