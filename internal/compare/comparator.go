package compare

import (
	"errors"
	"fmt"

	"github.com/tordrt/schemasync/internal/logging"
	"github.com/tordrt/schemasync/internal/platform"
	"github.com/tordrt/schemasync/internal/schema"
)

// Comparator computes the changes that turn a current model into a desired one
type Comparator struct {
	info          *platform.Info
	policy        Policy
	caseSensitive bool
}

// NewComparator creates a comparator using the dialect's feasibility policy
func NewComparator(info *platform.Info) *Comparator {
	return &Comparator{
		info:          info,
		policy:        PolicyFor(info),
		caseSensitive: info.Features().CaseSensitive,
	}
}

// WithPolicy replaces the feasibility policy
func (c *Comparator) WithPolicy(p Policy) *Comparator {
	c.policy = p
	return c
}

// CaseSensitive reports whether identifiers are matched case-sensitively
func (c *Comparator) CaseSensitive() bool {
	return c.caseSensitive
}

// Plan compares two models for a dialect and returns the changes in execution order
func Plan(current, desired *schema.Database, info *platform.Info) ([]Change, error) {
	changes, err := NewComparator(info).Compare(current, desired)
	if err != nil {
		return nil, err
	}
	return SortChanges(changes, info.Features().CaseSensitive), nil
}

// Compare returns the changes in discovery order. Use SortChanges before executing them.
// Both models are validated first; a *errors.ModelIntegrityError reports the first defect.
func (c *Comparator) Compare(current, desired *schema.Database) ([]Change, error) {
	if current == nil || desired == nil {
		return nil, errors.New("cannot compare a nil schema")
	}
	cs := c.caseSensitive
	if err := current.Validate(cs); err != nil {
		return nil, fmt.Errorf("invalid current schema: %w", err)
	}
	if err := desired.Validate(cs); err != nil {
		return nil, fmt.Errorf("invalid desired schema: %w", err)
	}
	alterFKs := c.info.Features().AlterForeignKeysSupported
	out := newChangeList(cs)

	for _, dt := range desired.Tables {
		if current.FindTable(dt.Name, cs) != nil {
			continue
		}
		out.add(&AddTable{Table: dt.Clone()})
		for _, fk := range dt.ForeignKeys {
			out.add(&AddForeignKey{Table: dt.Name, ForeignKey: fk.Clone()})
		}
	}

	var removed []*schema.Table
	for _, ct := range current.Tables {
		if desired.FindTable(ct.Name, cs) == nil {
			removed = append(removed, ct)
		}
	}
	// referencing tables are dropped before the tables they point at
	removed = DependencyOrder(removed, cs)
	for i := len(removed) - 1; i >= 0; i-- {
		ct := removed[i]
		if alterFKs {
			for _, fk := range ct.ForeignKeys {
				out.add(&RemoveForeignKey{Table: ct.Name, ForeignKey: fk.Clone()})
			}
		}
		out.add(&RemoveTable{Table: ct.Name})
	}

	for _, ct := range current.Tables {
		dt := desired.FindTable(ct.Name, cs)
		if dt == nil {
			continue
		}
		changes := c.compareTable(ct, dt)
		if len(changes) == 0 {
			continue
		}
		if c.feasible(changes) {
			out.add(changes...)
			continue
		}

		logging.Debug("recreating table", "table", ct.Name, "changes", len(changes))
		out.add(&RecreateTable{Table: ct.Name, TargetTable: dt.Clone(), Changes: changes})
		if alterFKs {
			c.refreshForeignKeys(out, current, desired, ct, dt)
		}
	}

	return out.changes, nil
}

func (c *Comparator) feasible(changes []Change) bool {
	for _, ch := range changes {
		if !c.policy.Feasible(ch) {
			return false
		}
	}
	return true
}

// refreshForeignKeys drops and re-adds every foreign key owned by or pointing at a
// recreated table, since dropping the table takes them with it
func (c *Comparator) refreshForeignKeys(out *changeList, current, desired *schema.Database, ct, dt *schema.Table) {
	cs := c.caseSensitive
	for _, fk := range ct.ForeignKeys {
		out.add(&RemoveForeignKey{Table: ct.Name, ForeignKey: fk.Clone()})
	}
	for _, ref := range current.ReferencingForeignKeys(ct.Name, cs) {
		out.add(&RemoveForeignKey{Table: ref.Table.Name, ForeignKey: ref.ForeignKey.Clone()})
	}
	for _, fk := range dt.ForeignKeys {
		out.add(&AddForeignKey{Table: ct.Name, ForeignKey: fk.Clone()})
	}
	for _, ref := range desired.ReferencingForeignKeys(dt.Name, cs) {
		// new tables already get their foreign keys
		if current.FindTable(ref.Table.Name, cs) == nil {
			continue
		}
		out.add(&AddForeignKey{Table: ref.Table.Name, ForeignKey: ref.ForeignKey.Clone()})
	}
}

func (c *Comparator) compareTable(ct, dt *schema.Table) []Change {
	var changes []Change
	changes = append(changes, c.compareColumns(ct, dt)...)
	changes = append(changes, c.comparePrimaryKeys(ct, dt)...)
	changes = append(changes, c.compareIndexes(ct, dt)...)
	changes = append(changes, c.compareForeignKeys(ct, dt)...)
	return changes
}

func (c *Comparator) compareColumns(ct, dt *schema.Table) []Change {
	cs := c.caseSensitive
	var changes []Change

	for _, col := range ct.Columns {
		if dt.FindColumn(col.Name, cs) == nil {
			changes = append(changes, &RemoveColumn{Table: ct.Name, Column: col.Name})
		}
	}

	for i, col := range dt.Columns {
		cur := ct.FindColumn(col.Name, cs)
		if cur == nil {
			changes = append(changes, &AddColumn{
				Table:      ct.Name,
				Column:     col.Clone(),
				NextColumn: nextExistingColumn(ct, dt, i, cs),
			})
			continue
		}
		if !c.SameColumn(cur, col) {
			changes = append(changes, &ColumnDefinitionChange{
				Table:     ct.Name,
				Column:    cur.Name,
				OldColumn: cur.Clone(),
				NewColumn: col.Clone(),
			})
		}
	}

	var currentOrder, desiredOrder []string
	for _, col := range ct.Columns {
		if dt.FindColumn(col.Name, cs) != nil {
			currentOrder = append(currentOrder, col.Name)
		}
	}
	for _, col := range dt.Columns {
		if cur := ct.FindColumn(col.Name, cs); cur != nil {
			desiredOrder = append(desiredOrder, cur.Name)
		}
	}
	if !sameNameList(currentOrder, desiredOrder, cs) {
		changes = append(changes, &ColumnOrderChange{Table: ct.Name, Order: desiredOrder})
	}

	return changes
}

// nextExistingColumn returns the first column after position i of the desired table
// that already exists, or "" when only new columns follow
func nextExistingColumn(ct, dt *schema.Table, i int, cs bool) string {
	for _, col := range dt.Columns[i+1:] {
		if cur := ct.FindColumn(col.Name, cs); cur != nil {
			return cur.Name
		}
	}
	return ""
}

// SameColumn reports whether two columns have the same definition as stored by the
// dialect. Names and the primary key flag are not compared.
func (c *Comparator) SameColumn(cur, des *schema.Column) bool {
	curType, desType := c.info.TargetType(cur.Type), c.info.TargetType(des.Type)
	if curType != desType {
		return false
	}
	if c.info.HasSize(desType) || c.info.HasPrecisionAndScale(desType) {
		if c.sizeOf(cur, curType) != c.sizeOf(des, desType) {
			return false
		}
	}
	if c.info.HasPrecisionAndScale(desType) && cur.Scale != des.Scale {
		return false
	}
	if cur.Required != des.Required || cur.AutoIncrement != des.AutoIncrement {
		return false
	}
	// generated values make declared defaults irrelevant
	if cur.AutoIncrement && des.AutoIncrement {
		return true
	}
	return sameDefault(cur, des, curType, desType)
}

func (c *Comparator) sizeOf(col *schema.Column, target schema.TypeCode) int {
	if col.Size > 0 {
		return col.Size
	}
	return c.info.DefaultSize(target)
}

func isBoolean(code schema.TypeCode) bool {
	return code == schema.TypeBit || code == schema.TypeBoolean
}

// sameDefault compares defaults as values of the stored types; boolean-like
// columns compare their defaults as bits so 1 and true match.
func sameDefault(cur, des *schema.Column, curType, desType schema.TypeCode) bool {
	a, b := cur.Clone(), des.Clone()
	a.Type, b.Type = curType, desType
	if isBoolean(curType) || isBoolean(desType) {
		a.Type, b.Type = schema.TypeBit, schema.TypeBit
	}
	return schema.SameDefault(a, b)
}

func (c *Comparator) comparePrimaryKeys(ct, dt *schema.Table) []Change {
	curPK, desPK := ct.PrimaryKeyNames(), dt.PrimaryKeyNames()
	switch {
	case len(curPK) == 0 && len(desPK) == 0:
		return nil
	case len(curPK) == 0:
		return []Change{&AddPrimaryKey{Table: ct.Name, Columns: desPK}}
	case len(desPK) == 0:
		return []Change{&RemovePrimaryKey{Table: ct.Name, Columns: curPK}}
	case !sameNameList(curPK, desPK, c.caseSensitive):
		return []Change{&PrimaryKeyChange{Table: ct.Name, OldColumns: curPK, NewColumns: desPK}}
	}
	return nil
}

// compareIndexes matches indexes by content, so renamed indexes are left alone and
// a changed index becomes a remove plus an add
func (c *Comparator) compareIndexes(ct, dt *schema.Table) []Change {
	cs := c.caseSensitive
	var changes []Change
	for _, idx := range ct.Indexes {
		if dt.FindEquivalentIndex(idx, cs) == nil {
			changes = append(changes, &RemoveIndex{Table: ct.Name, Index: idx.Clone()})
		}
	}
	for _, idx := range dt.Indexes {
		if ct.FindEquivalentIndex(idx, cs) == nil {
			changes = append(changes, &AddIndex{Table: ct.Name, Index: idx.Clone()})
		}
	}
	return changes
}

func (c *Comparator) compareForeignKeys(ct, dt *schema.Table) []Change {
	var changes []Change
	for _, fk := range ct.ForeignKeys {
		if c.findForeignKey(dt, fk) == nil {
			changes = append(changes, &RemoveForeignKey{Table: ct.Name, ForeignKey: fk.Clone()})
		}
	}
	for _, fk := range dt.ForeignKeys {
		if c.findForeignKey(ct, fk) == nil {
			changes = append(changes, &AddForeignKey{Table: ct.Name, ForeignKey: fk.Clone()})
		}
	}
	return changes
}

// findForeignKey returns the foreign key of t with the same references and actions as fk
func (c *Comparator) findForeignKey(t *schema.Table, fk *schema.ForeignKey) *schema.ForeignKey {
	for _, cur := range t.ForeignKeys {
		if c.SameForeignKey(cur, fk) {
			return cur
		}
	}
	return nil
}

// SameForeignKey reports whether two foreign keys are semantically equal in this dialect
func (c *Comparator) SameForeignKey(a, b *schema.ForeignKey) bool {
	return a.SameReferences(b, c.caseSensitive) &&
		c.info.SameAction(a.OnUpdate, b.OnUpdate, platform.OnUpdate) &&
		c.info.SameAction(a.OnDelete, b.OnDelete, platform.OnDelete)
}

func sameNameList(a, b []string, cs bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !schema.EqualNames(a[i], b[i], cs) {
			return false
		}
	}
	return true
}

// changeList collects changes, dropping repeated foreign key changes
type changeList struct {
	changes []Change
	seen    map[string]bool
	cs      bool
}

func newChangeList(cs bool) *changeList {
	return &changeList{seen: make(map[string]bool), cs: cs}
}

func (l *changeList) add(changes ...Change) {
	for _, ch := range changes {
		var fk *schema.ForeignKey
		switch c := ch.(type) {
		case *AddForeignKey:
			fk = c.ForeignKey
		case *RemoveForeignKey:
			fk = c.ForeignKey
		}
		if fk != nil {
			key := ch.Kind().String() + "|" + ch.TableName() + "|" + fk.String()
			if !l.cs {
				key = schema.FoldName(key)
			}
			if l.seen[key] {
				continue
			}
			l.seen[key] = true
		}
		l.changes = append(l.changes, ch)
	}
}
