package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/tordrt/schemasync/internal/logging"
	"github.com/tordrt/schemasync/internal/platform"
	"github.com/tordrt/schemasync/internal/schema"
)

// SystemIndexFilter reports whether an index was created by the database itself
// (to back a primary or foreign key) and should be left out of the model
type SystemIndexFilter func(table *schema.Table, idx *schema.Index) bool

// systemIndexOverrider is implemented by sources whose databases name or shape
// their backing indexes in a recognisable way
type systemIndexOverrider interface {
	SystemIndexFilter(base SystemIndexFilter) SystemIndexFilter
}

// Extractor builds a schema model from a MetadataSource
type Extractor struct {
	source   MetadataSource
	info     *platform.Info
	filter   TableFilter
	isSystem SystemIndexFilter
}

// NewExtractor creates a new schema extractor
func NewExtractor(source MetadataSource, info *platform.Info, filter TableFilter) *Extractor {
	e := &Extractor{
		source: source,
		info:   info,
		filter: filter,
	}
	e.isSystem = DefaultSystemIndexFilter(info)
	if o, ok := source.(systemIndexOverrider); ok {
		e.isSystem = o.SystemIndexFilter(e.isSystem)
	}
	return e
}

// ExtractSchema reads every matching table and returns the resolved model
func (e *Extractor) ExtractSchema(ctx context.Context, name string) (*schema.Database, error) {
	tableRows, err := e.source.Tables(ctx, e.filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	var rows []TableRow
	for _, row := range tableRows {
		if e.filter.wants(row.Name) {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return schema.FoldName(rows[i].Name) < schema.FoldName(rows[j].Name)
	})

	db := &schema.Database{Name: name}
	for _, row := range rows {
		table, err := e.extractTable(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", row.Name, err)
		}
		db.Tables = append(db.Tables, table)
	}

	for _, table := range db.Tables {
		e.removeSystemIndexes(table)
		e.dropDanglingForeignKeys(db, table)
	}

	if err := db.Resolve(); err != nil {
		return nil, err
	}

	if e.info.Features().ForeignKeysSorted {
		for _, table := range db.Tables {
			sort.SliceStable(table.ForeignKeys, func(i, j int) bool {
				return schema.FoldName(table.ForeignKeys[i].Name) < schema.FoldName(table.ForeignKeys[j].Name)
			})
		}
	}

	logging.Debug("extracted schema", "database", name, "tables", len(db.Tables))
	return db, nil
}

// extractTable extracts all information for a single table
func (e *Extractor) extractTable(ctx context.Context, row TableRow) (*schema.Table, error) {
	table := &schema.Table{
		Name:        row.Name,
		Catalog:     row.Catalog,
		Schema:      row.Schema,
		Type:        row.Type,
		Description: row.Remarks,
	}

	columns, err := e.extractColumns(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Columns = columns

	if err := e.markPrimaryKey(ctx, row, table); err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}

	fks, err := e.extractForeignKeys(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	table.ForeignKeys = fks

	indexes, err := e.extractIndexes(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	table.Indexes = indexes

	return table, nil
}

func (e *Extractor) extractColumns(ctx context.Context, row TableRow) ([]*schema.Column, error) {
	colRows, err := e.source.Columns(ctx, row)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(colRows, func(i, j int) bool {
		return colRows[i].OrdinalPosition < colRows[j].OrdinalPosition
	})

	columns := make([]*schema.Column, 0, len(colRows))
	for _, cr := range colRows {
		code := e.info.TargetType(cr.DataType)
		col := &schema.Column{
			Name:          cr.ColumnName,
			Type:          code,
			Required:      !cr.Nullable,
			AutoIncrement: cr.AutoIncrement,
			Description:   cr.Remarks,
		}
		if code == schema.TypeUnknown {
			logging.Warn("unmapped column type", "table", row.Name, "column", cr.ColumnName, "type", cr.TypeName)
			col.Type = schema.TypeOther
		}

		switch {
		case e.info.HasSize(code):
			if cr.ColumnSize != nil {
				col.Size = *cr.ColumnSize
			} else {
				col.Size = e.info.DefaultSize(code)
			}
		case e.info.HasPrecisionAndScale(code):
			if cr.ColumnSize != nil {
				col.Size = *cr.ColumnSize
			} else {
				col.Size = e.info.DefaultSize(code)
			}
			if cr.DecimalDigits != nil {
				col.Scale = *cr.DecimalDigits
			}
		}

		if !cr.AutoIncrement {
			col.DefaultValue = cr.ColumnDef
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func (e *Extractor) markPrimaryKey(ctx context.Context, row TableRow, table *schema.Table) error {
	pkRows, err := e.source.PrimaryKeys(ctx, row)
	if err != nil {
		return err
	}
	for _, pk := range pkRows {
		col := table.FindColumn(pk.ColumnName, true)
		if col == nil {
			return fmt.Errorf("primary key column %s not found", pk.ColumnName)
		}
		col.PrimaryKey = true
	}
	return nil
}

func (e *Extractor) extractForeignKeys(ctx context.Context, row TableRow) ([]*schema.ForeignKey, error) {
	fkRows, err := e.source.ForeignKeys(ctx, row)
	if err != nil {
		return nil, err
	}

	var fks []*schema.ForeignKey
	byName := make(map[string]*schema.ForeignKey)
	for _, fr := range fkRows {
		fk, ok := byName[fr.FKName]
		if !ok {
			fk = &schema.ForeignKey{
				Name:             fr.FKName,
				ForeignTableName: fr.PKTableName,
				OnUpdate:         ParseVendorAction(fr.UpdateRule, e.info, platform.OnUpdate),
				OnDelete:         ParseVendorAction(fr.DeleteRule, e.info, platform.OnDelete),
			}
			byName[fr.FKName] = fk
			fks = append(fks, fk)
		}
		fk.References = append(fk.References, schema.Reference{
			LocalColumnName:   fr.FKColumnName,
			ForeignColumnName: fr.PKColumnName,
			Sequence:          fr.KeySeq,
		})
	}

	for _, fk := range fks {
		sort.SliceStable(fk.References, func(i, j int) bool {
			return fk.References[i].Sequence < fk.References[j].Sequence
		})
	}
	return fks, nil
}

func (e *Extractor) extractIndexes(ctx context.Context, row TableRow) ([]*schema.Index, error) {
	idxRows, err := e.source.Indexes(ctx, row)
	if err != nil {
		return nil, err
	}

	var names []string
	grouped := make(map[string][]IndexRow)
	for _, ir := range idxRows {
		if ir.Statistic || ir.IndexName == "" || ir.ColumnName == "" {
			continue
		}
		if _, ok := grouped[ir.IndexName]; !ok {
			names = append(names, ir.IndexName)
		}
		grouped[ir.IndexName] = append(grouped[ir.IndexName], ir)
	}

	indexes := make([]*schema.Index, 0, len(names))
	for _, name := range names {
		cols := grouped[name]
		sort.SliceStable(cols, func(i, j int) bool {
			return cols[i].OrdinalPosition < cols[j].OrdinalPosition
		})
		idx := &schema.Index{Name: name, Unique: !cols[0].NonUnique}
		for _, c := range cols {
			idx.Columns = append(idx.Columns, schema.IndexColumn{Name: c.ColumnName})
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

// dropDanglingForeignKeys removes foreign keys to tables outside the filtered set
func (e *Extractor) dropDanglingForeignKeys(db *schema.Database, table *schema.Table) {
	kept := table.ForeignKeys[:0]
	for _, fk := range table.ForeignKeys {
		if db.FindTable(fk.ForeignTableName, true) == nil {
			logging.Warn("skipping foreign key to unread table", "table", table.Name, "foreign_key", fk.Name, "target", fk.ForeignTableName)
			continue
		}
		kept = append(kept, fk)
	}
	table.ForeignKeys = kept
}

func (e *Extractor) removeSystemIndexes(table *schema.Table) {
	kept := table.Indexes[:0]
	for _, idx := range table.Indexes {
		if e.isSystem(table, idx) {
			logging.Debug("skipping system index", "table", table.Name, "index", idx.Name)
			continue
		}
		kept = append(kept, idx)
	}
	table.Indexes = kept
}

// DefaultSystemIndexFilter treats an index as system-created when it is unique and covers
// exactly the primary key columns, or when it covers exactly the local columns of a foreign
// key and is unique (any uniqueness when the dialect reports such indexes as non-unique).
func DefaultSystemIndexFilter(info *platform.Info) SystemIndexFilter {
	alwaysNonUnique := info.Features().SystemForeignKeyIndicesAlwaysNonUnique
	return func(table *schema.Table, idx *schema.Index) bool {
		cols := idx.ColumnNames()
		if idx.Unique && table.HasPrimaryKey() && schema.SameNameSet(cols, table.PrimaryKeyNames(), true) {
			return true
		}
		if !idx.Unique && !alwaysNonUnique {
			return false
		}
		for _, fk := range table.ForeignKeys {
			if schema.SameNameSet(cols, fk.LocalColumnNames(), true) {
				return true
			}
		}
		return false
	}
}
