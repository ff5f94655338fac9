package schema

// Clone returns a deep copy of the database with all references relinked to the copy
func (d *Database) Clone() *Database {
	out := &Database{Name: d.Name, Version: d.Version}
	out.Tables = make([]*Table, len(d.Tables))
	for i, t := range d.Tables {
		out.Tables[i] = t.Clone()
	}
	out.link(true)
	return out
}

// Clone returns a deep copy of the table. Foreign table pointers are left unset;
// callers cloning a whole model get them relinked by Database.Clone.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:        t.Name,
		Catalog:     t.Catalog,
		Schema:      t.Schema,
		Type:        t.Type,
		Description: t.Description,
	}
	out.Columns = make([]*Column, len(t.Columns))
	for i, c := range t.Columns {
		out.Columns[i] = c.Clone()
	}
	if len(t.Indexes) > 0 {
		out.Indexes = make([]*Index, len(t.Indexes))
		for i, idx := range t.Indexes {
			out.Indexes[i] = idx.Clone()
		}
	}
	if len(t.ForeignKeys) > 0 {
		out.ForeignKeys = make([]*ForeignKey, len(t.ForeignKeys))
		for i, fk := range t.ForeignKeys {
			out.ForeignKeys[i] = fk.Clone()
		}
	}
	for _, idx := range out.Indexes {
		for n := range idx.Columns {
			idx.Columns[n].Column = out.FindColumn(idx.Columns[n].Name, true)
		}
	}
	for _, fk := range out.ForeignKeys {
		for n := range fk.References {
			fk.References[n].LocalColumn = out.FindColumn(fk.References[n].LocalColumnName, true)
		}
	}
	return out
}

// Clone returns a copy of the column
func (c *Column) Clone() *Column {
	out := *c
	if c.DefaultValue != nil {
		v := *c.DefaultValue
		out.DefaultValue = &v
	}
	out.parsed = nil
	return &out
}

// Clone returns a copy of the index with column pointers cleared
func (i *Index) Clone() *Index {
	out := &Index{Name: i.Name, Unique: i.Unique}
	out.Columns = make([]IndexColumn, len(i.Columns))
	for n, c := range i.Columns {
		out.Columns[n] = IndexColumn{Name: c.Name, Ordinal: c.Ordinal}
	}
	return out
}

// Clone returns a copy of the foreign key with pointers cleared
func (f *ForeignKey) Clone() *ForeignKey {
	out := &ForeignKey{
		Name:             f.Name,
		ForeignTableName: f.ForeignTableName,
		OnUpdate:         f.OnUpdate,
		OnDelete:         f.OnDelete,
	}
	out.References = make([]Reference, len(f.References))
	for n, r := range f.References {
		out.References[n] = Reference{
			LocalColumnName:   r.LocalColumnName,
			ForeignColumnName: r.ForeignColumnName,
			Sequence:          r.Sequence,
		}
	}
	return out
}
