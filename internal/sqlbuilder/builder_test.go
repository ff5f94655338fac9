package sqlbuilder

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/tordrt/schemasync/internal/compare"
	apperrors "github.com/tordrt/schemasync/internal/errors"
	"github.com/tordrt/schemasync/internal/platform"
	"github.com/tordrt/schemasync/internal/schema"
)

var registry = platform.NewRegistry()

func strPtr(s string) *string { return &s }

func pkCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: schema.TypeInteger, Required: true, PrimaryKey: true}
}

func identityCol(name string) *schema.Column {
	c := pkCol(name)
	c.AutoIncrement = true
	return c
}

func varchar(name string, size int) *schema.Column {
	return &schema.Column{Name: name, Type: schema.TypeVarchar, Size: size}
}

func database(t *testing.T, tables ...*schema.Table) *schema.Database {
	t.Helper()
	db := &schema.Database{Name: "shop", Tables: tables}
	if err := db.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return db
}

func shop(t *testing.T) *schema.Database {
	t.Helper()
	customers := &schema.Table{
		Name:    "customers",
		Columns: []*schema.Column{pkCol("id"), varchar("name", 50), varchar("email", 120)},
		Indexes: []*schema.Index{{Name: "idx_email", Unique: true, Columns: []schema.IndexColumn{{Name: "email"}}}},
	}
	orders := &schema.Table{
		Name: "orders",
		Columns: []*schema.Column{
			pkCol("id"),
			{Name: "customer_id", Type: schema.TypeInteger, Required: true},
			{Name: "total", Type: schema.TypeDecimal, Size: 10, Scale: 2, DefaultValue: strPtr("0")},
		},
		ForeignKeys: []*schema.ForeignKey{{
			Name:             "fk_orders_customer",
			ForeignTableName: "customers",
			References:       []schema.Reference{{LocalColumnName: "customer_id", ForeignColumnName: "id"}},
		}},
	}
	return database(t, customers, orders)
}

func indexOf(stmts []string, sql string) int {
	for i, s := range stmts {
		if s == sql {
			return i
		}
	}
	return -1
}

func TestCreateTablesPostgres(t *testing.T) {
	b := NewBuilder(registry.MustLookup("postgresql"), Options{})
	script, err := b.CreateTables(shop(t))
	if err != nil {
		t.Fatalf("CreateTables() error = %v", err)
	}

	want := []string{
		"CREATE TABLE customers (\n    id INTEGER NOT NULL,\n    name VARCHAR(50),\n    email VARCHAR(120),\n    PRIMARY KEY (id)\n)",
		"CREATE UNIQUE INDEX idx_email ON customers (email)",
		"CREATE TABLE orders (\n    id INTEGER NOT NULL,\n    customer_id INTEGER NOT NULL,\n    total DECIMAL(10,2) DEFAULT 0,\n    PRIMARY KEY (id)\n)",
		"ALTER TABLE orders ADD CONSTRAINT fk_orders_customer FOREIGN KEY (customer_id) REFERENCES customers (id)",
	}
	if got := script.Executable(); !reflect.DeepEqual(got, want) {
		t.Errorf("CreateTables() =\n%q\nwant\n%q", got, want)
	}
	if got := b.Model().FindTable("orders", true); got == nil || len(got.ForeignKeys) != 1 {
		t.Errorf("working model orders = %v, want one foreign key", got)
	}
}

func TestCreateTablesMySQLQuoted(t *testing.T) {
	opts := Options{
		DelimitedIdentifiers: true,
		CreationParameters:   map[string][]Param{"customers": {{Key: "ENGINE", Value: "InnoDB"}}},
	}
	b := NewBuilder(registry.MustLookup("mysql"), opts)
	db := database(t, &schema.Table{Name: "customers", Columns: []*schema.Column{identityCol("id"), varchar("name", 50)}})

	script, err := b.CreateTables(db)
	if err != nil {
		t.Fatalf("CreateTables() error = %v", err)
	}
	want := "CREATE TABLE `customers` (\n    `id` INTEGER NOT NULL AUTO_INCREMENT,\n    `name` VARCHAR(50),\n    PRIMARY KEY (`id`)\n) ENGINE=InnoDB"
	if got := script.Executable(); len(got) != 1 || got[0] != want {
		t.Errorf("CreateTables() = %q, want %q", got, want)
	}
}

func TestCreateTablesSQLiteInlineIdentity(t *testing.T) {
	b := NewBuilder(registry.MustLookup("sqlite"), Options{})
	db := database(t, &schema.Table{Name: "items", Columns: []*schema.Column{identityCol("id"), varchar("name", 20)}})

	script, err := b.CreateTables(db)
	if err != nil {
		t.Fatalf("CreateTables() error = %v", err)
	}
	want := "CREATE TABLE items (\n    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,\n    name VARCHAR(20)\n)"
	if got := script.Executable(); len(got) != 1 || got[0] != want {
		t.Errorf("CreateTables() = %q, want %q", got, want)
	}
}

func TestCreateTablesSQLiteEmbedsForeignKeys(t *testing.T) {
	b := NewBuilder(registry.MustLookup("sqlite"), Options{})
	script, err := b.CreateTables(shop(t))
	if err != nil {
		t.Fatalf("CreateTables() error = %v", err)
	}
	for _, stmt := range script.Executable() {
		if strings.HasPrefix(stmt, "ALTER TABLE") {
			t.Errorf("CreateTables() contains %q, want foreign keys inside CREATE TABLE", stmt)
		}
	}
	if !strings.Contains(script.String(), "CONSTRAINT fk_orders_customer FOREIGN KEY (customer_id) REFERENCES customers (id)") {
		t.Errorf("CreateTables() =\n%s\nwant embedded foreign key", script)
	}
}

func TestDropTablesSQLite(t *testing.T) {
	b := NewBuilder(registry.MustLookup("sqlite"), Options{})
	script, err := b.DropTables(shop(t))
	if err != nil {
		t.Fatalf("DropTables() error = %v", err)
	}
	want := []string{"DROP TABLE orders", "DROP TABLE customers"}
	if got := script.Executable(); !reflect.DeepEqual(got, want) {
		t.Errorf("DropTables() = %q, want %q", got, want)
	}
}

func TestTypeMappingError(t *testing.T) {
	b := NewBuilder(registry.MustLookup("postgresql"), Options{})
	db := database(t, &schema.Table{Name: "things", Columns: []*schema.Column{{Name: "payload", Type: schema.TypeDistinct}}})

	_, err := b.CreateTables(db)
	if !errors.Is(err, apperrors.ErrTypeMapping) {
		t.Errorf("CreateTables() error = %v, want ErrTypeMapping", err)
	}
}

func TestColumnType(t *testing.T) {
	tests := []struct {
		dialect string
		column  *schema.Column
		want    string
	}{
		{"postgresql", varchar("name", 30), "VARCHAR(30)"},
		{"postgresql", varchar("name", 0), "VARCHAR(254)"},
		{"postgresql", &schema.Column{Name: "n", Type: schema.TypeDecimal, Size: 12, Scale: 3}, "DECIMAL(12,3)"},
		{"postgresql", &schema.Column{Name: "n", Type: schema.TypeDecimal}, "DECIMAL(15,0)"},
		{"postgresql", &schema.Column{Name: "flag", Type: schema.TypeBit}, "BOOLEAN"},
		{"mysql", &schema.Column{Name: "flag", Type: schema.TypeBoolean}, "TINYINT(1)"},
		{"db2", &schema.Column{Name: "raw", Type: schema.TypeVarBinary, Size: 16}, "VARCHAR(16) FOR BIT DATA"},
		{"oracle10", varchar("name", 40), "VARCHAR2(40)"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.want, func(t *testing.T) {
			b := NewBuilder(registry.MustLookup(tt.dialect), Options{})
			got, err := b.columnType("t", tt.column)
			if err != nil {
				t.Fatalf("columnType() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("columnType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShortenName(t *testing.T) {
	tests := []struct {
		name string
		max  int
		want string
	}{
		{"orders", 10, "orders"},
		{"orders", -1, "orders"},
		{"abcdefghij", 5, "ab_ij"},
		{"customer_orders_tmp", 12, "custom_s_tmp"},
		{"abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		if got := shortenName(tt.name, tt.max); got != tt.want {
			t.Errorf("shortenName(%q, %d) = %q, want %q", tt.name, tt.max, got, tt.want)
		}
		if got := shortenName(tt.name, tt.max); tt.max > 0 && len(got) > tt.max {
			t.Errorf("shortenName(%q, %d) length = %d", tt.name, tt.max, len(got))
		}
	}
}

func TestQuoting(t *testing.T) {
	tests := []struct {
		dialect string
		quoted  bool
		want    string
	}{
		{"postgresql", false, "order"},
		{"postgresql", true, `"order"`},
		{"mysql", true, "`order`"},
		{"mssql", true, "[order]"},
	}

	for _, tt := range tests {
		b := NewBuilder(registry.MustLookup(tt.dialect), Options{DelimitedIdentifiers: tt.quoted})
		if got := b.tableName("order"); got != tt.want {
			t.Errorf("%s tableName() = %q, want %q", tt.dialect, got, tt.want)
		}
	}
}

func TestDefaultValue(t *testing.T) {
	tests := []struct {
		dialect string
		code    schema.TypeCode
		raw     string
		want    string
	}{
		{"postgresql", schema.TypeBoolean, "1", "TRUE"},
		{"mysql", schema.TypeBoolean, "true", "1"},
		{"postgresql", schema.TypeVarchar, "it's", "'it''s'"},
		{"postgresql", schema.TypeTimestamp, "CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP"},
		{"postgresql", schema.TypeVarchar, "upper('x')", "upper('x')"},
		{"postgresql", schema.TypeInteger, " 42 ", "42"},
		{"postgresql", schema.TypeDate, "2024-01-31", "'2024-01-31'"},
	}

	for _, tt := range tests {
		b := NewBuilder(registry.MustLookup(tt.dialect), Options{})
		col := &schema.Column{Name: "c", Type: tt.code, DefaultValue: strPtr(tt.raw)}
		if got := b.defaultValue(col); got != tt.want {
			t.Errorf("%s defaultValue(%s %q) = %q, want %q", tt.dialect, tt.code, tt.raw, got, tt.want)
		}
	}
}

func TestForeignKeyActions(t *testing.T) {
	fk := &schema.ForeignKey{
		Name:             "fk_orders_customer",
		ForeignTableName: "customers",
		References:       []schema.Reference{{LocalColumnName: "customer_id", ForeignColumnName: "id"}},
		OnUpdate:         schema.ActionCascade,
		OnDelete:         schema.ActionCascade,
	}

	tests := []struct {
		dialect string
		want    string
	}{
		{"postgresql", " ON UPDATE CASCADE ON DELETE CASCADE"},
		{"oracle10", ") ON DELETE CASCADE"},
	}
	for _, tt := range tests {
		b := NewBuilder(registry.MustLookup(tt.dialect), Options{})
		if got := b.foreignKeyClause("orders", fk); !strings.HasSuffix(got, tt.want) {
			t.Errorf("%s foreignKeyClause() = %q, want suffix %q", tt.dialect, got, tt.want)
		}
	}
}

func TestRecreatePreservesData(t *testing.T) {
	current := shop(t)
	desired := shop(t)
	orders := desired.FindTable("orders", true)
	orders.Columns = orders.Columns[:2]

	info := registry.MustLookup("sqlite")
	changes, err := compare.Plan(current, desired, info)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	script, err := NewBuilder(info, Options{}).Build(current, changes)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{
		"PRAGMA foreign_keys = OFF",
		"CREATE TABLE orders_tmp (\n    id INTEGER NOT NULL,\n    customer_id INTEGER NOT NULL,\n    PRIMARY KEY (id)\n)",
		"INSERT INTO orders_tmp (id, customer_id) SELECT id, customer_id FROM orders",
		"DROP TABLE orders",
		"CREATE TABLE orders (\n    id INTEGER NOT NULL,\n    customer_id INTEGER NOT NULL,\n    PRIMARY KEY (id),\n" +
			"    CONSTRAINT fk_orders_customer FOREIGN KEY (customer_id) REFERENCES customers (id)\n)",
		"INSERT INTO orders (id, customer_id) SELECT id, customer_id FROM orders_tmp",
		"DROP TABLE orders_tmp",
		"PRAGMA foreign_keys = ON",
	}
	if got := script.Executable(); !reflect.DeepEqual(got, want) {
		t.Errorf("Build() =\n%q\nwant\n%q", got, want)
	}
}

func TestRecreateLossy(t *testing.T) {
	current := shop(t)
	target := current.FindTable("orders", true).Clone()
	status := &schema.Column{Name: "status", Type: schema.TypeVarchar, Size: 10, Required: true}
	target.Columns = append(target.Columns, status)

	change := &compare.RecreateTable{
		Table:       "orders",
		TargetTable: target,
		Changes:     []compare.Change{&compare.AddColumn{Table: "orders", Column: status}},
	}
	script, err := NewBuilder(registry.MustLookup("postgresql"), Options{Comments: true}).Build(current, []compare.Change{change})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{
		"DROP TABLE orders",
		"CREATE TABLE orders (\n    id INTEGER NOT NULL,\n    customer_id INTEGER NOT NULL,\n    total DECIMAL(10,2) DEFAULT 0,\n" +
			"    status VARCHAR(10) NOT NULL,\n    PRIMARY KEY (id)\n)",
	}
	if got := script.Executable(); !reflect.DeepEqual(got, want) {
		t.Errorf("Build() =\n%q\nwant\n%q", got, want)
	}
	if !strings.Contains(script.String(), "-- data of table orders is not preserved") {
		t.Errorf("Build() =\n%s\nwant a data loss comment", script)
	}
}

func TestRecreateIdentityInsert(t *testing.T) {
	current := database(t, &schema.Table{
		Name:    "customers",
		Columns: []*schema.Column{identityCol("id"), varchar("name", 50), varchar("email", 120)},
	})
	target := &schema.Table{Name: "customers", Columns: []*schema.Column{identityCol("id"), varchar("name", 50)}}
	change := &compare.RecreateTable{
		Table:       "customers",
		TargetTable: target,
		Changes:     []compare.Change{&compare.RemoveColumn{Table: "customers", Column: "email"}},
	}

	script, err := NewBuilder(registry.MustLookup("mssql"), Options{}).Build(current, []compare.Change{change})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	stmts := script.Executable()
	on := indexOf(stmts, "SET IDENTITY_INSERT customers ON")
	insert := indexOf(stmts, "INSERT INTO customers (id, name) SELECT id, name FROM customers_tmp")
	off := indexOf(stmts, "SET IDENTITY_INSERT customers OFF")
	if on < 0 || insert < 0 || off < 0 || !(on < insert && insert < off) {
		t.Errorf("Build() = %q, want identity insert around the copy", stmts)
	}
	if strings.Contains(stmts[0], "IDENTITY(1,1)") {
		t.Errorf("temporary table %q declares an identity column", stmts[0])
	}
}

func TestAlterColumnPostgres(t *testing.T) {
	current := shop(t)
	old := current.FindTable("customers", true).FindColumn("name", true)
	updated := varchar("name", 100)
	updated.Required = true
	updated.DefaultValue = strPtr("anonymous")

	change := &compare.ColumnDefinitionChange{Table: "customers", Column: "name", OldColumn: old, NewColumn: updated}
	script, err := NewBuilder(registry.MustLookup("postgresql"), Options{}).Build(current, []compare.Change{change})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := []string{
		"ALTER TABLE customers ALTER COLUMN name TYPE VARCHAR(100)",
		"ALTER TABLE customers ALTER COLUMN name SET DEFAULT 'anonymous'",
		"ALTER TABLE customers ALTER COLUMN name SET NOT NULL",
	}
	if got := script.Executable(); !reflect.DeepEqual(got, want) {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestColumnOrder(t *testing.T) {
	change := &compare.ColumnOrderChange{Table: "customers", Order: []string{"email", "id", "name"}}

	script, err := NewBuilder(registry.MustLookup("mysql"), Options{}).Build(shop(t), []compare.Change{change})
	if err != nil {
		t.Fatalf("mysql Build() error = %v", err)
	}
	if got := script.Executable(); len(got) != 3 || got[0] != "ALTER TABLE customers MODIFY COLUMN email VARCHAR(120) FIRST" {
		t.Errorf("mysql Build() = %q", got)
	}

	_, err = NewBuilder(registry.MustLookup("postgresql"), Options{}).Build(shop(t), []compare.Change{change})
	if !errors.Is(err, apperrors.ErrUnsupported) {
		t.Errorf("postgresql Build() error = %v, want ErrUnsupported", err)
	}
}

func TestOracleSequences(t *testing.T) {
	db := database(t, &schema.Table{Name: "customers", Columns: []*schema.Column{identityCol("id")}})
	b := NewBuilder(registry.MustLookup("oracle10"), Options{})

	script, err := b.CreateTables(db)
	if err != nil {
		t.Fatalf("CreateTables() error = %v", err)
	}
	if len(script.Statements) != 3 {
		t.Fatalf("CreateTables() = %q, want table, sequence and trigger", script.Executable())
	}
	if got := script.Statements[1].SQL; got != "CREATE SEQUENCE seq_customers_id" {
		t.Errorf("sequence = %q", got)
	}
	trigger := script.Statements[2]
	if trigger.Terminator != "\n/" || !strings.Contains(trigger.SQL, "seq_customers_id.nextval") {
		t.Errorf("trigger = %+v", trigger)
	}

	script, err = b.DropTables(db)
	if err != nil {
		t.Fatalf("DropTables() error = %v", err)
	}
	want := []string{"DROP TABLE customers", "DROP SEQUENCE seq_customers_id"}
	if got := script.Executable(); !reflect.DeepEqual(got, want) {
		t.Errorf("DropTables() = %q, want %q", got, want)
	}
}

func TestCreateDatabase(t *testing.T) {
	script, err := NewBuilder(registry.MustLookup("postgresql"), Options{}).CreateDatabase("shop")
	if err != nil {
		t.Fatalf("CreateDatabase() error = %v", err)
	}
	if got := script.Executable(); len(got) != 1 || got[0] != "CREATE DATABASE shop" {
		t.Errorf("CreateDatabase() = %q", got)
	}

	_, err = NewBuilder(registry.MustLookup("sqlite"), Options{}).CreateDatabase("shop")
	if !errors.Is(err, apperrors.ErrUnsupported) {
		t.Errorf("sqlite CreateDatabase() error = %v, want ErrUnsupported", err)
	}
}

func TestScript(t *testing.T) {
	s := newScript(registry.MustLookup("postgresql").Tokens())
	s.comment("t", "hello")
	s.add("t", "DROP TABLE t")
	s.addTerminated("t", "BEGIN NULL; END;", "\n/")
	s.add("u", "DROP TABLE u")

	want := "-- hello\nDROP TABLE t;\nBEGIN NULL; END;\n/\nDROP TABLE u;\n"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := s.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	if got := s.Tables(); !reflect.DeepEqual(got, []string{"t", "u"}) {
		t.Errorf("Tables() = %v", got)
	}
	if got := s.ForTable("u").Executable(); !reflect.DeepEqual(got, []string{"DROP TABLE u"}) {
		t.Errorf("ForTable() = %v", got)
	}
}

func TestScriptSplit(t *testing.T) {
	s := newScript(registry.MustLookup("postgresql").Tokens())
	s.add("a", "CREATE TABLE a (id INTEGER)")
	s.add("b", "CREATE TABLE b (id INTEGER)")
	s.add("b", "CREATE INDEX i ON b (id)")
	s.add("a", "ALTER TABLE a ADD x INTEGER")

	parts := s.Split()
	var got []int
	for _, p := range parts {
		got = append(got, len(p.Statements))
	}
	if !reflect.DeepEqual(got, []int{1, 2, 1}) {
		t.Errorf("Split() sizes = %v, want [1 2 1]", got)
	}
}

func TestPrimaryKeyChange(t *testing.T) {
	code := func(pk bool) *schema.Column {
		return &schema.Column{Name: "code", Type: schema.TypeInteger, Required: true, PrimaryKey: pk}
	}
	items := func(codeInKey bool) *schema.Database {
		return database(t, &schema.Table{Name: "items", Columns: []*schema.Column{pkCol("id"), code(codeInKey)}})
	}

	tests := []struct {
		dialect    string
		wantCreate string
		want       []string
	}{
		{
			dialect:    "sql92",
			wantCreate: "CONSTRAINT pk_items PRIMARY KEY (id, code)",
			want:       []string{"ALTER TABLE items DROP CONSTRAINT pk_items", "ALTER TABLE items ADD CONSTRAINT pk_items PRIMARY KEY (id)"},
		},
		{
			dialect:    "firebird",
			wantCreate: "CONSTRAINT pk_items PRIMARY KEY (id, code)",
			want:       []string{"ALTER TABLE items DROP CONSTRAINT pk_items", "ALTER TABLE items ADD CONSTRAINT pk_items PRIMARY KEY (id)"},
		},
		{
			dialect:    "oracle10",
			wantCreate: "CONSTRAINT pk_items PRIMARY KEY (id, code)",
			want:       []string{"ALTER TABLE items DROP PRIMARY KEY", "ALTER TABLE items ADD CONSTRAINT pk_items PRIMARY KEY (id)"},
		},
		{
			dialect:    "db2",
			wantCreate: "CONSTRAINT pk_items PRIMARY KEY (id, code)",
			want:       []string{"ALTER TABLE items DROP PRIMARY KEY", "ALTER TABLE items ADD CONSTRAINT pk_items PRIMARY KEY (id)"},
		},
		{
			dialect:    "h2",
			wantCreate: "CONSTRAINT pk_items PRIMARY KEY (id, code)",
			want:       []string{"ALTER TABLE items DROP PRIMARY KEY", "ALTER TABLE items ADD CONSTRAINT pk_items PRIMARY KEY (id)"},
		},
		{
			dialect:    "postgresql",
			wantCreate: "    PRIMARY KEY (id, code)",
			want:       []string{"ALTER TABLE items DROP CONSTRAINT items_pkey", "ALTER TABLE items ADD PRIMARY KEY (id)"},
		},
		{
			dialect:    "mysql",
			wantCreate: "    PRIMARY KEY (id, code)",
			want:       []string{"ALTER TABLE items DROP PRIMARY KEY", "ALTER TABLE items ADD PRIMARY KEY (id)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			info := registry.MustLookup(tt.dialect)
			current, desired := items(true), items(false)

			create, err := NewBuilder(info, Options{}).CreateTables(current)
			if err != nil {
				t.Fatalf("CreateTables() error = %v", err)
			}
			if got := create.Executable(); len(got) == 0 || !strings.Contains(got[0], tt.wantCreate) {
				t.Errorf("CreateTables() = %q, want %q", got, tt.wantCreate)
			}

			changes, err := compare.Plan(current, desired, info)
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			script, err := NewBuilder(info, Options{}).Build(current, changes)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got := script.Executable(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRemovePrimaryKey(t *testing.T) {
	current := database(t, &schema.Table{Name: "items", Columns: []*schema.Column{pkCol("id")}})
	desired := database(t, &schema.Table{Name: "items", Columns: []*schema.Column{
		{Name: "id", Type: schema.TypeInteger, Required: true},
	}})

	tests := []struct {
		dialect string
		want    string
	}{
		{"sql92", "ALTER TABLE items DROP CONSTRAINT pk_items"},
		{"oracle10", "ALTER TABLE items DROP PRIMARY KEY"},
		{"postgresql", "ALTER TABLE items DROP CONSTRAINT items_pkey"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			info := registry.MustLookup(tt.dialect)
			changes, err := compare.Plan(current, desired, info)
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			script, err := NewBuilder(info, Options{}).Build(current, changes)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got := script.Executable(); len(got) != 1 || got[0] != tt.want {
				t.Errorf("Build() = %q, want [%q]", got, tt.want)
			}
		})
	}
}

func TestSQLiteRecreateKeepsForwardForeignKey(t *testing.T) {
	current := database(t, &schema.Table{
		Name:    "x",
		Columns: []*schema.Column{pkCol("id"), {Name: "z_id", Type: schema.TypeInteger}},
	})
	desired := database(t,
		&schema.Table{
			Name:    "x",
			Columns: []*schema.Column{pkCol("id"), {Name: "z_id", Type: schema.TypeInteger}},
			ForeignKeys: []*schema.ForeignKey{{
				Name:             "fk_z",
				ForeignTableName: "z",
				References:       []schema.Reference{{LocalColumnName: "z_id", ForeignColumnName: "id"}},
			}},
		},
		&schema.Table{Name: "z", Columns: []*schema.Column{pkCol("id")}},
	)

	info := registry.MustLookup("sqlite")
	changes, err := compare.Plan(current, desired, info)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	b := NewBuilder(info, Options{})
	script, err := b.Build(current, changes)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := "CREATE TABLE x (\n    id INTEGER NOT NULL,\n    z_id INTEGER,\n    PRIMARY KEY (id),\n" +
		"    CONSTRAINT fk_z FOREIGN KEY (z_id) REFERENCES z (id)\n)"
	if indexOf(script.Executable(), want) < 0 {
		t.Errorf("Build() =\n%s\nwant the rebuilt x to declare fk_z", script)
	}

	remaining, err := compare.Plan(b.Model(), desired, info)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("after Build, Plan() = %v, want no changes", remaining)
	}
}

func TestAlterIdentityTypePostgres(t *testing.T) {
	current := database(t, &schema.Table{Name: "items", Columns: []*schema.Column{identityCol("id")}})
	old := current.FindTable("items", true).FindColumn("id", true)
	wider := identityCol("id")
	wider.Type = schema.TypeBigInt

	change := &compare.ColumnDefinitionChange{Table: "items", Column: "id", OldColumn: old, NewColumn: wider}
	script, err := NewBuilder(registry.MustLookup("postgresql"), Options{}).Build(current, []compare.Change{change})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := []string{"ALTER TABLE items ALTER COLUMN id TYPE BIGINT"}
	if got := script.Executable(); !reflect.DeepEqual(got, want) {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestPostgresResetSequenceQuoted(t *testing.T) {
	current := database(t, &schema.Table{
		Name:    "Items",
		Columns: []*schema.Column{identityCol("ItemID"), varchar("name", 20), varchar("note", 20)},
	})
	target := &schema.Table{Name: "Items", Columns: []*schema.Column{identityCol("ItemID"), varchar("name", 20)}}
	change := &compare.RecreateTable{
		Table:       "Items",
		TargetTable: target,
		Changes:     []compare.Change{&compare.RemoveColumn{Table: "Items", Column: "note"}},
	}

	script, err := NewBuilder(registry.MustLookup("postgresql"), Options{DelimitedIdentifiers: true}).Build(current, []compare.Change{change})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := `SELECT setval(pg_get_serial_sequence('"Items"', '"ItemID"'), COALESCE(MAX("ItemID"), 0) + 1, false) FROM "Items"`
	if indexOf(script.Executable(), want) < 0 {
		t.Errorf("Build() = %q, want %q", script.Executable(), want)
	}
}
