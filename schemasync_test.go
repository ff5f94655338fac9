package schemasync

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/tordrt/schemasync/internal/errors"
	"github.com/tordrt/schemasync/internal/schema"
)

func shopModel(t *testing.T) *Database {
	t.Helper()
	db := &schema.Database{Name: "shop", Tables: []*schema.Table{
		{
			Name: "customers",
			Columns: []*schema.Column{
				{Name: "id", Type: schema.TypeInteger, Required: true, PrimaryKey: true, AutoIncrement: true},
				{Name: "email", Type: schema.TypeVarchar, Size: 120, Required: true},
			},
			Indexes: []*schema.Index{{Name: "idx_customers_email", Unique: true, Columns: []schema.IndexColumn{{Name: "email"}}}},
		},
		{
			Name: "orders",
			Columns: []*schema.Column{
				{Name: "id", Type: schema.TypeInteger, Required: true, PrimaryKey: true},
				{Name: "customer_id", Type: schema.TypeInteger, Required: true},
			},
			ForeignKeys: []*schema.ForeignKey{{
				Name:             "fk_orders_customer",
				ForeignTableName: "customers",
				References:       []schema.Reference{{LocalColumnName: "customer_id", ForeignColumnName: "id"}},
				OnDelete:         schema.ActionCascade,
			}},
		},
	}}
	if err := db.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return db
}

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantDialect string
		wantConn    string
		wantErr     bool
	}{
		{"postgres", "postgres://u:p@localhost/shop", "postgresql", "postgres://u:p@localhost/shop", false},
		{"postgresql", "postgresql://localhost/shop", "postgresql", "postgresql://localhost/shop", false},
		{"mysql", "mysql://u:p@tcp(localhost:3306)/shop", "mysql", "u:p@tcp(localhost:3306)/shop", false},
		{"sqlite", "sqlite://data/shop.db", "sqlite", "data/shop.db", false},
		{"sqlserver", "sqlserver://sa:pw@localhost?database=shop", "mssql", "sqlserver://sa:pw@localhost?database=shop", false},
		{"empty", "", "", "", true},
		{"unknown scheme", "oracle://localhost", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDatabaseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDatabaseURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got.dialect != tt.wantDialect || got.connStr != tt.wantConn {
				t.Errorf("parseDatabaseURL() = %+v, want {%s %s}", got, tt.wantDialect, tt.wantConn)
			}
		})
	}
}

func TestDialects(t *testing.T) {
	names := Dialects()
	for _, want := range []string{"postgresql", "mysql", "sqlite", "mssql", "oracle10"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Dialects() missing %s", want)
		}
	}
}

func TestDiffUnknownDialect(t *testing.T) {
	if _, err := Diff(&Database{}, shopModel(t), "nosuchdb"); err == nil {
		t.Error("Diff() error = nil, want error")
	}
}

func TestGenerateSQL(t *testing.T) {
	current := shopModel(t)
	desired := shopModel(t)
	desired.Tables[1].Columns = append(desired.Tables[1].Columns,
		&schema.Column{Name: "note", Type: schema.TypeVarchar, Size: 200})
	if err := desired.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	script, err := GenerateSQL(current, desired, "postgresql", BuildOptions{})
	if err != nil {
		t.Fatalf("GenerateSQL() error = %v", err)
	}
	got := script.Executable()
	want := "ALTER TABLE orders ADD COLUMN note VARCHAR(200)"
	if len(got) != 1 || !strings.HasPrefix(got[0], want) {
		t.Errorf("GenerateSQL() = %q, want [%q]", got, want)
	}
}

func TestGenerateCreateSQLTypeMapping(t *testing.T) {
	db := &schema.Database{Name: "x", Tables: []*schema.Table{{
		Name:    "t",
		Columns: []*schema.Column{{Name: "d", Type: schema.TypeDistinct}},
	}}}
	if err := db.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	_, err := GenerateCreateSQL(db, "postgresql", BuildOptions{})
	if !errors.Is(err, apperrors.ErrTypeMapping) {
		t.Errorf("GenerateCreateSQL() error = %v, want ErrTypeMapping", err)
	}
}

func TestMigrateSQLite(t *testing.T) {
	ctx := context.Background()
	url := "sqlite://" + filepath.Join(t.TempDir(), "shop.db")
	opts := &MigrateOptions{Options: Options{SQLiteDriver: "sqlite"}}

	dry := *opts
	dry.DryRun = true
	res, err := Migrate(ctx, url, shopModel(t), &dry)
	if err != nil {
		t.Fatalf("Migrate(dry run) error = %v", err)
	}
	if res.Applied != nil || len(res.Changes) != 3 {
		t.Fatalf("Migrate(dry run) = %d changes, applied %v, want 3 changes and nothing applied", len(res.Changes), res.Applied)
	}

	res, err = Migrate(ctx, url, shopModel(t), opts)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if res.Applied == nil || res.Applied.Failed != 0 || res.Applied.Executed != res.Script.Len() {
		t.Fatalf("Migrate() applied = %+v, want every statement executed", res.Applied)
	}

	read, err := ReadSchema(ctx, url, &opts.Options)
	if err != nil {
		t.Fatalf("ReadSchema() error = %v", err)
	}
	if len(read.Tables) != 2 {
		t.Fatalf("ReadSchema() tables = %d, want 2", len(read.Tables))
	}
	orders := read.FindTable("orders", false)
	if orders == nil || len(orders.ForeignKeys) != 1 || orders.ForeignKeys[0].OnDelete != schema.ActionCascade {
		t.Errorf("ReadSchema() orders = %+v, want one cascading foreign key", orders)
	}
	if id := read.FindTable("customers", false).FindColumn("id", false); id == nil || !id.AutoIncrement {
		t.Errorf("ReadSchema() customers.id = %+v, want auto increment", id)
	}

	changes, err := Diff(read, shopModel(t), "sqlite")
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	if len(changes) != 0 {
		var kinds []string
		for _, ch := range changes {
			kinds = append(kinds, ch.String())
		}
		t.Errorf("Diff() after migrate = %s, want no changes", strings.Join(kinds, "; "))
	}
}

func TestReadSchemaFilter(t *testing.T) {
	ctx := context.Background()
	url := "sqlite://" + filepath.Join(t.TempDir(), "shop.db")
	opts := Options{SQLiteDriver: "sqlite"}
	if _, err := Migrate(ctx, url, shopModel(t), &MigrateOptions{Options: opts}); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"all", opts, []string{"customers", "orders"}},
		{"only", Options{SQLiteDriver: "sqlite", Tables: []string{"customers"}}, []string{"customers"}},
		{"exclude", Options{SQLiteDriver: "sqlite", ExcludeTables: []string{"customers"}}, []string{"orders"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := ReadSchema(ctx, url, &tt.opts)
			if err != nil {
				t.Fatalf("ReadSchema() error = %v", err)
			}
			var got []string
			for _, table := range db.Tables {
				got = append(got, table.Name)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ReadSchema() tables = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateSQLRejectsInvalidModel(t *testing.T) {
	desired := &schema.Database{Name: "shop", Tables: []*schema.Table{{
		Name: "x",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.TypeInteger},
			{Name: "id", Type: schema.TypeVarchar},
		},
		ForeignKeys: []*schema.ForeignKey{{
			ForeignTableName: "ghost",
			References:       []schema.Reference{{LocalColumnName: "nope", ForeignColumnName: "id"}},
		}},
	}}}

	_, err := GenerateSQL(&Database{}, desired, "postgresql", BuildOptions{})
	var integrity *apperrors.ModelIntegrityError
	if !errors.As(err, &integrity) {
		t.Errorf("GenerateSQL() error = %v, want ModelIntegrityError", err)
	}
	if _, err := Diff(&Database{}, desired, "postgresql"); !errors.Is(err, apperrors.ErrModelIntegrity) {
		t.Errorf("Diff() error = %v, want ErrModelIntegrity", err)
	}
}

func TestMigrateSQLiteForeignKeyRebuilds(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fk.db")
	url := "sqlite://" + path
	opts := &MigrateOptions{Options: Options{SQLiteDriver: "sqlite"}}

	pk := func(name string) *schema.Column {
		return &schema.Column{Name: name, Type: schema.TypeInteger, Required: true, PrimaryKey: true}
	}
	ref := func(name, target, column string) *schema.ForeignKey {
		return &schema.ForeignKey{
			Name:             name,
			ForeignTableName: target,
			References:       []schema.Reference{{LocalColumnName: column, ForeignColumnName: "id"}},
		}
	}
	model := func(tables ...*schema.Table) *Database {
		db := &schema.Database{Name: "fk", Tables: tables}
		if err := db.Resolve(); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		return db
	}

	tests := []struct {
		name    string
		desired *Database
		wantFKs map[string]string
	}{
		{
			name: "create",
			desired: model(
				&schema.Table{Name: "y", Columns: []*schema.Column{pk("id")}},
				&schema.Table{
					Name:        "x",
					Columns:     []*schema.Column{pk("id"), {Name: "y_id", Type: schema.TypeInteger}},
					ForeignKeys: []*schema.ForeignKey{ref("fk_x_y", "y", "y_id")},
				},
			),
			wantFKs: map[string]string{"x": "y"},
		},
		{
			// x is rebuilt without its reference before y is dropped
			name:    "drop referenced table",
			desired: model(&schema.Table{Name: "x", Columns: []*schema.Column{pk("id")}}),
			wantFKs: map[string]string{},
		},
		{
			// the rebuilt x references z, which is created after it
			name: "reference new table",
			desired: model(
				&schema.Table{
					Name:        "x",
					Columns:     []*schema.Column{pk("id"), {Name: "z_id", Type: schema.TypeInteger}},
					ForeignKeys: []*schema.ForeignKey{ref("fk_x_z", "z", "z_id")},
				},
				&schema.Table{Name: "z", Columns: []*schema.Column{pk("id")}},
			),
			wantFKs: map[string]string{"x": "z"},
		},
	}

	for i, tt := range tests {
		if _, err := Migrate(ctx, url, tt.desired, opts); err != nil {
			t.Fatalf("%s: Migrate() error = %v", tt.name, err)
		}
		if i == 0 {
			conn, err := sql.Open("sqlite", path)
			if err != nil {
				t.Fatalf("sql.Open() error = %v", err)
			}
			for _, stmt := range []string{"INSERT INTO y (id) VALUES (1)", "INSERT INTO x (id, y_id) VALUES (1, 1)"} {
				if _, err := conn.ExecContext(ctx, stmt); err != nil {
					t.Fatalf("ExecContext(%q) error = %v", stmt, err)
				}
			}
			_ = conn.Close()
		}

		read, err := ReadSchema(ctx, url, &opts.Options)
		if err != nil {
			t.Fatalf("%s: ReadSchema() error = %v", tt.name, err)
		}
		if len(read.Tables) != len(tt.desired.Tables) {
			t.Errorf("%s: ReadSchema() tables = %d, want %d", tt.name, len(read.Tables), len(tt.desired.Tables))
		}
		for _, table := range read.Tables {
			var target string
			if len(table.ForeignKeys) > 0 {
				target = table.ForeignKeys[0].ForeignTableName
			}
			if target != tt.wantFKs[table.Name] {
				t.Errorf("%s: %s references %q, want %q", tt.name, table.Name, target, tt.wantFKs[table.Name])
			}
		}
		changes, err := Diff(read, tt.desired, "sqlite")
		if err != nil {
			t.Fatalf("%s: Diff() error = %v", tt.name, err)
		}
		if len(changes) != 0 {
			t.Errorf("%s: Diff() after migrate = %v, want no changes", tt.name, changes)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer func() { _ = conn.Close() }()
	var rows int
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM x").Scan(&rows); err != nil {
		t.Fatalf("QueryRowContext() error = %v", err)
	}
	if rows != 1 {
		t.Errorf("x rows = %d, want the row kept through both rebuilds", rows)
	}
}
