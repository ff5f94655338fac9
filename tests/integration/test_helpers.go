//go:build integration
// +build integration

package integration

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/tordrt/schemasync"
	"github.com/tordrt/schemasync/internal/schema"
)

// testTables are the tables the lifecycle creates and drops again
var testTables = []string{"ss_customers", "ss_orders"}

// envOr returns the environment variable or the default connection string
func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func strPtr(s string) *string { return &s }

// shopModel builds the desired model; evolved adds a column, widens one and adds an index
func shopModel(t *testing.T, evolved bool) *schema.Database {
	t.Helper()
	emailSize := 120
	if evolved {
		emailSize = 200
	}
	orders := &schema.Table{
		Name: "ss_orders",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.TypeInteger, Required: true, PrimaryKey: true},
			{Name: "customer_id", Type: schema.TypeInteger, Required: true},
			{Name: "total", Type: schema.TypeDecimal, Size: 10, Scale: 2, DefaultValue: strPtr("0")},
		},
		ForeignKeys: []*schema.ForeignKey{{
			Name:             "fk_ss_orders_customer",
			ForeignTableName: "ss_customers",
			References:       []schema.Reference{{LocalColumnName: "customer_id", ForeignColumnName: "id"}},
			OnDelete:         schema.ActionCascade,
		}},
	}
	if evolved {
		orders.Columns = append(orders.Columns, &schema.Column{Name: "note", Type: schema.TypeVarchar, Size: 200})
		orders.Indexes = []*schema.Index{{Name: "idx_ss_orders_total", Columns: []schema.IndexColumn{{Name: "total"}}}}
	}

	db := &schema.Database{Name: "shop", Tables: []*schema.Table{
		{
			Name: "ss_customers",
			Columns: []*schema.Column{
				{Name: "id", Type: schema.TypeInteger, Required: true, PrimaryKey: true, AutoIncrement: true},
				{Name: "email", Type: schema.TypeVarchar, Size: emailSize, Required: true},
			},
			Indexes: []*schema.Index{{Name: "idx_ss_customers_email", Unique: true, Columns: []schema.IndexColumn{{Name: "email"}}}},
		},
		orders,
	}}
	if err := db.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return db
}

// runLifecycle creates the test tables, evolves them, checks the read-back model
// and finally drops them again
func runLifecycle(t *testing.T, url string, opts schemasync.Options) {
	t.Helper()
	ctx := context.Background()
	opts.Tables = testTables
	migrate := &schemasync.MigrateOptions{Options: opts}

	// leftovers from an aborted run
	if _, err := schemasync.Migrate(ctx, url, &schema.Database{}, migrate); err != nil {
		t.Fatalf("cleanup Migrate() error = %v", err)
	}
	t.Cleanup(func() {
		if _, err := schemasync.Migrate(ctx, url, &schema.Database{}, migrate); err != nil {
			t.Errorf("cleanup Migrate() error = %v", err)
		}
	})

	for _, evolved := range []bool{false, true} {
		desired := shopModel(t, evolved)
		res, err := schemasync.Migrate(ctx, url, desired, migrate)
		if err != nil {
			t.Fatalf("Migrate(evolved=%v) error = %v\n%s", evolved, err, scriptText(res))
		}

		read, err := schemasync.ReadSchema(ctx, url, &opts)
		if err != nil {
			t.Fatalf("ReadSchema() error = %v", err)
		}
		verifyTablesExist(t, read, testTables)
		customers := findTable(read, "ss_customers")
		orders := findTable(read, "ss_orders")
		if customers == nil || orders == nil {
			t.Fatal("test tables not found")
		}
		verifyPrimaryKey(t, customers, []string{"id"})
		verifyColumns(t, orders, []string{"id", "customer_id", "total"})
		verifyForeignKey(t, read, "ss_orders", "customer_id", "ss_customers")
		verifyIndex(t, read, "ss_customers", []string{"email"})
		if evolved {
			verifyColumns(t, orders, []string{"note"})
			verifyIndex(t, read, "ss_orders", []string{"total"})
		}

		dialect := opts.Dialect
		if dialect == "" {
			if dialect, err = schemasync.DialectForURL(url); err != nil {
				t.Fatal(err)
			}
		}
		changes, err := schemasync.Diff(read, desired, dialect)
		if err != nil {
			t.Fatalf("Diff() error = %v", err)
		}
		if len(changes) != 0 {
			var lines []string
			for _, ch := range changes {
				lines = append(lines, ch.String())
			}
			t.Errorf("Diff() after migrate = %s, want no changes", strings.Join(lines, "; "))
		}
	}
}

func scriptText(res *schemasync.MigrateResult) string {
	if res == nil || res.Script == nil {
		return ""
	}
	return res.Script.String()
}

// verifyTablesExist checks that all expected tables are present in the schema
func verifyTablesExist(t *testing.T, s *schema.Database, expectedTables []string) {
	t.Helper()

	if len(s.Tables) != len(expectedTables) {
		t.Errorf("Expected %d tables, got %d", len(expectedTables), len(s.Tables))
	}

	for _, tableName := range expectedTables {
		if findTable(s, tableName) == nil {
			t.Errorf("Expected table %s not found in schema", tableName)
		}
	}
}

// verifyColumns checks that expected columns exist in a table
func verifyColumns(t *testing.T, table *schema.Table, expectedColumns []string) {
	t.Helper()

	for _, colName := range expectedColumns {
		if table.FindColumn(colName, false) == nil {
			t.Errorf("Expected column %s not found in %s table", colName, table.Name)
		}
	}
}

// verifyPrimaryKey checks that a table has the expected primary key
func verifyPrimaryKey(t *testing.T, table *schema.Table, expectedPK []string) {
	t.Helper()

	if !schema.SameNameSet(table.PrimaryKeyNames(), expectedPK, false) {
		t.Errorf("Expected primary key %v, got %v", expectedPK, table.PrimaryKeyNames())
	}
}

// verifyForeignKey checks that a foreign key relationship exists
func verifyForeignKey(t *testing.T, s *schema.Database, tableName, sourceColumn, targetTable string) {
	t.Helper()

	table := findTable(s, tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
	}

	for _, fk := range table.ForeignKeys {
		if strings.EqualFold(fk.ForeignTableName, targetTable) &&
			schema.SameNameSet(fk.LocalColumnNames(), []string{sourceColumn}, false) {
			return
		}
	}

	t.Errorf("Expected foreign key relationship from %s.%s to %s not found", tableName, sourceColumn, targetTable)
}

// verifyIndex checks that an index exists with the expected columns
func verifyIndex(t *testing.T, s *schema.Database, tableName string, expectedColumns []string) {
	t.Helper()

	table := findTable(s, tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
	}

	for _, idx := range table.Indexes {
		if idx.HasColumnSet(expectedColumns, false) {
			return
		}
	}

	t.Errorf("Expected index on %v in %s table not found", expectedColumns, tableName)
}

// findTable is a helper function to find a table by name in the schema
func findTable(s *schema.Database, tableName string) *schema.Table {
	return s.FindTable(tableName, false)
}
