package schema

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"testing"

	apperrors "github.com/tordrt/schemasync/internal/errors"
)

func strPtr(s string) *string { return &s }

func sampleDatabase() *Database {
	return &Database{
		Name: "shop",
		Tables: []*Table{
			{
				Name: "customers",
				Columns: []*Column{
					{Name: "id", Type: TypeInteger, Required: true, PrimaryKey: true, AutoIncrement: true},
					{Name: "email", Type: TypeVarchar, Size: 200, Required: true},
				},
				Indexes: []*Index{
					{Name: "idx_customers_email", Unique: true, Columns: []IndexColumn{{Name: "email"}}},
				},
			},
			{
				Name: "orders",
				Columns: []*Column{
					{Name: "id", Type: TypeInteger, Required: true, PrimaryKey: true},
					{Name: "customer_id", Type: TypeInteger, Required: true},
					{Name: "total", Type: TypeDecimal, Size: 10, Scale: 2, DefaultValue: strPtr("0")},
				},
				ForeignKeys: []*ForeignKey{
					{
						Name:             "fk_orders_customer",
						ForeignTableName: "customers",
						References:       []Reference{{LocalColumnName: "customer_id", ForeignColumnName: "id"}},
						OnDelete:         ActionCascade,
					},
				},
			},
		},
	}
}

func TestResolve(t *testing.T) {
	db := sampleDatabase()
	if err := db.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	orders := db.FindTable("orders", true)
	fk := orders.ForeignKeys[0]
	if fk.ForeignTable != db.FindTable("customers", true) {
		t.Error("foreign table not linked")
	}
	if fk.References[0].LocalColumn != orders.FindColumn("customer_id", true) {
		t.Error("local column not linked")
	}
	if fk.References[0].ForeignColumn == nil || fk.References[0].ForeignColumn.Name != "id" {
		t.Error("foreign column not linked")
	}
	idx := db.FindTable("customers", true).Indexes[0]
	if idx.Columns[0].Column == nil || idx.Columns[0].Column.Name != "email" {
		t.Error("index column not linked")
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(db *Database)
		errContains string
	}{
		{
			name:        "empty database name",
			mutate:      func(db *Database) { db.Name = "" },
			errContains: "database",
		},
		{
			name: "duplicate table",
			mutate: func(db *Database) {
				db.Tables = append(db.Tables, &Table{Name: "orders"})
			},
			errContains: "duplicate table name",
		},
		{
			name: "duplicate column",
			mutate: func(db *Database) {
				db.Tables[0].Columns = append(db.Tables[0].Columns, &Column{Name: "email", Type: TypeVarchar})
			},
			errContains: "duplicate column name",
		},
		{
			name: "unknown type code",
			mutate: func(db *Database) {
				db.Tables[0].Columns[1].Type = TypeUnknown
			},
			errContains: "unknown type code",
		},
		{
			name: "index on missing column",
			mutate: func(db *Database) {
				db.Tables[0].Indexes[0].Columns[0].Name = "phone"
			},
			errContains: "unknown column phone",
		},
		{
			name: "index without columns",
			mutate: func(db *Database) {
				db.Tables[0].Indexes[0].Columns = nil
			},
			errContains: "at least one column",
		},
		{
			name: "dangling foreign table",
			mutate: func(db *Database) {
				db.Tables[1].ForeignKeys[0].ForeignTableName = "clients"
			},
			errContains: "unknown foreign table",
		},
		{
			name: "dangling foreign column",
			mutate: func(db *Database) {
				db.Tables[1].ForeignKeys[0].References[0].ForeignColumnName = "uuid"
			},
			errContains: "unknown foreign column customers.uuid",
		},
		{
			name: "foreign key without references",
			mutate: func(db *Database) {
				db.Tables[1].ForeignKeys[0].References = nil
			},
			errContains: "at least one reference",
		},
		{
			name: "table names are case-sensitive",
			mutate: func(db *Database) {
				db.Tables[1].ForeignKeys[0].ForeignTableName = "Customers"
			},
			errContains: "unknown foreign table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := sampleDatabase()
			tt.mutate(db)
			err := db.Resolve()
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if !errors.Is(err, apperrors.ErrModelIntegrity) {
				t.Errorf("error %v is not a model integrity error", err)
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.errContains)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	db := sampleDatabase()
	if err := db.Resolve(); err != nil {
		t.Fatal(err)
	}
	clone := db.Clone()

	clone.Tables[0].Columns[1].Size = 50
	clone.Tables[1].ForeignKeys[0].OnDelete = ActionRestrict
	*clone.Tables[1].Columns[2].DefaultValue = "1"

	if db.Tables[0].Columns[1].Size != 200 {
		t.Error("column size leaked into original")
	}
	if db.Tables[1].ForeignKeys[0].OnDelete != ActionCascade {
		t.Error("foreign key action leaked into original")
	}
	if *db.Tables[1].Columns[2].DefaultValue != "0" {
		t.Error("default value leaked into original")
	}

	fk := clone.Tables[1].ForeignKeys[0]
	if fk.ForeignTable != clone.Tables[0] {
		t.Error("clone foreign table points outside the clone")
	}
	if clone.Tables[0].Indexes[0].Columns[0].Column != clone.Tables[0].Columns[1] {
		t.Error("clone index column points outside the clone")
	}
}

func TestParsedDefault(t *testing.T) {
	tests := []struct {
		name string
		col  Column
		want any
	}{
		{name: "integer", col: Column{Type: TypeInteger, DefaultValue: strPtr(" 42 ")}, want: big.NewRat(42, 1)},
		{name: "decimal", col: Column{Type: TypeDecimal, DefaultValue: strPtr("1.50")}, want: big.NewRat(3, 2)},
		{name: "boolean true", col: Column{Type: TypeBoolean, DefaultValue: strPtr("TRUE")}, want: true},
		{name: "bit zero", col: Column{Type: TypeBit, DefaultValue: strPtr("0")}, want: false},
		{name: "unparseable number", col: Column{Type: TypeInteger, DefaultValue: strPtr("nextval('seq')")}, want: "nextval('seq')"},
		{name: "text", col: Column{Type: TypeVarchar, DefaultValue: strPtr("abc")}, want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.col.ParsedDefault()
			if !ok {
				t.Fatal("ParsedDefault() reported no default")
			}
			switch want := tt.want.(type) {
			case *big.Rat:
				r, isRat := got.(*big.Rat)
				if !isRat || r.Cmp(want) != 0 {
					t.Errorf("ParsedDefault() = %v, want %v", got, want)
				}
			default:
				if got != want {
					t.Errorf("ParsedDefault() = %v, want %v", got, want)
				}
			}
		})
	}

	var none Column
	if _, ok := none.ParsedDefault(); ok {
		t.Error("column without default reported a default")
	}
}

func TestSameDefault(t *testing.T) {
	tests := []struct {
		name string
		a, b Column
		want bool
	}{
		{name: "both absent", a: Column{Type: TypeInteger}, b: Column{Type: TypeInteger}, want: true},
		{name: "one absent", a: Column{Type: TypeInteger, DefaultValue: strPtr("0")}, b: Column{Type: TypeInteger}, want: false},
		{name: "numeric spelling", a: Column{Type: TypeDecimal, DefaultValue: strPtr("0")}, b: Column{Type: TypeDecimal, DefaultValue: strPtr("0.00")}, want: true},
		{name: "numeric differs", a: Column{Type: TypeInteger, DefaultValue: strPtr("1")}, b: Column{Type: TypeInteger, DefaultValue: strPtr("2")}, want: false},
		{name: "boolean spelling", a: Column{Type: TypeBoolean, DefaultValue: strPtr("true")}, b: Column{Type: TypeBoolean, DefaultValue: strPtr("1")}, want: true},
		{name: "timestamp spelling", a: Column{Type: TypeTimestamp, DefaultValue: strPtr("2024-01-02 03:04:05")}, b: Column{Type: TypeTimestamp, DefaultValue: strPtr("2024-01-02T03:04:05")}, want: true},
		{name: "unparseable falls back to raw text", a: Column{Type: TypeInteger, DefaultValue: strPtr("CURRENT_VALUE")}, b: Column{Type: TypeInteger, DefaultValue: strPtr(" CURRENT_VALUE")}, want: true},
		{name: "raw text is case-sensitive", a: Column{Type: TypeVarchar, DefaultValue: strPtr("abc")}, b: Column{Type: TypeVarchar, DefaultValue: strPtr("ABC")}, want: false},
		{name: "parsed against unparsed", a: Column{Type: TypeInteger, DefaultValue: strPtr("1")}, b: Column{Type: TypeInteger, DefaultValue: strPtr("one")}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameDefault(&tt.a, &tt.b); got != tt.want {
				t.Errorf("SameDefault() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	db := sampleDatabase()
	if err := db.Resolve(); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, db); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"type: INTEGER", "on_delete: CASCADE", "foreign_table: customers", "default: \"0\""} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded model missing %q:\n%s", want, out)
		}
	}

	decoded, err := Decode(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	orders := decoded.FindTable("orders", true)
	if orders == nil || len(orders.ForeignKeys) != 1 {
		t.Fatalf("orders not decoded: %+v", orders)
	}
	if orders.ForeignKeys[0].OnDelete != ActionCascade || orders.ForeignKeys[0].OnUpdate != ActionNone {
		t.Errorf("unexpected actions: %+v", orders.ForeignKeys[0])
	}
	if c := orders.FindColumn("total", true); c == nil || c.Type != TypeDecimal || c.Size != 10 || c.Scale != 2 {
		t.Errorf("unexpected total column: %+v", c)
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	model := `
name: shop
tables:
  - name: t
    columns:
      - name: c
        type: MONEYBAGS
`
	if _, err := Decode(strings.NewReader(model)); err == nil {
		t.Error("Expected error but got none")
	}
}

func TestCaseInsensitiveLookup(t *testing.T) {
	db := sampleDatabase()
	if db.FindTable("ORDERS", true) != nil {
		t.Error("case-sensitive lookup matched different case")
	}
	if db.FindTable("ORDERS", false) == nil {
		t.Error("case-insensitive lookup failed")
	}
	if !EqualNames("Customer_ID", "customer_id", false) {
		t.Error("case folding expected")
	}
}
