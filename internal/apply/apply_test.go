package apply

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/tordrt/schemasync/internal/errors"
	"github.com/tordrt/schemasync/internal/platform"
	"github.com/tordrt/schemasync/internal/schema"
	"github.com/tordrt/schemasync/internal/sqlbuilder"
)

type fakeExecutor struct {
	failOn string
	ran    []string
}

func (f *fakeExecutor) Exec(_ context.Context, stmt string) error {
	f.ran = append(f.ran, stmt)
	if f.failOn != "" && strings.Contains(stmt, f.failOn) {
		return errors.New("relation already exists")
	}
	return nil
}

// script renders CREATE TABLE a, CREATE TABLE b and the foreign key from b to a
func script(t *testing.T) *sqlbuilder.Script {
	t.Helper()
	id := func() *schema.Column {
		return &schema.Column{Name: "id", Type: schema.TypeInteger, Required: true, PrimaryKey: true}
	}
	db := &schema.Database{Name: "test", Tables: []*schema.Table{
		{Name: "a", Columns: []*schema.Column{id()}},
		{
			Name:    "b",
			Columns: []*schema.Column{id(), {Name: "a_id", Type: schema.TypeInteger}},
			ForeignKeys: []*schema.ForeignKey{{
				Name:             "fk_b_a",
				ForeignTableName: "a",
				References:       []schema.Reference{{LocalColumnName: "a_id", ForeignColumnName: "id"}},
			}},
		},
	}}
	if err := db.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	s, err := sqlbuilder.NewBuilder(platform.NewRegistry().MustLookup("postgresql"), sqlbuilder.Options{Comments: true}).CreateTables(db)
	if err != nil {
		t.Fatalf("CreateTables() error = %v", err)
	}
	return s
}

func TestApply(t *testing.T) {
	tests := []struct {
		name         string
		failOn       string
		policy       Policy
		wantRan      int
		wantExecuted int
		wantFailed   int
		wantErr      bool
	}{
		{name: "all succeed", wantRan: 3, wantExecuted: 3},
		{name: "stop at first failure", failOn: "TABLE a", wantRan: 1, wantFailed: 1, wantErr: true},
		{name: "continue on error", failOn: "TABLE a", policy: Policy{ContinueOnError: true}, wantRan: 3, wantExecuted: 2, wantFailed: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{failOn: tt.failOn}
			res, err := NewApplier().Apply(context.Background(), exec, script(t), tt.policy)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Apply() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperrors.ErrSQLExecution) {
				t.Errorf("Apply() error = %v, want ErrSQLExecution", err)
			}
			if len(exec.ran) != tt.wantRan {
				t.Errorf("ran %d statements, want %d", len(exec.ran), tt.wantRan)
			}
			if res.Executed != tt.wantExecuted || res.Failed != tt.wantFailed {
				t.Errorf("Apply() executed/failed = %d/%d, want %d/%d", res.Executed, res.Failed, tt.wantExecuted, tt.wantFailed)
			}
			if res.BatchID == "" {
				t.Error("Apply() result has no batch id")
			}
		})
	}
}

func TestApplySkipsComments(t *testing.T) {
	exec := &fakeExecutor{}
	if _, err := NewApplier().Apply(context.Background(), exec, script(t), Policy{}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	for _, stmt := range exec.ran {
		if strings.HasPrefix(stmt, "add table") || strings.HasPrefix(stmt, "--") {
			t.Errorf("Apply() executed comment %q", stmt)
		}
	}
}

func TestApplyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &fakeExecutor{}
	_, err := NewApplier().Apply(ctx, exec, script(t), Policy{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Apply() error = %v, want context.Canceled", err)
	}
	if len(exec.ran) != 0 {
		t.Errorf("Apply() ran %d statements after cancel", len(exec.ran))
	}
}
