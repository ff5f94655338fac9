package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestTypedErrors(t *testing.T) {
	driverErr := fmt.Errorf("relation \"t\" does not exist")

	tests := []struct {
		name     string
		err      error
		wantMsg  string
		wantBase error
	}{
		{
			name:     "model integrity with name",
			err:      NewModelIntegrity("table", "users", "duplicate name"),
			wantMsg:  "invalid model: table users: duplicate name",
			wantBase: ErrModelIntegrity,
		},
		{
			name:     "model integrity without name",
			err:      NewModelIntegrity("database", "", "name is required"),
			wantMsg:  "invalid model: database: name is required",
			wantBase: ErrModelIntegrity,
		},
		{
			name:     "unsupported",
			err:      NewUnsupported("sqlite", "database creation"),
			wantMsg:  "sqlite does not support database creation",
			wantBase: ErrUnsupported,
		},
		{
			name:     "unsupported with reason",
			err:      &UnsupportedOperationError{Dialect: "oracle10", Operation: "ON UPDATE CASCADE", Reason: "not available"},
			wantMsg:  "oracle10 does not support ON UPDATE CASCADE: not available",
			wantBase: ErrUnsupported,
		},
		{
			name:     "sql execution",
			err:      NewSQLExecution("DROP TABLE t", driverErr),
			wantMsg:  `failed to execute "DROP TABLE t": relation "t" does not exist`,
			wantBase: ErrSQLExecution,
		},
		{
			name:     "type mapping",
			err:      NewTypeMapping("mckoi", "DATALINK", "t.c"),
			wantMsg:  "no native type for DATALINK in mckoi (column t.c)",
			wantBase: ErrTypeMapping,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, tt.wantBase) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.wantBase)
			}
		})
	}

	t.Run("sql execution unwraps to driver error", func(t *testing.T) {
		err := fmt.Errorf("apply: %w", NewSQLExecution("X", driverErr))
		if !errors.Is(err, driverErr) {
			t.Error("expected wrapped driver error to match")
		}
		var execErr *SQLExecutionError
		if !errors.As(err, &execErr) || execErr.Statement != "X" {
			t.Errorf("errors.As() = %v", execErr)
		}
	})
}
