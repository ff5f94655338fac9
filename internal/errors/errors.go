// Package errors provides the typed errors shared by the model, registry, builder and applier.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes callers branch on
var (
	// ErrModelIntegrity indicates a malformed schema model
	ErrModelIntegrity = errors.New("model integrity violation")
	// ErrUnsupported indicates the dialect lacks a requested capability
	ErrUnsupported = errors.New("unsupported operation")
	// ErrSQLExecution indicates a statement failed against the database
	ErrSQLExecution = errors.New("sql execution failed")
	// ErrTypeMapping indicates a type code without native representation
	ErrTypeMapping = errors.New("type mapping failed")
)

// ModelIntegrityError reports duplicate or missing names and dangling references
type ModelIntegrityError struct {
	Object  string // Kind of model object (e.g., "table", "column", "foreign key")
	Name    string // Qualified name of the offending object
	Message string // What is wrong with it
}

func (e *ModelIntegrityError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid model: %s %s: %s", e.Object, e.Name, e.Message)
	}
	return fmt.Sprintf("invalid model: %s: %s", e.Object, e.Message)
}

func (e *ModelIntegrityError) Unwrap() error {
	return ErrModelIntegrity
}

// UnsupportedOperationError reports a capability the dialect does not have
type UnsupportedOperationError struct {
	Dialect   string // Dialect name
	Operation string // Operation that was requested
	Reason    string // Optional detail
}

func (e *UnsupportedOperationError) Error() string {
	msg := fmt.Sprintf("%s does not support %s", e.Dialect, e.Operation)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *UnsupportedOperationError) Unwrap() error {
	return ErrUnsupported
}

// SQLExecutionError wraps the database error of a single statement
type SQLExecutionError struct {
	Statement string
	Err       error
}

func (e *SQLExecutionError) Error() string {
	return fmt.Sprintf("failed to execute %q: %v", e.Statement, e.Err)
}

// Is lets errors.Is match both the sentinel and the driver error.
func (e *SQLExecutionError) Is(target error) bool {
	return target == ErrSQLExecution
}

func (e *SQLExecutionError) Unwrap() error {
	return e.Err
}

// TypeMappingError reports a type code the dialect cannot render
type TypeMappingError struct {
	Dialect  string
	TypeCode string
	Column   string // Qualified column name, if known
}

func (e *TypeMappingError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("no native type for %s in %s (column %s)", e.TypeCode, e.Dialect, e.Column)
	}
	return fmt.Sprintf("no native type for %s in %s", e.TypeCode, e.Dialect)
}

func (e *TypeMappingError) Unwrap() error {
	return ErrTypeMapping
}

// NewModelIntegrity creates a ModelIntegrityError
func NewModelIntegrity(object, name, message string) *ModelIntegrityError {
	return &ModelIntegrityError{Object: object, Name: name, Message: message}
}

// NewUnsupported creates an UnsupportedOperationError
func NewUnsupported(dialect, operation string) *UnsupportedOperationError {
	return &UnsupportedOperationError{Dialect: dialect, Operation: operation}
}

// NewSQLExecution creates a SQLExecutionError
func NewSQLExecution(statement string, err error) *SQLExecutionError {
	return &SQLExecutionError{Statement: statement, Err: err}
}

// NewTypeMapping creates a TypeMappingError
func NewTypeMapping(dialect, typeCode, column string) *TypeMappingError {
	return &TypeMappingError{Dialect: dialect, TypeCode: typeCode, Column: column}
}
