// Package sqlbuilder renders ordered schema changes into dialect specific DDL.
package sqlbuilder

import (
	"fmt"

	"github.com/tordrt/schemasync/internal/compare"
	apperrors "github.com/tordrt/schemasync/internal/errors"
	"github.com/tordrt/schemasync/internal/logging"
	"github.com/tordrt/schemasync/internal/platform"
	"github.com/tordrt/schemasync/internal/schema"
)

// Param is one table creation parameter, such as a storage engine
type Param struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Options control how statements are rendered
type Options struct {
	// Comments precedes each change with a comment line
	Comments bool
	// DelimitedIdentifiers quotes every identifier
	DelimitedIdentifiers bool
	// CreationParameters are appended to CREATE TABLE, keyed by table name
	CreationParameters map[string][]Param
}

// Handler renders one change into the builder's script and applies it to the working model
type Handler func(b *Builder, change compare.Change) error

// Builder renders changes for one dialect. A Builder keeps a working copy of the
// model while rendering and must not be shared between concurrent calls.
type Builder struct {
	info     *platform.Info
	opts     Options
	sql      dialectSQL
	handlers map[compare.Kind]Handler
	cs       bool

	model         *schema.Database
	script        *Script
	keepSequences map[string]bool
}

// NewBuilder creates a builder with the base handlers and the dialect's overrides
func NewBuilder(info *platform.Info, opts Options) *Builder {
	b := &Builder{
		info:     info,
		opts:     opts,
		sql:      sqlFor(info),
		handlers: make(map[compare.Kind]Handler, len(baseHandlers)),
		cs:       info.Features().CaseSensitive,
	}
	for kind, h := range baseHandlers {
		b.handlers[kind] = h
	}
	for kind, h := range dialectHandlers[info.Name()] {
		b.handlers[kind] = h
	}
	return b
}

// Info returns the dialect the builder renders for
func (b *Builder) Info() *platform.Info {
	return b.info
}

// Model returns the working model after the last Build call
func (b *Builder) Model() *schema.Database {
	return b.model
}

// Build renders changes, which must already be in execution order, against a copy of current
func (b *Builder) Build(current *schema.Database, changes []compare.Change) (*Script, error) {
	b.model = current.Clone()
	b.model.Relink(b.cs)
	b.script = newScript(b.info.Tokens())
	b.keepSequences = nil

	for _, change := range changes {
		h, ok := b.handlers[change.Kind()]
		if !ok {
			return nil, apperrors.NewUnsupported(b.info.Name(), change.Kind().String())
		}
		if b.opts.Comments {
			b.script.comment(change.TableName(), change.String())
		}
		if err := h(b, change); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", change, err)
		}
	}

	logging.Debug("built script", "dialect", b.info.Name(), "changes", len(changes), "statements", b.script.Len())
	return b.script, nil
}

// CreateTables renders the statements creating every table of db in dependency order
func (b *Builder) CreateTables(db *schema.Database) (*Script, error) {
	empty := &schema.Database{Name: db.Name, Version: db.Version}
	changes, err := compare.Plan(empty, db, b.info)
	if err != nil {
		return nil, err
	}
	return b.Build(empty, changes)
}

// DropTables renders the statements dropping every table of db, foreign keys first
func (b *Builder) DropTables(db *schema.Database) (*Script, error) {
	empty := &schema.Database{Name: db.Name, Version: db.Version}
	changes, err := compare.Plan(db, empty, b.info)
	if err != nil {
		return nil, err
	}
	return b.Build(db, changes)
}

// CreateDatabase renders the statement creating a database
func (b *Builder) CreateDatabase(name string) (*Script, error) {
	if !b.info.Features().DatabaseCreationSupported {
		return nil, apperrors.NewUnsupported(b.info.Name(), "database creation")
	}
	s := newScript(b.info.Tokens())
	s.add("", "CREATE DATABASE "+b.quote(name))
	return s, nil
}

// DropDatabase renders the statement dropping a database
func (b *Builder) DropDatabase(name string) (*Script, error) {
	if !b.info.Features().DatabaseCreationSupported {
		return nil, apperrors.NewUnsupported(b.info.Name(), "database removal")
	}
	s := newScript(b.info.Tokens())
	s.add("", "DROP DATABASE "+b.quote(name))
	return s, nil
}

func (b *Builder) comment(table, format string, args ...any) {
	if b.opts.Comments {
		b.script.comment(table, fmt.Sprintf(format, args...))
	}
}

func (b *Builder) table(name string) (*schema.Table, error) {
	t := b.model.FindTable(name, b.cs)
	if t == nil {
		return nil, fmt.Errorf("table %s not found in working model", name)
	}
	return t, nil
}
