// Package formatter renders schema models and migration plans for humans.
package formatter

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/schemasync/internal/compare"
	"github.com/tordrt/schemasync/internal/schema"
)

const (
	formatMarkdown = "markdown"
	formatText     = "text"
	formatYAML     = "yaml"
)

// Formatter writes schemas and plans
type Formatter interface {
	Format(db *schema.Database) error
	FormatPlan(changes []compare.Change) error
}

// New returns the formatter for text, markdown or yaml output
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case "", formatText:
		return NewTextFormatter(w), nil
	case formatMarkdown, "md":
		return NewMarkdownFormatter(w), nil
	case formatYAML:
		return NewYAMLFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown format: %s (expected text, markdown or yaml)", format)
	}
}

// YAMLFormatter writes schemas as model files and plans as change lists
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// Format writes the schema as a model file that LoadFile reads back
func (f *YAMLFormatter) Format(db *schema.Database) error {
	return schema.Encode(f.writer, db)
}

type planEntry struct {
	Kind    string      `yaml:"kind"`
	Table   string      `yaml:"table"`
	Change  string      `yaml:"change"`
	Changes []planEntry `yaml:"changes,omitempty"`
}

func toEntry(ch compare.Change) planEntry {
	e := planEntry{Kind: ch.Kind().String(), Table: ch.TableName(), Change: ch.String()}
	if rc, ok := ch.(*compare.RecreateTable); ok {
		for _, inner := range rc.Changes {
			e.Changes = append(e.Changes, toEntry(inner))
		}
	}
	return e
}

// FormatPlan writes the changes as a YAML sequence
func (f *YAMLFormatter) FormatPlan(changes []compare.Change) error {
	entries := make([]planEntry, 0, len(changes))
	for _, ch := range changes {
		entries = append(entries, toEntry(ch))
	}
	enc := yaml.NewEncoder(f.writer)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	return enc.Close()
}
