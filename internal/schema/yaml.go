package schema

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML model file and resolves it
func LoadFile(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	db, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("loading model file %s: %w", path, err)
	}
	return db, nil
}

// Decode parses a YAML model and resolves it
func Decode(r io.Reader) (*Database, error) {
	var db Database
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&db); err != nil {
		return nil, fmt.Errorf("parsing model: %w", err)
	}
	if err := db.Resolve(); err != nil {
		return nil, err
	}
	return &db, nil
}

// Encode writes the model as YAML
func Encode(w io.Writer, db *Database) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(db); err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	return enc.Close()
}
