package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"interaction-timeline/internal/interaction"

	"gopkg.in/yaml.v3"
)

// Extensions lists the file extensions LoadDir picks up.
var Extensions = []string{".yaml", ".yml", ".json"}

// Parse decodes a YAML or JSON document. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
		}
		if errors.Is(err, ErrInvalidDocument) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return &doc, nil
}

// LoadFile reads and parses the document at path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	return doc, nil
}

// LoadDir parses every script in dir, keyed by file name without extension.
// Subdirectories are not searched.
func LoadDir(dir string) (map[string]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read script dir %s: %w", dir, err)
	}
	docs := make(map[string]*Document)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !slices.Contains(Extensions, ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if _, dup := docs[name]; dup {
			return nil, fmt.Errorf("%w: %s: more than one script named %q", ErrInvalidDocument, dir, name)
		}
		doc, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		docs[name] = doc
	}
	return docs, nil
}

// Compile parses data and builds an engine from it.
func Compile(data []byte, opts ...interaction.Option) (*interaction.Engine, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return doc.Engine(opts...)
}

// Engine converts d and builds an engine from it.
func (d *Document) Engine(opts ...interaction.Option) (*interaction.Engine, error) {
	seq, err := d.Sequence()
	if err != nil {
		return nil, err
	}
	return interaction.New(seq, opts...)
}

// Marshal encodes d back into YAML. Literal content is written as scalars.
func (d *Document) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode script: %w", err)
	}
	return out, nil
}
