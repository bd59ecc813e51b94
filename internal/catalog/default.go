package catalog

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed economy.yml
var defaultYAML []byte

// DefaultYAML returns the shipped economy document as written.
func DefaultYAML() []byte { return append([]byte(nil), defaultYAML...) }

// DefaultDocument parses the shipped economy document.
func DefaultDocument() Document {
	doc, err := ParseYAML(defaultYAML)
	if err != nil {
		panic(err)
	}
	return doc
}

// ParseYAML decodes a document, rejecting unknown fields.
func ParseYAML(b []byte) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	return doc, nil
}

// Default builds the shipped catalog.
func Default() *Catalog { return MustBuild(DefaultDocument()) }
