package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/jtafstn/webidle/internal/catalog"
	"github.com/jtafstn/webidle/internal/player"
)

const (
	SaveSchemaFile    = "save.schema.json"
	CatalogSchemaFile = "catalog.schema.json"
)

// SaveSchema describes the persisted player blob.
func SaveSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{DoNotReference: true, AllowAdditionalProperties: true}
	s := r.Reflect(&player.State{})
	s.Title = "webidle save"
	s.Description = "Player progress blob stored under the save key. Unknown fields are ignored on load."
	for _, field := range []string{"upgrades", "unlockedItems", "learnedSkills"} {
		s.Properties.Set(field, &jsonschema.Schema{
			Type:        "array",
			Items:       &jsonschema.Schema{Type: "string"},
			UniqueItems: true,
		})
	}
	s.Properties.Set("counters", &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: &jsonschema.Schema{Type: "integer"},
	})
	return s
}

// CatalogSchema describes the economy document accepted in config files.
func CatalogSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{}
	s := r.Reflect(&catalog.Document{})
	s.Title = "webidle economy"
	s.Description = "Items, skills, lookup tables and translations that make up a catalog."
	return s
}

// WriteSchemas writes both schemas into dir and returns the paths written.
func WriteSchemas(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create schema directory: %w", err)
	}
	out := []string{}
	for _, f := range []struct {
		name   string
		schema *jsonschema.Schema
	}{
		{SaveSchemaFile, SaveSchema()},
		{CatalogSchemaFile, CatalogSchema()},
	} {
		path := filepath.Join(dir, f.name)
		if err := writeSchema(path, f.schema); err != nil {
			return out, err
		}
		out = append(out, path)
	}
	return out, nil
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
