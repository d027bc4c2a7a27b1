package export

import (
	"encoding/json"
	"errors"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"deskflow/internal/fs"
)

// ErrInvalidImport wraps any structural or schema failure of an import file.
var ErrInvalidImport = errors.New("invalid import document")

// importSchema constrains the full-JSON import shape before any entity is
// decoded: collections must be arrays of objects carrying a string id, and
// enum-valued fields must hold known values. Deep entity validation beyond
// this happens in the model layer after decoding.
const importSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["export_date"],
  "properties": {
    "export_date": {"type": "string"},
    "schema_version": {"type": "integer", "minimum": 0},
    "projects": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "updated_at"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "status": {"enum": ["planning", "active", "paused", "completed", "archived"]},
          "priority": {"enum": ["low", "medium", "high"]},
          "updated_at": {"type": "string"},
          "tech_stack": {"type": "array", "items": {"type": "string"}},
          "team_members": {"type": "array", "items": {"type": "string"}},
          "tags": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "tasks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title", "updated_at"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string", "minLength": 1},
          "project_id": {"type": ["string", "null"]},
          "status": {"enum": ["todo", "in_progress", "blocked", "completed"]},
          "priority": {"enum": ["low", "medium", "high"]},
          "updated_at": {"type": "string"},
          "dependencies": {"type": "array", "items": {"type": "string"}},
          "tags": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "daily_plans": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "date"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
          "tasks": {"type": "array", "items": {"type": "string"}},
          "time_blocks": {"type": "array", "items": {"type": "object"}}
        }
      }
    },
    "settings": {
      "type": ["object", "null"],
      "properties": {
        "theme": {"enum": ["light", "dark", "system"]},
        "backup_frequency_days": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

var importSchema = jsonschema.MustCompileString("deskflow-export.schema.json", importSchemaJSON)

// ParseDocument validates raw export bytes against the import schema and
// decodes them. Only the full-JSON shape is accepted; CSV projections are
// one-way.
func ParseDocument(data []byte) (Document, error) {
	var loose any
	if err := json.Unmarshal(data, &loose); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}

	if err := importSchema.Validate(loose); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}

	return doc, nil
}

// ReadDocument loads and parses an export file.
func ReadDocument(fsys fs.FS, path string) (Document, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading import: %w", err)
	}

	return ParseDocument(data)
}
