// Package codec serializes the entity collections to and from their on-disk
// document form.
//
// Every document is self-describing: collections are
// {"schema_version": n, "items": [...]}, the settings singleton is
// {"schema_version": n, ...fields}. Encoding is deterministic — struct-field
// key order, items in collection order, two-space indent — so encoding an
// unmodified collection twice yields identical bytes. That property drives
// the writer's skip-identical optimization and reproducible backups.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"deskflow/internal/model"
)

// Collection names, used for file names, backup keys, and error reporting.
const (
	Projects   = "projects"
	Tasks      = "tasks"
	DailyPlans = "daily_plans"
	Settings   = "settings"
)

// SchemaVersion is the version stamped into every encoded document.
// Decode only accepts documents already at this version; older documents
// go through the migrate package first.
const SchemaVersion = 2

// CollectionNames lists the three list-shaped collections plus the settings
// singleton, in load order.
var CollectionNames = []string{Projects, Tasks, DailyPlans, Settings}

// document is the envelope for list-shaped collections.
type document struct {
	SchemaVersion int             `json:"schema_version"`
	Items         json.RawMessage `json:"items"`
}

// EncodeProjects encodes the projects collection.
func EncodeProjects(items []model.Project) ([]byte, error) {
	return encodeCollection(Projects, items)
}

// EncodeTasks encodes the tasks collection.
func EncodeTasks(items []model.Task) ([]byte, error) {
	return encodeCollection(Tasks, items)
}

// EncodeDailyPlans encodes the daily plans collection.
func EncodeDailyPlans(items []model.DailyPlan) ([]byte, error) {
	return encodeCollection(DailyPlans, items)
}

// EncodeSettings encodes the settings singleton with its version stamp.
// Settings is flat, so the stamp rides alongside the fields rather than
// wrapping them in an items envelope.
func EncodeSettings(s model.Settings) ([]byte, error) {
	type stamped struct {
		SchemaVersion int `json:"schema_version"`
		model.Settings
	}

	return marshalDocument(stamped{SchemaVersion: SchemaVersion, Settings: s})
}

// DecodeProjects decodes and validates a projects document.
func DecodeProjects(data []byte) ([]model.Project, error) {
	return decodeCollection(Projects, data, func(p *model.Project) (string, error) {
		return p.ID, p.Validate()
	})
}

// DecodeTasks decodes and validates a tasks document.
func DecodeTasks(data []byte) ([]model.Task, error) {
	return decodeCollection(Tasks, data, func(t *model.Task) (string, error) {
		return t.ID, t.Validate()
	})
}

// DecodeDailyPlans decodes and validates a daily plans document.
// Duplicate dates are a structural violation, matching the store's
// one-plan-per-date invariant.
func DecodeDailyPlans(data []byte) ([]model.DailyPlan, error) {
	plans, err := decodeCollection(DailyPlans, data, func(d *model.DailyPlan) (string, error) {
		return d.ID, d.Validate()
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(plans))

	for _, p := range plans {
		if seen[p.Date] {
			return nil, decodeErr(DailyPlans, fmt.Sprintf("duplicate date %q", p.Date), nil)
		}

		seen[p.Date] = true
	}

	return plans, nil
}

// DecodeSettings decodes and validates the settings singleton.
func DecodeSettings(data []byte) (model.Settings, error) {
	var versioned struct {
		SchemaVersion *int `json:"schema_version"`
	}

	if err := json.Unmarshal(data, &versioned); err != nil {
		return model.Settings{}, decodeErr(Settings, "malformed JSON", err)
	}

	if versioned.SchemaVersion == nil {
		return model.Settings{}, decodeErr(Settings, "missing schema_version", nil)
	}

	if *versioned.SchemaVersion != SchemaVersion {
		return model.Settings{}, decodeErr(Settings,
			fmt.Sprintf("unsupported schema_version %d, want %d", *versioned.SchemaVersion, SchemaVersion), nil)
	}

	var s model.Settings

	if err := json.Unmarshal(data, &s); err != nil {
		return model.Settings{}, decodeErr(Settings, "malformed settings fields", err)
	}

	if err := s.Validate(); err != nil {
		return model.Settings{}, decodeErr(Settings, "invalid settings", err)
	}

	return s, nil
}

func encodeCollection[T any](name string, items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}

	rawItems, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}

	return marshalDocument(document{SchemaVersion: SchemaVersion, Items: rawItems})
}

func decodeCollection[T any](name string, data []byte, identify func(*T) (string, error)) ([]T, error) {
	var doc struct {
		SchemaVersion *int            `json:"schema_version"`
		Items         json.RawMessage `json:"items"`
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, decodeErr(name, "malformed JSON", err)
	}

	if doc.SchemaVersion == nil {
		return nil, decodeErr(name, "missing schema_version", nil)
	}

	if *doc.SchemaVersion != SchemaVersion {
		return nil, decodeErr(name,
			fmt.Sprintf("unsupported schema_version %d, want %d", *doc.SchemaVersion, SchemaVersion), nil)
	}

	if doc.Items == nil {
		return nil, decodeErr(name, "missing items", nil)
	}

	var items []T

	if err := json.Unmarshal(doc.Items, &items); err != nil {
		return nil, decodeErr(name, "malformed items", err)
	}

	seen := make(map[string]bool, len(items))

	for i := range items {
		id, err := identify(&items[i])
		if err != nil {
			return nil, decodeErr(name, "invalid item", err)
		}

		if id == "" {
			return nil, decodeErr(name, "item with empty id", nil)
		}

		if seen[id] {
			return nil, decodeErr(name, fmt.Sprintf("duplicate id %q", id), nil)
		}

		seen[id] = true
	}

	return items, nil
}

// marshalDocument renders a document with the canonical two-space indent and
// trailing newline.
func marshalDocument(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
