// Package migrate upgrades persisted documents written by older versions of
// the application to the current schema.
//
// Every document carries a schema_version stamp. On load, a document older
// than [codec.SchemaVersion] is run through an ordered chain of pure, total
// transformation steps, one per version increment. Each step takes the
// previous shape and returns the next; the caller re-saves the result
// immediately so subsequent loads skip already-applied steps.
//
// A shape a step does not recognize is not an upgrade problem, it is
// corruption: Run returns an error and the caller routes the file through
// the normal recovery path instead of crashing the load.
package migrate

import (
	"encoding/json"
	"fmt"

	"deskflow/internal/codec"
)

// Known legacy versions:
//
//	0 — the original desktop app: collections were bare JSON arrays and
//	    settings a bare object, with no version stamp at all.
//	1 — first enveloped format, before tasks carried tags and before the
//	    backup policy fields landed in settings.
const oldestSupported = 0

// A step upgrades a document from one schema version to the next.
// Steps must be total over every valid shape of their input version and
// must not depend on anything outside the document.
type step func(name string, doc map[string]any) (map[string]any, error)

// steps[v] upgrades version v to v+1.
var steps = []step{
	0: wrapLegacyDocument,
	1: addMissingFieldDefaults,
}

// Run migrates raw document bytes for the named collection up to the current
// schema version. It returns the (possibly rewritten) bytes and whether any
// step ran. An unrecognizable document yields an error; the caller should
// treat that as corruption.
func Run(name string, data []byte) ([]byte, bool, error) {
	version, doc, err := inspect(name, data)
	if err != nil {
		return nil, false, err
	}

	if version == codec.SchemaVersion {
		return data, false, nil
	}

	if version > codec.SchemaVersion || version < oldestSupported {
		return nil, false, fmt.Errorf("%s: unsupported schema_version %d", name, version)
	}

	for v := version; v < codec.SchemaVersion; v++ {
		doc, err = steps[v](name, doc)
		if err != nil {
			return nil, false, fmt.Errorf("%s: migrating v%d to v%d: %w", name, v, v+1, err)
		}

		doc["schema_version"] = v + 1
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, false, fmt.Errorf("%s: re-encoding migrated document: %w", name, err)
	}

	return out, true, nil
}

// inspect determines a document's schema version and normalizes it into
// map form for the step chain.
//
// Version 0 files have no stamp: collections are bare arrays, settings a
// bare object. They are wrapped into {"schema_version": 0, ...} here so
// every step sees the same shape.
func inspect(name string, data []byte) (int, map[string]any, error) {
	var root any

	if err := json.Unmarshal(data, &root); err != nil {
		return 0, nil, fmt.Errorf("%s: malformed JSON: %w", name, err)
	}

	switch v := root.(type) {
	case []any:
		if name == codec.Settings {
			return 0, nil, fmt.Errorf("settings: expected object, found array")
		}

		return 0, map[string]any{"schema_version": 0, "items": v}, nil

	case map[string]any:
		raw, ok := v["schema_version"]
		if !ok {
			if name == codec.Settings {
				v["schema_version"] = 0

				return 0, v, nil
			}

			return 0, nil, fmt.Errorf("%s: missing schema_version", name)
		}

		num, ok := raw.(float64)
		if !ok || num != float64(int(num)) {
			return 0, nil, fmt.Errorf("%s: schema_version is not an integer", name)
		}

		return int(num), v, nil

	default:
		return 0, nil, fmt.Errorf("%s: unexpected document shape %T", name, root)
	}
}

// wrapLegacyDocument upgrades v0 to v1. The inspect normalization already
// produced the enveloped shape; this step guarantees the items array exists
// and repairs the naive local timestamps the original app wrote, which lack
// a UTC offset and would otherwise fail RFC 3339 parsing.
func wrapLegacyDocument(name string, doc map[string]any) (map[string]any, error) {
	if name != codec.Settings {
		if _, ok := doc["items"].([]any); !ok {
			return nil, fmt.Errorf("items is not an array")
		}
	}

	normalizeTimestamps(doc)

	return doc, nil
}

// timestampKeys are the fields that hold full timestamps in any collection.
var timestampKeys = map[string]bool{
	"created_at": true, "updated_at": true, "completed_at": true, "last_backup": true,
}

// normalizeTimestamps walks the document and appends a "Z" suffix to
// timestamp strings that carry no zone designator.
func normalizeTimestamps(node any) {
	switch v := node.(type) {
	case map[string]any:
		for key, val := range v {
			if s, ok := val.(string); ok && timestampKeys[key] && needsZone(s) {
				v[key] = s + "Z"

				continue
			}

			normalizeTimestamps(val)
		}
	case []any:
		for _, item := range v {
			normalizeTimestamps(item)
		}
	}
}

// needsZone reports whether a timestamp string lacks a zone designator.
// Date-only strings (YYYY-MM-DD) are left alone.
func needsZone(s string) bool {
	const minTimestampLen = len("2006-01-02T15:04:05")

	if len(s) < minTimestampLen || s[10] != 'T' {
		return false
	}

	for _, r := range s[minTimestampLen-len("15:04:05"):] {
		if r == 'Z' || r == '+' || r == '-' {
			return false
		}
	}

	return true
}

// addMissingFieldDefaults upgrades v1 to v2: tasks gained tags, projects
// gained team_members, daily plans gained focus_goal, and settings gained
// the backup policy fields.
func addMissingFieldDefaults(name string, doc map[string]any) (map[string]any, error) {
	if name == codec.Settings {
		setDefault(doc, "auto_backup", true)
		setDefault(doc, "backup_frequency_days", float64(1))
		setDefault(doc, "last_backup", nil)

		return doc, nil
	}

	items, ok := doc["items"].([]any)
	if !ok {
		return nil, fmt.Errorf("items is not an array")
	}

	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d is not an object", i)
		}

		switch name {
		case codec.Projects:
			setDefault(item, "team_members", []any{})
		case codec.Tasks:
			setDefault(item, "tags", []any{})
		case codec.DailyPlans:
			setDefault(item, "focus_goal", "")
		}
	}

	return doc, nil
}

func setDefault(obj map[string]any, key string, value any) {
	if _, ok := obj[key]; !ok {
		obj[key] = value
	}
}
