package migrate_test

import (
	"encoding/json"
	"strings"
	"testing"

	"deskflow/internal/codec"
	"deskflow/internal/migrate"
)

func Test_Run_Leaves_Current_Version_Untouched(t *testing.T) {
	t.Parallel()

	data := []byte(`{"schema_version": 2, "items": []}`)

	out, changed, err := migrate.Run(codec.Tasks, data)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if changed {
		t.Error("current-version document reported as changed")
	}

	if string(out) != string(data) {
		t.Errorf("bytes rewritten: %s", out)
	}
}

func Test_Run_Wraps_Legacy_Bare_Array(t *testing.T) {
	t.Parallel()

	legacy := `[{"id": "t-1", "title": "old", "status": "todo", "priority": "low",
		"created_at": "2023-05-01T09:30:00", "updated_at": "2023-05-01T09:30:00"}]`

	out, changed, err := migrate.Run(codec.Tasks, []byte(legacy))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !changed {
		t.Fatal("legacy document not reported as changed")
	}

	var doc struct {
		SchemaVersion int              `json:"schema_version"`
		Items         []map[string]any `json:"items"`
	}

	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("unmarshal migrated: %v", err)
	}

	if doc.SchemaVersion != codec.SchemaVersion {
		t.Errorf("schema_version = %d, want %d", doc.SchemaVersion, codec.SchemaVersion)
	}

	if len(doc.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(doc.Items))
	}

	if got := doc.Items[0]["created_at"]; got != "2023-05-01T09:30:00Z" {
		t.Errorf("created_at = %v, want zone-suffixed timestamp", got)
	}

	if _, ok := doc.Items[0]["tags"]; !ok {
		t.Error("tags default missing after migration")
	}
}

func Test_Run_Preserves_Zoned_Timestamps(t *testing.T) {
	t.Parallel()

	legacy := `[{"id": "t-1", "created_at": "2023-05-01T09:30:00+02:00", "due_date": "2023-06-01"}]`

	out, _, err := migrate.Run(codec.Tasks, []byte(legacy))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(string(out), "2023-05-01T09:30:00+02:00") {
		t.Errorf("zoned timestamp altered:\n%s", out)
	}

	if !strings.Contains(string(out), `"2023-06-01"`) {
		t.Errorf("date-only field altered:\n%s", out)
	}
}

func Test_Run_Migrates_Legacy_Settings_Object(t *testing.T) {
	t.Parallel()

	legacy := `{"theme": "dark", "default_project_color": "#E07B53",
		"work_hours_start": "09:00", "work_hours_end": "17:00",
		"notifications_enabled": true, "show_completed_tasks": true,
		"task_sort_order": "priority", "first_launch": false}`

	out, changed, err := migrate.Run(codec.Settings, []byte(legacy))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !changed {
		t.Fatal("legacy settings not reported as changed")
	}

	var doc map[string]any

	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("unmarshal migrated: %v", err)
	}

	if doc["auto_backup"] != true {
		t.Errorf("auto_backup = %v, want default true", doc["auto_backup"])
	}

	if doc["backup_frequency_days"] != float64(1) {
		t.Errorf("backup_frequency_days = %v, want default 1", doc["backup_frequency_days"])
	}

	if doc["theme"] != "dark" {
		t.Errorf("existing field overwritten: theme = %v", doc["theme"])
	}
}

func Test_Run_Rejects_Unrecognizable_Documents(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":             `{"schema_version": `,
		"scalar root":          `42`,
		"future version":       `{"schema_version": 99, "items": []}`,
		"non-integer version":  `{"schema_version": 1.5, "items": []}`,
		"array settings":       `[]`,
		"object without stamp": `{"items": []}`,
	}

	for name, doc := range cases {
		collection := codec.Tasks
		if name == "array settings" {
			collection = codec.Settings
		}

		if _, _, err := migrate.Run(collection, []byte(doc)); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}
