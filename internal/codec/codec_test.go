package codec_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"deskflow/internal/codec"
	"deskflow/internal/model"
)

func sampleTask(id string) model.Task {
	t := model.NewTask("sample")
	t.ID = id
	t.CreatedAt = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	t.UpdatedAt = t.CreatedAt

	return t
}

func Test_Encode_Is_Deterministic(t *testing.T) {
	t.Parallel()

	items := []model.Task{sampleTask("t-1"), sampleTask("t-2")}

	first, err := codec.EncodeTasks(items)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	second, err := codec.EncodeTasks(items)
	if err != nil {
		t.Fatalf("encode again: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("encoding the same collection twice produced different bytes")
	}

	if first[len(first)-1] != '\n' {
		t.Error("encoded document missing trailing newline")
	}
}

func Test_Encode_Decode_Round_Trip(t *testing.T) {
	t.Parallel()

	projectID := "p-1"

	task := sampleTask("t-1")
	task.ProjectID = &projectID
	task.Tags = []string{"infra", "urgent"}
	task.Checklist = []model.ChecklistItem{{ID: "c-1", Text: "step one"}}
	task.Dependencies = []string{"t-0"}

	// The dependency target and the second task make the document realistic.
	items := []model.Task{sampleTask("t-0"), task}

	data, err := codec.EncodeTasks(items)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := codec.DecodeTasks(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if diff := cmp.Diff(items, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func Test_Encode_Nil_Collection_Yields_Empty_Items(t *testing.T) {
	t.Parallel()

	data, err := codec.EncodeProjects(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if !bytes.Contains(data, []byte(`"items": []`)) {
		t.Errorf("nil collection did not encode as empty items:\n%s", data)
	}
}

func Test_Decode_Rejects_Wrong_Schema_Version(t *testing.T) {
	t.Parallel()

	_, err := codec.DecodeTasks([]byte(`{"schema_version": 1, "items": []}`))

	var decodeErr *codec.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}

	if decodeErr.Collection != codec.Tasks {
		t.Errorf("collection = %q, want %q", decodeErr.Collection, codec.Tasks)
	}
}

func Test_Decode_Rejects_Missing_Schema_Version(t *testing.T) {
	t.Parallel()

	if _, err := codec.DecodeProjects([]byte(`{"items": []}`)); err == nil {
		t.Fatal("decode accepted document without schema_version")
	}
}

func Test_Decode_Rejects_Duplicate_IDs(t *testing.T) {
	t.Parallel()

	items := []model.Task{sampleTask("t-1"), sampleTask("t-1")}

	data, err := codec.EncodeTasks(items)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if _, err := codec.DecodeTasks(data); err == nil {
		t.Fatal("decode accepted duplicate ids")
	}
}

func Test_Decode_Rejects_Invalid_Item(t *testing.T) {
	t.Parallel()

	bad := sampleTask("t-1")
	bad.Status = "paused" // not a task status

	data, err := codec.EncodeTasks([]model.Task{bad})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if _, err := codec.DecodeTasks(data); err == nil {
		t.Fatal("decode accepted invalid status")
	}
}

func Test_DecodeDailyPlans_Rejects_Duplicate_Dates(t *testing.T) {
	t.Parallel()

	a := model.NewDailyPlan("2024-03-01")
	a.ID = "d-1"
	b := model.NewDailyPlan("2024-03-01")
	b.ID = "d-2"

	data, err := codec.EncodeDailyPlans([]model.DailyPlan{a, b})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if _, err := codec.DecodeDailyPlans(data); err == nil {
		t.Fatal("decode accepted duplicate dates")
	}
}

func Test_Settings_Round_Trip(t *testing.T) {
	t.Parallel()

	s := model.DefaultSettings()
	s.Theme = "dark"
	s.UpdatedAt = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

	data, err := codec.EncodeSettings(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := codec.DecodeSettings(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if diff := cmp.Diff(s, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
