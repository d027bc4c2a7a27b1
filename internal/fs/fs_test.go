package fs_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"deskflow/internal/fs"
)

func Test_Real_WriteFileAtomic_Replaces_Content(t *testing.T) {
	t.Parallel()

	real := fs.NewReal()
	path := filepath.Join(t.TempDir(), "data.json")

	if err := real.WriteFileAtomic(path, []byte("first"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := real.WriteFileAtomic(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	data, err := real.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}
}

func Test_Real_AppendFile_Creates_And_Appends(t *testing.T) {
	t.Parallel()

	real := fs.NewReal()
	path := filepath.Join(t.TempDir(), "log.jsonl")

	if err := real.AppendFile(path, []byte("one\n"), 0o600); err != nil {
		t.Fatalf("first append: %v", err)
	}

	if err := real.AppendFile(path, []byte("two\n"), 0o600); err != nil {
		t.Fatalf("second append: %v", err)
	}

	data, err := real.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if string(data) != "one\ntwo\n" {
		t.Errorf("content = %q", data)
	}
}

func Test_Real_Exists(t *testing.T) {
	t.Parallel()

	real := fs.NewReal()
	dir := t.TempDir()

	exists, err := real.Exists(filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("exists: %v", err)
	}

	if exists {
		t.Error("missing file reported as existing")
	}

	path := filepath.Join(dir, "present")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	exists, err = real.Exists(path)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}

	if !exists {
		t.Error("present file reported as missing")
	}
}

func Test_Chaos_Passthrough_Injects_Nothing(t *testing.T) {
	t.Parallel()

	chaos := fs.NewChaos(fs.NewReal(), 1, fs.ChaosConfig{
		ReadFailRate:  1.0,
		WriteFailRate: 1.0,
	})

	path := filepath.Join(t.TempDir(), "data")

	if err := chaos.WriteFileAtomic(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("write in passthrough mode: %v", err)
	}

	if _, err := chaos.ReadFile(path); err != nil {
		t.Fatalf("read in passthrough mode: %v", err)
	}

	if chaos.TotalFaults() != 0 {
		t.Errorf("faults = %d in passthrough mode", chaos.TotalFaults())
	}
}

func Test_Chaos_WriteFail_Leaves_Target_Untouched(t *testing.T) {
	t.Parallel()

	chaos := fs.NewChaos(fs.NewReal(), 1, fs.ChaosConfig{WriteFailRate: 1.0})
	path := filepath.Join(t.TempDir(), "data")

	if err := chaos.WriteFileAtomic(path, []byte("before"), 0o600); err != nil {
		t.Fatalf("seed write: %v", err)
	}

	chaos.SetMode(fs.ChaosModeInject)

	if err := chaos.WriteFileAtomic(path, []byte("after"), 0o600); err == nil {
		t.Fatal("injected write succeeded")
	}

	chaos.SetMode(fs.ChaosModePassthrough)

	data, err := chaos.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if string(data) != "before" {
		t.Errorf("content = %q, want pre-write %q", data, "before")
	}

	if chaos.Stats().WriteFails != 1 {
		t.Errorf("write fails = %d, want 1", chaos.Stats().WriteFails)
	}
}

func Test_Chaos_PartialWrite_Leaves_Temp_File_And_Intact_Target(t *testing.T) {
	t.Parallel()

	chaos := fs.NewChaos(fs.NewReal(), 7, fs.ChaosConfig{PartialWriteRate: 1.0})
	dir := t.TempDir()
	path := filepath.Join(dir, "data")

	if err := chaos.WriteFileAtomic(path, []byte("intact"), 0o600); err != nil {
		t.Fatalf("seed write: %v", err)
	}

	chaos.SetMode(fs.ChaosModeInject)

	if err := chaos.WriteFileAtomic(path, []byte("replacement-content"), 0o600); err == nil {
		t.Fatal("partial write reported success")
	}

	chaos.SetMode(fs.ChaosModePassthrough)

	data, err := chaos.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if string(data) != "intact" {
		t.Errorf("target = %q, want %q", data, "intact")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}

	foundTemp := false

	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".chaos-tmp") {
			foundTemp = true
		}
	}

	if !foundTemp {
		t.Error("no orphaned temp file after simulated crash")
	}
}

func Test_Chaos_Errors_Match_OS_Error_Shape(t *testing.T) {
	t.Parallel()

	chaos := fs.NewChaos(fs.NewReal(), 1, fs.ChaosConfig{ReadFailRate: 1.0})
	chaos.SetMode(fs.ChaosModeInject)

	_, err := chaos.ReadFile("/some/path")
	if err == nil {
		t.Fatal("no error injected")
	}

	var pathErr *os.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("err %T is not *os.PathError", err)
	}

	if pathErr.Path != "/some/path" {
		t.Errorf("path = %q", pathErr.Path)
	}
}
