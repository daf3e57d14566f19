package jsonfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	in := map[string]string{"url": "a<b>&c"}
	if err := Write(path, in); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"url\": \"a<b>&c\"\n}\n"
	if string(data) != want {
		t.Errorf("file content = %q, want %q", data, want)
	}

	var out map[string]string
	if err := Read(path, &out); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if out["url"] != in["url"] {
		t.Errorf("round trip = %q, want %q", out["url"], in["url"])
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the written file, found %d entries", len(entries))
	}
}

func TestReadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	var v map[string]any
	if err := Read(path, &v); err == nil {
		t.Error("Read should fail on corrupt JSON")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if Exists(filepath.Join(dir, "missing.json")) {
		t.Error("Exists reported a missing file")
	}
	if Exists(dir) {
		t.Error("Exists reported a directory")
	}
}
