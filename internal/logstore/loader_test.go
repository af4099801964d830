package logstore

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeTempFile(t, "logs.csv", "id,message,level\n1,server started,Information\n2,oom killed process,Error\n")

	records, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0]["message"] != "server started" {
		t.Errorf("Unexpected first record: %+v", records[0])
	}
	if records[1]["level"] != "Error" {
		t.Errorf("Unexpected second record: %+v", records[1])
	}
}

func TestLoadJSONArray(t *testing.T) {
	path := writeTempFile(t, "logs.json", `[{"msg": "first", "level": "Info"}, {"msg": "second"}]`)

	records, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0]["msg"] != "first" {
		t.Errorf("Unexpected first record: %+v", records[0])
	}
}

func TestLoadJSONKeyedObject(t *testing.T) {
	path := writeTempFile(t, "logs.json", `{"10": {"msg": "keyed record"}, "11": {"msg": "another", "id": 99}}`)

	records, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	// The object key supplies the id unless the record has its own.
	ids := map[interface{}]bool{}
	for _, rec := range records {
		ids[rec["id"]] = true
	}
	if !ids["10"] {
		t.Errorf("Expected key-derived id \"10\", got ids %v", ids)
	}
	if !ids[float64(99)] {
		t.Errorf("Expected record-carried id 99, got ids %v", ids)
	}
}

func TestLoadPlainTextLines(t *testing.T) {
	path := writeTempFile(t, "app.log", "first line\n\n   \nsecond line\n")

	records, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records (blank lines skipped), got %d", len(records))
	}
	if records[0]["message"] != "first line" || records[1]["message"] != "second line" {
		t.Errorf("Unexpected records: %+v", records)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.log")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadJSONInvalid(t *testing.T) {
	path := writeTempFile(t, "bad.json", `{"not": "records"`)
	if _, err := LoadFile(path); err == nil {
		t.Error("Expected error for malformed json")
	}
}
