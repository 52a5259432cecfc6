package parser

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadAll(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    int
		jsonl   bool
	}{
		{"array", "readings.json", `[{"deviceid": "d1", "temp": 20.5}, {"deviceid": "d2", "temp": 19}]`, 2, false},
		{"single object", "reading.json", `{"deviceid": "d1", "temp": 20.5}`, 1, false},
		{"concatenated", "concat.json", `{"deviceid": "d1"}{"deviceid": "d2"}`, 2, false},
		{"jsonl", "readings.jsonl", "{\"deviceid\": \"d1\"}\n{\"deviceid\": \"d2\"}", 2, true},
		{"jsonl empty lines", "gaps.jsonl", "{\"deviceid\": \"d1\"}\n\n   \n{\"deviceid\": \"d2\"}\n", 2, true},
		{"empty file", "empty.json", "", 0, false},
		{"whitespace only", "blank.json", "  \n\t", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParser(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("NewParser failed: %v", err)
			}
			defer p.Close()

			if p.IsJSONL() != tt.jsonl {
				t.Errorf("IsJSONL = %v, want %v", p.IsJSONL(), tt.jsonl)
			}
			records, err := p.ReadAll()
			if err != nil {
				t.Fatalf("ReadAll failed: %v", err)
			}
			if len(records) != tt.want {
				t.Fatalf("Expected %d records, got %d", tt.want, len(records))
			}
			if tt.want > 0 && records[0]["deviceid"] != "d1" {
				t.Errorf("Expected first deviceid d1, got %v", records[0]["deviceid"])
			}
		})
	}
}

func TestReadMalformed(t *testing.T) {
	tests := map[string]string{
		"truncated.json":  `[{"deviceid": "d1"}, {"deviceid": "d2"`,
		"truncated.jsonl": "{\"deviceid\": \"d1\"}\n{\"deviceid\": \"d2\"\n{\"deviceid\": \"d3\"}",
		"scalar.json":     `[1, 2]`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			p, err := NewParser(writeFile(t, name, content))
			if err != nil {
				t.Fatal(err)
			}
			defer p.Close()
			if _, err := p.ReadAll(); err == nil {
				t.Error("Expected error for malformed input, got nil")
			}
		})
	}
}

func TestInlineJSON(t *testing.T) {
	p, err := NewParser(`[{"deviceid": "d1"}, {"deviceid": "d2"}]`)
	if err != nil {
		t.Fatal(err)
	}
	tmp := p.tmpFile

	records, err := p.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Errorf("Expected inline temp file to be removed, stat err: %v", err)
	}
}

func TestReadStreaming(t *testing.T) {
	for _, name := range []string{"stream.jsonl", "stream.json"} {
		t.Run(name, func(t *testing.T) {
			content := "{\"id\": 1}\n{\"id\": 2}\n{\"id\": 3}"
			if name == "stream.json" {
				content = `[{"id": 1}, {"id": 2}, {"id": 3}]`
			}
			p, err := NewParser(writeFile(t, name, content))
			if err != nil {
				t.Fatal(err)
			}
			defer p.Close()

			var count int
			for {
				rec, err := p.Read()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					t.Fatalf("Read failed: %v", err)
				}
				count++
				if int(rec["id"].(float64)) != count {
					t.Errorf("Expected id %d, got %v", count, rec["id"])
				}
			}
			if count != 3 {
				t.Errorf("Expected 3 records, got %d", count)
			}
		})
	}
}

func TestFileTable(t *testing.T) {
	path := writeFile(t, "readings.jsonl", "{\"deviceid\": \"d1\", \"temp\": 1.5}\n{\"deviceid\": \"d2\"}\n")

	it, err := NewFileTable(path).Iterate()
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	var temps []interface{}
	for it.Next() {
		v, err := it.Row().Get("temp")
		if err != nil {
			t.Fatal(err)
		}
		temps = append(temps, v)
	}
	if err := it.Error(); err != nil {
		t.Fatal(err)
	}
	if len(temps) != 2 || temps[0] != 1.5 || temps[1] != nil {
		t.Errorf("Expected [1.5 <nil>], got %v", temps)
	}

	bad := writeFile(t, "bad.jsonl", "{\"deviceid\": \"d1\"}\nnot json\n")
	it, err = NewFileTable(bad).Iterate()
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()
	for it.Next() {
	}
	if it.Error() == nil {
		t.Error("Expected iterator error for malformed line")
	}

	if _, err := NewFileTable(filepath.Join(t.TempDir(), "missing.jsonl")).Iterate(); err == nil {
		t.Error("Expected error for missing file")
	}
}
