package sink

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJSONLSink_WritesCommitAndRenameRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	s, err := NewJSONLSink(path)
	if err != nil {
		t.Fatalf("NewJSONLSink: %v", err)
	}

	if err := s.Add("hello", "spk1", time.Unix(100, 0), 1.0, 1.5); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Rename("spk1", "Alice"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	var records []jsonlRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec jsonlRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		records = append(records, rec)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Type != "commit" || records[0].SpeakerID != "spk1" || records[0].Text != "hello" {
		t.Fatalf("unexpected commit record: %+v", records[0])
	}
	if records[1].Type != "rename" || records[1].SpeakerID != "spk1" || records[1].Name != "Alice" {
		t.Fatalf("unexpected rename record: %+v", records[1])
	}
}
