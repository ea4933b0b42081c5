package sink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPlainTextSink_AppendsFormattedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.txt")
	s, err := NewPlainTextSink(path)
	if err != nil {
		t.Fatalf("NewPlainTextSink: %v", err)
	}

	ts := time.Unix(0, 0)
	if err := s.Add("hello there", "alice", ts, 1.0, 1.5); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add("unattributed", "", ts, 2.0, 2.5); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "[1.00-1.50] alice: hello there" {
		t.Fatalf("unexpected line 0: %q", lines[0])
	}
	if lines[1] != "[2.00-2.50] ?: unattributed" {
		t.Fatalf("unexpected line 1: %q", lines[1])
	}
}

func TestPlainTextSink_AppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.txt")

	s1, err := NewPlainTextSink(path)
	if err != nil {
		t.Fatalf("NewPlainTextSink: %v", err)
	}
	_ = s1.Add("first", "a", time.Now(), 0, 1)
	_ = s1.Close()

	s2, err := NewPlainTextSink(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = s2.Add("second", "a", time.Now(), 1, 2)
	_ = s2.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected append not overwrite, got %d lines", len(lines))
	}
}
