package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// jsonlRecord is one line of a JSONLSink's output file.
type jsonlRecord struct {
	Type      string  `json:"type"`
	SpeakerID string  `json:"speaker_id"`
	Text      string  `json:"text,omitempty"`
	Name      string  `json:"name,omitempty"`
	StartSec  float64 `json:"start_sec,omitempty"`
	EndSec    float64 `json:"end_sec,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// JSONLSink writes one JSON object per line: a "commit" record per Add call
// and a "rename" record per Rename call, for downstream machine consumption.
type JSONLSink struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLSink opens (creating if absent, appending otherwise) the JSONL
// file at path.
func NewJSONLSink(path string) (*JSONLSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("jsonl sink open: %w", err)
	}
	return &JSONLSink{file: f, enc: json.NewEncoder(f)}, nil
}

func (s *JSONLSink) Add(text, speakerID string, timestamp time.Time, startSec, endSec float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(jsonlRecord{
		Type:      "commit",
		SpeakerID: speakerID,
		Text:      text,
		StartSec:  startSec,
		EndSec:    endSec,
		Timestamp: timestamp.UnixMilli(),
	})
}

func (s *JSONLSink) Rename(speakerID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(jsonlRecord{
		Type:      "rename",
		SpeakerID: speakerID,
		Name:      name,
		Timestamp: nowMillis(),
	})
}

func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
