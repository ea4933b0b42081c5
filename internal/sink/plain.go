package sink

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// PlainTextSink appends one line per commit to a plain-text transcript file:
// "[start_sec-end_sec] speaker_id: text".
type PlainTextSink struct {
	Base

	mu   sync.Mutex
	file *os.File
}

// NewPlainTextSink opens (creating if absent, appending otherwise) the
// transcript file at path.
func NewPlainTextSink(path string) (*PlainTextSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("plain text sink open: %w", err)
	}
	return &PlainTextSink{file: f}, nil
}

func (s *PlainTextSink) Add(text, speakerID string, timestamp time.Time, startSec, endSec float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	speaker := speakerID
	if speaker == "" {
		speaker = "?"
	}
	_, err := fmt.Fprintf(s.file, "[%.2f-%.2f] %s: %s\n", startSec, endSec, speaker, text)
	return err
}

func (s *PlainTextSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
