package sink

import (
	"time"

	"github.com/voicecore/meetingpipe/internal/trace"
)

// PostgresSink forwards commits and renames to the durable commit ledger.
// All writes go through the ledger's buffered channel, so Add and Rename
// wait on the database only when that buffer is full.
type PostgresSink struct {
	meetingID string
	ledger    *trace.Ledger
}

// NewPostgresSink wraps an already-started meeting's ledger as a Sink.
func NewPostgresSink(meetingID string, ledger *trace.Ledger) *PostgresSink {
	return &PostgresSink{meetingID: meetingID, ledger: ledger}
}

func (s *PostgresSink) Add(text, speakerID string, timestamp time.Time, startSec, endSec float64) error {
	s.ledger.RecordCommit(s.meetingID, speakerID, text, startSec, endSec)
	return nil
}

func (s *PostgresSink) Rename(speakerID, name string) error {
	s.ledger.RenameSpeaker(s.meetingID, speakerID, name)
	return nil
}

func (s *PostgresSink) Close() error {
	s.ledger.EndMeeting(s.meetingID)
	return nil
}
