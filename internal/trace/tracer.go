package trace

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ledgerChannelBuffer is how many ledger messages can queue before the
// background drain goroutine writes them to the store.
const ledgerChannelBuffer = 256

type ledgerMsg struct {
	kind      string // "meeting_create", "meeting_end", "rename", "commit"
	meetingID string
	speakerID string
	name      string
	commit    Commit
}

// Ledger writes commit-ledger data asynchronously via a buffered channel.
// All methods are nil-safe (no-op on nil receiver), matching this module's
// ancestry's nil-safe Tracer — a meeting run without a configured Store
// simply carries a nil *Ledger throughout.
type Ledger struct {
	store *Store
	ch    chan ledgerMsg
	done  chan struct{}
}

// NewLedger creates a ledger writer and launches its background drain
// goroutine. Callers MUST call Close() when done to flush pending writes
// and stop the goroutine — otherwise writes are lost and the goroutine
// leaks.
func NewLedger(store *Store) *Ledger {
	l := &Ledger{
		store: store,
		ch:    make(chan ledgerMsg, ledgerChannelBuffer),
		done:  make(chan struct{}),
	}
	go l.drain()
	return l
}

func (l *Ledger) drain() {
	defer close(l.done)
	for msg := range l.ch {
		l.handle(msg)
	}
}

func (l *Ledger) handle(m ledgerMsg) {
	if err := l.dispatch(m); err != nil {
		slog.Warn("ledger write failed", "kind", m.kind, "error", err)
	}
}

func (l *Ledger) dispatch(m ledgerMsg) error {
	switch m.kind {
	case "meeting_create":
		return l.store.CreateMeeting(m.meetingID, "")
	case "meeting_end":
		return l.store.EndMeeting(m.meetingID)
	case "rename":
		return l.store.RenameSpeaker(m.meetingID, m.speakerID, m.name)
	case "commit":
		return l.store.RecordCommit(m.commit)
	}
	return nil
}

// StartMeeting records a new meeting's creation.
func (l *Ledger) StartMeeting(meetingID string) {
	if l == nil {
		return
	}
	l.ch <- ledgerMsg{kind: "meeting_create", meetingID: meetingID}
}

// EndMeeting marks a meeting as finished.
func (l *Ledger) EndMeeting(meetingID string) {
	if l == nil {
		return
	}
	l.ch <- ledgerMsg{kind: "meeting_end", meetingID: meetingID}
}

// RenameSpeaker records a participant display-name update.
func (l *Ledger) RenameSpeaker(meetingID, speakerID, name string) {
	if l == nil {
		return
	}
	l.ch <- ledgerMsg{kind: "rename", meetingID: meetingID, speakerID: speakerID, name: name}
}

// RecordCommit persists one committed word.
func (l *Ledger) RecordCommit(meetingID, speakerID, text string, startSec, endSec float64) {
	if l == nil {
		return
	}
	l.ch <- ledgerMsg{kind: "commit", commit: Commit{
		ID:        uuid.NewString(),
		MeetingID: meetingID,
		SpeakerID: speakerID,
		Text:      text,
		StartSec:  startSec,
		EndSec:    endSec,
		CreatedAt: time.Now(),
	}}
}

// Close drains pending writes and shuts down the background goroutine.
func (l *Ledger) Close() {
	if l == nil {
		return
	}
	close(l.ch)
	<-l.done
}
