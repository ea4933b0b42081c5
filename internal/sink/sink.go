// Package sink implements the output boundary of the speech pipeline: every
// committed word, once flushed out of a SpeechProcessor's hypothesis buffer,
// is forwarded to one or more Sinks. The sink owns formatting (plain, JSONL,
// durable ledger) and persistence; the core pipeline never inspects it.
package sink

import "time"

// Sink is the boundary contract committed words are forwarded across:
// add(text, speaker_id, timestamp, start_sec, end_sec) per §6. Rename is an
// optional extension (see Base) for participant display-name forwarding.
type Sink interface {
	Add(text, speakerID string, timestamp time.Time, startSec, endSec float64) error
	Rename(speakerID, name string) error
	Close() error
}

// Base gives every Sink a no-op Rename and Close so implementations only
// need to provide Add, unless they actually care about names or hold a
// resource worth closing.
type Base struct{}

func (Base) Rename(speakerID, name string) error { return nil }
func (Base) Close() error                        { return nil }
