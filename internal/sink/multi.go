package sink

import (
	"errors"
	"time"
)

// MultiSink fans every call out to a fixed set of inner Sinks, collecting
// (not short-circuiting on) each one's error.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink wraps the given sinks as one.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Add(text, speakerID string, timestamp time.Time, startSec, endSec float64) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Add(text, speakerID, timestamp, startSec, endSec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Rename(speakerID, name string) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Rename(speakerID, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
