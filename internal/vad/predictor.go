// Package vad implements the boundary-adapter side of voice-activity
// detection: turning an audio packet into a speech/silence verdict. The
// model behind a verdict (local or remote) is out of scope; this package
// only implements the predicate contract SpeechProcessor consumes.
package vad

import "github.com/voicecore/meetingpipe/internal/audio"

// Verdict is a single per-packet voice-activity decision.
type Verdict struct {
	IsSpeech   bool
	Confidence float32
}

// Predictor decides whether one audio.Packet contains speech. Implementations
// must never block indefinitely; a failing predictor should be treated by
// the caller as silence (see the orchestrator's error-handling policy).
type Predictor interface {
	Predict(p audio.Packet) (Verdict, error)
}
