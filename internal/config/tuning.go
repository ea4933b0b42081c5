// Package config loads the tunable knobs for one meetingcore process: the
// speech-pipeline parameters that are closer to data than to deployment, in
// a JSON file with field-by-field fallback to built-in defaults, the same
// loadTuning/defaultTuning pattern this module's ancestry used for its own
// gateway.json.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Tuning holds knobs loaded from meetingcore.json. These are values that may
// eventually move to a database; for now a JSON file keeps them out of env
// vars.
type Tuning struct {
	SampleRate         int     `json:"sample_rate"`
	VadDurationMs      int     `json:"vad_duration_ms"`
	StrideSec          float64 `json:"stride_sec"`
	SilenceTimeoutSec  float64 `json:"silence_timeout_sec"`
	PreSpeechBufferSec float64 `json:"pre_speech_buffer_sec"`
	HistorySize        int     `json:"history_size"`
	PerSpeaker         bool    `json:"per_speaker"`

	RecognizerURL     string `json:"recognizer_url"`
	RecognizerPool    int    `json:"recognizer_pool_size"`
	RecognizerTimeoutMs int  `json:"recognizer_timeout_ms"`

	VADBackend  string `json:"vad_backend"`
	VADURL      string `json:"vad_url"`
	VADPoolSize int    `json:"vad_pool_size"`

	RecordAudio bool `json:"record_audio"`
}

// Default returns sensible defaults matching the values used throughout the
// specification's examples.
func Default() Tuning {
	return Tuning{
		SampleRate:          16000,
		VadDurationMs:       100,
		StrideSec:           5.0,
		SilenceTimeoutSec:   1.0,
		PreSpeechBufferSec:  1.0,
		HistorySize:         30,
		PerSpeaker:          true,
		RecognizerURL:       "",
		RecognizerPool:      50,
		RecognizerTimeoutMs: 30_000,
		VADBackend:          "local",
		VADPoolSize:         10,
		RecordAudio:         false,
	}
}

// Load reads path if present, otherwise returns Default(). A malformed file
// falls back to defaults with a warning; a missing file falls back to
// defaults with an info-level log (the common case for local development).
func Load(path string) Tuning {
	t := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Info("no config file, using defaults", "path", path)
		return t
	}
	if err = json.Unmarshal(data, &t); err != nil {
		slog.Warn("bad config file, using defaults", "path", path, "error", err)
		return Default()
	}
	slog.Info("loaded config", "path", path)
	return t
}

// Validate enforces the startup-fatal configuration constraints from the
// error-handling design: a stride at or beyond the recognizer's hard input
// cap, or a non-positive sample rate, refuses to start.
func (t Tuning) Validate(maxAudioSec float64) error {
	if t.SampleRate <= 0 {
		return fmt.Errorf("config: sample_rate must be positive, got %d", t.SampleRate)
	}
	if t.StrideSec <= 0 {
		return fmt.Errorf("config: stride_sec must be positive, got %f", t.StrideSec)
	}
	if t.StrideSec >= maxAudioSec {
		return fmt.Errorf("config: stride_sec (%f) must be below max_audio_sec (%f)", t.StrideSec, maxAudioSec)
	}
	if t.SilenceTimeoutSec <= 0 {
		return fmt.Errorf("config: silence_timeout_sec must be positive, got %f", t.SilenceTimeoutSec)
	}
	return nil
}
