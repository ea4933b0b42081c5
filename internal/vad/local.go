package vad

import (
	"math"

	"github.com/voicecore/meetingpipe/internal/audio"
)

// LocalConfig tunes the energy-threshold predicate.
type LocalConfig struct {
	// SpeechThresholdDB is the RMS energy, in dB, at or above which a packet
	// is classified as speech.
	SpeechThresholdDB float64
}

// DefaultLocalConfig mirrors the static threshold this pipeline's ancestry
// used before any adaptive calibration kicked in.
func DefaultLocalConfig() LocalConfig {
	return LocalConfig{SpeechThresholdDB: -30}
}

// Local is a dependency-free energy-threshold VAD predicate: each packet is
// scored independently by RMS energy in dB against a fixed threshold. It
// keeps no state across calls — the speech/silence hysteresis and timing
// belong to SpeechProcessor, not to the predicate.
type Local struct {
	cfg LocalConfig
}

// NewLocal builds a Local predictor.
func NewLocal(cfg LocalConfig) *Local {
	return &Local{cfg: cfg}
}

// Predict never errors; it is provided purely to satisfy Predictor.
func (l *Local) Predict(p audio.Packet) (Verdict, error) {
	samples := audio.ToFloat32(p.Samples)
	energyDB := computeEnergyDB(samples)
	isSpeech := energyDB >= l.cfg.SpeechThresholdDB

	// Confidence scales with distance from the threshold, clamped to
	// [0.5, 1.0] so a decision exactly at the boundary still reports some
	// confidence rather than zero.
	margin := energyDB - l.cfg.SpeechThresholdDB
	if !isSpeech {
		margin = -margin
	}
	confidence := float32(0.5 + math.Min(math.Max(margin, 0)/40.0, 0.5))

	return Verdict{IsSpeech: isSpeech, Confidence: confidence}, nil
}

func computeEnergyDB(samples []float32) float64 {
	if len(samples) == 0 {
		return -100
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms < 1e-10 {
		return -100
	}
	return 20 * math.Log10(rms)
}
