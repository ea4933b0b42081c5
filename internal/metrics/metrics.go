// Package metrics declares the prometheus instrumentation surface for the
// speech pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MeetingsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meetingpipe_meetings_active",
		Help: "Currently active meeting sessions",
	})

	AudioPacketsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetingpipe_vad_packets_total",
		Help: "Total VAD packets produced by the framer",
	})

	SpeechSegmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetingpipe_speech_segments_total",
		Help: "Speech segments started (silence to speech transitions)",
	})

	RecognizerCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetingpipe_recognizer_calls_total",
		Help: "Recognizer calls by trigger (stride, final)",
	}, []string{"trigger"})

	RecognizerDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meetingpipe_recognizer_duration_seconds",
		Help:    "Recognizer request latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 20.0, 30.0},
	})

	RecognizerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetingpipe_recognizer_errors_total",
		Help: "Recognizer failures by kind",
	}, []string{"kind"})

	VADErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetingpipe_vad_errors_total",
		Help: "VAD predicate failures by backend",
	}, []string{"backend"})

	WordsCommittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetingpipe_words_committed_total",
		Help: "Words committed across all speakers",
	})

	BufferTrimsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetingpipe_buffer_trims_total",
		Help: "Rolling audio buffer trims performed by SpeechProcessor",
	})

	StrideSkippedBusyTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetingpipe_stride_skipped_busy_total",
		Help: "Strides skipped because a recognizer call was already in flight for that speaker",
	})

	WEREstimate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meetingpipe_wer_estimate",
		Help: "Latest word-error-rate estimate against a configured reference transcript",
	})
)
