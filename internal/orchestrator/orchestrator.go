// Package orchestrator wires platform audio ingest through a VadFramer and
// one SpeechProcessor per speaker to a Sink: single-threaded cooperative
// scheduling per meeting, driven by a buffered channel of ingest events
// (one goroutine per meeting), exactly matching the concurrency model
// described for this pipeline.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/voicecore/meetingpipe/internal/audio"
	"github.com/voicecore/meetingpipe/internal/config"
	"github.com/voicecore/meetingpipe/internal/hypothesis"
	"github.com/voicecore/meetingpipe/internal/metrics"
	"github.com/voicecore/meetingpipe/internal/pipeline"
	"github.com/voicecore/meetingpipe/internal/recorder"
	"github.com/voicecore/meetingpipe/internal/sharedcontext"
	"github.com/voicecore/meetingpipe/internal/sink"
	"github.com/voicecore/meetingpipe/internal/speech"
	"github.com/voicecore/meetingpipe/internal/vad"
)

// ingestEventBuffer is the size of one meeting's event channel.
const ingestEventBuffer = 256

type eventKind int

const (
	eventAudio eventKind = iota
	eventParticipantJoin
	eventEndMeeting
)

type ingestEvent struct {
	kind       eventKind
	pcm        []byte
	codec      audio.Codec
	sampleRate int
	speakerID  string
	name       string
	timestamp  time.Time
	done       chan struct{}
}

// Commit is one word forwarded out of the pipeline toward the Sink and any
// live observers (e.g. the websocket transcript channel).
type Commit struct {
	SpeakerID string
	Text      string
	StartSec  float64
	EndSec    float64
	Timestamp time.Time
}

// CommitFunc is notified of every commit, in addition to the Sink — used to
// fan commits out to live websocket observers without coupling this package
// to the ws package.
type CommitFunc func(Commit)

// Orchestrator owns one meeting's entire pipeline: ingest, VadFramer,
// SharedContext, per-speaker SpeechProcessors, Sink, optional recorder and
// commit ledger. All mutation happens on its own goroutine.
type Orchestrator struct {
	meetingID string
	cfg       config.Tuning
	rec       speech.Recognizer
	vadRouter *pipeline.Router[vad.Predictor]
	vadEngine string
	sinkOut   sink.Sink
	onCommit  CommitFunc

	shared *sharedcontext.Context
	framer *audio.Framer

	processors map[string]*speech.Processor
	recorders  map[string]*recorder.SpeakerWAV
	recordDir  string

	referenceTranscript string
	committedText       map[string]*strings.Builder

	events chan ingestEvent
	done   chan struct{}
}

// New builds an Orchestrator for one meeting. recordDir, if non-empty,
// enables per-speaker WAV recording under that directory when cfg.RecordAudio
// is set.
func New(meetingID string, cfg config.Tuning, rec speech.Recognizer, vadRouter *pipeline.Router[vad.Predictor], vadEngine string, sinkOut sink.Sink, onCommit CommitFunc, recordDir string) *Orchestrator {
	o := &Orchestrator{
		meetingID:      meetingID,
		cfg:            cfg,
		rec:            rec,
		vadRouter:      vadRouter,
		vadEngine:      vadEngine,
		sinkOut:        sinkOut,
		onCommit:       onCommit,
		shared:         sharedcontext.New(cfg.HistorySize),
		processors:     make(map[string]*speech.Processor),
		recorders:      make(map[string]*recorder.SpeakerWAV),
		recordDir:      recordDir,
		committedText:  make(map[string]*strings.Builder),
		events:         make(chan ingestEvent, ingestEventBuffer),
		done:           make(chan struct{}),
	}
	o.framer = audio.NewFramer(cfg.SampleRate, cfg.VadDurationMs, cfg.PerSpeaker, o.handlePacket)
	metrics.MeetingsActive.Inc()
	return o
}

// SetReferenceTranscript enables the optional load-test WER estimate: every
// commit widens the hypothesis transcript compared against reference via
// pipeline.ComputeWER, exposed on metrics.WEREstimate. Never used in
// production ingest.
func (o *Orchestrator) SetReferenceTranscript(reference string) {
	o.referenceTranscript = reference
}

// Run drains the event channel until Shutdown is called or ctx is
// cancelled. It recovers from any panic inside the loop so one bad meeting
// cannot take the process down; the panic is logged and the meeting's
// recorders and sink are closed. Unlike Shutdown, no processor is flushed.
func (o *Orchestrator) Run(ctx context.Context) {
	defer close(o.done)
	defer metrics.MeetingsActive.Dec()
	defer o.teardown()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("orchestrator panic recovered", "meeting_id", o.meetingID, "panic", r)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			o.flushAll(context.Background())
			return
		case ev, ok := <-o.events:
			if !ok {
				return
			}
			o.handleEvent(ctx, ev)
			if ev.done != nil {
				close(ev.done)
			}
			if ev.kind == eventEndMeeting {
				return
			}
		}
	}
}

func (o *Orchestrator) handleEvent(ctx context.Context, ev ingestEvent) {
	switch ev.kind {
	case eventAudio:
		o.ingestAudio(ev.pcm, ev.codec, ev.sampleRate, ev.speakerID, ev.timestamp)
	case eventParticipantJoin:
		if err := o.sinkOut.Rename(ev.speakerID, ev.name); err != nil {
			slog.Warn("sink rename failed", "meeting_id", o.meetingID, "speaker_id", ev.speakerID, "error", err)
		}
	case eventEndMeeting:
		o.flushAll(ctx)
	}
}

// OnAudio enqueues one platform audio frame, encoded as codec at
// sourceSampleRate. It never blocks the caller beyond the channel's buffer;
// a full channel indicates the meeting's goroutine has fallen behind and is
// a caller-visible backpressure signal (the send blocks, matching the
// platform ingest contract's synchronous callback shape).
func (o *Orchestrator) OnAudio(pcm []byte, codec audio.Codec, sourceSampleRate int, speakerID string, timestamp time.Time) {
	o.events <- ingestEvent{kind: eventAudio, pcm: pcm, codec: codec, sampleRate: sourceSampleRate, speakerID: speakerID, timestamp: timestamp}
}

// OnParticipantJoin forwards a participant-join's speaker-name mapping to
// the Sink. Orthogonal to the core pipeline per the platform ingest
// contract.
func (o *Orchestrator) OnParticipantJoin(speakerID, name string) {
	o.events <- ingestEvent{kind: eventParticipantJoin, speakerID: speakerID, name: name}
}

// Shutdown signals end-of-meeting: every processor is flushed and the
// VadFramer is flushed, then the event loop exits. Once the end-of-meeting
// event is queued it blocks until Run has returned; if ctx is done before
// the event can be queued, it returns at once without waiting.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	select {
	case o.events <- ingestEvent{kind: eventEndMeeting, done: done}:
	case <-ctx.Done():
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
	<-o.done
}

// ingestAudio decodes the platform's encoded frame (PCM or G.711) and, if
// its sample rate differs from the pipeline's configured rate, resamples it
// before handing it to the recorder and the VadFramer.
func (o *Orchestrator) ingestAudio(pcm []byte, codec audio.Codec, sourceSampleRate int, speakerID string, timestamp time.Time) {
	if codec == "" {
		codec = audio.CodecPCM
	}
	if sourceSampleRate <= 0 {
		sourceSampleRate = o.cfg.SampleRate
	}

	samples, actualRate, err := audio.Decode(pcm, codec, sourceSampleRate)
	if err != nil {
		slog.Warn("audio decode failed", "meeting_id", o.meetingID, "speaker_id", speakerID, "codec", codec, "error", err)
		return
	}
	if actualRate != o.cfg.SampleRate {
		samples = audio.Resample(samples, actualRate, o.cfg.SampleRate)
	}

	if o.cfg.RecordAudio && o.recordDir != "" {
		o.writeRecording(speakerID, samples)
	}
	o.framer.Push(audio.EncodePCM16(samples), timestamp, speakerID)
}

func (o *Orchestrator) writeRecording(speakerID string, samples []float32) {
	w, ok := o.recorders[speakerID]
	if !ok {
		path := fmt.Sprintf("%s/%s_%s.wav", o.recordDir, o.meetingID, safeFileComponent(speakerID))
		var err error
		w, err = recorder.NewSpeakerWAV(path, o.cfg.SampleRate)
		if err != nil {
			slog.Warn("speaker wav open failed", "meeting_id", o.meetingID, "speaker_id", speakerID, "error", err)
			return
		}
		o.recorders[speakerID] = w
	}
	if err := w.WriteFloat32(samples); err != nil {
		slog.Warn("speaker wav write failed", "meeting_id", o.meetingID, "speaker_id", speakerID, "error", err)
	}
}

// handlePacket is the VadFramer emission callback: runs the VAD predicate,
// routes the packet to its speaker's processor, and forwards any resulting
// commits to the Sink and live observers.
func (o *Orchestrator) handlePacket(p audio.Packet) {
	metrics.AudioPacketsTotal.Inc()

	predictor, err := o.vadRouter.Route(o.vadEngine)
	if err != nil {
		slog.Error("no vad backend configured", "meeting_id", o.meetingID, "error", err)
		return
	}

	verdict, err := predictor.Predict(p)
	if err != nil {
		metrics.VADErrors.WithLabelValues(o.vadEngine).Inc()
		verdict = vad.Verdict{IsSpeech: false}
	}
	if verdict.IsSpeech {
		metrics.SpeechSegmentsTotal.Inc()
	}

	key := p.SpeakerID
	proc, ok := o.processors[key]
	if !ok {
		proc = speech.New(key, speech.Params{
			StrideSec:          o.cfg.StrideSec,
			SilenceTimeoutSec:  o.cfg.SilenceTimeoutSec,
			PreSpeechBufferSec: o.cfg.PreSpeechBufferSec,
		}, o.rec, o.shared)
		o.processors[key] = proc
	}

	audioF32 := audio.ToFloat32(p.Samples)
	timestampSec := float64(p.Timestamp.UnixNano()) / 1e9

	commits := proc.OnVAD(context.Background(), verdict.IsSpeech, audioF32, timestampSec)
	o.forwardCommits(p.SpeakerID, p.Timestamp, commits)
}

func (o *Orchestrator) forwardCommits(speakerID string, timestamp time.Time, words []hypothesis.Word) {
	for _, w := range words {
		if err := o.sinkOut.Add(w.Text, speakerID, timestamp, w.Start, w.End); err != nil {
			slog.Warn("sink add failed", "meeting_id", o.meetingID, "speaker_id", speakerID, "error", err)
		}
		if o.onCommit != nil {
			o.onCommit(Commit{SpeakerID: speakerID, Text: w.Text, StartSec: w.Start, EndSec: w.End, Timestamp: timestamp})
		}
		o.updateWER(speakerID, w.Text)
	}
}

func (o *Orchestrator) updateWER(speakerID, text string) {
	if o.referenceTranscript == "" {
		return
	}
	b, ok := o.committedText[speakerID]
	if !ok {
		b = &strings.Builder{}
		o.committedText[speakerID] = b
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(text)

	var all strings.Builder
	for _, b := range o.committedText {
		all.WriteString(b.String())
		all.WriteByte(' ')
	}
	metrics.WEREstimate.Set(pipeline.ComputeWER(o.referenceTranscript, all.String()))
}

func (o *Orchestrator) flushAll(ctx context.Context) {
	for speakerID, proc := range o.processors {
		commits := proc.Flush(ctx)
		o.forwardCommits(speakerID, time.Now(), commits)
	}
	o.framer.Flush()
}

func (o *Orchestrator) teardown() {
	for _, w := range o.recorders {
		if err := w.Close(); err != nil {
			slog.Warn("speaker wav close failed", "meeting_id", o.meetingID, "error", err)
		}
	}
	if err := o.sinkOut.Close(); err != nil {
		slog.Warn("sink close failed", "meeting_id", o.meetingID, "error", err)
	}
}

func safeFileComponent(s string) string {
	if s == "" {
		return "mixed"
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
