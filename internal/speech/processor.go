// Package speech implements the per-speaker online ASR driver: a
// speech/silence state machine over a rolling audio window that fires
// stride-triggered recognition windows against a remote recognizer and
// turns its overlapping output into committed words via the hypothesis
// buffer.
package speech

import (
	"context"

	"github.com/voicecore/meetingpipe/internal/hypothesis"
	"github.com/voicecore/meetingpipe/internal/metrics"
	"github.com/voicecore/meetingpipe/internal/recognizer"
	"github.com/voicecore/meetingpipe/internal/sharedcontext"
)

// SampleRate is the fixed sample rate the core operates at; ingest-side
// resampling (internal/audio.Resample) happens upstream of this package.
const SampleRate = 16000

// MaxAudioSec is the recognizer's hard input cap.
const MaxAudioSec = 30.0

// Recognizer is the boundary this package calls against; satisfied by
// *recognizer.Client in production and by a fake in tests.
type Recognizer interface {
	Recognize(ctx context.Context, audio []float32, sampleRate int, prompt string, sentHistory []string, speakerID string) recognizer.Response
}

// Params tunes one Processor instance. Stride, SilenceTimeout, and
// PreSpeechBuffer are all expressed in seconds.
type Params struct {
	StrideSec          float64
	SilenceTimeoutSec  float64
	PreSpeechBufferSec float64
}

// DefaultParams mirrors the values given as examples throughout the spec.
func DefaultParams() Params {
	return Params{StrideSec: 5.0, SilenceTimeoutSec: 1.0, PreSpeechBufferSec: 1.0}
}

// state is the explicit IDLE/SPEAKING state machine driving on_vad.
type state int

const (
	stateIdle state = iota
	stateSpeaking
)

// Processor is one speaker's (or, in mixed mode, the whole meeting's)
// online ASR state: SAMPLE_RATE=16000, MAX_AUDIO_SEC=30.0 per §4.4.
type Processor struct {
	speakerID string
	params    Params
	rec       Recognizer
	shared    *sharedcontext.Context

	trimThresholdSec float64

	st              state
	audio           []float32
	bufferTimeOffset float64
	hyp             *hypothesis.Buffer
	committed       []hypothesis.Word
	inFlight        bool

	lastSpeechTime float64
	haveSpeechTime bool
	lastASRTime    float64
	haveASRTime    bool

	preRoll       [][]float32
	preRollTotal  int
}

// New builds a Processor for one speaker. speakerID is "" in mixed mode.
func New(speakerID string, params Params, rec Recognizer, shared *sharedcontext.Context) *Processor {
	return &Processor{
		speakerID:        speakerID,
		params:           params,
		rec:              rec,
		shared:           shared,
		trimThresholdSec: MaxAudioSec - params.StrideSec,
		st:               stateIdle,
	}
}

// InFlight reports whether a recognizer call is currently outstanding for
// this speaker. processASR skips (does not queue) a stride that fires
// while this is true — see §5's "busy" requirement.
func (p *Processor) InFlight() bool { return p.inFlight }

// OnVAD runs one VAD packet through the state machine and returns any
// words newly committed by this call. audioF32 is the packet already
// converted from i16 to [-1, 1] float32; timestampSec is absolute.
func (p *Processor) OnVAD(ctx context.Context, isSpeech bool, audioF32 []float32, timestampSec float64) []hypothesis.Word {
	if isSpeech {
		return p.onSpeechPacket(ctx, audioF32, timestampSec)
	}
	return p.onSilencePacket(ctx, audioF32, timestampSec)
}

func (p *Processor) onSpeechPacket(ctx context.Context, audioF32 []float32, timestampSec float64) []hypothesis.Word {
	p.lastSpeechTime = timestampSec
	p.haveSpeechTime = true

	if p.st != stateSpeaking {
		p.onSpeechStart(timestampSec)
	}

	p.audio = append(p.audio, audioF32...)

	if p.haveASRTime && timestampSec-p.lastASRTime >= p.params.StrideSec {
		return p.processASR(ctx, timestampSec, false)
	}
	return nil
}

func (p *Processor) onSilencePacket(ctx context.Context, audioF32 []float32, timestampSec float64) []hypothesis.Word {
	if p.st == stateSpeaking && p.haveSpeechTime && timestampSec-p.lastSpeechTime >= p.params.SilenceTimeoutSec {
		return p.onSpeechEnd(ctx, timestampSec)
	}
	if p.st != stateSpeaking {
		p.pushPreRoll(audioF32)
	}
	return nil
}

// onSpeechStart transitions IDLE->SPEAKING: the pre-roll becomes the
// initial audio window (left margin for onset recognition), a fresh
// hypothesis.Buffer is created so LCP state never leaks across utterances,
// and buffer_time_offset is pinned to the timestamp minus however much
// pre-roll audio was actually available.
func (p *Processor) onSpeechStart(ts float64) {
	p.st = stateSpeaking

	preRollSamples := flattenPreRoll(p.preRoll)
	maxPreRoll := int(p.params.PreSpeechBufferSec * SampleRate)
	if len(preRollSamples) > maxPreRoll {
		preRollSamples = preRollSamples[len(preRollSamples)-maxPreRoll:]
	}

	p.audio = append([]float32(nil), preRollSamples...)
	p.bufferTimeOffset = ts - float64(len(preRollSamples))/SampleRate
	p.preRoll = nil
	p.preRollTotal = 0

	p.hyp = hypothesis.New()
	p.hyp.SetLastCommitedTime(p.bufferTimeOffset)
	p.committed = nil

	p.lastASRTime = ts
	p.haveASRTime = true
}

// onSpeechEnd transitions SPEAKING->IDLE via a final, is_last ASR pass.
func (p *Processor) onSpeechEnd(ctx context.Context, ts float64) []hypothesis.Word {
	commits := p.processASR(ctx, ts, true)
	p.st = stateIdle
	return commits
}

// processASR runs one recognizer window: chunk sizing/capping, the
// recognizer call itself, hypothesis-buffer insert+flush, trimming, and
// (if isLast) acceptance of the uncommitted tail as final.
func (p *Processor) processASR(ctx context.Context, ts float64, isLast bool) []hypothesis.Word {
	chunkDur := float64(len(p.audio)) / SampleRate
	if chunkDur == 0 {
		return nil
	}
	if chunkDur < p.params.StrideSec && !isLast {
		return nil
	}

	// inFlight is vestigial under this synchronous, single-goroutine
	// Recognize call: processASR always clears it before returning, so this
	// branch can never be taken here. It stays as the hook a concurrent
	// orchestrator driver (recognizer calls suspended across an event loop)
	// would need per §5's "busy stride" requirement.
	if p.inFlight {
		metrics.StrideSkippedBusyTotal.Inc()
		return nil
	}
	p.inFlight = true
	defer func() { p.inFlight = false }()

	// A chunk longer than the recognizer's hard cap is trimmed from the
	// front here, unconditionally — this keeps invariant I2 (audio never
	// exceeds 30s post-call) regardless of whether the committed-word-
	// boundary trim below finds anything to cut.
	if chunkDur > MaxAudioSec {
		cut := int((chunkDur - MaxAudioSec) * SampleRate)
		p.audio = p.audio[cut:]
		p.bufferTimeOffset += chunkDur - MaxAudioSec
	}
	audioIn := p.audio
	audioOffset := p.bufferTimeOffset

	prompt := p.shared.BuildPrompt(p.bufferTimeOffset)
	history := p.shared.SentHistory()

	trigger := "stride"
	if isLast {
		trigger = "final"
	}
	metrics.RecognizerCallsTotal.WithLabelValues(trigger).Inc()
	resp := p.rec.Recognize(ctx, audioIn, SampleRate, prompt, history, p.speakerID)
	p.lastASRTime = ts
	p.haveASRTime = true

	words := collectWords(resp)
	p.hyp.Insert(words, audioOffset)
	commit := p.hyp.Flush()

	p.committed = append(p.committed, commit...)
	p.shared.AddCommitted(commit, p.speakerID)
	metrics.WordsCommittedTotal.Add(float64(len(commit)))

	p.trim(chunkDur)

	if isLast {
		tail := p.hyp.Complete()
		p.committed = append(p.committed, tail...)
		p.shared.AddCommitted(tail, p.speakerID)
		commit = append(commit, tail...)
	}

	return commit
}

// trim cuts the rolling audio buffer from the front once it exceeds
// trim_threshold_sec, advancing buffer_time_offset to the end of the
// newest committed word at or before the chunk's midpoint.
func (p *Processor) trim(chunkDur float64) {
	if float64(len(p.audio))/SampleRate <= p.trimThresholdSec {
		return
	}
	target := p.bufferTimeOffset + chunkDur/2

	cutEnd, found := latestCommittedEndAtOrBefore(p.committed, target)
	if !found || cutEnd <= p.bufferTimeOffset {
		return
	}

	cutSamples := int((cutEnd - p.bufferTimeOffset) * SampleRate)
	if cutSamples > len(p.audio) {
		cutSamples = len(p.audio)
	}
	p.audio = p.audio[cutSamples:]
	p.bufferTimeOffset = cutEnd
	p.hyp.PopCommited(cutEnd)
	metrics.BufferTrimsTotal.Inc()
}

// Flush runs a final recognizer pass if the speaker was mid-utterance when
// the processor's lifecycle ends (shutdown / end-of-meeting).
func (p *Processor) Flush(ctx context.Context) []hypothesis.Word {
	if p.st != stateSpeaking || len(p.audio) == 0 {
		return nil
	}
	ts := p.bufferTimeOffset + float64(len(p.audio))/SampleRate
	return p.processASR(ctx, ts, true)
}

func (p *Processor) pushPreRoll(audioF32 []float32) {
	chunk := append([]float32(nil), audioF32...)
	p.preRoll = append(p.preRoll, chunk)
	p.preRollTotal += len(chunk)

	maxSamples := int(p.params.PreSpeechBufferSec * SampleRate)
	for p.preRollTotal > maxSamples && len(p.preRoll) > 0 {
		p.preRollTotal -= len(p.preRoll[0])
		p.preRoll = p.preRoll[1:]
	}
}

func flattenPreRoll(chunks [][]float32) []float32 {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]float32, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// collectWords flattens every kept segment's words, excluding segments
// whose no_speech_prob exceeds 0.9 and words that trim to empty.
func collectWords(resp recognizer.Response) []hypothesis.Word {
	var out []hypothesis.Word
	for _, seg := range resp.Segments {
		if seg.NoSpeechProb > 0.9 {
			continue
		}
		for _, w := range seg.Words {
			text := trimSpace(w.Text)
			if text == "" {
				continue
			}
			out = append(out, hypothesis.Word{Start: w.Start, End: w.End, Text: text})
		}
	}
	return out
}

// latestCommittedEndAtOrBefore scans committed from the end and returns the
// end_sec of the first word whose end is at or before target.
func latestCommittedEndAtOrBefore(committed []hypothesis.Word, target float64) (float64, bool) {
	for i := len(committed) - 1; i >= 0; i-- {
		if committed[i].End <= target {
			return committed[i].End, true
		}
	}
	return 0, false
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpaceByte(s[start]) {
		start++
	}
	for end > start && isSpaceByte(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	default:
		return false
	}
}
