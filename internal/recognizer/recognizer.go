// Package recognizer is the boundary adapter to the remote speech
// recognizer: it owns the wire shapes of §6's HTTP contract and never
// retries indefinitely — a failed call surfaces as an empty Response so the
// caller's stride simply re-fires on the next window.
package recognizer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/voicecore/meetingpipe/internal/metrics"
)

// Word is one recognized token, already relative to the audio window's own
// start (the caller adds its absolute offset).
type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Segment is one recognizer segment together with its no-speech confidence.
type Segment struct {
	Words         []Word  `json:"words"`
	Text          string  `json:"text"`
	NoSpeechProb  float32 `json:"no_speech_prob"`
}

// Response is the full decoded recognizer reply.
type Response struct {
	Segments []Segment `json:"segments"`
}

type request struct {
	AudioBase64 string   `json:"audio_base64"`
	SampleRate  int      `json:"sample_rate"`
	Prompt      string   `json:"prompt"`
	SentHistory []string `json:"recog_sent_history"`
	SpeakerID   *string  `json:"speaker_id"`
}

// nonNilStrings swaps a nil slice for an empty one so SentHistory marshals
// as the wire contract's `[string]`, never JSON null.
func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Client talks to one remote recognizer endpoint over pooled HTTP.
type Client struct {
	url  string
	http *http.Client
}

// New builds a Client. httpClient is expected to be pooled (see
// internal/httpclient) and carry the per-request timeout described in §5.
func New(url string, httpClient *http.Client) *Client {
	return &Client{url: url, http: httpClient}
}

// Recognize sends one audio window to the remote recognizer. audio is
// float32 PCM at sampleRate. speakerID is empty in mixed mode. On any
// transport, status, or decode failure this returns an empty Response (there
// is no error return) — per §7 the caller treats failure as "nothing
// recognized this stride", never as a hard error that stalls the pipeline.
func (c *Client) Recognize(ctx context.Context, audio []float32, sampleRate int, prompt string, sentHistory []string, speakerID string) Response {
	start := time.Now()

	body, err := encodeRequest(audio, sampleRate, prompt, sentHistory, speakerID)
	if err != nil {
		c.logOnce("encode")
		metrics.RecognizerErrors.WithLabelValues("encode").Inc()
		return Response{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		c.logOnce("request")
		metrics.RecognizerErrors.WithLabelValues("request").Inc()
		return Response{}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	metrics.RecognizerDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.logOnce("transport")
		metrics.RecognizerErrors.WithLabelValues("transport").Inc()
		return Response{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logOnce("status")
		metrics.RecognizerErrors.WithLabelValues("status").Inc()
		return Response{}
	}

	var out Response
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logOnce("decode")
		metrics.RecognizerErrors.WithLabelValues("decode").Inc()
		return Response{}
	}
	return sanitize(out)
}

// logOnce logs a malformed/failed recognizer call at most once per process
// per recognizer URL and error kind. The record is package-level and never
// reset, so a later meeting that hits the same URL and kind logs nothing. A
// mutex-guarded map is used instead of sync.Once because the kind varies per
// call and sync.Once only ever fires its function once total.
var loggedKinds = struct {
	mu   sync.Mutex
	seen map[string]bool
}{seen: map[string]bool{}}

func (c *Client) logOnce(kind string) {
	loggedKinds.mu.Lock()
	defer loggedKinds.mu.Unlock()
	key := c.url + "|" + kind
	if loggedKinds.seen[key] {
		return
	}
	loggedKinds.seen[key] = true
	slog.Warn("recognizer call failed", "kind", kind, "url", c.url)
}

func encodeRequest(audio []float32, sampleRate int, prompt string, sentHistory []string, speakerID string) ([]byte, error) {
	raw := make([]byte, len(audio)*4)
	for i, s := range audio {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(s))
	}

	req := request{
		AudioBase64: base64.StdEncoding.EncodeToString(raw),
		SampleRate:  sampleRate,
		Prompt:      prompt,
		SentHistory: nonNilStrings(sentHistory),
	}
	if speakerID != "" {
		req.SpeakerID = &speakerID
	}
	return json.Marshal(req)
}

// sanitize treats NaN/negative recognizer-reported times as zero, matching
// §4.1's "malformed times are treated as zero" failure semantics. The
// hypothesis buffer's own monotonic floor corrects the rest.
func sanitize(r Response) Response {
	for si := range r.Segments {
		for wi, w := range r.Segments[si].Words {
			if invalidTime(w.Start) {
				w.Start = 0
			}
			if invalidTime(w.End) {
				w.End = 0
			}
			r.Segments[si].Words[wi] = w
		}
	}
	return r
}

func invalidTime(t float64) bool {
	return math.IsNaN(t) || t < 0
}
