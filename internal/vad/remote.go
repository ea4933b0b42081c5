package vad

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/voicecore/meetingpipe/internal/audio"
	"github.com/voicecore/meetingpipe/internal/metrics"
)

type remoteRequest struct {
	AudioBase64 string `json:"audio_base64"`
	SampleRate  int    `json:"sample_rate"`
}

type remoteResponse struct {
	IsSpeech   bool    `json:"is_speech"`
	Confidence float32 `json:"confidence"`
}

// Remote is an HTTP voice-activity predicate, sharing the pooled-client
// idiom used by the recognizer boundary adapter.
type Remote struct {
	url  string
	http *http.Client
}

// NewRemote builds a Remote predictor posting to url using httpClient.
func NewRemote(url string, httpClient *http.Client) *Remote {
	return &Remote{url: url, http: httpClient}
}

// Predict posts the packet to the remote VAD endpoint. On any failure it
// returns a silence verdict and a non-nil error; per the error-handling
// design, callers must treat a predict failure as silence rather than
// propagate it.
func (r *Remote) Predict(p audio.Packet) (Verdict, error) {
	body, err := encodeRequest(p)
	if err != nil {
		metrics.VADErrors.WithLabelValues("remote").Inc()
		return Verdict{}, fmt.Errorf("vad remote encode: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		metrics.VADErrors.WithLabelValues("remote").Inc()
		return Verdict{}, fmt.Errorf("vad remote request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		metrics.VADErrors.WithLabelValues("remote").Inc()
		return Verdict{}, fmt.Errorf("vad remote call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.VADErrors.WithLabelValues("remote").Inc()
		return Verdict{}, fmt.Errorf("vad remote status %d", resp.StatusCode)
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.VADErrors.WithLabelValues("remote").Inc()
		return Verdict{}, fmt.Errorf("vad remote decode: %w", err)
	}

	return Verdict{IsSpeech: out.IsSpeech, Confidence: out.Confidence}, nil
}

func encodeRequest(p audio.Packet) ([]byte, error) {
	buf := make([]byte, len(p.Samples)*2)
	for i, s := range p.Samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return json.Marshal(remoteRequest{
		AudioBase64: base64.StdEncoding.EncodeToString(buf),
		SampleRate:  p.SampleRate,
	})
}
