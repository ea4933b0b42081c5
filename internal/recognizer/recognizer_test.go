package recognizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, &http.Client{Timeout: time.Second})
}

func TestRecognize_DecodesSegments(t *testing.T) {
	var gotReq request
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(Response{
			Segments: []Segment{{
				Words:        []Word{{Start: 0, End: 0.5, Text: "hello"}},
				NoSpeechProb: 0.1,
			}},
		})
	})

	resp := c.Recognize(context.Background(), []float32{0.1, 0.2}, 16000, "prior prompt", []string{"sent one."}, "alice")

	if len(resp.Segments) != 1 || resp.Segments[0].Words[0].Text != "hello" {
		t.Fatalf("expected decoded segment, got %+v", resp)
	}
	if gotReq.Prompt != "prior prompt" || gotReq.SpeakerID == nil || *gotReq.SpeakerID != "alice" {
		t.Fatalf("request not encoded as expected: %+v", gotReq)
	}
}

func TestRecognize_TransportErrorYieldsEmptyResponse(t *testing.T) {
	c := New("http://127.0.0.1:0", &http.Client{Timeout: 50 * time.Millisecond})
	resp := c.Recognize(context.Background(), []float32{0.1}, 16000, "", nil, "")
	if len(resp.Segments) != 0 {
		t.Fatalf("expected empty response on transport failure, got %+v", resp)
	}
}

func TestRecognize_NonOKStatusYieldsEmptyResponse(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	resp := c.Recognize(context.Background(), []float32{0.1}, 16000, "", nil, "")
	if len(resp.Segments) != 0 {
		t.Fatalf("expected empty response on 500, got %+v", resp)
	}
}

func TestRecognize_MalformedJSONYieldsEmptyResponse(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})
	resp := c.Recognize(context.Background(), []float32{0.1}, 16000, "", nil, "")
	if len(resp.Segments) != 0 {
		t.Fatalf("expected empty response on malformed json, got %+v", resp)
	}
}

func TestRecognize_SanitizesNegativeTimes(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"segments":[{"words":[{"start":-1,"end":-0.5,"text":"x"}],"no_speech_prob":0}]}`))
	})
	resp := c.Recognize(context.Background(), []float32{0.1}, 16000, "", nil, "")
	if len(resp.Segments) != 1 {
		t.Fatalf("expected one segment, got %+v", resp)
	}
	w := resp.Segments[0].Words[0]
	if w.Start != 0 || w.End != 0 {
		t.Fatalf("expected negative times sanitized to zero, got %+v", w)
	}
}

func TestRecognize_MixedModeOmitsSpeakerID(t *testing.T) {
	var gotReq request
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(Response{})
	})
	c.Recognize(context.Background(), []float32{0.1}, 16000, "", nil, "")
	if gotReq.SpeakerID != nil {
		t.Fatalf("expected nil speaker_id in mixed mode, got %v", *gotReq.SpeakerID)
	}
}
