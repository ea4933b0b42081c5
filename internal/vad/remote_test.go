package vad

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/voicecore/meetingpipe/internal/audio"
)

func TestRemote_Predict_DecodesVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req remoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.SampleRate != 16000 {
			t.Fatalf("expected sample rate 16000, got %d", req.SampleRate)
		}
		json.NewEncoder(w).Encode(remoteResponse{IsSpeech: true, Confidence: 0.9})
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, srv.Client())
	verdict, err := r.Predict(audio.Packet{
		Samples:    []int16{1, 2, 3},
		Timestamp:  time.Now(),
		SampleRate: 16000,
	})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !verdict.IsSpeech || verdict.Confidence != 0.9 {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestRemote_Predict_TransportErrorReturnsErrorAndSilence(t *testing.T) {
	r := NewRemote("http://127.0.0.1:0", &http.Client{Timeout: 50 * time.Millisecond})
	verdict, err := r.Predict(audio.Packet{Samples: []int16{1}, SampleRate: 16000})
	if err == nil {
		t.Fatal("expected error")
	}
	if verdict.IsSpeech {
		t.Fatal("expected silence verdict on failure")
	}
}

func TestRemote_Predict_NonOKStatusReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, srv.Client())
	_, err := r.Predict(audio.Packet{Samples: []int16{1}, SampleRate: 16000})
	if err == nil {
		t.Fatal("expected error for non-OK status")
	}
}
