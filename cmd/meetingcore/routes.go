package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/voicecore/meetingpipe/internal/config"
	"github.com/voicecore/meetingpipe/internal/orchestrator"
	"github.com/voicecore/meetingpipe/internal/pipeline"
	"github.com/voicecore/meetingpipe/internal/sink"
	"github.com/voicecore/meetingpipe/internal/speech"
	"github.com/voicecore/meetingpipe/internal/trace"
	"github.com/voicecore/meetingpipe/internal/vad"
	"github.com/voicecore/meetingpipe/internal/ws"
)

// deps bundles everything registerRoutes needs to build and manage
// per-meeting pipelines.
type deps struct {
	cfg           config.Tuning
	recognizerRtr *pipeline.Router[speech.Recognizer]
	vadRouter     *pipeline.Router[vad.Predictor]
	ledger        *trace.Ledger
	hub           *ws.Hub
	registry      *orchestrator.Registry
	wsHandler     http.Handler
	transcriptDir string
	recordDir     string
	openaiAPIKey  string
	openaiModel   string
}

// registerRoutes wires every HTTP endpoint to the shared mux.
func registerRoutes(mux *http.ServeMux, d deps) {
	mux.Handle("/ws/meeting/", d.wsHandler)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("POST /api/meetings/{id}/start", d.handleStart)
	mux.HandleFunc("POST /api/meetings/{id}/end", d.handleEnd)
	mux.HandleFunc("POST /api/meetings/{id}/participants/{speakerId}", d.handleParticipantJoin)
	mux.HandleFunc("GET /api/meetings", d.handleListMeetings)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleStart creates and launches a new meeting pipeline. Audio ingest
// itself arrives over the platform-specific boundary adapter (out of
// scope here); this endpoint only registers the meeting so ingest has
// somewhere to deliver packets.
func (d deps) handleStart(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if _, ok := d.registry.Lookup(meetingID); ok {
		http.Error(w, "meeting already active", http.StatusConflict)
		return
	}

	var req struct {
		ReferenceTranscript string `json:"reference_transcript,omitempty"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	engine, err := d.recognizerRtr.Route("default")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	meetingSink := d.buildSink(meetingID)
	o := orchestrator.New(meetingID, d.cfg, engine, d.vadRouter, d.cfg.VADBackend, meetingSink, func(c orchestrator.Commit) {
		d.hub.Broadcast(meetingID, ws.CommitFrame(c.SpeakerID, c.Text, c.StartSec, c.EndSec, c.Timestamp))
	}, d.recordDir)
	if req.ReferenceTranscript != "" {
		o.SetReferenceTranscript(req.ReferenceTranscript)
	}

	d.registry.Start(context.Background(), meetingID, o)
	slog.Info("meeting started", "meeting_id", meetingID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "started", "meeting_id": meetingID})
}

// handleEnd gracefully shuts down an active meeting's pipeline, flushing
// any pending hypothesis and closing its sinks.
func (d deps) handleEnd(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if err := d.registry.End(r.Context(), meetingID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	slog.Info("meeting ended", "meeting_id", meetingID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ended", "meeting_id": meetingID})
}

// handleParticipantJoin renames a speaker slot once a platform roster
// event resolves a display name, fanning the rename to the sink and to
// every connected transcript observer.
func (d deps) handleParticipantJoin(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	speakerID := r.PathValue("speakerId")
	o, ok := d.registry.Lookup(meetingID)
	if !ok {
		http.Error(w, "meeting not active", http.StatusNotFound)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}

	o.OnParticipantJoin(speakerID, req.Name)
	d.hub.Broadcast(meetingID, ws.RenameFrame(speakerID, req.Name))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (d deps) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"meetings": d.registry.Names()})
}

func (d deps) buildSink(meetingID string) sink.Sink {
	sinks := []sink.Sink{}

	if plain, err := sink.NewPlainTextSink(d.transcriptDir + "/" + meetingID + ".txt"); err != nil {
		slog.Warn("plain text sink open failed", "meeting_id", meetingID, "error", err)
	} else {
		sinks = append(sinks, plain)
	}

	if jsonl, err := sink.NewJSONLSink(d.transcriptDir + "/" + meetingID + ".jsonl"); err != nil {
		slog.Warn("jsonl sink open failed", "meeting_id", meetingID, "error", err)
	} else {
		sinks = append(sinks, jsonl)
	}

	if d.ledger != nil {
		d.ledger.StartMeeting(meetingID)
		sinks = append(sinks, sink.NewPostgresSink(meetingID, d.ledger))
	}

	var out sink.Sink = sink.NewMultiSink(sinks...)
	if d.openaiAPIKey != "" {
		out = sink.NewSummarizingSink(out, d.openaiAPIKey, d.openaiModel, sink.DefaultSummaryCadence)
	}
	return out
}
