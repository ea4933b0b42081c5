// Package ws is the live transcript channel: observers connect over a
// websocket to watch one meeting's commits arrive in real time, the way a
// live-captioning dashboard would.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Frame is one JSON message streamed to every connected observer of a
// meeting: either a transcript commit or a participant rename.
type Frame struct {
	Type      string  `json:"type"`
	SpeakerID string  `json:"speaker_id"`
	Text      string  `json:"text,omitempty"`
	Name      string  `json:"name,omitempty"`
	StartSec  float64 `json:"start_sec,omitempty"`
	EndSec    float64 `json:"end_sec,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// Sender delivers frames to one connected observer, serializing concurrent
// writes against the underlying connection the same way this module's
// ancestry's event sender closure guarded a single websocket.Conn.
type Sender func(Frame)

// Hub fans commit/rename frames out to every observer currently connected
// to a given meeting id.
type Hub struct {
	mu        sync.Mutex
	observers map[string]map[*websocket.Conn]Sender
}

// NewHub builds an empty transcript-channel hub.
func NewHub() *Hub {
	return &Hub{observers: make(map[string]map[*websocket.Conn]Sender)}
}

// Handler upgrades `/ws/meeting/{id}` requests and registers the connection
// as an observer of that meeting until it disconnects.
type Handler struct {
	hub *Hub
}

// NewHandler builds a Handler backed by hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// ServeHTTP upgrades the connection and blocks, relaying frames, until the
// client disconnects or the connection errors.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	meetingID := meetingIDFromPath(r.URL.Path)
	if meetingID == "" {
		http.Error(w, "missing meeting id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	send := newFrameSender(conn)
	h.hub.register(meetingID, conn, send)
	defer h.hub.unregister(meetingID, conn)

	// The client never sends meaningful frames on this channel; block on
	// reads purely to detect disconnection (close frame or error).
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast delivers frame to every observer currently connected to
// meetingID. Never blocks the caller on a slow or dead observer beyond one
// write attempt; a write failure just logs and drops that observer on its
// next read-loop error.
func (h *Hub) Broadcast(meetingID string, frame Frame) {
	h.mu.Lock()
	senders := make([]Sender, 0, len(h.observers[meetingID]))
	for _, s := range h.observers[meetingID] {
		senders = append(senders, s)
	}
	h.mu.Unlock()

	for _, send := range senders {
		send(frame)
	}
}

func (h *Hub) register(meetingID string, conn *websocket.Conn, send Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.observers[meetingID] == nil {
		h.observers[meetingID] = make(map[*websocket.Conn]Sender)
	}
	h.observers[meetingID][conn] = send
}

func (h *Hub) unregister(meetingID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.observers[meetingID], conn)
	if len(h.observers[meetingID]) == 0 {
		delete(h.observers, meetingID)
	}
}

func newFrameSender(conn *websocket.Conn) Sender {
	var mu sync.Mutex
	return func(f Frame) {
		mu.Lock()
		defer mu.Unlock()

		jsonBytes, err := json.Marshal(f)
		if err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, jsonBytes); err != nil {
			slog.Error("write frame", "error", err)
		}
	}
}

// CommitFrame builds a "commit" frame from a forwarded transcript commit.
func CommitFrame(speakerID, text string, startSec, endSec float64, timestamp time.Time) Frame {
	return Frame{
		Type:      "commit",
		SpeakerID: speakerID,
		Text:      text,
		StartSec:  startSec,
		EndSec:    endSec,
		Timestamp: timestamp.UnixMilli(),
	}
}

// RenameFrame builds a "rename" frame from a participant-join event.
func RenameFrame(speakerID, name string) Frame {
	return Frame{
		Type:      "rename",
		SpeakerID: speakerID,
		Name:      name,
		Timestamp: time.Now().UnixMilli(),
	}
}

// meetingIDFromPath extracts the trailing path segment of
// "/ws/meeting/{id}".
func meetingIDFromPath(path string) string {
	const prefix = "/ws/meeting/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	return strings.TrimPrefix(path, prefix)
}
