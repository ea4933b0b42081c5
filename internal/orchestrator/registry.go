package orchestrator

import (
	"context"
	"fmt"
	"sync"
)

// Registry owns every currently active meeting's Orchestrator, keyed by
// meeting id, guarded by a single mutex — this module's repurposing of its
// own ancestry's name-keyed service registry, here holding live pipeline
// instances instead of external service metadata.
type Registry struct {
	mu       sync.Mutex
	meetings map[string]*Orchestrator
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{meetings: make(map[string]*Orchestrator)}
}

// Start registers o under meetingID and launches its event loop on a new
// goroutine bound to ctx.
func (r *Registry) Start(ctx context.Context, meetingID string, o *Orchestrator) {
	r.mu.Lock()
	r.meetings[meetingID] = o
	r.mu.Unlock()

	go o.Run(ctx)
}

// Lookup returns the Orchestrator for meetingID, if active.
func (r *Registry) Lookup(meetingID string) (*Orchestrator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.meetings[meetingID]
	return o, ok
}

// Names returns every currently active meeting id.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.meetings))
	for k := range r.meetings {
		names = append(names, k)
	}
	return names
}

// End shuts down and deregisters one meeting.
func (r *Registry) End(ctx context.Context, meetingID string) error {
	r.mu.Lock()
	o, ok := r.meetings[meetingID]
	delete(r.meetings, meetingID)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("orchestrator registry: no active meeting %q", meetingID)
	}
	o.Shutdown(ctx)
	return nil
}

// EndAll shuts down every active meeting, used at process shutdown.
func (r *Registry) EndAll(ctx context.Context) {
	r.mu.Lock()
	all := make([]*Orchestrator, 0, len(r.meetings))
	for _, o := range r.meetings {
		all = append(all, o)
	}
	r.meetings = make(map[string]*Orchestrator)
	r.mu.Unlock()

	for _, o := range all {
		o.Shutdown(ctx)
	}
}
