package session

import (
	"context"
	"sync"

	"scribe/internal/observability"
)

// Registry holds at most one live session. Activation reuses the live one
// and Dispose releases it so the next activation starts fresh.
type Registry struct {
	pipeline Pipeline
	log      *observability.Logger

	mu     sync.Mutex
	active *Session
}

func NewRegistry(p Pipeline) *Registry {
	return &Registry{
		pipeline: p,
		log:      observability.Component("session.registry"),
	}
}

// Activate returns the live session, creating one if none is live. reused
// tells the caller whether an existing surface was re-focused.
func (r *Registry) Activate(ctx context.Context) (s *Session, reused bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil && !r.active.Disposed() {
		r.log.Debug(ctx, "reusing live session")
		return r.active, true
	}
	r.active = newSession(r.pipeline)
	r.log.Info(ctx, "session created")
	return r.active, false
}

// Active returns the live session, or nil when none is live.
func (r *Registry) Active() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil || r.active.Disposed() {
		return nil
	}
	return r.active
}

// Dispose releases the live session, if any. An in-flight request on the
// released session keeps running but its events are dropped.
func (r *Registry) Dispose(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return
	}
	r.active.Dispose()
	r.active = nil
	r.log.Info(ctx, "session disposed")
}
