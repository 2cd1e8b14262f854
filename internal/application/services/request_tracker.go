package services

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is the cancellation cause of a request replaced by a newer one
var ErrSuperseded = errors.New("request superseded")

// RequestTracker lets a newer request for a key supersede the in-flight one.
// Each Begin cancels the previous context for the key with ErrSuperseded and
// hands out a larger generation.
type RequestTracker struct {
	mu       sync.Mutex
	next     uint64
	inflight map[string]trackedRequest
}

type trackedRequest struct {
	generation uint64
	cancel     context.CancelCauseFunc
}

// NewRequestTracker creates an empty tracker
func NewRequestTracker() *RequestTracker {
	return &RequestTracker{inflight: make(map[string]trackedRequest)}
}

// Begin registers a new request for key. The returned done func must be
// called when the request finishes.
func (t *RequestTracker) Begin(ctx context.Context, key string) (context.Context, uint64, func()) {
	reqCtx, cancel := context.WithCancelCause(ctx)

	t.mu.Lock()
	if prev, ok := t.inflight[key]; ok {
		prev.cancel(ErrSuperseded)
	}
	t.next++
	generation := t.next
	t.inflight[key] = trackedRequest{generation: generation, cancel: cancel}
	t.mu.Unlock()

	done := func() {
		t.mu.Lock()
		if cur, ok := t.inflight[key]; ok && cur.generation == generation {
			delete(t.inflight, key)
		}
		t.mu.Unlock()
		cancel(context.Canceled)
	}
	return reqCtx, generation, done
}

// Latest returns the generation of the running request for key, or 0
func (t *RequestTracker) Latest(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inflight[key].generation
}

// InFlight returns the number of keys with a running request
func (t *RequestTracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

// IsSuperseded reports whether ctx was cancelled because a newer request began
func IsSuperseded(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrSuperseded)
}
