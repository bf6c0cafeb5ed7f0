package core

// guard.go serializes workflows.
//
// Only one multi-step workflow (columns, generate, collections, sync) may run
// at a time. A second request is rejected immediately with ErrBusy rather
// than queued, so the caller can report the conflict and retry later.
//
// The guard also supports graceful shutdown via WaitIdle, which blocks until
// the running workflow completes.

import (
	"context"
	"sync"
	"time"
)

// Guard is a capacity-one semaphore with an observable holder.
type Guard struct {
	semaphore chan struct{}

	mu        sync.RWMutex
	operation string
	since     time.Time
}

// NewGuard creates an idle guard.
func NewGuard() *Guard {
	return &Guard{semaphore: make(chan struct{}, 1)}
}

// TryAcquire takes the guard for operation without blocking.
// Returns false if another workflow holds it.
// The caller MUST call Release when the workflow ends (use defer).
func (g *Guard) TryAcquire(operation string) bool {
	select {
	case g.semaphore <- struct{}{}:
		g.mu.Lock()
		g.operation = operation
		g.since = time.Now()
		g.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release frees the guard.
// Must be called exactly once for each successful TryAcquire.
func (g *Guard) Release() {
	g.mu.Lock()
	g.operation = ""
	g.since = time.Time{}
	g.mu.Unlock()

	<-g.semaphore
}

// Busy reports whether a workflow is running.
func (g *Guard) Busy() bool {
	return len(g.semaphore) > 0
}

// WaitIdle blocks until no workflow is running or ctx is cancelled.
func (g *Guard) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !g.Busy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GuardStatus is a snapshot of the guard.
type GuardStatus struct {
	Busy      bool      `json:"busy"`
	Operation string    `json:"operation,omitempty"`
	Since     time.Time `json:"since,omitzero"`
}

// Status returns the current guard state for monitoring.
func (g *Guard) Status() GuardStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return GuardStatus{
		Busy:      g.Busy(),
		Operation: g.operation,
		Since:     g.since,
	}
}
