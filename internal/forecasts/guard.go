package forecasts

import (
	"context"
	"sync"
)

// RequestGuard enforces latest-request-wins per key. Beginning a request
// cancels the context of the previous request under the same key, and only
// the latest request may commit its result.
type RequestGuard struct {
	mu     sync.Mutex
	seq    uint64
	active map[string]*guardEntry
}

type guardEntry struct {
	gen    uint64
	cancel context.CancelFunc
}

// Ticket identifies one guarded request.
type Ticket struct {
	guard *RequestGuard
	key   string
	gen   uint64
}

func NewRequestGuard() *RequestGuard {
	return &RequestGuard{active: make(map[string]*guardEntry)}
}

// Begin registers a new request for key, superseding any in-flight one.
// The caller must call Ticket.Done when finished.
func (g *RequestGuard) Begin(parent context.Context, key string) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(parent)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	if prev, ok := g.active[key]; ok {
		prev.cancel()
	}
	g.active[key] = &guardEntry{gen: g.seq, cancel: cancel}
	return ctx, Ticket{guard: g, key: key, gen: g.seq}
}

// IsLatest reports whether no newer request has begun for the same key.
func (t Ticket) IsLatest() bool {
	t.guard.mu.Lock()
	defer t.guard.mu.Unlock()
	e, ok := t.guard.active[t.key]
	return ok && e.gen == t.gen
}

// Commit runs fn only if the ticket is still the latest. fn runs under the
// guard's lock so a newer Begin cannot interleave with it.
func (t Ticket) Commit(fn func()) bool {
	t.guard.mu.Lock()
	defer t.guard.mu.Unlock()
	e, ok := t.guard.active[t.key]
	if !ok || e.gen != t.gen {
		return false
	}
	fn()
	return true
}

// Done releases the request's context. The key is forgotten if no newer
// request replaced it.
func (t Ticket) Done() {
	t.guard.mu.Lock()
	defer t.guard.mu.Unlock()
	if e, ok := t.guard.active[t.key]; ok && e.gen == t.gen {
		e.cancel()
		delete(t.guard.active, t.key)
	}
}

// Len returns the number of keys with an in-flight request.
func (g *RequestGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}
