// Package oracle models the boundary with the external randomness and
// conditional-decryption providers. Deliveries arrive asynchronously, in any
// order, at least once; the correlator is the bookkeeping that maps an opaque
// request id back to the operation that issued it, and the dispatcher is the
// single entry point through which every callback flows.
package oracle

import (
	"sync"
	"time"
)

// Purpose tags what a pending oracle request was issued for.
type Purpose string

const (
	PurposeSessionSeed  Purpose = "session_seed"
	PurposeLevelChange  Purpose = "level_change"
	PurposeNextGame     Purpose = "next_game"
	PurposeSealedReveal Purpose = "sealed_reveal"
)

// Request is one outstanding oracle request.
type Request struct {
	ID        string
	Purpose   Purpose
	Player    string
	SubjectID uint64
	CreatedAt time.Time
}

// Correlator tracks outstanding requests by their external id. Lookups for
// unknown ids simply miss; a stale or duplicate callback is absorbed by the
// caller as a no-op, never an error.
type Correlator struct {
	mu       sync.Mutex
	requests map[string]Request
}

// NewCorrelator creates an empty correlator.
func NewCorrelator() *Correlator {
	return &Correlator{requests: make(map[string]Request)}
}

// Register records a newly issued request.
func (c *Correlator) Register(req Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	c.requests[req.ID] = req
}

// Resolve removes and returns the request for an incoming delivery. The
// second delivery of the same id misses, which is what makes re-delivery
// safe end to end.
func (c *Correlator) Resolve(id string) (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.requests[id]
	if ok {
		delete(c.requests, id)
	}
	return req, ok
}

// Peek returns the request without consuming it.
func (c *Correlator) Peek(id string) (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.requests[id]
	return req, ok
}

// DropSubject discards all pending requests for a subject, e.g. when a
// session ends with randomness still in flight. Late fulfillments then miss
// the lookup and dissolve into no-ops.
func (c *Correlator) DropSubject(purpose Purpose, subjectID uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for id, req := range c.requests {
		if req.Purpose == purpose && req.SubjectID == subjectID {
			delete(c.requests, id)
			dropped++
		}
	}
	return dropped
}

// PendingCount reports the number of outstanding requests.
func (c *Correlator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}
