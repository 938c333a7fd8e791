package oracle

import (
	"context"
	"log"
	"sync"

	"github.com/sealrush/sealrush-go/internal/engine"
)

// Fulfillment is one delivery from an external oracle. Randomness requests
// carry a random value; reveal requests carry the released decryption key.
// Both are fixed-width 32-byte payloads.
type Fulfillment struct {
	RequestID string
	Payload   engine.Seed
}

// Handler consumes a resolved delivery. Handlers must be idempotent: the
// oracle layer retries, so the same logical delivery may run twice when it
// arrives under distinct request registrations.
type Handler func(req Request, payload engine.Seed)

// Dispatcher funnels every oracle callback through one serialized path:
// correlate the request id, drop unknowns, and hand the payload to the
// handler registered for the request's purpose.
type Dispatcher struct {
	correlator *Correlator
	logger     *log.Logger

	mu       sync.Mutex
	handlers map[Purpose]Handler

	deliveries chan Fulfillment
}

// NewDispatcher creates a dispatcher over the given correlator.
func NewDispatcher(correlator *Correlator, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		correlator: correlator,
		logger:     logger,
		handlers:   make(map[Purpose]Handler),
		deliveries: make(chan Fulfillment, 64),
	}
}

// Handle registers the handler for a purpose. Later registrations replace
// earlier ones; wiring happens once at boot.
func (d *Dispatcher) Handle(purpose Purpose, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[purpose] = h
}

// Deliver enqueues a fulfillment for asynchronous processing.
func (d *Dispatcher) Deliver(requestID string, payload engine.Seed) {
	d.deliveries <- Fulfillment{RequestID: requestID, Payload: payload}
}

// DeliverSync processes a fulfillment on the caller's goroutine. Webhook
// handlers and tests use this so the effect is visible when the call
// returns.
func (d *Dispatcher) DeliverSync(requestID string, payload engine.Seed) {
	d.process(Fulfillment{RequestID: requestID, Payload: payload})
}

// Run consumes queued deliveries until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-d.deliveries:
			d.process(f)
		}
	}
}

func (d *Dispatcher) process(f Fulfillment) {
	req, ok := d.correlator.Resolve(f.RequestID)
	if !ok {
		// Unknown, stale, or already-resolved id: absorb silently.
		if d.logger != nil {
			d.logger.Printf("oracle_delivery_dropped request_id=%s reason=unknown_or_resolved", f.RequestID)
		}
		return
	}

	d.mu.Lock()
	h := d.handlers[req.Purpose]
	d.mu.Unlock()

	if h == nil {
		if d.logger != nil {
			d.logger.Printf("oracle_delivery_dropped request_id=%s purpose=%s reason=no_handler", f.RequestID, req.Purpose)
		}
		return
	}
	h(req, f.Payload)
}
