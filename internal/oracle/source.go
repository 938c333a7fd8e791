package oracle

import (
	"crypto/sha256"
	"sync"

	"github.com/google/uuid"

	"github.com/sealrush/sealrush-go/internal/engine"
)

// RandomnessSource issues verifiable-randomness requests. The randomness
// scheme itself is external; from this side a request is just an opaque id
// that will eventually correlate with a delivered value.
type RandomnessSource interface {
	RequestRandomness() (requestID string, err error)
}

// RevealSource issues conditional-decryption requests. The condition and
// ciphertext are opaque to this layer.
type RevealSource interface {
	RequestReveal(condition string, ciphertext []byte) (requestID string, err error)
}

// StubSource is an in-process oracle used by the dev server and the tests.
// Request ids are uuids; payloads are derived by hashing the request id so
// that a test run is reproducible from the ids it observed. Fulfillment is
// manual: callers decide when (and how many times) a delivery happens.
type StubSource struct {
	mu      sync.Mutex
	pending []string
}

// NewStubSource creates an empty stub oracle.
func NewStubSource() *StubSource {
	return &StubSource{}
}

// RequestRandomness records a pending randomness request.
func (s *StubSource) RequestRandomness() (string, error) {
	return s.issue(), nil
}

// RequestReveal records a pending reveal request.
func (s *StubSource) RequestReveal(condition string, ciphertext []byte) (string, error) {
	return s.issue(), nil
}

func (s *StubSource) issue() string {
	id := uuid.New().String()
	s.mu.Lock()
	s.pending = append(s.pending, id)
	s.mu.Unlock()
	return id
}

// Pending returns the ids issued so far, oldest first.
func (s *StubSource) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.pending))
	copy(out, s.pending)
	return out
}

// PayloadFor derives the deterministic payload the stub delivers for an id.
func (s *StubSource) PayloadFor(requestID string) engine.Seed {
	return engine.Seed(sha256.Sum256([]byte(requestID)))
}

// FulfillAll replays every pending request into the dispatcher synchronously
// and clears the queue.
func (s *StubSource) FulfillAll(d *Dispatcher) {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, id := range pending {
		d.DeliverSync(id, s.PayloadFor(id))
	}
}
