package claims

import (
	"sync"

	"github.com/sealrush/sealrush-go/internal/reward"
)

// Pool is the payout pool boundary. The real pool is an external
// collaborator (a funded contract or treasury account); the engine only
// reads the balance and asks for transfers.
type Pool interface {
	Balance() reward.Amount
	// Transfer pays out and reports success. A false return means the pool
	// could not cover the amount; no partial transfer happens.
	Transfer(to string, amount reward.Amount) bool
}

// MemoryPool is an in-process pool used by the dev server and tests. The
// check-and-debit is atomic under one lock, so back-to-back claims cannot
// overdraft it.
type MemoryPool struct {
	mu      sync.Mutex
	balance reward.Amount
	paid    map[string]reward.Amount
}

// NewMemoryPool creates a pool holding the given balance.
func NewMemoryPool(balance reward.Amount) *MemoryPool {
	return &MemoryPool{balance: balance, paid: make(map[string]reward.Amount)}
}

// Balance returns the remaining pool balance.
func (p *MemoryPool) Balance() reward.Amount {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance
}

// Transfer debits the pool if it can cover the amount.
func (p *MemoryPool) Transfer(to string, amount reward.Amount) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if amount < 0 || p.balance < amount {
		return false
	}
	p.balance -= amount
	p.paid[to] += amount
	return true
}

// Fund credits the pool.
func (p *MemoryPool) Fund(amount reward.Amount) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balance += amount
}

// PaidTo reports the total transferred to a recipient.
func (p *MemoryPool) PaidTo(to string) reward.Amount {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paid[to]
}
