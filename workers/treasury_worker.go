package workers

import (
	"context"
	"log"
	"math/big"
	"sync"
	"time"

	"forgood-mission-system/chain"
)

// TreasuryPoller keeps a cached view of the treasury's FORGOOD balance so
// the /treasury endpoint never blocks on an RPC round trip.
type TreasuryPoller struct {
	Chain *chain.Client

	mu        sync.RWMutex
	balance   *big.Int
	checkedAt time.Time
	lastErr   error
}

func NewTreasuryPoller(c *chain.Client) *TreasuryPoller {
	return &TreasuryPoller{Chain: c}
}

// TreasurySnapshot is the cached balance plus freshness metadata.
type TreasurySnapshot struct {
	Enabled   bool
	Balance   *big.Int
	CheckedAt time.Time
	Err       error
}

// Snapshot returns the most recent poll result without touching the chain.
func (p *TreasuryPoller) Snapshot() TreasurySnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	snap := TreasurySnapshot{
		Enabled:   p.Chain.Enabled(),
		CheckedAt: p.checkedAt,
		Err:       p.lastErr,
	}
	if p.balance != nil {
		snap.Balance = new(big.Int).Set(p.balance)
	}
	return snap
}

func (p *TreasuryPoller) poll(ctx context.Context) {
	callCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	balance, err := p.Chain.TreasuryBalance(callCtx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkedAt = time.Now()
	p.lastErr = err
	if err != nil {
		log.Printf("❌ Treasury balance poll failed: %v", err)
		return
	}
	p.balance = balance
}

// Run polls on a fixed interval until the context is cancelled. It is a
// no-op when on-chain settlement is disabled.
func (p *TreasuryPoller) Run(ctx context.Context, interval time.Duration) {
	if !p.Chain.Enabled() {
		log.Println("Treasury polling skipped — on-chain settlement disabled.")
		return
	}
	log.Println("Starting treasury balance polling...")

	p.poll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("Treasury polling stopped.")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}
