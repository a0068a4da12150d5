package auth

import (
	"sync"

	"github.com/rotorgate/rotorgate/internal/registry"
	log "github.com/sirupsen/logrus"
)

// Pool holds the per-provider rotation state: an ordered account list and a
// cursor. Selection is strictly round-robin in list order; the cursor only
// advances on rate-limit. An empty provider list is a defined outcome, not
// an error — callers turn it into a 503.
type Pool struct {
	mu     sync.Mutex
	states map[registry.Provider]*rotationState
}

type rotationState struct {
	accounts []*Account
	cursor   int
}

// NewPool builds a pool from accounts, keeping only active ones and grouping
// them by provider in input order.
func NewPool(accounts []*Account) *Pool {
	p := &Pool{states: make(map[registry.Provider]*rotationState)}
	p.replace(accounts)
	return p
}

func (p *Pool) replace(accounts []*Account) {
	states := make(map[registry.Provider]*rotationState)
	for _, account := range accounts {
		if account == nil || !account.Active {
			continue
		}
		state, ok := states[account.Provider]
		if !ok {
			state = &rotationState{}
			states[account.Provider] = state
		}
		state.accounts = append(state.accounts, account)
	}
	p.states = states
}

// Current returns the account at the rotation cursor without mutating state,
// or nil when the provider has no active accounts.
func (p *Pool) Current(provider registry.Provider) *Account {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.states[provider]
	if !ok || len(state.accounts) == 0 {
		return nil
	}
	return state.accounts[state.cursor%len(state.accounts)]
}

// Advance increments the rotation cursor and returns the new current
// account, or nil when the provider has no active accounts.
func (p *Pool) Advance(provider registry.Provider) *Account {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.states[provider]
	if !ok || len(state.accounts) == 0 {
		return nil
	}
	state.cursor = (state.cursor + 1) % len(state.accounts)
	return state.accounts[state.cursor]
}

// Touch records the account as just used and delegates persistence to the
// store. A failed write is logged, not surfaced; the in-memory value stays
// authoritative for rotation.
func (p *Pool) Touch(account *Account, store Store) {
	if account == nil {
		return
	}
	account.TouchNow()
	if store == nil {
		return
	}
	if err := store.Save(account); err != nil {
		log.Warnf("account pool: persist last-used for %s failed: %v", account.ID, err)
	}
}

// Counts reports the number of active accounts per provider.
func (p *Pool) Counts() map[registry.Provider]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	counts := make(map[registry.Provider]int, len(p.states))
	for provider, state := range p.states {
		counts[provider] = len(state.accounts)
	}
	return counts
}

// Reload replaces the pool contents, resetting every rotation cursor. Used
// by the account-file watcher when the external account tool rewrites the
// store.
func (p *Pool) Reload(accounts []*Account) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replace(accounts)
}
