// Package auth manages upstream credentials: the account model, the JSON
// file store, the per-provider rotation pool and the credential lifecycle
// (expiry checks and refresh).
package auth

import (
	"sync"
	"time"

	"github.com/rotorgate/rotorgate/internal/registry"
)

// Account is one upstream credential. The core treats it as a mutable value:
// access token and expiry are updated in place after a refresh, last-used
// after a call, and every mutation is written back through the Store — the
// pool never holds the sole durable copy.
//
// The pool hands the same pointer to every in-flight request, so all field
// mutation and cross-goroutine reads go through the locked methods below.
// Executors receive a Snapshot and never touch the shared value.
type Account struct {
	mu sync.Mutex

	ID           string            `json:"id"`
	Provider     registry.Provider `json:"provider"`
	Email        string            `json:"email,omitempty"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token,omitempty"`
	SessionToken string            `json:"session_token,omitempty"`
	ExpiresAt    int64             `json:"expires_at_ms"`
	ProjectID    string            `json:"project_id,omitempty"`
	LastUsed     int64             `json:"last_used_ms,omitempty"`
	Active       bool              `json:"is_active"`
}

// ExpiresWithin reports whether the access token expires before now+skew.
func (a *Account) ExpiresWithin(skew time.Duration) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ExpiresAt < time.Now().Add(skew).UnixMilli()
}

// Clone returns an unlocked field copy. Callers that share the receiver with
// other goroutines use Snapshot instead.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	return &Account{
		ID:           a.ID,
		Provider:     a.Provider,
		Email:        a.Email,
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		SessionToken: a.SessionToken,
		ExpiresAt:    a.ExpiresAt,
		ProjectID:    a.ProjectID,
		LastUsed:     a.LastUsed,
		Active:       a.Active,
	}
}

// Snapshot returns a consistent private copy taken under the account lock.
func (a *Account) Snapshot() *Account {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Clone()
}

// TouchNow records the account as just used.
func (a *Account) TouchNow() {
	a.mu.Lock()
	a.LastUsed = time.Now().UnixMilli()
	a.mu.Unlock()
}

// ApplyTokens installs a refreshed credential. An empty refresh token keeps
// the current one (Google does not always rotate it).
func (a *Account) ApplyTokens(accessToken, refreshToken string, expiresAtMs int64) {
	a.mu.Lock()
	a.AccessToken = accessToken
	if refreshToken != "" {
		a.RefreshToken = refreshToken
	}
	a.ExpiresAt = expiresAtMs
	a.mu.Unlock()
}

// ApplyVerification records the result of a liveness probe.
func (a *Account) ApplyVerification(email string, expiresAtMs int64) {
	a.mu.Lock()
	if email != "" {
		a.Email = email
	}
	a.ExpiresAt = expiresAtMs
	a.mu.Unlock()
}

// Store is the persisted account storage collaborator.
type Store interface {
	// Load reads every persisted account.
	Load() ([]*Account, error)
	// Save writes one account back, replacing any record with the same id.
	// Last write wins; no durability guarantee beyond a single local file.
	Save(account *Account) error
}
