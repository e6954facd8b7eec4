// Package guard implements the registration claim ahead of provisioning.
// The claim is advisory: it narrows the duplicate-registration race window,
// while the record store's uniqueness constraint stays authoritative.
package guard

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL bounds how long a claim survives a crashed request.
const DefaultTTL = 30 * time.Second

// Memory is the single-process guard used when Redis is not configured.
type Memory struct {
	mu     sync.Mutex
	claims map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		claims: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Acquire claims the token, returning false when a live claim exists.
func (m *Memory) Acquire(_ context.Context, identityToken string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if expiry, held := m.claims[identityToken]; held && now.Before(expiry) {
		return false, nil
	}
	m.claims[identityToken] = now.Add(m.ttl)
	return true, nil
}

// Release drops the claim early.
func (m *Memory) Release(_ context.Context, identityToken string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claims, identityToken)
}
