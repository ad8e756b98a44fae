package auth

import (
	"sync"
	"time"
)

// pruneThreshold triggers a sweep of expired entries.
const pruneThreshold = 1024

// Revocations remembers revoked token ids until their expiry.
type Revocations struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewRevocations() *Revocations {
	return &Revocations{entries: make(map[string]time.Time), now: time.Now}
}

// Revoke records id as revoked until exp.
func (r *Revocations) Revoke(id string, exp time.Time) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = exp

	if len(r.entries) > pruneThreshold {
		now := r.now()
		for k, v := range r.entries {
			if now.After(v) {
				delete(r.entries, k)
			}
		}
	}
}

// IsRevoked reports whether id was revoked and has not yet expired.
func (r *Revocations) IsRevoked(id string) bool {
	r.mu.RLock()
	exp, ok := r.entries[id]
	r.mu.RUnlock()
	return ok && r.now().Before(exp)
}

// Len is the number of tracked ids.
func (r *Revocations) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
