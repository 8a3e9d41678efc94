package cache

import (
	"time"

	"github.com/plateful/menu-catalog/pkg/catalog"
)

// Entry represents a cached page of menu items.
// Entries are immutable once created; a Set always replaces the prior
// entry for a key wholesale.
type Entry struct {
	// Page is the cached first page of results
	Page catalog.Page `json:"page"`

	// CachedAt is when the page was stored
	CachedAt time.Time `json:"cached_at"`

	// ExpiresAt is when the entry turns stale
	ExpiresAt time.Time `json:"expires_at"`
}

// NewEntry stamps a freshly fetched page with its freshness window.
func NewEntry(page catalog.Page, ttl time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		Page:      page,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsValid reports whether the entry is still fresh.
// An entry is valid if and only if now is before CachedAt + ttl.
func (e *Entry) IsValid() bool {
	return time.Now().Before(e.ExpiresAt)
}

// TTL returns the time until the entry turns stale.
// Returns 0 if already stale.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.ExpiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}
