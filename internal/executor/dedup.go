package executor

import (
	"strings"
	"sync"
	"time"

	"github.com/polyarb/arbot/internal/domain"
)

// Dedup suppresses repeat executions of the same opportunity within a TTL
// window. The same mispricing is typically re-detected on every polling pass
// until it closes; without suppression each pass would fire a fresh set of
// orders. Safe for concurrent use.
type Dedup struct {
	seen map[string]time.Time
	ttl  time.Duration
	mu   sync.Mutex
}

// NewDedup creates a Dedup that treats a key as duplicate when it was seen
// within ttl.
func NewDedup(ttl time.Duration) *Dedup {
	return &Dedup{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

// OpportunityKey derives the dedup key for an opportunity: its kind plus the
// participating market ids. Price fields are deliberately excluded so small
// quote moves on the same mispricing do not defeat suppression.
func OpportunityKey(opp domain.Opportunity) string {
	return string(opp.Kind()) + ":" + strings.Join(opp.MarketIDs(), ",")
}

// IsDuplicate reports whether the key was seen within the TTL window. A miss
// (or an expired entry) records the key and returns false.
func (d *Dedup) IsDuplicate(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if last, ok := d.seen[key]; ok && now.Sub(last) < d.ttl {
		return true
	}
	d.seen[key] = now
	return false
}

// Cleanup drops expired entries. Called periodically by the executor loop to
// keep the map bounded.
func (d *Dedup) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	for key, ts := range d.seen {
		if now.Sub(ts) >= d.ttl {
			delete(d.seen, key)
		}
	}
}
