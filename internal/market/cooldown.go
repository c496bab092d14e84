package market

import "time"

type cooldownKey struct {
	ActorID   string
	ListingID string
}

// cooldowns is the per-(actor, listing) rate limiter. Entries are lazily
// evicted on the next check; the map is touched only from the market loop.
type cooldowns struct {
	window  time.Duration
	now     func() time.Time
	entries map[cooldownKey]time.Time
}

func newCooldowns(window time.Duration, now func() time.Time) *cooldowns {
	if now == nil {
		now = time.Now
	}
	return &cooldowns{
		window:  window,
		now:     now,
		entries: map[cooldownKey]time.Time{},
	}
}

// tryAcquire installs a fresh expiry and reports true unless a live entry
// already covers the pair. Callers invoke it only after all other
// validation has passed, so a rejected first attempt never arms the window.
func (c *cooldowns) tryAcquire(actorID, listingID string) bool {
	now := c.now()
	// Opportunistic cleanup.
	for k, exp := range c.entries {
		if !now.Before(exp) {
			delete(c.entries, k)
		}
	}
	key := cooldownKey{ActorID: actorID, ListingID: listingID}
	if exp, ok := c.entries[key]; ok && now.Before(exp) {
		return false
	}
	c.entries[key] = now.Add(c.window)
	return true
}
