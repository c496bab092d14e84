package market

import "time"

type Config struct {
	WorldID string

	// CooldownWindow is the minimum spacing between accepted transactions
	// for the same (actor, listing) pair.
	CooldownWindow time.Duration

	// InventorySlots bounds each actor's primary slot range.
	InventorySlots int

	// ReconcileEvery re-sends BALANCE to every connected session. Zero
	// disables the sweep.
	ReconcileEvery time.Duration

	// OpTokens grant admin capability to sessions presenting them in
	// HELLO auth. OpActors grant it by actor id (local/in-process mode).
	OpTokens []string
	OpActors []string
}

func (c *Config) applyDefaults() {
	if c.WorldID == "" {
		c.WorldID = "world_1"
	}
	if c.CooldownWindow <= 0 {
		c.CooldownWindow = 250 * time.Millisecond
	}
	if c.InventorySlots <= 0 {
		c.InventorySlots = 36
	}
	if c.ReconcileEvery < 0 {
		c.ReconcileEvery = 0
	}
}
