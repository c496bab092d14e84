package market

import (
	"context"

	"shopcraft.gg/internal/items"
	"shopcraft.gg/internal/items/attrs"
	"shopcraft.gg/internal/protocol"
)

// Local-mode boundary: these calls round-trip through the loop goroutine,
// so in-process collaborators get the same serialization guarantees as
// connected clients. All of them require Run to be active.

// ListActiveListings returns a copy of the current catalog.
func (m *Market) ListActiveListings(ctx context.Context) ([]protocol.Listing, error) {
	var out []protocol.Listing
	err := m.do(ctx, func() {
		out = append([]protocol.Listing(nil), m.listings...)
	})
	return out, err
}

// SubmitTransaction validates and applies one buy/sell request.
func (m *Market) SubmitTransaction(ctx context.Context, actorID, listingID string, kind Kind) (Outcome, error) {
	var out Outcome
	err := m.do(ctx, func() {
		out = m.applyTransaction(actorID, listingID, kind)
	})
	return out, err
}

// GetBalance reads one actor's balance.
func (m *Market) GetBalance(ctx context.Context, actorID string) (int64, error) {
	var bal int64
	err := m.do(ctx, func() {
		bal = m.ledger.Get(actorID)
	})
	return bal, err
}

// AdminAddListing appends a listing and broadcasts the catalog. The actor
// must hold op capability. On success the generated listing guid is
// returned.
func (m *Market) AdminAddListing(ctx context.Context, actorID string, l protocol.Listing) (string, Outcome, error) {
	var guid string
	var out Outcome
	err := m.do(ctx, func() {
		out = m.localAdmin(actorID, func() (string, string) {
			g, code, msg := m.adminAdd(l)
			guid = g
			return code, msg
		})
	})
	return guid, out, err
}

// AdminRemoveListing removes a listing by id and broadcasts the catalog.
func (m *Market) AdminRemoveListing(ctx context.Context, actorID, listingID string) (Outcome, error) {
	var out Outcome
	err := m.do(ctx, func() {
		out = m.localAdmin(actorID, func() (string, string) { return m.adminRemove(listingID) })
	})
	return out, err
}

// SetAdminMode toggles the global admin display mode and syncs clients.
func (m *Market) SetAdminMode(ctx context.Context, actorID string, enabled bool) (Outcome, error) {
	var out Outcome
	err := m.do(ctx, func() {
		out = m.localAdmin(actorID, func() (string, string) {
			m.setAdminMode(enabled)
			return "", ""
		})
	})
	return out, err
}

// AdminMode reads the current global admin display mode.
func (m *Market) AdminMode(ctx context.Context) (bool, error) {
	var on bool
	err := m.do(ctx, func() {
		on = m.adminMode
	})
	return on, err
}

// GrantItems provisions an actor's inventory (host hook: starter kits,
// command rewards). The unplaced remainder is returned.
func (m *Market) GrantItems(ctx context.Context, actorID, itemType string, count int, doc string) (int, error) {
	rem := 0
	err := m.do(ctx, func() {
		rem = m.actor(actorID).Inventory.Add(itemType, count, attrs.Normalize(doc))
	})
	return rem, err
}

// InventoryCount reports how many matching items an actor holds.
func (m *Market) InventoryCount(ctx context.Context, actorID, itemType string, doc string) (int, error) {
	n := 0
	err := m.do(ctx, func() {
		n = m.actor(actorID).Inventory.Count(itemType, attrs.Normalize(doc))
	})
	return n, err
}

// SetBalance force-sets an actor's balance (admin/host surface).
func (m *Market) SetBalance(ctx context.Context, actorID string, amount int64) error {
	return m.do(ctx, func() {
		m.ledger.Set(actorID, amount)
		m.syncBalance(actorID)
	})
}

// AddBalance credits an actor (host hook: quest rewards, daily stipends).
func (m *Market) AddBalance(ctx context.Context, actorID string, amount int64) error {
	return m.do(ctx, func() {
		m.ledger.Add(actorID, amount)
		m.syncBalance(actorID)
	})
}

// DecodeListing reconstructs the concrete item a listing describes.
func (m *Market) DecodeListing(ctx context.Context, listingID string) (items.Stack, bool, error) {
	var st items.Stack
	found := false
	err := m.do(ctx, func() {
		l, ok := m.lookup(listingID)
		if !ok {
			return
		}
		found = true
		st, _ = m.attrs.Decode(l.ItemTypeID, l.Quantity, l.ComponentData)
	})
	return st, found, err
}

func (m *Market) localAdmin(actorID string, fn func() (string, string)) Outcome {
	if !m.isOp(actorID, "") {
		return Outcome{Code: protocol.ErrNoPermission, Message: "admin capability required"}
	}
	if code, msg := fn(); code != "" {
		return Outcome{Code: code, Message: msg}
	}
	return Outcome{OK: true}
}

// syncBalance pushes a BALANCE message to every session of the actor.
func (m *Market) syncBalance(actorID string) {
	b := mustMarshal(m.balanceMsg(actorID))
	for _, s := range m.sessions {
		if s.ActorID == actorID {
			m.send(s, b)
		}
	}
}
