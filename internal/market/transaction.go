package market

import (
	"shopcraft.gg/internal/items/attrs"
	"shopcraft.gg/internal/protocol"
)

type Kind string

const (
	KindBuy  Kind = "BUY"
	KindSell Kind = "SELL"
)

// Outcome is the terminal result of one transaction request. Validation
// failures come back as OK=false with a reason code; they are never errors.
type Outcome struct {
	OK         bool
	Code       string
	Message    string
	NewBalance int64
}

func reject(code, msg string, balance int64) Outcome {
	return Outcome{Code: code, Message: msg, NewBalance: balance}
}

// applyTransaction runs the full validate-then-commit sequence for one
// request. It executes on the loop goroutine, so every check-then-commit
// pair below is atomic with respect to other requests.
func (m *Market) applyTransaction(actorID, listingID string, kind Kind) Outcome {
	balance := m.ledger.Get(actorID)
	l, ok := m.lookup(listingID)
	if !ok {
		return reject(protocol.ErrListingNotFound, "listing not found", balance)
	}
	switch kind {
	case KindBuy:
		return m.applyBuy(actorID, l)
	case KindSell:
		return m.applySell(actorID, l)
	default:
		return reject(protocol.ErrProtoBadRequest, "unknown transaction kind", balance)
	}
}

func (m *Market) applyBuy(actorID string, l protocol.Listing) Outcome {
	balance := m.ledger.Get(actorID)
	// A zero-priced side is not purchasable; reject as unaffordable.
	if l.BuyPrice <= 0 {
		return reject(protocol.ErrInsufficientFunds, "listing is not for sale", balance)
	}
	if !m.ledger.HasAtLeast(actorID, l.BuyPrice) {
		return reject(protocol.ErrInsufficientFunds, "insufficient funds", balance)
	}
	if !m.cooldowns.tryAcquire(actorID, l.GUID) {
		return reject(protocol.ErrCooldown, "transaction cooldown", balance)
	}

	st, _ := m.attrs.Decode(l.ItemTypeID, l.Quantity, l.ComponentData)
	doc := attrs.Normalize(l.ComponentData)
	a := m.actor(actorID)
	if rem := a.Inventory.Add(l.ItemTypeID, l.Quantity, doc); rem > 0 {
		// Inventory full: the paid-for remainder is dropped into the
		// world, never silently lost and never a reason to abort.
		dropped := st.Clone()
		dropped.Count = rem
		m.dropToWorld(actorID, dropped)
	}

	if !m.ledger.Remove(actorID, l.BuyPrice) {
		// Unreachable under the single-threaded queue since HasAtLeast
		// passed above; record the inconsistency rather than retrying
		// the inventory step.
		m.logf("market: ledger debit failed after funds pre-check: actor=%s listing=%s", actorID, l.GUID)
		m.opsLog(OpsEntry{Event: "txn", ActorID: actorID, ListingID: l.GUID, Kind: string(KindBuy), Code: protocol.ErrInternal})
		return reject(protocol.ErrInternal, "ledger inconsistency", m.ledger.Get(actorID))
	}

	nb := m.ledger.Get(actorID)
	m.opsLog(OpsEntry{Event: "txn", ActorID: actorID, ListingID: l.GUID, Kind: string(KindBuy), Balance: nb})
	return Outcome{OK: true, NewBalance: nb}
}

func (m *Market) applySell(actorID string, l protocol.Listing) Outcome {
	balance := m.ledger.Get(actorID)
	// A zero-priced side is not sellable; reject as not-held-equivalent.
	if l.SellPrice <= 0 {
		return reject(protocol.ErrItemNotHeld, "listing does not buy items", balance)
	}

	// Matching is structural on (type, normalized attribute doc).
	doc := attrs.Normalize(l.ComponentData)
	a := m.actor(actorID)
	if a.Inventory.Count(l.ItemTypeID, doc) < l.Quantity {
		return reject(protocol.ErrItemNotHeld, "item not held in required quantity", balance)
	}
	if !m.cooldowns.tryAcquire(actorID, l.GUID) {
		return reject(protocol.ErrCooldown, "transaction cooldown", balance)
	}

	if !a.Inventory.Remove(l.ItemTypeID, l.Quantity, doc) {
		// The count pre-check just passed on this same goroutine.
		m.logf("market: inventory debit failed after count pre-check: actor=%s listing=%s", actorID, l.GUID)
		m.opsLog(OpsEntry{Event: "txn", ActorID: actorID, ListingID: l.GUID, Kind: string(KindSell), Code: protocol.ErrInternal})
		return reject(protocol.ErrInternal, "inventory inconsistency", balance)
	}
	m.ledger.Add(actorID, l.SellPrice)

	nb := m.ledger.Get(actorID)
	m.opsLog(OpsEntry{Event: "txn", ActorID: actorID, ListingID: l.GUID, Kind: string(KindSell), Balance: nb})
	return Outcome{OK: true, NewBalance: nb}
}
