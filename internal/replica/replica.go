// Package replica holds the client-side view of the market: the latest
// catalog snapshot, the cached balance, and the admin-mode flag. The
// replica is read-only state that is replaced, never merged; responses and
// broadcasts from the server are the only writers.
package replica

import (
	"encoding/json"
	"sync"

	"shopcraft.gg/internal/protocol"
)

type Replica struct {
	mu sync.RWMutex

	actorID        string
	listings       []protocol.Listing
	catalogVersion uint64
	balance        int64
	adminMode      bool
	op             bool
	connected      bool
}

func New(actorID string) *Replica {
	return &Replica{actorID: actorID}
}

func (r *Replica) ActorID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.actorID
}

// Listings returns the latest snapshot copy.
func (r *Replica) Listings() []protocol.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]protocol.Listing(nil), r.listings...)
}

func (r *Replica) CatalogVersion() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalogVersion
}

func (r *Replica) Balance() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balance
}

func (r *Replica) AdminMode() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.adminMode
}

func (r *Replica) Op() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.op
}

func (r *Replica) Connected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connected
}

func (r *Replica) setConnected(v bool) {
	r.mu.Lock()
	r.connected = v
	r.mu.Unlock()
}

// Apply routes one server frame into the cache. Unknown or malformed
// frames are ignored; the server is authoritative and the next broadcast
// repairs anything missed. It reports whether the frame changed the cache.
func (r *Replica) Apply(raw []byte) bool {
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		return false
	}
	switch base.Type {
	case protocol.TypeWelcome:
		var m protocol.WelcomeMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return false
		}
		r.mu.Lock()
		r.balance = m.Balance
		r.adminMode = m.AdminMode
		r.op = m.Op
		r.mu.Unlock()
		return true

	case protocol.TypeCatalog:
		var m protocol.CatalogMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return false
		}
		r.mu.Lock()
		// Full-snapshot replace; no diffing against the previous copy.
		r.listings = m.Listings
		r.catalogVersion = m.Version
		r.mu.Unlock()
		return true

	case protocol.TypeBalance:
		var m protocol.BalanceMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return false
		}
		r.mu.Lock()
		if m.ActorID == r.actorID {
			r.balance = m.Balance
		}
		r.mu.Unlock()
		return true

	case protocol.TypeBuyResp, protocol.TypeSellResp:
		var m protocol.TransactRespMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return false
		}
		// Apply the balance immediately instead of waiting for the next
		// BALANCE sync, so the UI reflects the transaction at once.
		r.mu.Lock()
		r.balance = m.NewBalance
		r.mu.Unlock()
		return true

	case protocol.TypeAdminMode:
		var m protocol.AdminModeMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return false
		}
		r.mu.Lock()
		r.adminMode = m.Enabled
		r.mu.Unlock()
		return true
	}
	return false
}
