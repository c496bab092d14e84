package market

import (
	"github.com/google/uuid"

	"shopcraft.gg/internal/protocol"
)

// adminAdd validates and appends a listing, persists the catalog, and
// broadcasts the new snapshot. Empty code means success; guid carries the
// (possibly generated) listing id back to the caller.
func (m *Market) adminAdd(l protocol.Listing) (guid, code, msg string) {
	if l.ItemTypeID == "" {
		return "", protocol.ErrProtoBadRequest, "missing itemTypeId"
	}
	if l.BuyPrice < 0 || l.SellPrice < 0 {
		return "", protocol.ErrProtoBadRequest, "negative price"
	}
	if l.BuyPrice == 0 && l.SellPrice == 0 {
		return "", protocol.ErrProtoBadRequest, "at least one of buyPrice/sellPrice must be > 0"
	}
	if l.GUID == "" {
		l.GUID = uuid.NewString()
	}
	if _, exists := m.lookup(l.GUID); exists {
		return "", protocol.ErrProtoBadRequest, "duplicate listing guid"
	}
	m.listings = append(m.listings, normalizeListings([]protocol.Listing{l})...)
	m.saveCatalog()
	m.broadcastCatalog()
	m.opsLog(OpsEntry{Event: "admin", Kind: "add", ListingID: l.GUID, Detail: l.ItemTypeID})
	return l.GUID, "", ""
}

func (m *Market) adminRemove(listingID string) (code, msg string) {
	idx := -1
	for i, l := range m.listings {
		if l.GUID == listingID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return protocol.ErrListingNotFound, "listing not found"
	}
	m.listings = append(m.listings[:idx], m.listings[idx+1:]...)
	m.saveCatalog()
	m.broadcastCatalog()
	m.opsLog(OpsEntry{Event: "admin", Kind: "remove", ListingID: listingID})
	return "", ""
}

func (m *Market) setAdminMode(enabled bool) {
	if m.adminMode == enabled {
		return
	}
	m.adminMode = enabled
	m.broadcastAdminMode()
	m.opsLog(OpsEntry{Event: "admin", Kind: "set_mode", Detail: boolStr(enabled)})
}

func boolStr(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
