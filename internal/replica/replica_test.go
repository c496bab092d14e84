package replica

import (
	"encoding/json"
	"testing"

	"shopcraft.gg/internal/protocol"
)

func frame(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestCatalogBroadcastReplacesSnapshot(t *testing.T) {
	r := New("steve")
	r.Apply(frame(t, protocol.CatalogMsg{
		Type: protocol.TypeCatalog, ProtocolVersion: protocol.Version, Version: 3,
		Listings: []protocol.Listing{{GUID: "a"}, {GUID: "b"}},
	}))
	r.Apply(frame(t, protocol.CatalogMsg{
		Type: protocol.TypeCatalog, ProtocolVersion: protocol.Version, Version: 4,
		Listings: []protocol.Listing{{GUID: "c"}},
	}))
	ls := r.Listings()
	if len(ls) != 1 || ls[0].GUID != "c" {
		t.Fatalf("expected full replace, got %+v", ls)
	}
	if r.CatalogVersion() != 4 {
		t.Fatalf("version = %d", r.CatalogVersion())
	}
}

func TestResponseUpdatesBalanceImmediately(t *testing.T) {
	r := New("steve")
	r.Apply(frame(t, protocol.BalanceMsg{
		Type: protocol.TypeBalance, ProtocolVersion: protocol.Version,
		ActorID: "steve", Balance: 150,
	}))
	if r.Balance() != 150 {
		t.Fatalf("balance = %d", r.Balance())
	}
	r.Apply(frame(t, protocol.TransactRespMsg{
		Type: protocol.TypeBuyResp, ProtocolVersion: protocol.Version,
		Ref: "R1", OK: true, NewBalance: 50,
	}))
	if r.Balance() != 50 {
		t.Fatalf("response must update balance immediately, got %d", r.Balance())
	}
}

func TestBalanceForOtherActorIgnored(t *testing.T) {
	r := New("steve")
	r.Apply(frame(t, protocol.BalanceMsg{
		Type: protocol.TypeBalance, ProtocolVersion: protocol.Version,
		ActorID: "alex", Balance: 999,
	}))
	if r.Balance() != 0 {
		t.Fatalf("foreign balance applied: %d", r.Balance())
	}
}

func TestAdminModeSync(t *testing.T) {
	r := New("steve")
	r.Apply(frame(t, protocol.AdminModeMsg{
		Type: protocol.TypeAdminMode, ProtocolVersion: protocol.Version, Enabled: true,
	}))
	if !r.AdminMode() {
		t.Fatalf("expected admin mode on")
	}
}

func TestMalformedFrameIgnored(t *testing.T) {
	r := New("steve")
	if r.Apply([]byte(`{"type":"CATALOG","listings":`)) {
		t.Fatalf("malformed frame must not apply")
	}
	if r.Apply([]byte(`{"type":"SOMETHING_ELSE"}`)) {
		t.Fatalf("unknown frame must not apply")
	}
}
