package market

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"shopcraft.gg/internal/items"
	"shopcraft.gg/internal/protocol"
)

func runTestMarket(t *testing.T, listings ...protocol.Listing) *Market {
	t.Helper()
	cfg := Config{WorldID: "test", OpTokens: []string{"op-secret"}, OpActors: []string{"admin"}}
	m := New(cfg, items.Defaults(), nil, nil)
	m.listings = normalizeListings(listings)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = m.Run(ctx) }()
	return m
}

type testSession struct {
	id  string
	out chan []byte
}

func joinSession(t *testing.T, m *Market, actorID, token string) testSession {
	t.Helper()
	out := make(chan []byte, 32)
	resp := make(chan JoinAck, 1)
	m.Join() <- JoinRequest{ActorID: actorID, Token: token, Out: out, Resp: resp}
	ack := <-resp
	if ack.Err != "" || ack.SessionID == "" {
		t.Fatalf("join failed: %+v", ack)
	}
	return testSession{id: ack.SessionID, out: out}
}

func (s testSession) next(t *testing.T, wantType string) []byte {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case b := <-s.out:
			base, err := protocol.DecodeBase(b)
			if err != nil {
				t.Fatalf("undecodable frame: %v", err)
			}
			if base.Type == wantType {
				return b
			}
			// Skip interleaved broadcasts not under test.
		case <-deadline:
			t.Fatalf("timed out waiting for %s", wantType)
		}
	}
}

func TestJoinDeliversWelcomeCatalogBalance(t *testing.T) {
	m := runTestMarket(t, diamondListing())
	s := joinSession(t, m, "steve", "")

	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(s.next(t, protocol.TypeWelcome), &welcome); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if welcome.ActorID != "steve" || welcome.SessionID != s.id {
		t.Fatalf("unexpected welcome: %+v", welcome)
	}

	var cat protocol.CatalogMsg
	if err := json.Unmarshal(s.next(t, protocol.TypeCatalog), &cat); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(cat.Listings) != 1 || cat.Listings[0].GUID != "L-diamond" {
		t.Fatalf("unexpected catalog: %+v", cat)
	}

	var bal protocol.BalanceMsg
	if err := json.Unmarshal(s.next(t, protocol.TypeBalance), &bal); err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.ActorID != "steve" || bal.Balance != 0 {
		t.Fatalf("unexpected balance: %+v", bal)
	}
}

func TestWireBuyRoundTrip(t *testing.T) {
	m := runTestMarket(t, diamondListing())
	if err := m.SetBalance(context.Background(), "steve", 150); err != nil {
		t.Fatalf("set balance: %v", err)
	}
	s := joinSession(t, m, "steve", "")
	s.next(t, protocol.TypeWelcome)

	req, _ := json.Marshal(protocol.TransactMsg{
		Type: protocol.TypeBuyReq, ProtocolVersion: protocol.Version,
		ID: "R1", ListingID: "L-diamond",
	})
	m.Inbox() <- Envelope{SessionID: s.id, Raw: req}

	var resp protocol.TransactRespMsg
	if err := json.Unmarshal(s.next(t, protocol.TypeBuyResp), &resp); err != nil {
		t.Fatalf("resp: %v", err)
	}
	if !resp.OK || resp.Ref != "R1" || resp.NewBalance != 50 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestMalformedFrameIsDroppedSilently(t *testing.T) {
	m := runTestMarket(t, diamondListing())
	s := joinSession(t, m, "steve", "")
	s.next(t, protocol.TypeBalance)

	m.Inbox() <- Envelope{SessionID: s.id, Raw: []byte(`{"type":"BUY_REQ","protocol`)}

	// The queue must keep processing afterwards.
	if _, err := m.GetBalance(context.Background(), "steve"); err != nil {
		t.Fatalf("loop dead after malformed frame: %v", err)
	}
	select {
	case b := <-s.out:
		t.Fatalf("expected no response to malformed frame, got %s", b)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAdminAddRequiresOpAndBroadcasts(t *testing.T) {
	m := runTestMarket(t)
	plain := joinSession(t, m, "steve", "")
	plain.next(t, protocol.TypeBalance)
	op := joinSession(t, m, "admin", "op-secret")
	op.next(t, protocol.TypeBalance)

	add := func(sess testSession, ref string) {
		raw, _ := json.Marshal(protocol.AdminAddMsg{
			Type: protocol.TypeAdminAdd, ProtocolVersion: protocol.Version, ID: ref,
			Listing: protocol.Listing{ItemTypeID: "bread", Count: 4, BuyPrice: 10},
		})
		m.Inbox() <- Envelope{SessionID: sess.id, Raw: raw}
	}

	add(plain, "R1")
	var denied protocol.AdminRespMsg
	if err := json.Unmarshal(plain.next(t, protocol.TypeAdminResp), &denied); err != nil {
		t.Fatalf("resp: %v", err)
	}
	if denied.OK || denied.Code != protocol.ErrNoPermission {
		t.Fatalf("expected permission denial: %+v", denied)
	}

	add(op, "R2")
	var ok protocol.AdminRespMsg
	if err := json.Unmarshal(op.next(t, protocol.TypeAdminResp), &ok); err != nil {
		t.Fatalf("resp: %v", err)
	}
	if !ok.OK || ok.GUID == "" {
		t.Fatalf("op add should succeed with a generated guid: %+v", ok)
	}

	// Both clients get the replacement snapshot.
	var cat protocol.CatalogMsg
	if err := json.Unmarshal(plain.next(t, protocol.TypeCatalog), &cat); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(cat.Listings) != 1 || cat.Listings[0].ItemTypeID != "bread" {
		t.Fatalf("unexpected broadcast catalog: %+v", cat)
	}
	if cat.Listings[0].GUID != ok.GUID {
		t.Fatalf("broadcast guid %q != response guid %q", cat.Listings[0].GUID, ok.GUID)
	}
}

func TestSetAdminModeBroadcasts(t *testing.T) {
	m := runTestMarket(t)
	s := joinSession(t, m, "steve", "")
	s.next(t, protocol.TypeBalance)

	out, err := m.SetAdminMode(context.Background(), "steve", true)
	if err != nil {
		t.Fatalf("set admin mode: %v", err)
	}
	if out.OK {
		t.Fatalf("non-op actor must be denied")
	}

	if out, err := m.SetAdminMode(context.Background(), "admin", true); err != nil || !out.OK {
		t.Fatalf("op actor set admin mode: %+v %v", out, err)
	}
	var mode protocol.AdminModeMsg
	if err := json.Unmarshal(s.next(t, protocol.TypeAdminMode), &mode); err != nil {
		t.Fatalf("mode: %v", err)
	}
	if !mode.Enabled {
		t.Fatalf("expected admin mode on")
	}
}

func TestLocalModeSubmitTransaction(t *testing.T) {
	m := runTestMarket(t, diamondListing())
	ctx := context.Background()
	if err := m.SetBalance(ctx, "steve", 150); err != nil {
		t.Fatalf("set balance: %v", err)
	}
	out, err := m.SubmitTransaction(ctx, "steve", "L-diamond", KindBuy)
	if err != nil || !out.OK || out.NewBalance != 50 {
		t.Fatalf("local buy: %+v %v", out, err)
	}
	n, err := m.InventoryCount(ctx, "steve", "diamond", "")
	if err != nil || n != 1 {
		t.Fatalf("inventory count: %d %v", n, err)
	}
	ls, err := m.ListActiveListings(ctx)
	if err != nil || len(ls) != 1 {
		t.Fatalf("listings: %v %v", ls, err)
	}
}
