package market

import (
	"testing"
	"time"

	"shopcraft.gg/internal/items"
	"shopcraft.gg/internal/protocol"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestMarket(listings ...protocol.Listing) (*Market, *fakeClock) {
	m := New(Config{WorldID: "test"}, items.Defaults(), nil, nil)
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m.now = clk.now
	m.listings = normalizeListings(listings)
	return m, clk
}

func diamondListing() protocol.Listing {
	return protocol.Listing{
		GUID: "L-diamond", ItemTypeID: "diamond", Count: 1, Quantity: 1,
		BuyPrice: 100, SellPrice: 80, Seller: "Server",
	}
}

func TestBuyInsufficientFundsLeavesBalanceUntouched(t *testing.T) {
	m, _ := newTestMarket(diamondListing())
	out := m.applyTransaction("steve", "L-diamond", KindBuy)
	if out.OK || out.Code != protocol.ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %+v", out)
	}
	if out.NewBalance != 0 || m.ledger.Get("steve") != 0 {
		t.Fatalf("balance must stay 0")
	}
	if got := m.actor("steve").Inventory.Count("diamond", ""); got != 0 {
		t.Fatalf("inventory must stay empty, got %d", got)
	}
}

func TestBuyApplied(t *testing.T) {
	m, _ := newTestMarket(diamondListing())
	m.ledger.Set("steve", 150)
	out := m.applyTransaction("steve", "L-diamond", KindBuy)
	if !out.OK {
		t.Fatalf("expected applied, got %+v", out)
	}
	if out.NewBalance != 50 || m.ledger.Get("steve") != 50 {
		t.Fatalf("expected balance 50, got %d", out.NewBalance)
	}
	if got := m.actor("steve").Inventory.Count("diamond", ""); got != 1 {
		t.Fatalf("expected 1 diamond, got %d", got)
	}
}

func TestBuyEnchantedListingMatchesExactStack(t *testing.T) {
	doc := `{"enchantments":[{"id":"sharpness","level":3}]}`
	l := protocol.Listing{GUID: "L-sword", ItemTypeID: "iron_sword", Count: 1, BuyPrice: 250, ComponentData: doc}
	m, _ := newTestMarket(l)
	m.ledger.Set("steve", 250)
	out := m.applyTransaction("steve", "L-sword", KindBuy)
	if !out.OK {
		t.Fatalf("expected applied, got %+v", out)
	}
	inv := m.actor("steve").Inventory
	if got := inv.Count("iron_sword", ""); got != 0 {
		t.Fatalf("plain stack must not gain items, got %d", got)
	}
	// The stored stack carries the canonical attribute document.
	found := false
	for _, sl := range inv.Slots() {
		if sl.Type == "iron_sword" && sl.Count == 1 && sl.Attrs != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected enchanted stack in inventory: %+v", inv.Slots())
	}
}

func TestSellItemNotHeld(t *testing.T) {
	l := protocol.Listing{GUID: "L-bread", ItemTypeID: "bread", Count: 4, SellPrice: 80}
	m, _ := newTestMarket(l)
	out := m.applyTransaction("steve", "L-bread", KindSell)
	if out.OK || out.Code != protocol.ErrItemNotHeld {
		t.Fatalf("expected item not held, got %+v", out)
	}
	if m.ledger.Get("steve") != 0 {
		t.Fatalf("balance must stay 0")
	}
}

func TestSellApplied(t *testing.T) {
	l := protocol.Listing{GUID: "L-bread", ItemTypeID: "bread", Count: 4, SellPrice: 80}
	m, _ := newTestMarket(l)
	m.actor("steve").Inventory.Add("bread", 10, "")
	out := m.applyTransaction("steve", "L-bread", KindSell)
	if !out.OK {
		t.Fatalf("expected applied, got %+v", out)
	}
	if out.NewBalance != 80 {
		t.Fatalf("expected balance 80, got %d", out.NewBalance)
	}
	if got := m.actor("steve").Inventory.Count("bread", ""); got != 6 {
		t.Fatalf("expected inventory debit of exactly 4, left %d", got)
	}
}

func TestListingNotFound(t *testing.T) {
	m, _ := newTestMarket()
	out := m.applyTransaction("steve", "L-nope", KindBuy)
	if out.OK || out.Code != protocol.ErrListingNotFound {
		t.Fatalf("expected listing not found, got %+v", out)
	}
}

func TestCooldownSecondRequestRejected(t *testing.T) {
	m, clk := newTestMarket(diamondListing())
	m.ledger.Set("steve", 1000)
	first := m.applyTransaction("steve", "L-diamond", KindBuy)
	clk.advance(100 * time.Millisecond)
	second := m.applyTransaction("steve", "L-diamond", KindBuy)
	if !first.OK {
		t.Fatalf("first should apply: %+v", first)
	}
	if second.OK || second.Code != protocol.ErrCooldown {
		t.Fatalf("second within window should hit cooldown: %+v", second)
	}
	if m.ledger.Get("steve") != 900 {
		t.Fatalf("exactly one debit expected, balance %d", m.ledger.Get("steve"))
	}
}

func TestCooldownExpiresAndAllowsRetry(t *testing.T) {
	m, clk := newTestMarket(diamondListing())
	m.ledger.Set("steve", 1000)
	if out := m.applyTransaction("steve", "L-diamond", KindBuy); !out.OK {
		t.Fatalf("first: %+v", out)
	}
	clk.advance(300 * time.Millisecond)
	if out := m.applyTransaction("steve", "L-diamond", KindBuy); !out.OK {
		t.Fatalf("after window: %+v", out)
	}
}

func TestFailedValidationDoesNotArmCooldown(t *testing.T) {
	m, _ := newTestMarket(diamondListing())
	if out := m.applyTransaction("steve", "L-diamond", KindBuy); out.Code != protocol.ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds: %+v", out)
	}
	// Corrected retry inside what would have been the window must pass.
	m.ledger.Set("steve", 100)
	if out := m.applyTransaction("steve", "L-diamond", KindBuy); !out.OK {
		t.Fatalf("retry after funding should apply: %+v", out)
	}
}

func TestZeroPricedSidesRejected(t *testing.T) {
	l := protocol.Listing{GUID: "L-view", ItemTypeID: "stone", Count: 1, BuyPrice: 0, SellPrice: 0}
	m, _ := newTestMarket(l)
	m.ledger.Set("steve", 1000)
	m.actor("steve").Inventory.Add("stone", 10, "")
	if out := m.applyTransaction("steve", "L-view", KindBuy); out.OK || out.Code != protocol.ErrInsufficientFunds {
		t.Fatalf("zero buy side: %+v", out)
	}
	if out := m.applyTransaction("steve", "L-view", KindSell); out.OK || out.Code != protocol.ErrItemNotHeld {
		t.Fatalf("zero sell side: %+v", out)
	}
}

func TestBuyFullInventoryDropsRemainder(t *testing.T) {
	l := protocol.Listing{GUID: "L-pearl", ItemTypeID: "ender_pearl", Count: 16, Quantity: 16, BuyPrice: 10}
	m, _ := newTestMarket(l)
	m.cfg.InventorySlots = 1
	m.ledger.Set("steve", 100)
	// Pre-fill the single slot so most of the purchase cannot be placed.
	m.actor("steve").Inventory.Add("ender_pearl", 10, "")

	var dropped items.Stack
	m.SetDropFunc(func(actorID string, st items.Stack) { dropped = st })

	out := m.applyTransaction("steve", "L-pearl", KindBuy)
	if !out.OK {
		t.Fatalf("full inventory must not abort the sale: %+v", out)
	}
	if out.NewBalance != 90 {
		t.Fatalf("price must still be paid, balance %d", out.NewBalance)
	}
	if dropped.Type != "ender_pearl" || dropped.Count != 10 {
		t.Fatalf("expected 10 pearls dropped to world, got %+v", dropped)
	}
}
