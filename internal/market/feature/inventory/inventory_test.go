package inventory

import "testing"

func fixedMax(n int) func(string) int {
	return func(string) int { return n }
}

func TestAddTopsUpFewestFirst(t *testing.T) {
	s := New(4, fixedMax(64))
	s.Load([]Slot{
		{Type: "stone", Count: 60},
		{Type: "stone", Count: 10},
	})
	if rem := s.Add("stone", 8, ""); rem != 0 {
		t.Fatalf("unexpected remainder: %d", rem)
	}
	slots := s.Slots()
	// Near-empty stack tops up first.
	if slots[1].Count != 18 {
		t.Fatalf("expected smallest stack topped up first, got %+v", slots)
	}
	if slots[0].Count != 60 {
		t.Fatalf("fuller stack should be untouched, got %+v", slots)
	}
}

func TestAddOverflowsIntoEmptySlotsThenReturnsRemainder(t *testing.T) {
	s := New(2, fixedMax(16))
	if rem := s.Add("ender_pearl", 40, ""); rem != 8 {
		t.Fatalf("expected remainder 8 with 2x16 capacity, got %d", rem)
	}
	if got := s.Count("ender_pearl", ""); got != 32 {
		t.Fatalf("expected 32 placed, got %d", got)
	}
}

func TestAttributeDocumentSeparatesStacks(t *testing.T) {
	s := New(4, fixedMax(64))
	ench := `{"enchantments":[{"id":"sharpness","level":3}]}`
	s.Add("iron_sword", 1, ench)
	s.Add("iron_sword", 1, "")
	if got := s.Count("iron_sword", ench); got != 1 {
		t.Fatalf("enchanted count = %d", got)
	}
	if got := s.Count("iron_sword", ""); got != 1 {
		t.Fatalf("plain count = %d", got)
	}
	if s.Remove("iron_sword", 2, ench) {
		t.Fatalf("enchanted remove must not consume the plain stack")
	}
}

func TestRemoveSmallestStacksFirst(t *testing.T) {
	s := New(4, fixedMax(64))
	s.Load([]Slot{
		{Type: "oak_log", Count: 40},
		{Type: "oak_log", Count: 5},
		{Type: "oak_log", Count: 12},
	})
	if !s.Remove("oak_log", 6, "") {
		t.Fatalf("remove should succeed")
	}
	slots := s.Slots()
	if slots[1].Count != 0 {
		t.Fatalf("smallest stack should be drained first: %+v", slots)
	}
	if slots[0].Count != 40 || slots[2].Count != 11 {
		t.Fatalf("larger stacks wrong: %+v", slots)
	}
}

func TestRemoveInsufficientLeavesSlotsUntouched(t *testing.T) {
	s := New(4, fixedMax(64))
	s.Load([]Slot{{Type: "bread", Count: 3}})
	if s.Remove("bread", 4, "") {
		t.Fatalf("remove beyond held count must fail")
	}
	if got := s.Count("bread", ""); got != 3 {
		t.Fatalf("failed remove mutated inventory: %d", got)
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	s := New(PrimarySlots, nil)
	if rem := s.Add("diamond", 130, ""); rem != 0 {
		t.Fatalf("unexpected remainder: %d", rem)
	}
	if got := s.Count("diamond", ""); got != 130 {
		t.Fatalf("count = %d", got)
	}
	if !s.Remove("diamond", 130, "") {
		t.Fatalf("full remove should succeed")
	}
	if got := s.Count("diamond", ""); got != 0 {
		t.Fatalf("expected empty, got %d", got)
	}
}
