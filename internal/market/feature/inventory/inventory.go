// Package inventory applies quantity changes to an actor's bounded slot
// container. Two stacks match only when item type AND attribute document are
// equal, so an enchanted listing never merges with a plain stack. Attribute
// documents are expected in canonical (key-sorted) form; callers normalize
// before handing them in.
package inventory

import "sort"

// PrimarySlots is the bounded primary slot range the mutator operates on;
// auxiliary/equipment slots are outside it.
const PrimarySlots = 36

type Slot struct {
	Type  string
	Count int
	Attrs string
}

type SlotSet struct {
	slots    []Slot
	maxStack func(itemType string) int
}

// New builds an empty slot set. maxStack may be nil, in which case every
// item type stacks to 64.
func New(size int, maxStack func(string) int) *SlotSet {
	if size <= 0 {
		size = PrimarySlots
	}
	if maxStack == nil {
		maxStack = func(string) int { return 64 }
	}
	return &SlotSet{slots: make([]Slot, size), maxStack: maxStack}
}

// Count sums matching stacks across the primary range.
func (s *SlotSet) Count(itemType, attrs string) int {
	total := 0
	for _, sl := range s.slots {
		if sl.Count > 0 && sl.Type == itemType && sl.Attrs == attrs {
			total += sl.Count
		}
	}
	return total
}

// Add places count items, topping up the fullest-eligible stacks last:
// existing matching stacks are filled fewest-first, then empty slots.
// The unplaced remainder is returned; callers drop it rather than lose it.
func (s *SlotSet) Add(itemType string, count int, attrs string) int {
	if itemType == "" || count <= 0 {
		return 0
	}
	max := s.maxStack(itemType)
	if max <= 0 {
		max = 1
	}

	for _, idx := range s.matching(itemType, attrs) {
		if count <= 0 {
			break
		}
		room := max - s.slots[idx].Count
		if room <= 0 {
			continue
		}
		n := min(room, count)
		s.slots[idx].Count += n
		count -= n
	}

	for i := range s.slots {
		if count <= 0 {
			break
		}
		if s.slots[i].Count > 0 {
			continue
		}
		n := min(max, count)
		s.slots[i] = Slot{Type: itemType, Count: n, Attrs: attrs}
		count -= n
	}
	return count
}

// Remove debits count items from matching stacks, smallest stacks first so
// larger stacks survive intact. It refuses without mutating when the total
// held is short; once started it always completes.
func (s *SlotSet) Remove(itemType string, count int, attrs string) bool {
	if itemType == "" || count <= 0 {
		return count == 0
	}
	if s.Count(itemType, attrs) < count {
		return false
	}
	for _, idx := range s.matching(itemType, attrs) {
		if count <= 0 {
			break
		}
		n := min(s.slots[idx].Count, count)
		s.slots[idx].Count -= n
		count -= n
		if s.slots[idx].Count == 0 {
			s.slots[idx] = Slot{}
		}
	}
	return true
}

// matching returns indices of non-empty matching stacks, ordered by
// ascending count (ties by slot position).
func (s *SlotSet) matching(itemType, attrs string) []int {
	var idxs []int
	for i, sl := range s.slots {
		if sl.Count > 0 && sl.Type == itemType && sl.Attrs == attrs {
			idxs = append(idxs, i)
		}
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		return s.slots[idxs[a]].Count < s.slots[idxs[b]].Count
	})
	return idxs
}

// Slots returns a copy of the primary range for observation.
func (s *SlotSet) Slots() []Slot {
	return append([]Slot(nil), s.slots...)
}

// Load replaces the primary range wholesale, truncating or zero-padding to
// the configured size.
func (s *SlotSet) Load(slots []Slot) {
	for i := range s.slots {
		if i < len(slots) {
			s.slots[i] = slots[i]
		} else {
			s.slots[i] = Slot{}
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
