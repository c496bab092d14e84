// Package ledger tracks per-actor currency balances. Balances are
// non-negative int64s; all mutation goes through Set/Add/Remove so the
// invariant cannot be broken by callers.
package ledger

import "math"

type Ledger struct {
	balances map[string]int64

	// Optional mirror for durable storage. Sends must never block the
	// market loop; full sinks drop and the periodic reconciliation
	// re-mirrors current values.
	sink chan<- Entry
}

type Entry struct {
	ActorID string
	Balance int64
}

func New() *Ledger {
	return &Ledger{balances: map[string]int64{}}
}

func (l *Ledger) SetSink(ch chan<- Entry) { l.sink = ch }

// LoadAll seeds balances wholesale, e.g. from the durable store at startup.
// Negative values are clamped to zero.
func (l *Ledger) LoadAll(m map[string]int64) {
	for actor, v := range m {
		if v < 0 {
			v = 0
		}
		l.balances[actor] = v
	}
}

// Get returns the balance for an actor, zero for unknown actors.
func (l *Ledger) Get(actorID string) int64 {
	return l.balances[actorID]
}

func (l *Ledger) Set(actorID string, amount int64) {
	if amount < 0 {
		amount = 0
	}
	l.balances[actorID] = amount
	l.mirror(actorID, amount)
}

func (l *Ledger) Add(actorID string, amount int64) {
	if amount <= 0 {
		return
	}
	cur := l.balances[actorID]
	if cur > math.MaxInt64-amount {
		cur = math.MaxInt64
	} else {
		cur += amount
	}
	l.balances[actorID] = cur
	l.mirror(actorID, cur)
}

// Remove debits the actor only if the full amount is covered; otherwise the
// balance is left untouched and false is returned.
func (l *Ledger) Remove(actorID string, amount int64) bool {
	if amount < 0 {
		return false
	}
	cur := l.balances[actorID]
	if cur < amount {
		return false
	}
	cur -= amount
	l.balances[actorID] = cur
	l.mirror(actorID, cur)
	return true
}

func (l *Ledger) HasAtLeast(actorID string, amount int64) bool {
	return l.balances[actorID] >= amount
}

// All returns a copy of every known balance.
func (l *Ledger) All() map[string]int64 {
	out := make(map[string]int64, len(l.balances))
	for k, v := range l.balances {
		out[k] = v
	}
	return out
}

func (l *Ledger) mirror(actorID string, balance int64) {
	if l.sink == nil {
		return
	}
	select {
	case l.sink <- Entry{ActorID: actorID, Balance: balance}:
	default:
	}
}
