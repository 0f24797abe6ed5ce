package state

import "sort"

// OverLimitItem is one number's portion of an over-limit list.
type OverLimitItem struct {
	Number string  `json:"number"`
	Amount float64 `json:"amount"`
}

// AmountPair serializes one map entry of a sub-ledger snapshot.
type AmountPair struct {
	Number string  `json:"number"`
	Amount float64 `json:"amount"`
}

// OverLimitBook tracks how each number's over-limit exposure has been
// disposed of: acknowledged (already forwarded upstream), held (deliberately
// kept in-house), or still forwardable (neither). Numbers marked sticky keep
// capturing new forwardable exposure into held as bets arrive.
//
// Invariant: acknowledged + held never exceeds the number's current
// over-limit amount. Sanitize repairs the maps after any mutation that can
// shrink over-limit exposure.
type OverLimitBook struct {
	acknowledged map[string]float64
	held         map[string]float64
	sticky       map[string]bool
}

func NewOverLimitBook() *OverLimitBook {
	return &OverLimitBook{
		acknowledged: make(map[string]float64),
		held:         make(map[string]float64),
		sticky:       make(map[string]bool),
	}
}

func (b *OverLimitBook) AcknowledgedAmount(number string) float64 {
	return b.acknowledged[number]
}

func (b *OverLimitBook) HeldAmount(number string) float64 {
	return b.held[number]
}

func (b *OverLimitBook) IsSticky(number string) bool {
	return b.sticky[number]
}

// Forwardable lists, per over-limit cell, the exposure not yet acknowledged
// or held. This is the "send upstream" work list.
func (b *OverLimitBook) Forwardable(overLimitCells []GridCell) []OverLimitItem {
	var out []OverLimitItem
	for _, c := range overLimitCells {
		remaining := c.OverLimitAmount - (b.acknowledged[c.Number] + b.held[c.Number])
		if remaining > 0 {
			out = append(out, OverLimitItem{Number: c.Number, Amount: remaining})
		}
	}
	return out
}

// Unacknowledged lists over-limit exposure minus only the acknowledged part,
// held included. Used by the main-bookie view.
func (b *OverLimitBook) Unacknowledged(overLimitCells []GridCell) []OverLimitItem {
	var out []OverLimitItem
	for _, c := range overLimitCells {
		remaining := c.OverLimitAmount - b.acknowledged[c.Number]
		if remaining > 0 {
			out = append(out, OverLimitItem{Number: c.Number, Amount: remaining})
		}
	}
	return out
}

// HeldList returns the held sub-ledger sorted by number.
func (b *OverLimitBook) HeldList() []OverLimitItem {
	out := make([]OverLimitItem, 0, len(b.held))
	for n, amt := range b.held {
		if amt > 0 {
			out = append(out, OverLimitItem{Number: n, Amount: amt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// TotalHeld sums the held sub-ledger.
func (b *OverLimitBook) TotalHeld() float64 {
	var sum float64
	for _, amt := range b.held {
		sum += amt
	}
	return sum
}

// Acknowledge records the listed numbers as forwarded by snapshotting each
// number's full current over-limit amount. Absolute, not additive: whatever
// was held or previously acknowledged is folded into the new figure.
func (b *OverLimitBook) Acknowledge(items []OverLimitItem, overLimitOf func(string) float64) {
	for _, item := range items {
		if over := overLimitOf(item.Number); over > 0 {
			b.acknowledged[item.Number] = over
		}
	}
}

// ConvertHeld moves the listed held amounts into acknowledged, additively.
func (b *OverLimitBook) ConvertHeld(items []OverLimitItem) {
	for _, item := range items {
		b.acknowledged[item.Number] += item.Amount
		delete(b.held, item.Number)
	}
}

// Hold moves a number's forwardable remainder into held and marks the
// number sticky so future over-limit growth lands in held too.
func (b *OverLimitBook) Hold(number string, forwardable float64) {
	if forwardable > 0 {
		b.held[number] += forwardable
	}
	b.sticky[number] = true
}

// Release drops a number's held amount and its sticky mark, returning the
// exposure to the forwardable pool.
func (b *OverLimitBook) Release(number string) {
	delete(b.held, number)
	delete(b.sticky, number)
}

// Sanitize clamps both sub-ledgers to the current over-limit exposure:
// acknowledged first, then held to whatever room acknowledged leaves.
// Entries clamped to zero or below are removed.
func (b *OverLimitBook) Sanitize(overLimitOf func(string) float64) {
	for n, ack := range b.acknowledged {
		over := overLimitOf(n)
		if ack > over {
			if over <= 0 {
				delete(b.acknowledged, n)
			} else {
				b.acknowledged[n] = over
			}
		}
	}
	for n, held := range b.held {
		room := overLimitOf(n) - b.acknowledged[n]
		if held > room {
			if room <= 0 {
				delete(b.held, n)
			} else {
				b.held[n] = room
			}
		}
	}
}

// CaptureSticky moves any new forwardable exposure on sticky numbers into
// held.
func (b *OverLimitBook) CaptureSticky(overLimitOf func(string) float64) {
	for n := range b.sticky {
		forwardable := overLimitOf(n) - (b.acknowledged[n] + b.held[n])
		if forwardable > 0 {
			b.held[n] += forwardable
		}
	}
}

// Clear resets all three sub-ledgers.
func (b *OverLimitBook) Clear() {
	b.acknowledged = make(map[string]float64)
	b.held = make(map[string]float64)
	b.sticky = make(map[string]bool)
}

// === Snapshot support: maps serialize as sorted pair lists ===

func pairsOf(m map[string]float64) []AmountPair {
	out := make([]AmountPair, 0, len(m))
	for n, amt := range m {
		out = append(out, AmountPair{Number: n, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (b *OverLimitBook) AcknowledgedPairs() []AmountPair {
	return pairsOf(b.acknowledged)
}

func (b *OverLimitBook) HeldPairs() []AmountPair {
	return pairsOf(b.held)
}

func (b *OverLimitBook) StickyNumbers() []string {
	out := make([]string, 0, len(b.sticky))
	for n := range b.sticky {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Restore replaces book contents from snapshot pair lists.
func (b *OverLimitBook) Restore(acknowledged, held []AmountPair, sticky []string) {
	b.Clear()
	for _, p := range acknowledged {
		b.acknowledged[p.Number] = p.Amount
	}
	for _, p := range held {
		b.held[p.Number] = p.Amount
	}
	for _, n := range sticky {
		b.sticky[n] = true
	}
}
