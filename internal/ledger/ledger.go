package ledger

import (
	"time"

	"github.com/google/uuid"

	"LottoLedger/internal/parser"
)

// BetDetail is one elementary bet as recorded in the ledger.
type BetDetail struct {
	ID      uuid.UUID `json:"id"`
	Number  string    `json:"number"`
	Amount  float64   `json:"amount"`
	Source  string    `json:"source"`
	EntryID uuid.UUID `json:"entryId"`
}

// HistoryEntry groups the bets produced by one submission, keeping the raw
// input so the submission can be re-parsed or re-displayed later.
type HistoryEntry struct {
	ID        uuid.UUID   `json:"id"`
	Input     string      `json:"input"`
	Source    string      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	Bets      []BetDetail `json:"bets"`
}

// BetLedger is the append-only chronological record of accepted submissions.
// Entries are only ever appended; corrections happen by removing an entry
// (or a single bet) and resubmitting. Not safe for concurrent use; the
// session engine serializes all access.
type BetLedger struct {
	entries []HistoryEntry
	version uint64
}

func NewBetLedger() *BetLedger {
	return &BetLedger{}
}

// Version increments on every mutation. Projections memoize against it.
func (l *BetLedger) Version() uint64 {
	return l.version
}

// Append records a parsed submission as a new entry and returns it.
func (l *BetLedger) Append(input, source string, bets []parser.RawBet, at time.Time) HistoryEntry {
	entry := HistoryEntry{
		ID:        uuid.New(),
		Input:     input,
		Source:    source,
		Timestamp: at,
		Bets:      make([]BetDetail, 0, len(bets)),
	}
	for _, b := range bets {
		entry.Bets = append(entry.Bets, BetDetail{
			ID:      uuid.New(),
			Number:  b.Number,
			Amount:  b.Amount,
			Source:  source,
			EntryID: entry.ID,
		})
	}
	l.entries = append(l.entries, entry)
	l.version++
	return entry
}

// RemoveEntry deletes a whole submission. Returns the removed entry so
// callers can offer its raw input back for editing.
func (l *BetLedger) RemoveEntry(id uuid.UUID) (HistoryEntry, bool) {
	for i, e := range l.entries {
		if e.ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			l.version++
			return e, true
		}
	}
	return HistoryEntry{}, false
}

// RemoveLast pops the most recent entry (undo).
func (l *BetLedger) RemoveLast() (HistoryEntry, bool) {
	if len(l.entries) == 0 {
		return HistoryEntry{}, false
	}
	last := l.entries[len(l.entries)-1]
	l.entries = l.entries[:len(l.entries)-1]
	l.version++
	return last, true
}

// RemoveBet deletes a single bet from whichever entry holds it. An entry
// left with no bets is dropped entirely.
func (l *BetLedger) RemoveBet(betID uuid.UUID) bool {
	for i := range l.entries {
		e := &l.entries[i]
		for j, b := range e.Bets {
			if b.ID != betID {
				continue
			}
			e.Bets = append(e.Bets[:j], e.Bets[j+1:]...)
			if len(e.Bets) == 0 {
				l.entries = append(l.entries[:i], l.entries[i+1:]...)
			}
			l.version++
			return true
		}
	}
	return false
}

// Clear drops every entry.
func (l *BetLedger) Clear() {
	l.entries = nil
	l.version++
}

// Entries returns the entries oldest-first. The result is a deep copy:
// RemoveEntry and RemoveBet shift the backing arrays in place, and a
// returned view (or a queued snapshot built from one) must not be rewritten
// by mutations that happen after it was taken.
func (l *BetLedger) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(l.entries))
	for i, e := range l.entries {
		e.Bets = append([]BetDetail(nil), e.Bets...)
		out[i] = e
	}
	return out
}

// Entry looks up a single submission by id.
func (l *BetLedger) Entry(id uuid.UUID) (HistoryEntry, bool) {
	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return HistoryEntry{}, false
}

// Len reports the number of entries.
func (l *BetLedger) Len() int {
	return len(l.entries)
}

// Restore replaces the ledger contents from a snapshot. The entries are
// copied so later in-place mutations cannot reach back into the snapshot.
func (l *BetLedger) Restore(entries []HistoryEntry) {
	l.entries = make([]HistoryEntry, len(entries))
	for i, e := range entries {
		e.Bets = append([]BetDetail(nil), e.Bets...)
		l.entries[i] = e
	}
	l.version++
}
