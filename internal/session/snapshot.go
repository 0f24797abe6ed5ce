package session

import (
	"LottoLedger/internal/ledger"
	"LottoLedger/internal/state"
)

// Snapshot is the serializable form of one workspace, written as a JSON
// document per session key. Map-backed sub-ledgers serialize as sorted pair
// lists and the sticky set as a plain array.
//
// Numeric settings are pointers: zero is a legitimate stored value (a shop
// with no commission), so defaults apply only when the field is absent from
// the document, never when it holds 0.
type Snapshot struct {
	History                   []ledger.HistoryEntry `json:"history"`
	LimitGroups               []state.LimitGroup    `json:"limitGroups"`
	BookieName                string                `json:"bookieName"`
	PayoutRate                *float64              `json:"payoutRate"`
	DefaultLimit              float64               `json:"defaultLimit"`
	CommissionToPay           *float64              `json:"commissionToPay"`
	CommissionFromUpperBookie *float64              `json:"commissionFromUpperBookie"`
	CurrencySymbol            string                `json:"currencySymbol"`
	StickyHeld                []string              `json:"heldNumberStatus"`
	Acknowledged              []state.AmountPair    `json:"acknowledgedOverLimits"`
	Held                      []state.AmountPair    `json:"heldOverLimits"`
}

// Snapshot captures the full workspace state. The capture is immutable:
// Entries() and Groups() return deep copies, so the save worker can marshal
// it off-thread while the session keeps mutating.
func (s *Session) Snapshot() Snapshot {
	payoutRate := s.settings.PayoutRate
	commissionToPay := s.settings.CommissionToPay
	commissionFromUpper := s.settings.CommissionFromUpperBookie

	return Snapshot{
		History:                   s.ledger.Entries(),
		LimitGroups:               s.limits.Groups(),
		BookieName:                s.settings.BookieName,
		PayoutRate:                &payoutRate,
		DefaultLimit:              s.limits.DefaultLimit(),
		CommissionToPay:           &commissionToPay,
		CommissionFromUpperBookie: &commissionFromUpper,
		CurrencySymbol:            s.settings.CurrencySymbol,
		StickyHeld:                s.overlimit.StickyNumbers(),
		Acknowledged:              s.overlimit.AcknowledgedPairs(),
		Held:                      s.overlimit.HeldPairs(),
	}
}

// RestoreSnapshot replaces workspace state from a stored snapshot, filling
// defaults for fields the snapshot predates, then reconciles so a snapshot
// edited out-of-band still satisfies the over-limit invariant.
func (s *Session) RestoreSnapshot(snap Snapshot) {
	settings := DefaultSettings()
	if snap.BookieName != "" {
		settings.BookieName = snap.BookieName
	}
	if snap.PayoutRate != nil {
		settings.PayoutRate = *snap.PayoutRate
	}
	if snap.CommissionToPay != nil {
		settings.CommissionToPay = *snap.CommissionToPay
	}
	if snap.CommissionFromUpperBookie != nil {
		settings.CommissionFromUpperBookie = *snap.CommissionFromUpperBookie
	}
	if snap.CurrencySymbol != "" {
		settings.CurrencySymbol = snap.CurrencySymbol
	}
	s.settings = settings

	limit := snap.DefaultLimit
	if limit <= 0 {
		limit = defaultLimit
	}

	s.ledger.Restore(snap.History)
	s.limits.Restore(limit, snap.LimitGroups)
	s.overlimit.Restore(snap.Acknowledged, snap.Held, snap.StickyHeld)
	s.reconcile()
}
