// Package session implements the single-actor bookie engine: one live
// workspace per (lottery type, mode) key, owning the bet ledger, the limit
// book and the over-limit sub-ledgers, with pull-based projections on top.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"LottoLedger/internal/export"
	"LottoLedger/internal/ledger"
	"LottoLedger/internal/parser"
	"LottoLedger/internal/settle"
	"LottoLedger/internal/state"
)

var (
	// ErrUnparsable is returned when a submission expands to zero bets.
	ErrUnparsable = errors.New("input matches no bet pattern")
	// ErrNothingToForward is returned when an acknowledge/convert operation
	// finds an empty list.
	ErrNothingToForward = errors.New("no over-limit amounts to forward")
	// ErrNotFound is returned for lookups of absent entries, bets or groups.
	ErrNotFound = errors.New("not found")
)

// Key identifies one bookie workspace.
type Key struct {
	LotteryType parser.Mode `json:"lotteryType"`
	ActiveMode  string      `json:"activeMode"`
}

func (k Key) String() string {
	return string(k.LotteryType) + "_" + k.ActiveMode
}

// Workspace modes: the middle bookie forwards over-limit exposure upstream,
// the main bookie absorbs it.
const (
	ModeMiddle = "middle"
	ModeMain   = "main"
)

// Settings are the per-session scalar knobs.
type Settings struct {
	BookieName                string  `json:"bookieName"`
	PayoutRate                float64 `json:"payoutRate"`
	CommissionToPay           float64 `json:"commissionToPay"`
	CommissionFromUpperBookie float64 `json:"commissionFromUpperBookie"`
	CurrencySymbol            string  `json:"currencySymbol"`
}

// DefaultSettings are applied to a session with no stored snapshot.
// Commissions start at zero; the operator sets real rates per shop.
func DefaultSettings() Settings {
	return Settings{
		BookieName:     "My Shop",
		PayoutRate:     80,
		CurrencySymbol: "K",
	}
}

const defaultLimit = 10000

// Session is one workspace's full state. It is not safe for concurrent use;
// the engine serializes access.
type Session struct {
	key      Key
	settings Settings

	ledger    *ledger.BetLedger
	limits    *state.LimitBook
	overlimit *state.OverLimitBook
	projector *state.Projector
}

// NewSession creates an empty workspace with default settings.
func NewSession(key Key) *Session {
	s := &Session{
		key:       key,
		settings:  DefaultSettings(),
		ledger:    ledger.NewBetLedger(),
		limits:    state.NewLimitBook(defaultLimit),
		overlimit: state.NewOverLimitBook(),
	}
	s.projector = state.NewProjector(s.ledger, s.limits, key.LotteryType)
	return s
}

func (s *Session) Key() Key           { return s.key }
func (s *Session) Settings() Settings { return s.settings }

func (s *Session) UpdateSettings(settings Settings) {
	s.settings = settings
}

// overLimitOf adapts the projector for the over-limit book's callbacks.
func (s *Session) overLimitOf(number string) float64 {
	return s.projector.OverLimitAmount(number)
}

// reconcile restores the over-limit invariant after any mutation: clamp the
// sub-ledgers to current exposure, then let sticky numbers re-capture
// whatever is still forwardable.
func (s *Session) reconcile() {
	s.overlimit.Sanitize(s.overLimitOf)
	s.overlimit.CaptureSticky(s.overLimitOf)
}

// === Betting operations ===

// SubmitText parses a shorthand submission and appends it to the ledger.
// A submission that expands to nothing is rejected without recording.
func (s *Session) SubmitText(input, source string, at time.Time) (ledger.HistoryEntry, error) {
	bets := parser.Parse(input, s.key.LotteryType)
	if len(bets) == 0 {
		return ledger.HistoryEntry{}, ErrUnparsable
	}
	entry := s.ledger.Append(input, source, bets, at)
	s.reconcile()
	return entry, nil
}

// UndoLast removes the most recent submission.
func (s *Session) UndoLast() (ledger.HistoryEntry, error) {
	entry, ok := s.ledger.RemoveLast()
	if !ok {
		return ledger.HistoryEntry{}, ErrNotFound
	}
	s.reconcile()
	return entry, nil
}

// DeleteEntry removes a submission. The removed entry is returned so its raw
// input can be offered back for editing.
func (s *Session) DeleteEntry(id uuid.UUID) (ledger.HistoryEntry, error) {
	entry, ok := s.ledger.RemoveEntry(id)
	if !ok {
		return ledger.HistoryEntry{}, ErrNotFound
	}
	s.reconcile()
	return entry, nil
}

// DeleteBet removes one bet from its entry.
func (s *Session) DeleteBet(betID uuid.UUID) error {
	if !s.ledger.RemoveBet(betID) {
		return ErrNotFound
	}
	s.reconcile()
	return nil
}

// ClearAll wipes the ledger and all over-limit state.
func (s *Session) ClearAll() {
	s.ledger.Clear()
	s.overlimit.Clear()
}

func (s *Session) History() []ledger.HistoryEntry {
	return s.ledger.Entries()
}

// === Limit operations ===

func (s *Session) Limits() *state.LimitBook {
	return s.limits
}

func (s *Session) SetDefaultLimit(v float64) error {
	if err := s.limits.SetDefaultLimit(v); err != nil {
		return err
	}
	s.reconcile()
	return nil
}

// AddLimitGroup expands a shorthand name into its number set and creates a
// group for it. "apu" limits all ten pairs at once; "12" limits one number.
func (s *Session) AddLimitGroup(name string, amount float64) (state.LimitGroup, error) {
	expanded := parser.Parse(name+" 1", s.key.LotteryType)
	if len(expanded) == 0 {
		return state.LimitGroup{}, fmt.Errorf("limit name %q: %w", name, ErrUnparsable)
	}
	numbers := make([]string, 0, len(expanded))
	for _, b := range expanded {
		numbers = append(numbers, b.Number)
	}
	group := s.limits.AddGroup(name, amount, numbers)
	s.reconcile()
	return group, nil
}

func (s *Session) RemoveLimitGroup(id uuid.UUID) error {
	if !s.limits.RemoveGroup(id) {
		return ErrNotFound
	}
	s.reconcile()
	return nil
}

func (s *Session) UpdateLimitGroupAmount(id uuid.UUID, amount float64) error {
	if !s.limits.UpdateGroupAmount(id, amount) {
		return ErrNotFound
	}
	s.reconcile()
	return nil
}

func (s *Session) ApplyBatchLimit(op state.BatchOp, value float64) error {
	if err := s.limits.ApplyBatch(op, value); err != nil {
		return err
	}
	s.reconcile()
	return nil
}

func (s *Session) ClearLimitGroups() {
	s.limits.ClearGroups()
	s.reconcile()
}

// === Grid and over-limit views ===

func (s *Session) Grid() []state.GridCell {
	return s.projector.Grid()
}

func (s *Session) Cell(number string) (state.GridCell, bool) {
	return s.projector.Cell(number)
}

func (s *Session) ForwardableList() []state.OverLimitItem {
	return s.overlimit.Forwardable(s.projector.OverLimitCells())
}

func (s *Session) UnacknowledgedList() []state.OverLimitItem {
	return s.overlimit.Unacknowledged(s.projector.OverLimitCells())
}

func (s *Session) HeldList() []state.OverLimitItem {
	return s.overlimit.HeldList()
}

// === Over-limit operations ===

// AcknowledgeForwardable renders the forwarding voucher for everything
// still forwardable, then commits those amounts as acknowledged. The text
// is produced before the commit so a render failure cannot strand state.
func (s *Session) AcknowledgeForwardable(at time.Time) (string, error) {
	list := s.ForwardableList()
	if len(list) == 0 {
		return "", ErrNothingToForward
	}
	text := export.Voucher(s.settings.BookieName, s.settings.CurrencySymbol, list, at)
	s.overlimit.Acknowledge(list, s.overLimitOf)
	s.reconcile()
	return text, nil
}

// AcknowledgeUnacknowledged is the main-bookie variant: it forwards
// everything past acknowledged, held included.
func (s *Session) AcknowledgeUnacknowledged(at time.Time) (string, error) {
	list := s.UnacknowledgedList()
	if len(list) == 0 {
		return "", ErrNothingToForward
	}
	text := export.Voucher(s.settings.BookieName, s.settings.CurrencySymbol, list, at)
	s.overlimit.Acknowledge(list, s.overLimitOf)
	s.reconcile()
	return text, nil
}

// ConvertHeld renders the held-list voucher, then moves held amounts into
// acknowledged.
func (s *Session) ConvertHeld(at time.Time) (string, error) {
	list := s.HeldList()
	if len(list) == 0 {
		return "", ErrNothingToForward
	}
	text := export.Voucher(s.settings.BookieName, s.settings.CurrencySymbol, list, at)
	s.overlimit.ConvertHeld(list)
	s.reconcile()
	return text, nil
}

// Hold moves a number's forwardable remainder into held and marks it sticky.
func (s *Session) Hold(number string) error {
	for _, item := range s.ForwardableList() {
		if item.Number == number {
			s.overlimit.Hold(number, item.Amount)
			return nil
		}
	}
	return fmt.Errorf("number %s has no forwardable amount: %w", number, ErrNotFound)
}

// Release returns a held number to the forwardable pool.
func (s *Session) Release(number string) {
	s.overlimit.Release(number)
}

// === Voucher previews (no commit) ===

func (s *Session) ForwardablePreview(at time.Time) string {
	return export.Voucher(s.settings.BookieName, s.settings.CurrencySymbol, s.ForwardableList(), at)
}

func (s *Session) HeldPreview(at time.Time) string {
	return export.Voucher(s.settings.BookieName, s.settings.CurrencySymbol, s.HeldList(), at)
}

func (s *Session) BetListVoucher(at time.Time) string {
	return export.BetListVoucher(s.settings.BookieName, s.settings.CurrencySymbol, s.projector.Grid(), at)
}

// === Settlement ===

// Settle replays the ledger against a winning number.
func (s *Session) Settle(winningNumber string, agents []settle.Agent) settle.Report {
	return settle.Calculate(s.ledger.Entries(), settle.Params{
		WinningNumber:     winningNumber,
		Limit:             s.limits.LimitFor(winningNumber),
		PayoutRate:        s.settings.PayoutRate,
		DefaultCommission: s.settings.CommissionToPay,
		Agents:            agents,
	}, settle.Totals{
		TotalBet:       s.projector.TotalBetAmount(),
		TotalOverLimit: s.projector.TotalOverLimitAmount(),
		TotalHeld:      s.TotalHeldAmount(),
	})
}
