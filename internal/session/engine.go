package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"LottoLedger/internal/ledger"
	"LottoLedger/internal/observability"
	"LottoLedger/internal/parser"
	"LottoLedger/internal/settle"
	"LottoLedger/internal/state"
)

// SaveRequest asks the persistence worker to write one workspace snapshot.
type SaveRequest struct {
	Key      Key
	Snapshot Snapshot
}

// SnapshotLoader loads the stored snapshot for a session key.
type SnapshotLoader interface {
	LoadSnapshot(key string) (Snapshot, bool, error)
}

// AgentDirectory is the engine's view of the agent roster.
type AgentDirectory interface {
	ListAgents() ([]settle.Agent, error)
	// EnsureAgent registers the agent if unknown (case-insensitive on name)
	// and reports whether it was created.
	EnsureAgent(agent settle.Agent) (bool, error)
}

// autoRegisterCommission is the default rate for agents first seen via the
// inbox.
const autoRegisterCommission = 15

// Engine serializes all access to the active workspace and emits snapshot
// saves after every mutation. External-effect failures (persistence,
// replies) never mutate engine state: saves are fire-and-forget requests
// drained by the persistence worker.
type Engine struct {
	mu     sync.Mutex
	active *Session

	loader  SnapshotLoader
	agents  AgentDirectory
	saveCh  chan<- SaveRequest
	idem    *IdempotencyChecker
	metrics *observability.Metrics
	log     zerolog.Logger
	now     func() time.Time

	// lastSaved holds the newest snapshot emitted per session key. Saves
	// commit asynchronously, so on a switch back to a recently left session
	// this cache is fresher than the stored row.
	lastSaved map[string]Snapshot
}

func NewEngine(
	key Key,
	loader SnapshotLoader,
	agents AgentDirectory,
	saveCh chan<- SaveRequest,
	dbChecker DBIdempotencyChecker,
	metrics *observability.Metrics,
	log zerolog.Logger,
) (*Engine, error) {
	e := &Engine{
		loader:    loader,
		agents:    agents,
		saveCh:    saveCh,
		idem:      NewIdempotencyChecker(idempotencyLRUCapacity, dbChecker),
		metrics:   metrics,
		log:       log,
		now:       time.Now,
		lastSaved: make(map[string]Snapshot),
	}
	active, err := e.loadSession(key)
	if err != nil {
		return nil, err
	}
	e.active = active
	return e, nil
}

// WarmInboxKeys preloads processed message keys into the dedup LRU so a
// restart does not pay the cold-path DB lookup for recent traffic.
func (e *Engine) WarmInboxKeys(keys []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.idem.WarmFromKeys(keys)
}

// SetClock overrides the time source. Used by tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

func (e *Engine) loadSession(key Key) (*Session, error) {
	s := NewSession(key)
	if snap, ok := e.lastSaved[key.String()]; ok {
		s.RestoreSnapshot(snap)
		e.log.Info().
			Str("session", key.String()).
			Int("entries", len(snap.History)).
			Msg("session restored from pending snapshot")
		return s, nil
	}
	if e.loader == nil {
		return s, nil
	}
	snap, found, err := e.loader.LoadSnapshot(key.String())
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", key, err)
	}
	if found {
		s.RestoreSnapshot(snap)
		e.log.Info().
			Str("session", key.String()).
			Int("entries", len(snap.History)).
			Int("limit_groups", len(snap.LimitGroups)).
			Msg("session restored from snapshot")
	} else {
		e.log.Info().Str("session", key.String()).Msg("session started fresh")
	}
	return s, nil
}

// persist emits a snapshot save for the active session. Blocking send: the
// engine stalls rather than lose a mutation, mirroring the write path's
// backpressure contract. The snapshot is also cached per key so loadSession
// never resurrects a row older than a save still in flight.
func (e *Engine) persist() {
	snap := e.active.Snapshot()
	e.lastSaved[e.active.key.String()] = snap
	if e.saveCh == nil {
		return
	}
	e.saveCh <- SaveRequest{Key: e.active.key, Snapshot: snap}
	if e.metrics != nil {
		e.metrics.SnapshotSavesRequested.Inc()
	}
}

// ActiveKey reports which workspace is live.
func (e *Engine) ActiveKey() Key {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.key
}

// SwitchSession saves the active workspace and loads the target one.
func (e *Engine) SwitchSession(key Key) error {
	if key.LotteryType != parser.Mode2D && key.LotteryType != parser.Mode3D {
		return fmt.Errorf("unknown lottery type %q", key.LotteryType)
	}
	if key.ActiveMode != ModeMiddle && key.ActiveMode != ModeMain {
		return fmt.Errorf("unknown mode %q", key.ActiveMode)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if key == e.active.key {
		return nil
	}

	e.persist()
	next, err := e.loadSession(key)
	if err != nil {
		return err
	}
	e.active = next
	e.persist()
	return nil
}

// === Betting ===

// SubmitDirect records an operator-typed submission.
func (e *Engine) SubmitDirect(input string) (ledger.HistoryEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	entry, err := e.active.SubmitText(input, "Direct", e.now())
	if e.metrics != nil {
		e.metrics.ParseDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if e.metrics != nil {
			e.metrics.SubmissionsRejected.WithLabelValues("direct").Inc()
		}
		return ledger.HistoryEntry{}, err
	}
	if e.metrics != nil {
		e.metrics.SubmissionsAccepted.WithLabelValues("direct").Inc()
		e.metrics.BetsRecorded.Add(float64(len(entry.Bets)))
	}
	e.persist()
	return entry, nil
}

// InboxResult summarizes an accepted inbox submission for the reply.
type InboxResult struct {
	EntryID   uuid.UUID `json:"entryId"`
	BetCount  int       `json:"betCount"`
	Total     float64   `json:"total"`
	Duplicate bool      `json:"duplicate"`
}

// SubmitInbox records a remote agent's submission. Duplicate message IDs
// are absorbed without effect; unknown agents are registered at the default
// commission before the bets land.
func (e *Engine) SubmitInbox(messageID, agentName, text string) (InboxResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if messageID != "" && e.idem.IsDuplicate("inbox", messageID) {
		if e.metrics != nil {
			e.metrics.SubmissionsRejected.WithLabelValues("inbox_duplicate").Inc()
		}
		return InboxResult{Duplicate: true}, nil
	}

	if e.agents != nil && agentName != "" {
		created, err := e.agents.EnsureAgent(settle.Agent{Name: agentName, Commission: autoRegisterCommission})
		if err != nil {
			e.log.Error().Err(err).Str("agent", agentName).Msg("agent auto-registration failed")
		} else if created {
			e.log.Info().Str("agent", agentName).Msg("agent auto-registered from inbox")
		}
	}

	start := time.Now()
	entry, err := e.active.SubmitText(text, "Inbox: "+agentName, e.now())
	if e.metrics != nil {
		e.metrics.ParseDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if e.metrics != nil {
			e.metrics.SubmissionsRejected.WithLabelValues("inbox").Inc()
		}
		return InboxResult{}, err
	}

	if messageID != "" {
		e.idem.MarkProcessed("inbox", messageID)
	}
	if e.metrics != nil {
		e.metrics.SubmissionsAccepted.WithLabelValues("inbox").Inc()
		e.metrics.BetsRecorded.Add(float64(len(entry.Bets)))
	}
	e.persist()

	var total float64
	for _, b := range entry.Bets {
		total += b.Amount
	}
	return InboxResult{EntryID: entry.ID, BetCount: len(entry.Bets), Total: total}, nil
}

func (e *Engine) UndoLast() (ledger.HistoryEntry, error) {
	return e.mutateEntry(func(s *Session) (ledger.HistoryEntry, error) { return s.UndoLast() })
}

func (e *Engine) DeleteEntry(id uuid.UUID) (ledger.HistoryEntry, error) {
	return e.mutateEntry(func(s *Session) (ledger.HistoryEntry, error) { return s.DeleteEntry(id) })
}

func (e *Engine) DeleteBet(betID uuid.UUID) error {
	return e.mutate(func(s *Session) error { return s.DeleteBet(betID) })
}

func (e *Engine) ClearAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active.ClearAll()
	e.persist()
}

// === Limits ===

func (e *Engine) SetDefaultLimit(v float64) error {
	return e.mutate(func(s *Session) error { return s.SetDefaultLimit(v) })
}

func (e *Engine) AddLimitGroup(name string, amount float64) (state.LimitGroup, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	group, err := e.active.AddLimitGroup(name, amount)
	if err != nil {
		return state.LimitGroup{}, err
	}
	e.persist()
	return group, nil
}

func (e *Engine) RemoveLimitGroup(id uuid.UUID) error {
	return e.mutate(func(s *Session) error { return s.RemoveLimitGroup(id) })
}

func (e *Engine) UpdateLimitGroupAmount(id uuid.UUID, amount float64) error {
	return e.mutate(func(s *Session) error { return s.UpdateLimitGroupAmount(id, amount) })
}

func (e *Engine) ApplyBatchLimit(op state.BatchOp, value float64) error {
	return e.mutate(func(s *Session) error { return s.ApplyBatchLimit(op, value) })
}

func (e *Engine) ClearLimitGroups() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active.ClearLimitGroups()
	e.persist()
}

// === Over-limit ===

func (e *Engine) AcknowledgeForwardable() (string, error) {
	return e.mutateText(func(s *Session, at time.Time) (string, error) { return s.AcknowledgeForwardable(at) })
}

func (e *Engine) AcknowledgeUnacknowledged() (string, error) {
	return e.mutateText(func(s *Session, at time.Time) (string, error) { return s.AcknowledgeUnacknowledged(at) })
}

func (e *Engine) ConvertHeld() (string, error) {
	return e.mutateText(func(s *Session, at time.Time) (string, error) { return s.ConvertHeld(at) })
}

func (e *Engine) Hold(number string) error {
	return e.mutate(func(s *Session) error { return s.Hold(number) })
}

func (e *Engine) Release(number string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active.Release(number)
	e.persist()
}

// === Reads ===

func (e *Engine) Grid() []state.GridCell {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.Grid()
}

func (e *Engine) Cell(number string) (state.GridCell, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.Cell(number)
}

func (e *Engine) History() []ledger.HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.History()
}

func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.Summary()
}

func (e *Engine) WorstCase() (WorstCase, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.WorstCase()
}

func (e *Engine) RiskRanking() []RiskEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.RiskRanking()
}

func (e *Engine) ForwardableList() []state.OverLimitItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.ForwardableList()
}

func (e *Engine) UnacknowledgedList() []state.OverLimitItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.UnacknowledgedList()
}

func (e *Engine) HeldList() []state.OverLimitItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.HeldList()
}

func (e *Engine) LimitGroups() []state.LimitGroup {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.Limits().Groups()
}

func (e *Engine) DefaultLimit() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.Limits().DefaultLimit()
}

func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.Settings()
}

func (e *Engine) UpdateSettings(settings Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active.UpdateSettings(settings)
	e.persist()
}

func (e *Engine) ForwardablePreview() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.ForwardablePreview(e.now())
}

func (e *Engine) HeldPreview() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.HeldPreview(e.now())
}

func (e *Engine) BetListVoucher() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.BetListVoucher(e.now())
}

// === Settlement and performance ===

func (e *Engine) Settle(winningNumber string) (settle.Report, error) {
	agents, err := e.listAgents()
	if err != nil {
		return settle.Report{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.Settle(winningNumber, agents), nil
}

func (e *Engine) AgentPerformance() ([]AgentPerformance, error) {
	agents, err := e.listAgents()
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.AgentPerformance(agents), nil
}

func (e *Engine) listAgents() ([]settle.Agent, error) {
	if e.agents == nil {
		return nil, nil
	}
	agents, err := e.agents.ListAgents()
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

// === Reports ===

// RestoreFromInputs wipes the workspace and replays stored raw submissions
// under the "Restored" source. Lines that no longer parse are skipped.
func (e *Engine) RestoreFromInputs(inputs []string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.active.ClearAll()
	restored := 0
	for _, input := range inputs {
		if _, err := e.active.SubmitText(input, "Restored", e.now()); err == nil {
			restored++
		}
	}
	e.persist()
	return restored
}

// === helpers ===

func (e *Engine) mutate(fn func(*Session) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(e.active); err != nil {
		return err
	}
	e.persist()
	return nil
}

func (e *Engine) mutateEntry(fn func(*Session) (ledger.HistoryEntry, error)) (ledger.HistoryEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, err := fn(e.active)
	if err != nil {
		return ledger.HistoryEntry{}, err
	}
	e.persist()
	return entry, nil
}

func (e *Engine) mutateText(fn func(*Session, time.Time) (string, error)) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	text, err := fn(e.active, e.now())
	if err != nil {
		return "", err
	}
	e.persist()
	return text, nil
}
