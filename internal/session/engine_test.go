package session_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"LottoLedger/internal/parser"
	"LottoLedger/internal/session"
	"LottoLedger/internal/settle"
)

type fakeLoader struct {
	snapshots map[string]session.Snapshot
}

func (f *fakeLoader) LoadSnapshot(key string) (session.Snapshot, bool, error) {
	snap, ok := f.snapshots[key]
	return snap, ok, nil
}

type fakeDirectory struct {
	agents []settle.Agent
}

func (f *fakeDirectory) ListAgents() ([]settle.Agent, error) {
	return f.agents, nil
}

func (f *fakeDirectory) EnsureAgent(agent settle.Agent) (bool, error) {
	for _, a := range f.agents {
		if a.Name == agent.Name {
			return false, nil
		}
	}
	f.agents = append(f.agents, agent)
	return true, nil
}

func newTestEngine(t *testing.T, loader *fakeLoader, dir *fakeDirectory) (*session.Engine, chan session.SaveRequest) {
	t.Helper()
	if loader == nil {
		loader = &fakeLoader{}
	}
	if dir == nil {
		dir = &fakeDirectory{}
	}
	saveCh := make(chan session.SaveRequest, 128)
	engine, err := session.NewEngine(
		session.Key{LotteryType: parser.Mode2D, ActiveMode: session.ModeMiddle},
		loader, dir, saveCh, nil, nil, zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	engine.SetClock(func() time.Time { return testTime })
	return engine, saveCh
}

func drain(ch chan session.SaveRequest) []session.SaveRequest {
	var reqs []session.SaveRequest
	for {
		select {
		case r := <-ch:
			reqs = append(reqs, r)
		default:
			return reqs
		}
	}
}

// ============================================================
// Test: Engine persistence emission
// ============================================================

func TestEngine_MutationsEmitSaves(t *testing.T) {
	engine, saveCh := newTestEngine(t, nil, nil)

	if _, err := engine.SubmitDirect("12 500"); err != nil {
		t.Fatal(err)
	}
	reqs := drain(saveCh)
	if len(reqs) != 1 {
		t.Fatalf("saves = %d, want 1", len(reqs))
	}
	if got := reqs[0].Key.String(); got != "2D_middle" {
		t.Errorf("save key = %s", got)
	}
	if len(reqs[0].Snapshot.History) != 1 {
		t.Errorf("snapshot history = %d entries", len(reqs[0].Snapshot.History))
	}

	// Rejected submissions emit nothing.
	if _, err := engine.SubmitDirect("no bets here"); err == nil {
		t.Fatal("expected parse error")
	}
	if reqs := drain(saveCh); len(reqs) != 0 {
		t.Errorf("rejected submission emitted %d saves", len(reqs))
	}
}

// ============================================================
// Test: Inbox submissions
// ============================================================

func TestEngine_SubmitInbox_DeduplicatesMessageID(t *testing.T) {
	engine, _ := newTestEngine(t, nil, nil)

	first, err := engine.SubmitInbox("msg-1", "Agent A", "12 500")
	if err != nil {
		t.Fatal(err)
	}
	if first.Duplicate {
		t.Fatal("first delivery flagged duplicate")
	}
	if first.BetCount != 1 || first.Total != 500 {
		t.Errorf("result = %+v", first)
	}

	second, err := engine.SubmitInbox("msg-1", "Agent A", "12 500")
	if err != nil {
		t.Fatal(err)
	}
	if !second.Duplicate {
		t.Fatal("redelivery not flagged duplicate")
	}
	if len(engine.History()) != 1 {
		t.Errorf("history = %d entries, want 1", len(engine.History()))
	}
}

func TestEngine_SubmitInbox_AutoRegistersAgent(t *testing.T) {
	dir := &fakeDirectory{}
	engine, _ := newTestEngine(t, nil, dir)

	if _, err := engine.SubmitInbox("msg-1", "New Agent", "12 500"); err != nil {
		t.Fatal(err)
	}
	if len(dir.agents) != 1 {
		t.Fatalf("agents = %d, want 1", len(dir.agents))
	}
	if dir.agents[0].Name != "New Agent" || dir.agents[0].Commission != 15 {
		t.Errorf("registered agent = %+v", dir.agents[0])
	}

	// Known agents are not re-registered.
	if _, err := engine.SubmitInbox("msg-2", "New Agent", "34 100"); err != nil {
		t.Fatal(err)
	}
	if len(dir.agents) != 1 {
		t.Errorf("agents = %d after second message", len(dir.agents))
	}

	// The source carries the inbox prefix for settlement matching.
	history := engine.History()
	if history[0].Source != "Inbox: New Agent" {
		t.Errorf("source = %q", history[0].Source)
	}
}

func TestEngine_SubmitInbox_UnparsableRejected(t *testing.T) {
	engine, _ := newTestEngine(t, nil, nil)
	if _, err := engine.SubmitInbox("msg-1", "Agent A", "nothing"); err == nil {
		t.Fatal("expected error")
	}

	// The failed message ID was never marked processed: a corrected retry
	// with the same ID still lands.
	if _, err := engine.SubmitInbox("msg-1", "Agent A", "12 500"); err != nil {
		t.Fatal(err)
	}
	if len(engine.History()) != 1 {
		t.Errorf("history = %d entries", len(engine.History()))
	}
}

// ============================================================
// Test: Session switching
// ============================================================

func TestEngine_SwitchSession_SavesThenLoads(t *testing.T) {
	loader := &fakeLoader{snapshots: map[string]session.Snapshot{
		"3D_middle": {
			BookieName: "Big Book",
		},
	}}
	engine, saveCh := newTestEngine(t, loader, nil)

	if _, err := engine.SubmitDirect("12 500"); err != nil {
		t.Fatal(err)
	}
	drain(saveCh)

	target := session.Key{LotteryType: parser.Mode3D, ActiveMode: session.ModeMiddle}
	if err := engine.SwitchSession(target); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if engine.ActiveKey() != target {
		t.Errorf("active key = %v", engine.ActiveKey())
	}
	if engine.Settings().BookieName != "Big Book" {
		t.Errorf("loaded settings = %+v", engine.Settings())
	}
	if len(engine.History()) != 0 {
		t.Error("3D session should start with an empty ledger")
	}

	// Outgoing session saved first, incoming session saved after load.
	reqs := drain(saveCh)
	if len(reqs) != 2 {
		t.Fatalf("saves on switch = %d, want 2", len(reqs))
	}
	if reqs[0].Key.String() != "2D_middle" || reqs[1].Key.String() != "3D_middle" {
		t.Errorf("save order = %s, %s", reqs[0].Key, reqs[1].Key)
	}
}

func TestEngine_SwitchSession_PendingSnapshotBeatsStaleRow(t *testing.T) {
	// The loader plays a Postgres that has not yet committed the queued
	// save: it keeps serving the pre-mutation row for the first session.
	loader := &fakeLoader{snapshots: map[string]session.Snapshot{
		"2D_middle": {BookieName: "Stale Row"},
	}}
	engine, _ := newTestEngine(t, loader, nil)

	if _, err := engine.SubmitDirect("12 500"); err != nil {
		t.Fatal(err)
	}

	away := session.Key{LotteryType: parser.Mode3D, ActiveMode: session.ModeMiddle}
	home := session.Key{LotteryType: parser.Mode2D, ActiveMode: session.ModeMiddle}
	if err := engine.SwitchSession(away); err != nil {
		t.Fatal(err)
	}
	if err := engine.SwitchSession(home); err != nil {
		t.Fatal(err)
	}

	// Switching back must reload the snapshot the engine emitted, not the
	// lagging stored row (which would resurrect an empty ledger).
	if got := len(engine.History()); got != 1 {
		t.Fatalf("history after round trip = %d entries, want 1", got)
	}
}

func TestEngine_SwitchSession_RejectsUnknownKey(t *testing.T) {
	engine, _ := newTestEngine(t, nil, nil)
	err := engine.SwitchSession(session.Key{LotteryType: "4D", ActiveMode: session.ModeMiddle})
	if err == nil {
		t.Fatal("expected error for unknown lottery type")
	}
	err = engine.SwitchSession(session.Key{LotteryType: parser.Mode2D, ActiveMode: "other"})
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestEngine_SwitchSession_SameKeyNoop(t *testing.T) {
	engine, saveCh := newTestEngine(t, nil, nil)
	if err := engine.SwitchSession(engine.ActiveKey()); err != nil {
		t.Fatal(err)
	}
	if reqs := drain(saveCh); len(reqs) != 0 {
		t.Errorf("noop switch emitted %d saves", len(reqs))
	}
}

// ============================================================
// Test: Settlement and restore through the engine
// ============================================================

func TestEngine_SettleUsesDirectoryAgents(t *testing.T) {
	dir := &fakeDirectory{agents: []settle.Agent{{Name: "Agent A", Commission: 5}}}
	engine, _ := newTestEngine(t, nil, dir)

	if _, err := engine.SubmitInbox("msg-1", "Agent A", "12 1000"); err != nil {
		t.Fatal(err)
	}

	report, err := engine.Settle("12")
	if err != nil {
		t.Fatal(err)
	}
	if len(report.AgentPayouts) != 1 {
		t.Fatalf("agent payouts = %d", len(report.AgentPayouts))
	}
	if report.AgentPayouts[0].CommissionRate != 5 {
		t.Errorf("commission = %v, want 5 from directory", report.AgentPayouts[0].CommissionRate)
	}
}

func TestEngine_RestoreFromInputs(t *testing.T) {
	engine, _ := newTestEngine(t, nil, nil)
	if _, err := engine.SubmitDirect("99 100"); err != nil {
		t.Fatal(err)
	}

	restored := engine.RestoreFromInputs([]string{"12 500", "garbage line", "34 250"})
	if restored != 2 {
		t.Errorf("restored = %d, want 2", restored)
	}
	history := engine.History()
	if len(history) != 2 {
		t.Fatalf("history = %d entries, want 2 (old ledger cleared)", len(history))
	}
	if history[0].Source != "Restored" {
		t.Errorf("source = %q", history[0].Source)
	}
}
