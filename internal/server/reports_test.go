package server

import (
	"testing"

	"github.com/rs/zerolog"

	"LottoLedger/internal/parser"
	"LottoLedger/internal/persistence"
	"LottoLedger/internal/session"
	"LottoLedger/internal/state"
)

func newRestoreEngine(t *testing.T) *session.Engine {
	t.Helper()
	engine, err := session.NewEngine(
		session.Key{LotteryType: parser.Mode2D, ActiveMode: session.ModeMiddle},
		nil, nil, nil, nil, nil, zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

// ============================================================
// Test: Report restore application
// ============================================================

func TestApplyReport_RebuildsWorkspace(t *testing.T) {
	engine := newRestoreEngine(t)
	if _, err := engine.SubmitDirect("99 100"); err != nil {
		t.Fatal(err)
	}

	report := persistence.Report{
		Name:         "End of day",
		Settings:     session.Settings{BookieName: "Archive", PayoutRate: 85, CurrencySymbol: "K"},
		DefaultLimit: 8000,
		LimitGroups:  []state.LimitGroup{{Name: "apu", Amount: 500}},
		RawInputs:    []string{"12 500", "not a bet", "34 250"},
	}

	restored := applyReport(engine, report, zerolog.Nop())
	if restored != 2 {
		t.Errorf("restored = %d, want 2", restored)
	}
	if got := len(engine.History()); got != 2 {
		t.Errorf("history = %d entries, want 2 (old ledger cleared)", got)
	}
	if got := engine.DefaultLimit(); got != 8000 {
		t.Errorf("default limit = %v, want 8000", got)
	}
	if got := len(engine.LimitGroups()); got != 1 {
		t.Errorf("limit groups = %d, want 1", got)
	}
	if got := engine.Settings().BookieName; got != "Archive" {
		t.Errorf("bookie name = %q", got)
	}
}

func TestApplyReport_InvalidStoredValuesSkipped(t *testing.T) {
	engine := newRestoreEngine(t)

	// A report with no stored default limit and an unexpandable group name
	// must not disturb the current limits.
	report := persistence.Report{
		Settings:    session.Settings{BookieName: "Sparse", CurrencySymbol: "K"},
		LimitGroups: []state.LimitGroup{{Name: "zzz", Amount: 500}},
		RawInputs:   []string{"12 100"},
	}

	if restored := applyReport(engine, report, zerolog.Nop()); restored != 1 {
		t.Errorf("restored = %d, want 1", restored)
	}
	if got := engine.DefaultLimit(); got != 10000 {
		t.Errorf("default limit = %v, want untouched 10000", got)
	}
	if got := len(engine.LimitGroups()); got != 0 {
		t.Errorf("limit groups = %d, want 0 (bad group skipped)", got)
	}
}
