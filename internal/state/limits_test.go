package state_test

import (
	"testing"

	"github.com/google/uuid"

	"LottoLedger/internal/state"
)

// ============================================================
// Test: Limit resolution
// ============================================================

func TestLimitFor_FallsBackToDefault(t *testing.T) {
	b := state.NewLimitBook(10000)
	if got := b.LimitFor("12"); got != 10000 {
		t.Errorf("LimitFor(12) = %v, want default 10000", got)
	}
}

func TestLimitFor_OldestGroupWinsTies(t *testing.T) {
	b := state.NewLimitBook(10000)
	b.AddGroup("12", 500, []string{"12"})
	b.AddGroup("12", 900, []string{"12"})

	// Newer groups insert at the front and older entries overwrite during
	// flattening, so the first-created group keeps the number.
	if got := b.LimitFor("12"); got != 500 {
		t.Errorf("LimitFor(12) = %v, want 500 from the oldest group", got)
	}

	// Removing the winner hands the number to the remaining group.
	for _, g := range b.Groups() {
		if g.Amount == 500 {
			b.RemoveGroup(g.ID)
		}
	}
	if got := b.LimitFor("12"); got != 900 {
		t.Errorf("after removal LimitFor(12) = %v, want 900", got)
	}
}

func TestAddGroup_DeduplicatesAndSortsNumbers(t *testing.T) {
	b := state.NewLimitBook(10000)
	g := b.AddGroup("pao", 300, []string{"49", "05", "49", "16"})

	want := []string{"05", "16", "49"}
	if len(g.Numbers) != len(want) {
		t.Fatalf("group numbers = %v, want %v", g.Numbers, want)
	}
	for i, n := range want {
		if g.Numbers[i] != n {
			t.Errorf("group numbers = %v, want %v", g.Numbers, want)
			break
		}
	}
}

func TestSetDefaultLimit_RejectsNonPositive(t *testing.T) {
	b := state.NewLimitBook(10000)
	if err := b.SetDefaultLimit(0); err == nil {
		t.Error("SetDefaultLimit(0) should fail")
	}
	if err := b.SetDefaultLimit(-5); err == nil {
		t.Error("SetDefaultLimit(-5) should fail")
	}
	if b.DefaultLimit() != 10000 {
		t.Errorf("default limit changed on rejected update: %v", b.DefaultLimit())
	}
	if err := b.SetDefaultLimit(2500); err != nil {
		t.Errorf("SetDefaultLimit(2500) failed: %v", err)
	}
}

func TestRestore_CarriesGroupFields(t *testing.T) {
	b := state.NewLimitBook(10000)
	b.Restore(8000, []state.LimitGroup{{
		ID:      uuid.New(),
		Name:    "12",
		Amount:  500,
		Numbers: []string{"12"},
		IsOpen:  true,
	}})

	if b.DefaultLimit() != 8000 {
		t.Errorf("default limit = %v, want 8000", b.DefaultLimit())
	}
	g := b.Groups()[0]
	if g.Name != "12" || g.Amount != 500 {
		t.Errorf("group = %+v", g)
	}
	if !g.IsOpen {
		t.Error("isOpen flag lost through restore")
	}
}

// ============================================================
// Test: Batch adjustments
// ============================================================

func TestApplyBatch_AdjustsEveryGroup(t *testing.T) {
	b := state.NewLimitBook(10000)
	b.AddGroup("12", 500, []string{"12"})
	b.AddGroup("34", 300, []string{"34"})

	if err := b.ApplyBatch(state.BatchAdd, 100); err != nil {
		t.Fatalf("add: %v", err)
	}
	if b.LimitFor("12") != 600 || b.LimitFor("34") != 400 {
		t.Errorf("after add: 12=%v 34=%v", b.LimitFor("12"), b.LimitFor("34"))
	}

	if err := b.ApplyBatch(state.BatchSubtract, 450); err != nil {
		t.Fatalf("sub: %v", err)
	}
	// Subtraction floors at zero.
	if b.LimitFor("12") != 150 || b.LimitFor("34") != 0 {
		t.Errorf("after sub: 12=%v 34=%v", b.LimitFor("12"), b.LimitFor("34"))
	}

	if err := b.ApplyBatch(state.BatchSet, 700); err != nil {
		t.Fatalf("set: %v", err)
	}
	if b.LimitFor("12") != 700 || b.LimitFor("34") != 700 {
		t.Errorf("after set: 12=%v 34=%v", b.LimitFor("12"), b.LimitFor("34"))
	}
}

func TestApplyBatch_RejectsInvalidValues(t *testing.T) {
	b := state.NewLimitBook(10000)
	b.AddGroup("12", 500, []string{"12"})

	if err := b.ApplyBatch(state.BatchAdd, 0); err == nil {
		t.Error("add 0 should be rejected")
	}
	if err := b.ApplyBatch(state.BatchSubtract, -10); err == nil {
		t.Error("sub -10 should be rejected")
	}
	if err := b.ApplyBatch(state.BatchSet, -1); err == nil {
		t.Error("set -1 should be rejected")
	}
	if b.LimitFor("12") != 500 {
		t.Errorf("group changed by rejected batch: %v", b.LimitFor("12"))
	}
	// Set to zero is allowed: it closes the numbers entirely.
	if err := b.ApplyBatch(state.BatchSet, 0); err != nil {
		t.Errorf("set 0 should be allowed: %v", err)
	}
}
