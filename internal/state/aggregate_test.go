package state_test

import (
	"reflect"
	"testing"
	"time"

	"LottoLedger/internal/ledger"
	"LottoLedger/internal/parser"
	"LottoLedger/internal/state"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newProjector(mode parser.Mode, defaultLimit float64) (*ledger.BetLedger, *state.LimitBook, *state.Projector) {
	l := ledger.NewBetLedger()
	limits := state.NewLimitBook(defaultLimit)
	return l, limits, state.NewProjector(l, limits, mode)
}

// ============================================================
// Test: Aggregation
// ============================================================

func TestAggregation_SumsAcrossEntriesAndKeepsOrder(t *testing.T) {
	l, _, p := newProjector(parser.Mode2D, 10000)
	l.Append("12 100", "A", []parser.RawBet{{Number: "12", Amount: 100}}, testTime)
	l.Append("12 50 34 20", "B", []parser.RawBet{
		{Number: "12", Amount: 50},
		{Number: "34", Amount: 20},
	}, testTime)

	agg := p.Aggregation()
	if agg.Totals["12"] != 150 || agg.Totals["34"] != 20 {
		t.Errorf("totals = %v", agg.Totals)
	}
	bd := agg.Breakdown["12"]
	if len(bd) != 2 || bd[0].Source != "A" || bd[1].Source != "B" {
		t.Errorf("breakdown for 12 not chronological: %v", bd)
	}
}

func TestAggregation_MemoizedUntilLedgerChanges(t *testing.T) {
	l, _, p := newProjector(parser.Mode2D, 10000)
	l.Append("12 100", "A", []parser.RawBet{{Number: "12", Amount: 100}}, testTime)

	first := p.Aggregation()
	second := p.Aggregation()
	if reflect.ValueOf(first.Totals).Pointer() != reflect.ValueOf(second.Totals).Pointer() {
		t.Error("aggregation recomputed with no ledger mutation")
	}

	l.Append("34 50", "A", []parser.RawBet{{Number: "34", Amount: 50}}, testTime)
	third := p.Aggregation()
	if reflect.ValueOf(second.Totals).Pointer() == reflect.ValueOf(third.Totals).Pointer() {
		t.Error("aggregation not recomputed after ledger mutation")
	}
}

func TestAggregation_RecomputesAfterMutation(t *testing.T) {
	l, _, p := newProjector(parser.Mode2D, 10000)
	entry := l.Append("12 100", "A", []parser.RawBet{{Number: "12", Amount: 100}}, testTime)

	if got := p.Aggregation().Totals["12"]; got != 100 {
		t.Fatalf("totals[12] = %v", got)
	}

	l.RemoveEntry(entry.ID)
	if got := p.Aggregation().Totals["12"]; got != 0 {
		t.Errorf("after removal totals[12] = %v, want 0", got)
	}
}

// ============================================================
// Test: Grid
// ============================================================

func TestGrid_2DIsDenseAndOrdered(t *testing.T) {
	l, _, p := newProjector(parser.Mode2D, 10000)
	l.Append("12 100", "A", []parser.RawBet{{Number: "12", Amount: 100}}, testTime)

	grid := p.Grid()
	if len(grid) != 100 {
		t.Fatalf("2D grid has %d cells, want 100", len(grid))
	}
	if grid[0].Number != "00" || grid[99].Number != "99" {
		t.Errorf("grid bounds: %s..%s", grid[0].Number, grid[99].Number)
	}
	if grid[12].Amount != 100 {
		t.Errorf("cell 12 amount = %v", grid[12].Amount)
	}
}

func TestGrid_3DIsSparseUnionOfBetsAndCustomLimits(t *testing.T) {
	l, limits, p := newProjector(parser.Mode3D, 10000)
	l.Append("555 100", "A", []parser.RawBet{{Number: "555", Amount: 100}}, testTime)
	limits.AddGroup("123", 500, []string{"123"})

	grid := p.Grid()
	if len(grid) != 2 {
		t.Fatalf("3D grid has %d cells, want 2", len(grid))
	}
	if grid[0].Number != "123" || grid[1].Number != "555" {
		t.Errorf("3D grid order: %s, %s", grid[0].Number, grid[1].Number)
	}
	if !grid[0].HasCustomLimit || grid[0].Amount != 0 {
		t.Errorf("custom-limit-only cell: %+v", grid[0])
	}
}

func TestGrid_OverLimitComputation(t *testing.T) {
	l, limits, p := newProjector(parser.Mode2D, 1000)
	limits.AddGroup("12", 300, []string{"12"})
	l.Append("12 500 34 500", "A", []parser.RawBet{
		{Number: "12", Amount: 500},
		{Number: "34", Amount: 500},
	}, testTime)

	c12, _ := p.Cell("12")
	if !c12.IsOverLimit || c12.OverLimitAmount != 200 || c12.Limit != 300 {
		t.Errorf("cell 12: %+v", c12)
	}
	c34, _ := p.Cell("34")
	if c34.IsOverLimit || c34.OverLimitAmount != 0 {
		t.Errorf("cell 34: %+v", c34)
	}

	// Exactly at the limit is not over.
	l.Append("34 500", "A", []parser.RawBet{{Number: "34", Amount: 500}}, testTime)
	c34, _ = p.Cell("34")
	if c34.IsOverLimit {
		t.Error("amount equal to limit must not be over-limit")
	}

	if got := p.TotalOverLimitAmount(); got != 200 {
		t.Errorf("TotalOverLimitAmount = %v, want 200", got)
	}
	if got := p.TotalBetAmount(); got != 1500 {
		t.Errorf("TotalBetAmount = %v, want 1500", got)
	}
}

func TestGrid_ReactsToLimitChanges(t *testing.T) {
	l, limits, p := newProjector(parser.Mode2D, 1000)
	l.Append("12 1500", "A", []parser.RawBet{{Number: "12", Amount: 1500}}, testTime)

	if got := p.OverLimitAmount("12"); got != 500 {
		t.Fatalf("over = %v, want 500", got)
	}
	if err := limits.SetDefaultLimit(2000); err != nil {
		t.Fatal(err)
	}
	if got := p.OverLimitAmount("12"); got != 0 {
		t.Errorf("over after raising limit = %v, want 0", got)
	}
}
