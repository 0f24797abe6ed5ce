package state

import (
	"fmt"
	"sort"

	"LottoLedger/internal/ledger"
	"LottoLedger/internal/parser"
)

// GridCell is the per-number view joining exposure against the effective
// limit.
type GridCell struct {
	Number          string             `json:"number"`
	Amount          float64            `json:"amount"`
	Limit           float64            `json:"limit"`
	HasCustomLimit  bool               `json:"hasCustomLimit"`
	IsOverLimit     bool               `json:"isOverLimit"`
	OverLimitAmount float64            `json:"overLimitAmount"`
	Breakdown       []ledger.BetDetail `json:"breakdown"`
}

// Aggregation is the exposure projection of the ledger: per-number totals
// and the contributing bets in chronological order.
type Aggregation struct {
	Totals    map[string]float64
	Breakdown map[string][]ledger.BetDetail
}

// Projector computes read-side views of one session's ledger and limit
// book. Results are memoized against the source version counters, so
// repeated reads between mutations are free.
type Projector struct {
	ledger *ledger.BetLedger
	limits *LimitBook
	mode   parser.Mode

	aggVersion uint64
	aggValid   bool
	agg        Aggregation

	gridLedgerV uint64
	gridLimitsV uint64
	gridValid   bool
	grid        []GridCell
}

func NewProjector(l *ledger.BetLedger, limits *LimitBook, mode parser.Mode) *Projector {
	return &Projector{ledger: l, limits: limits, mode: mode}
}

// Aggregation returns the memoized totals/breakdown projection.
func (p *Projector) Aggregation() Aggregation {
	if p.aggValid && p.aggVersion == p.ledger.Version() {
		return p.agg
	}

	totals := make(map[string]float64)
	breakdown := make(map[string][]ledger.BetDetail)
	for _, entry := range p.ledger.Entries() {
		for _, b := range entry.Bets {
			if b.Number == "" {
				continue
			}
			totals[b.Number] += b.Amount
			breakdown[b.Number] = append(breakdown[b.Number], b)
		}
	}

	p.agg = Aggregation{Totals: totals, Breakdown: breakdown}
	p.aggVersion = p.ledger.Version()
	p.aggValid = true
	p.gridValid = false
	return p.agg
}

// Grid materializes the per-number cells. 2D yields all 100 cells in order;
// 3D yields only numbers with bets or custom limits, sorted.
func (p *Projector) Grid() []GridCell {
	if p.gridValid && p.gridLedgerV == p.ledger.Version() && p.gridLimitsV == p.limits.Version() {
		return p.grid
	}

	agg := p.Aggregation()
	custom := p.limits.CustomLimits()
	defLimit := p.limits.DefaultLimit()

	var numbers []string
	if p.mode == parser.Mode3D {
		seen := make(map[string]bool, len(agg.Totals)+len(custom))
		for n := range agg.Totals {
			seen[n] = true
		}
		for n := range custom {
			seen[n] = true
		}
		numbers = make([]string, 0, len(seen))
		for n := range seen {
			numbers = append(numbers, n)
		}
		sort.Strings(numbers)
	} else {
		numbers = make([]string, 0, 100)
		for i := 0; i < 100; i++ {
			numbers = append(numbers, fmt.Sprintf("%02d", i))
		}
	}

	cells := make([]GridCell, 0, len(numbers))
	for _, n := range numbers {
		amount := agg.Totals[n]
		limit, hasCustom := custom[n]
		if !hasCustom {
			limit = defLimit
		}
		cells = append(cells, GridCell{
			Number:          n,
			Amount:          amount,
			Limit:           limit,
			HasCustomLimit:  hasCustom,
			IsOverLimit:     amount > limit,
			OverLimitAmount: max(0, amount-limit),
			Breakdown:       agg.Breakdown[n],
		})
	}

	p.grid = cells
	p.gridLedgerV = p.ledger.Version()
	p.gridLimitsV = p.limits.Version()
	p.gridValid = true
	return p.grid
}

// Cell returns the grid cell for one number. For 2D an unknown number
// reports false; for 3D a number with no bets and no custom limit does too.
func (p *Projector) Cell(number string) (GridCell, bool) {
	for _, c := range p.Grid() {
		if c.Number == number {
			return c, true
		}
	}
	return GridCell{}, false
}

// OverLimitCells filters the grid down to numbers past their limit.
func (p *Projector) OverLimitCells() []GridCell {
	var out []GridCell
	for _, c := range p.Grid() {
		if c.IsOverLimit {
			out = append(out, c)
		}
	}
	return out
}

// OverLimitAmount reports the exposure past the limit for one number.
func (p *Projector) OverLimitAmount(number string) float64 {
	if c, ok := p.Cell(number); ok {
		return c.OverLimitAmount
	}
	return 0
}

// TotalBetAmount sums all exposure.
func (p *Projector) TotalBetAmount() float64 {
	var sum float64
	for _, c := range p.Grid() {
		sum += c.Amount
	}
	return sum
}

// TotalOverLimitAmount sums exposure past limits.
func (p *Projector) TotalOverLimitAmount() float64 {
	var sum float64
	for _, c := range p.OverLimitCells() {
		sum += c.OverLimitAmount
	}
	return sum
}
