// Package settle computes per-source payout balances for a winning number
// by replaying the bet ledger in chronological order.
package settle

import (
	"sort"
	"strings"

	"LottoLedger/internal/ledger"
)

// Agent is a downstream bet source with a negotiated commission rate.
type Agent struct {
	Name       string  `json:"name"`
	Commission float64 `json:"commission"`
}

// Params carries everything the calculation needs besides the ledger.
type Params struct {
	WinningNumber string
	// Limit is the effective limit of the winning number. Winning bets are
	// paid only up to this figure; whatever was forwarded upstream past it
	// is not this book's liability.
	Limit float64
	// PayoutRate multiplies the held winning stake (e.g. 80).
	PayoutRate float64
	// DefaultCommission applies to sources that match no agent.
	DefaultCommission float64
	Agents            []Agent
}

// Totals carries the book-wide figures shown in the report header.
type Totals struct {
	TotalBet       float64
	TotalOverLimit float64
	TotalHeld      float64
}

// SourcePayout is the settlement line for one bet source.
type SourcePayout struct {
	Name           string  `json:"name"`
	IsAgent        bool    `json:"isAgent"`
	CommissionRate float64 `json:"commissionRate"`

	TotalSales       float64 `json:"totalSales"`
	CommissionAmount float64 `json:"commissionAmount"`
	NetSales         float64 `json:"netSales"`

	BetsOnWin          []float64 `json:"betsOnWin"`
	WinBetTotal        float64   `json:"winBetTotal"`
	TotalWinAmount     float64   `json:"totalWinAmount"`
	WinBetOver         float64   `json:"winBetOver"`
	OverLimitWinAmount float64   `json:"overLimitWinAmount"`
	WinBetHeld         float64   `json:"winBetHeld"`
	Payout             float64   `json:"payout"`

	// FinalBalance is netSales minus payout: positive means the source owes
	// the book, negative means the book pays out.
	FinalBalance float64 `json:"finalBalance"`
}

// Report is the full settlement for one winning number.
type Report struct {
	WinningNumber   string         `json:"winningNumber"`
	TotalBet        float64        `json:"totalBet"`
	TotalOverLimit  float64        `json:"totalOverLimitBet"`
	TotalHeldBet    float64        `json:"totalHeldBet"`
	TotalHeldPayout float64        `json:"totalHeldPayout"`
	AgentPayouts    []SourcePayout `json:"agentPayouts"`
	OtherPayouts    []SourcePayout `json:"otherPayouts"`
}

type sourceStats struct {
	isAgent        bool
	commissionRate float64
	totalSales     float64
	winBetTotal    float64
	winBetHeld     float64
	winBetOver     float64
	betsOnWin      []float64
}

// Calculate replays the ledger FIFO against the winning number. The first
// winning stakes fill the limit and are paid; later stakes spill past it
// and are treated as forwarded. Splitting happens mid-bet when a single bet
// straddles the boundary.
func Calculate(entries []ledger.HistoryEntry, params Params, totals Totals) Report {
	stats := make(map[string]*sourceStats)
	var order []string

	resolve := func(rawSource string) (string, bool, float64) {
		clean := strings.TrimSpace(strings.TrimPrefix(rawSource, "Inbox: "))
		for _, a := range params.Agents {
			if strings.EqualFold(a.Name, clean) {
				return a.Name, true, a.Commission
			}
		}
		if strings.HasPrefix(rawSource, "Inbox: ") {
			return clean, false, params.DefaultCommission
		}
		return rawSource, false, params.DefaultCommission
	}

	var runningWinTotal float64

	for _, entry := range entries {
		for _, bet := range entry.Bets {
			name, isAgent, comm := resolve(bet.Source)
			stat, ok := stats[name]
			if !ok {
				stat = &sourceStats{isAgent: isAgent, commissionRate: comm}
				stats[name] = stat
				order = append(order, name)
			}
			stat.totalSales += bet.Amount

			if bet.Number != params.WinningNumber {
				continue
			}
			stat.winBetTotal += bet.Amount
			stat.betsOnWin = append(stat.betsOnWin, bet.Amount)

			spaceRemaining := max(0, params.Limit-runningWinTotal)
			heldPortion := min(bet.Amount, spaceRemaining)
			stat.winBetHeld += heldPortion
			stat.winBetOver += bet.Amount - heldPortion
			runningWinTotal += bet.Amount
		}
	}

	var agents, others []SourcePayout
	for _, name := range order {
		s := stats[name]
		commissionAmount := s.totalSales * s.commissionRate / 100
		netSales := s.totalSales - commissionAmount
		payout := s.winBetHeld * params.PayoutRate

		dto := SourcePayout{
			Name:               name,
			IsAgent:            s.isAgent,
			CommissionRate:     s.commissionRate,
			TotalSales:         s.totalSales,
			CommissionAmount:   commissionAmount,
			NetSales:           netSales,
			BetsOnWin:          s.betsOnWin,
			WinBetTotal:        s.winBetTotal,
			TotalWinAmount:     s.winBetTotal * params.PayoutRate,
			WinBetOver:         s.winBetOver,
			OverLimitWinAmount: s.winBetOver * params.PayoutRate,
			WinBetHeld:         s.winBetHeld,
			Payout:             payout,
			FinalBalance:       netSales - payout,
		}
		if s.isAgent {
			agents = append(agents, dto)
		} else {
			others = append(others, dto)
		}
	}

	bySalesDesc := func(list []SourcePayout) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].TotalSales > list[j].TotalSales
		})
	}
	bySalesDesc(agents)
	bySalesDesc(others)

	heldWin := runningWinTotal - max(0, runningWinTotal-params.Limit)

	return Report{
		WinningNumber:   params.WinningNumber,
		TotalBet:        totals.TotalBet,
		TotalOverLimit:  totals.TotalOverLimit,
		TotalHeldBet:    totals.TotalHeld,
		TotalHeldPayout: heldWin * params.PayoutRate,
		AgentPayouts:    agents,
		OtherPayouts:    others,
	}
}
