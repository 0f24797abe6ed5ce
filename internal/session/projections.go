package session

import (
	"sort"
	"strings"

	"LottoLedger/internal/settle"
)

// Summary is the headline financial view of a session.
type Summary struct {
	TotalBetAmount       float64 `json:"totalBetAmount"`
	TotalOverLimitAmount float64 `json:"totalOverLimitAmount"`
	TotalHeldAmount      float64 `json:"totalHeldAmount"`
	PayableCommission    float64 `json:"payableCommission"`
	ReceivableCommission float64 `json:"receivableCommission"`
	NetAmount            float64 `json:"netAmount"`
	PendingForwardable   float64 `json:"pendingForwardable"`
}

// TotalHeldAmount is the exposure this book keeps: everything under limits
// plus the amounts deliberately held past them.
func (s *Session) TotalHeldAmount() float64 {
	base := s.projector.TotalBetAmount() - s.projector.TotalOverLimitAmount()
	return base + s.overlimit.TotalHeld()
}

// Summary assembles the financial scalars.
func (s *Session) Summary() Summary {
	totalBet := s.projector.TotalBetAmount()
	totalOver := s.projector.TotalOverLimitAmount()
	totalHeld := s.TotalHeldAmount()
	payable := totalBet * s.settings.CommissionToPay / 100
	receivable := totalHeld * s.settings.CommissionFromUpperBookie / 100

	var pending float64
	for _, item := range s.ForwardableList() {
		pending += item.Amount
	}

	return Summary{
		TotalBetAmount:       totalBet,
		TotalOverLimitAmount: totalOver,
		TotalHeldAmount:      totalHeld,
		PayableCommission:    payable,
		ReceivableCommission: receivable,
		NetAmount:            totalBet - payable - totalOver,
		PendingForwardable:   pending,
	}
}

// WorstCase is the projected outcome if the most popular number wins.
type WorstCase struct {
	Numbers         []string `json:"numbers"`
	TotalAmount     float64  `json:"totalAmount"`
	HeldAmount      float64  `json:"heldAmount"`
	PotentialPayout float64  `json:"potentialPayout"`
	ProjectedNet    float64  `json:"projectedNet"`
	IsRisk          bool     `json:"isRisk"`
}

// WorstCase finds the number(s) with the highest total exposure and projects
// the net if one of them hits. Liability counts only the held portion; the
// forwarded excess is upstream's problem. Reports false when no bets exist.
func (s *Session) WorstCase() (WorstCase, bool) {
	grid := s.projector.Grid()

	var maxTotal float64
	for _, c := range grid {
		if c.Amount > maxTotal {
			maxTotal = c.Amount
		}
	}
	if maxTotal == 0 {
		return WorstCase{}, false
	}

	var numbers []string
	var maxHeld float64
	for _, c := range grid {
		if c.Amount == maxTotal {
			numbers = append(numbers, c.Number)
			if held := c.Amount - c.OverLimitAmount; held > maxHeld {
				maxHeld = held
			}
		}
	}

	payout := maxHeld * s.settings.PayoutRate
	net := s.Summary().NetAmount - payout
	return WorstCase{
		Numbers:         numbers,
		TotalAmount:     maxTotal,
		HeldAmount:      maxHeld,
		PotentialPayout: payout,
		ProjectedNet:    net,
		IsRisk:          net < 0,
	}, true
}

// RiskEntry is one number's projected profit or loss if it wins.
type RiskEntry struct {
	Number          string  `json:"number"`
	TotalAmount     float64 `json:"totalAmount"`
	IsMaxTotalBet   bool    `json:"isMaxTotalBet"`
	TotalHeld       float64 `json:"totalHeld"`
	EstimatedPayout float64 `json:"estimatedPayout"`
	NetProfitLoss   float64 `json:"netProfitLoss"`
}

const riskRankingSize = 15

// RiskRanking projects the net result per number with bets and returns the
// worst outcomes first.
func (s *Session) RiskRanking() []RiskEntry {
	income := s.TotalHeldAmount()
	grid := s.projector.Grid()

	var maxTotal float64
	for _, c := range grid {
		if c.Amount > maxTotal {
			maxTotal = c.Amount
		}
	}

	risks := make([]RiskEntry, 0, len(grid))
	for _, c := range grid {
		if c.Amount <= 0 {
			continue
		}
		held := c.Amount - c.OverLimitAmount
		payout := held * s.settings.PayoutRate
		risks = append(risks, RiskEntry{
			Number:          c.Number,
			TotalAmount:     c.Amount,
			IsMaxTotalBet:   c.Amount == maxTotal && maxTotal > 0,
			TotalHeld:       held,
			EstimatedPayout: payout,
			NetProfitLoss:   income - payout,
		})
	}

	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].NetProfitLoss < risks[j].NetProfitLoss
	})
	if len(risks) > riskRankingSize {
		risks = risks[:riskRankingSize]
	}
	return risks
}

// AgentPerformance is one agent's sales over the live ledger.
type AgentPerformance struct {
	Name       string  `json:"name"`
	Commission float64 `json:"commission"`
	TotalSales float64 `json:"totalSales"`
}

// AgentPerformance totals each agent's sales by substring-matching bet
// sources, so both "Agent A" and "Inbox: Agent A" count.
func (s *Session) AgentPerformance(agents []settle.Agent) []AgentPerformance {
	out := make([]AgentPerformance, 0, len(agents))
	for _, agent := range agents {
		var total float64
		lowered := strings.ToLower(agent.Name)
		for _, entry := range s.ledger.Entries() {
			for _, bet := range entry.Bets {
				if strings.Contains(strings.ToLower(bet.Source), lowered) {
					total += bet.Amount
				}
			}
		}
		out = append(out, AgentPerformance{
			Name:       agent.Name,
			Commission: agent.Commission,
			TotalSales: total,
		})
	}
	return out
}
