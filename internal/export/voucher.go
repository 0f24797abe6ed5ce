// Package export renders over-limit and bet-list vouchers as plain text in
// the layout bookies exchange over chat.
package export

import (
	"strconv"
	"strings"
	"time"

	"LottoLedger/internal/state"
)

const separator = "--------------------"

// itemsPerBlock is the voucher line count between separators.
const itemsPerBlock = 10

// Voucher renders a number/amount list as forwarding text: header with the
// bookie name and date, the items in ten-line blocks, and a count + grand
// total footer.
func Voucher(bookieName, currencySymbol string, items []state.OverLimitItem, at time.Time) string {
	var b strings.Builder
	b.WriteString("--- " + bookieName + " ---\n")
	b.WriteString("နေ့စွဲ - " + at.Format("02/01/2006 (3:04 PM)") + "\n")
	b.WriteString(separator + "\n")

	var total float64
	for i, item := range items {
		b.WriteString(item.Number + " = " + FormatAmount(item.Amount) + "\n")
		total += item.Amount
		if (i+1)%itemsPerBlock == 0 && i+1 < len(items) {
			b.WriteString(separator + "\n")
		}
	}

	b.WriteString(separator + "\n")
	b.WriteString("စုစုပေါင်း: (" + strconv.Itoa(len(items)) + ") ကွက် - " +
		FormatAmount(total) + " " + currencySymbol)
	return b.String()
}

// BetListVoucher renders every number carrying exposure, in grid order.
func BetListVoucher(bookieName, currencySymbol string, grid []state.GridCell, at time.Time) string {
	items := make([]state.OverLimitItem, 0, len(grid))
	for _, c := range grid {
		if c.Amount > 0 {
			items = append(items, state.OverLimitItem{Number: c.Number, Amount: c.Amount})
		}
	}
	return Voucher(bookieName, currencySymbol, items, at)
}

// FormatAmount renders an amount with thousands separators, keeping any
// fractional digits without padding.
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}
