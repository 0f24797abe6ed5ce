package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Mode selects the digit width and keyword table.
type Mode string

const (
	Mode2D Mode = "2D"
	Mode3D Mode = "3D"
)

// Width returns the digit width of the mode.
func (m Mode) Width() int {
	if m == Mode3D {
		return 3
	}
	return 2
}

// RawBet is one elementary bet: a fixed-width number and a stake.
// Amounts are real; reverse-splits produce exact halves.
type RawBet struct {
	Number string  `json:"number"`
	Amount float64 `json:"amount"`
}

var (
	metadataRe  = regexp.MustCompile(`(?i)^(agent|session|sub-total|total|နေ့စွဲ|date)`)
	totalLineRe = regexp.MustCompile(`(?i)^total\s*:`)
	separatorRe = regexp.MustCompile(`^[-=_]{3,}`)

	batchEqualRe   = regexp.MustCompile(`(?i)^(.+?)\s*=\s*(\d+k?)$`)
	mixedReverseRe = regexp.MustCompile(`(?i)^(.+?)\s+(\d+k?)r(\d+k?)$`)
	bulkReverseRe  = regexp.MustCompile(`(?i)((?:\b\d{2}\s+)+)r\s+(\d+k?)\b`)
	inlineMixedRe  = regexp.MustCompile(`(?i)^\d+k?r\d+k?$`)

	tokenNoiseReplacer  = strings.NewReplacer("=", " ", "/", " ", "၊", " ", ",", " ", "*", " ", "-", " ", "_", " ")
	globalNoiseReplacer = strings.NewReplacer("=", " ", "/", " ", "၊", " ", ",", " ", "*", " ", "-", " ", "_", " ", ":", " ",
		"¥", " ", "$", " ", "£", " ", "€", " ")
	currencyReplacer = strings.NewReplacer("¥", "", "$", "", "£", "", "€", "")
)

// Parse expands free-text shorthand into the ordered sequence of elementary
// bets it describes. It never fails: fragments that match nothing are
// dropped, and an empty result is the only format-error signal.
func Parse(input string, mode Mode) []RawBet {
	bets := make([]RawBet, 0, 16)
	coreParse(input, mode, func(number string, amount float64) {
		bets = append(bets, RawBet{Number: number, Amount: amount})
	})
	return bets
}

// ParseTotals expands shorthand and aggregates repeated numbers into one
// total per number. Used by callers that only care about exposure, not
// bet order.
func ParseTotals(input string, mode Mode) map[string]float64 {
	totals := make(map[string]float64)
	coreParse(input, mode, func(number string, amount float64) {
		totals[number] += amount
	})
	return totals
}

// coreParse runs the three extraction tiers per line: batch-equal, mixed
// reverse batch (2D only), then the positional (key, amount) token scan over
// whatever lines the first two tiers did not claim.
func coreParse(input string, mode Mode, emit func(string, float64)) {
	var buffered []string

	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if trimmed == "" {
			continue
		}
		if metadataRe.MatchString(trimmed) || totalLineRe.MatchString(trimmed) {
			continue
		}
		if strings.Contains(trimmed, "စုစုပေါင်း") {
			continue
		}
		if separatorRe.MatchString(trimmed) {
			continue
		}

		// Native-script digits and keywords become canonical tokens, but
		// structural delimiters like '=' survive until tier dispatch.
		processed := normalize(trimmed)

		if m := batchEqualRe.FindStringSubmatch(processed); m != nil {
			amount, ok := parseAmount(m[2])
			if ok {
				for _, token := range splitTokens(tokenNoiseReplacer.Replace(m[1])) {
					expandKey(strings.ToLower(token), amount, mode, emit)
				}
				continue
			}
		}

		if mode == Mode2D {
			if m := mixedReverseRe.FindStringSubmatch(processed); m != nil {
				directAmt, okD := parseAmount(m[2])
				reverseAmt, okR := parseAmount(m[3])
				if okD && okR {
					for _, token := range splitTokens(tokenNoiseReplacer.Replace(m[1])) {
						// Expand the token with a zero stake, then stake each
						// expansion and its reversal separately.
						expandKey(strings.ToLower(token), 0, mode, func(n string, _ float64) {
							emit(n, directAmt)
							if rev := reverseDigits(n); rev != n {
								emit(rev, reverseAmt)
							}
						})
					}
					continue
				}
			}
		}

		buffered = append(buffered, processed)
	}

	remaining := globalNoiseReplacer.Replace(strings.Join(buffered, "\n"))

	// Bulk reverse: "12 34 r 100" rewrites to "12r 100 34r 100" so the token
	// scan below sees ordinary (key, amount) pairs.
	if mode == Mode2D {
		remaining = bulkReverseRe.ReplaceAllStringFunc(remaining, func(match string) string {
			m := bulkReverseRe.FindStringSubmatch(match)
			numbers := splitTokens(m[1])
			pairs := make([]string, 0, len(numbers))
			for _, n := range numbers {
				pairs = append(pairs, n+"r "+m[2])
			}
			return strings.Join(pairs, " ")
		})
	}

	entries := splitTokens(remaining)

	for i := 0; i < len(entries); {
		if i+1 < len(entries) {
			key := strings.ToLower(entries[i])
			amountTok := entries[i+1]

			// Inline mixed split "12 3r2": direct 3 on 12, reverse 2 on 21.
			// Only literal two-digit keys qualify.
			if mode == Mode2D && inlineMixedRe.MatchString(amountTok) {
				parts := strings.SplitN(strings.ToLower(amountTok), "r", 2)
				directAmt, okD := parseAmount(parts[0])
				reverseAmt, okR := parseAmount(parts[1])
				if okD && okR && isDigits(key) && len(key) == 2 {
					emit(key, directAmt)
					if rev := reverseDigits(key); rev != key {
						emit(rev, reverseAmt)
					}
					i += 2
					continue
				}
			}

			if amount, ok := parseAmount(amountTok); ok {
				if expandKey(key, amount, mode, emit) {
					i += 2
					continue
				}
			}
		}
		i++
	}
}

// parseAmount reads a stake token: currency symbols stripped, a trailing
// 'k' multiplies by 1000, fractional values allowed.
func parseAmount(s string) (float64, bool) {
	clean := currencyReplacer.Replace(s)
	isK := strings.HasSuffix(strings.ToLower(clean), "k")

	var b strings.Builder
	for _, r := range clean {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	amount, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	if isK {
		amount *= 1000
	}
	return amount, true
}

func splitTokens(s string) []string {
	return strings.Fields(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func reverseDigits(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
