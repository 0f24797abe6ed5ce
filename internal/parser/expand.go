package parser

import (
	"fmt"
	"strconv"
	"strings"
)

var (
	powerNumbers  = []string{"05", "16", "27", "38", "49"}
	nakhatNumbers = []string{"07", "18", "35", "69", "24"}
	nyiKoNumbers  = []string{"01", "12", "23", "34", "45", "56", "67", "78", "89", "90"}
	tenFullPairs  = []string{"19", "28", "37", "46", "55"}
	evenDigits    = []string{"0", "2", "4", "6", "8"}
	oddDigits     = []string{"1", "3", "5", "7", "9"}
)

// expandKey turns one shorthand key into its elementary numbers, emitting
// each with the given amount. Returns false when the key matches no pattern
// of the mode so the caller can treat the token as noise.
func expandKey(key string, amount float64, mode Mode, emit func(string, float64)) bool {
	if mode == Mode3D {
		return expand3D(key, amount, emit)
	}
	return expand2D(key, amount, emit)
}

// emitPair2D emits n, then its reversal when the digits differ.
func emitPair2D(n string, amount float64, emit func(string, float64)) {
	emit(n, amount)
	if n[0] != n[1] {
		emit(reverseDigits(n), amount)
	}
}

func expand2D(key string, amount float64, emit func(string, float64)) bool {
	if base, ok := strings.CutSuffix(key, "r"); ok && len(base) == 2 && isDigits(base) {
		rev := reverseDigits(base)
		if base == rev {
			emit(base, amount)
		} else {
			// Exact halves; fractional stakes are intended here.
			emit(base, amount/2)
			emit(rev, amount/2)
		}
		return true
	}

	switch key {
	case "apu":
		for j := 0; j < 10; j++ {
			emit(fmt.Sprintf("%d%d", j, j), amount)
		}
		return true
	case "nk":
		for _, n := range nyiKoNumbers {
			emitPair2D(n, amount, emit)
		}
		return true
	case "pao":
		for _, n := range powerNumbers {
			emitPair2D(n, amount, emit)
		}
		return true
	case "nat":
		for _, n := range nakhatNumbers {
			emitPair2D(n, amount, emit)
		}
		return true
	case "ss":
		emitDigitProduct(evenDigits, evenDigits, false, amount, emit)
		return true
	case "mm":
		emitDigitProduct(oddDigits, oddDigits, false, amount, emit)
		return true
	case "ssp":
		emitDigitProduct(evenDigits, evenDigits, true, amount, emit)
		return true
	case "mmp":
		emitDigitProduct(oddDigits, oddDigits, true, amount, emit)
		return true
	case "sm":
		for _, d1 := range evenDigits {
			for _, d2 := range oddDigits {
				emit(d1+d2, amount)
			}
		}
		return true
	case "ms":
		for _, d1 := range oddDigits {
			for _, d2 := range evenDigits {
				emit(d1+d2, amount)
			}
		}
		return true
	case "sp":
		for _, n := range tenFullPairs {
			emitPair2D(n, amount, emit)
		}
		return true
	case "all":
		for j := 0; j < 100; j++ {
			emit(fmt.Sprintf("%02d", j), amount)
		}
		return true
	case "bb":
		emitDigitSum2D(0, amount, emit)
		return true
	}

	last := key[len(key)-1:]
	base := key[:len(key)-1]
	if base != "" && base[0] >= '0' && base[0] <= '9' {
		switch {
		case last == "t" && len(base) == 1:
			for j := 0; j < 10; j++ {
				emit(base+strconv.Itoa(j), amount)
			}
			return true
		case last == "p" && len(base) == 1:
			for j := 0; j < 10; j++ {
				emit(strconv.Itoa(j)+base, amount)
			}
			return true
		case last == "a" && len(base) == 1:
			for j := 0; j < 100; j++ {
				n := fmt.Sprintf("%02d", j)
				if strings.Contains(n, base) {
					emit(n, amount)
				}
			}
			return true
		case last == "k" && isDigits(base):
			digits := uniqueDigits(base)
			for _, d1 := range digits {
				for _, d2 := range digits {
					emit(d1+d2, amount)
				}
			}
			return true
		case last == "v" || last == "b":
			target, err := strconv.Atoi(base)
			if err == nil && target >= 0 && target <= 9 {
				emitDigitSum2D(target, amount, emit)
				return true
			}
		}
	}

	if len(key) == 2 && isDigits(key) {
		emit(key, amount)
		return true
	}
	return false
}

func expand3D(key string, amount float64, emit func(string, float64)) bool {
	if len(key) == 3 && isDigits(key) {
		emit(key, amount)
		return true
	}
	if key == "apu" {
		for j := 0; j < 10; j++ {
			emit(fmt.Sprintf("%d%d%d", j, j, j), amount)
		}
		return true
	}

	last := key[len(key)-1:]
	base := key[:len(key)-1]

	switch last {
	case "r":
		if len(base) == 3 && isDigits(base) {
			for _, p := range uniquePermutations(base) {
				emit(p, amount)
			}
			return true
		}
	case "t":
		if len(base) == 1 && isDigits(base) {
			for j := 0; j < 100; j++ {
				emit(fmt.Sprintf("%s%02d", base, j), amount)
			}
			return true
		}
	case "p":
		if len(base) == 1 && isDigits(base) {
			for j := 0; j < 100; j++ {
				emit(fmt.Sprintf("%02d%s", j, base), amount)
			}
			return true
		}
	case "k":
		if isDigits(base) {
			digits := uniqueDigits(base)
			for _, d1 := range digits {
				for _, d2 := range digits {
					for _, d3 := range digits {
						emit(d1+d2+d3, amount)
					}
				}
			}
			return true
		}
	case "a":
		if len(base) == 1 && isDigits(base) {
			for j := 0; j < 1000; j++ {
				n := fmt.Sprintf("%03d", j)
				if strings.Contains(n, base) {
					emit(n, amount)
				}
			}
			return true
		}
	case "v", "b":
		target, err := strconv.Atoi(base)
		if err == nil && target >= 0 && target <= 9 {
			for j := 0; j < 1000; j++ {
				n := fmt.Sprintf("%03d", j)
				if digitSum(n)%10 == target {
					emit(n, amount)
				}
			}
			return true
		}
	}

	// Combined top+tail pattern "XtYp": first digit X, last digit Y.
	if len(key) == 4 && key[1] == 't' && key[3] == 'p' &&
		isDigits(key[:1]) && isDigits(key[2:3]) {
		for j := 0; j < 10; j++ {
			emit(fmt.Sprintf("%c%d%c", key[0], j, key[2]), amount)
		}
		return true
	}
	return false
}

func emitDigitProduct(firsts, seconds []string, palindrome bool, amount float64, emit func(string, float64)) {
	for _, d1 := range firsts {
		for _, d2 := range seconds {
			if (d1 == d2) == palindrome {
				emit(d1+d2, amount)
			}
		}
	}
}

func emitDigitSum2D(target int, amount float64, emit func(string, float64)) {
	for j := 0; j < 100; j++ {
		n := fmt.Sprintf("%02d", j)
		if digitSum(n)%10 == target {
			emit(n, amount)
		}
	}
}

func digitSum(s string) int {
	sum := 0
	for _, r := range s {
		sum += int(r - '0')
	}
	return sum
}

// uniqueDigits returns the distinct digits of s in first-occurrence order.
func uniqueDigits(s string) []string {
	var seen [10]bool
	out := make([]string, 0, len(s))
	for _, r := range s {
		d := r - '0'
		if !seen[d] {
			seen[d] = true
			out = append(out, string(r))
		}
	}
	return out
}

// uniquePermutations enumerates permutations depth-first by position, keeping
// the first occurrence of each distinct arrangement. "112" yields 112, 121,
// 211 in that order.
func uniquePermutations(s string) []string {
	if len(s) == 1 {
		return []string{s}
	}
	seen := make(map[string]bool)
	var out []string
	var permute func(rest []byte, prefix []byte)
	permute = func(rest []byte, prefix []byte) {
		if len(rest) == 0 {
			p := string(prefix)
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
			return
		}
		for i := range rest {
			next := make([]byte, 0, len(rest)-1)
			next = append(next, rest[:i]...)
			next = append(next, rest[i+1:]...)
			grown := make([]byte, len(prefix)+1)
			copy(grown, prefix)
			grown[len(prefix)] = rest[i]
			permute(next, grown)
		}
	}
	permute([]byte(s), nil)
	return out
}
