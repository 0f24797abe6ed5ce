package parser_test

import (
	"reflect"
	"testing"

	"LottoLedger/internal/parser"
)

func bets(pairs ...interface{}) []parser.RawBet {
	out := make([]parser.RawBet, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, parser.RawBet{
			Number: pairs[i].(string),
			Amount: pairs[i+1].(float64),
		})
	}
	return out
}

// ============================================================
// Test: Reverse splits
// ============================================================

func TestParse_ReverseSplitsHalves(t *testing.T) {
	got := parser.Parse("12r 100", parser.Mode2D)
	want := bets("12", 50.0, "21", 50.0)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("12r 100: got %v, want %v", got, want)
	}
}

func TestParse_ReversePalindromeKeepsFullAmount(t *testing.T) {
	got := parser.Parse("55r 100", parser.Mode2D)
	want := bets("55", 100.0)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("55r 100: got %v, want %v", got, want)
	}
}

func TestParse_ReverseOddAmountSplitsFractional(t *testing.T) {
	got := parser.Parse("12r 25", parser.Mode2D)
	want := bets("12", 12.5, "21", 12.5)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("12r 25: got %v, want %v", got, want)
	}
}

// ============================================================
// Test: Keyword expansion
// ============================================================

func TestParse_ApuExpandsTenPairs(t *testing.T) {
	got := parser.Parse("apu 50", parser.Mode2D)
	if len(got) != 10 {
		t.Fatalf("apu: got %d bets, want 10", len(got))
	}
	for j, b := range got {
		wantNum := string(rune('0'+j)) + string(rune('0'+j))
		if b.Number != wantNum || b.Amount != 50 {
			t.Errorf("apu bet %d: got %v, want {%s 50}", j, b, wantNum)
		}
	}
}

func TestParse_PowerEmitsPairsBothWays(t *testing.T) {
	got := parser.Parse("pao 10", parser.Mode2D)
	want := bets(
		"05", 10.0, "50", 10.0,
		"16", 10.0, "61", 10.0,
		"27", 10.0, "72", 10.0,
		"38", 10.0, "83", 10.0,
		"49", 10.0, "94", 10.0,
	)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pao 10: got %v, want %v", got, want)
	}
}

func TestParse_TenFullIncludesPalindromeOnce(t *testing.T) {
	got := parser.Parse("sp 10", parser.Mode2D)
	// 55 reversed is itself and must not repeat.
	want := bets(
		"19", 10.0, "91", 10.0,
		"28", 10.0, "82", 10.0,
		"37", 10.0, "73", 10.0,
		"46", 10.0, "64", 10.0,
		"55", 10.0,
	)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sp 10: got %v, want %v", got, want)
	}
}

func TestParse_HeadTailContainsSuffixes(t *testing.T) {
	head := parser.Parse("3t 5", parser.Mode2D)
	if len(head) != 10 || head[0].Number != "30" || head[9].Number != "39" {
		t.Errorf("3t: got %v", head)
	}
	tail := parser.Parse("3p 5", parser.Mode2D)
	if len(tail) != 10 || tail[0].Number != "03" || tail[9].Number != "93" {
		t.Errorf("3p: got %v", tail)
	}
	contains := parser.Parse("3a 5", parser.Mode2D)
	if len(contains) != 19 {
		t.Errorf("3a: got %d bets, want 19", len(contains))
	}
}

func TestParse_WheelUsesUniqueDigitsOrderedPairs(t *testing.T) {
	got := parser.Parse("121k 5", parser.Mode2D)
	// Unique digits of 121 are 1, 2; all ordered pairs including doubles.
	want := bets("11", 5.0, "12", 5.0, "21", 5.0, "22", 5.0)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("121k: got %v, want %v", got, want)
	}
}

func TestParse_DigitSumBreak(t *testing.T) {
	got := parser.Parse("5b 10", parser.Mode2D)
	if len(got) != 10 {
		t.Fatalf("5b: got %d bets, want 10", len(got))
	}
	for _, b := range got {
		sum := int(b.Number[0]-'0') + int(b.Number[1]-'0')
		if sum%10 != 5 {
			t.Errorf("5b emitted %s with digit sum %d", b.Number, sum)
		}
	}
}

func TestParse_EvenOddFamilies(t *testing.T) {
	for key, wantLen := range map[string]int{
		"ss": 20, "mm": 20, "ssp": 5, "mmp": 5, "sm": 25, "ms": 25,
		"all": 100, "bb": 10, "nk": 20, "nat": 10,
	} {
		got := parser.Parse(key+" 1", parser.Mode2D)
		if len(got) != wantLen {
			t.Errorf("%s: got %d bets, want %d", key, len(got), wantLen)
		}
	}
}

// ============================================================
// Test: 3D expansion
// ============================================================

func TestParse_3DPermutationsPreserveEnumerationOrder(t *testing.T) {
	got := parser.Parse("123r 10", parser.Mode3D)
	want := bets("123", 10.0, "132", 10.0, "213", 10.0, "231", 10.0, "312", 10.0, "321", 10.0)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("123r: got %v, want %v", got, want)
	}
}

func TestParse_3DPermutationsDedupRepeatedDigits(t *testing.T) {
	got := parser.Parse("112r 10", parser.Mode3D)
	want := bets("112", 10.0, "121", 10.0, "211", 10.0)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("112r: got %v, want %v", got, want)
	}
}

func TestParse_3DTopAndTailAndCombined(t *testing.T) {
	top := parser.Parse("5t 1", parser.Mode3D)
	if len(top) != 100 || top[0].Number != "500" || top[99].Number != "599" {
		t.Errorf("5t: got %d bets, first %v", len(top), top[0])
	}
	tail := parser.Parse("5p 1", parser.Mode3D)
	if len(tail) != 100 || tail[0].Number != "005" || tail[99].Number != "995" {
		t.Errorf("5p: got %d bets, first %v", len(tail), tail[0])
	}
	combined := parser.Parse("1t5p 1", parser.Mode3D)
	want := bets("105", 1.0, "115", 1.0, "125", 1.0, "135", 1.0, "145", 1.0,
		"155", 1.0, "165", 1.0, "175", 1.0, "185", 1.0, "195", 1.0)
	if !reflect.DeepEqual(combined, want) {
		t.Errorf("1t5p: got %v, want %v", combined, want)
	}
}

func TestParse_3DApuAndWheel(t *testing.T) {
	apu := parser.Parse("apu 2", parser.Mode3D)
	if len(apu) != 10 || apu[0].Number != "000" || apu[9].Number != "999" {
		t.Errorf("3D apu: got %v", apu)
	}
	wheel := parser.Parse("12k 1", parser.Mode3D)
	if len(wheel) != 8 || wheel[0].Number != "111" || wheel[7].Number != "222" {
		t.Errorf("12k: got %v", wheel)
	}
}

// ============================================================
// Test: Line tiers
// ============================================================

func TestParse_BatchEqualAppliesAmountToEachToken(t *testing.T) {
	got := parser.Parse("11 12 13 = 100", parser.Mode2D)
	want := bets("11", 100.0, "12", 100.0, "13", 100.0)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("batch equal: got %v, want %v", got, want)
	}
}

func TestParse_BatchEqualExpandsKeywords(t *testing.T) {
	got := parser.Parse("apu = 5", parser.Mode2D)
	if len(got) != 10 {
		t.Errorf("apu = 5: got %d bets, want 10", len(got))
	}
}

func TestParse_MixedReverseBatchLine(t *testing.T) {
	got := parser.Parse("54 87 12r3", parser.Mode2D)
	want := bets("54", 12.0, "45", 3.0, "87", 12.0, "78", 3.0)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mixed reverse batch: got %v, want %v", got, want)
	}
}

func TestParse_MixedReverseSkipsPalindromeReverse(t *testing.T) {
	got := parser.Parse("55 10r5", parser.Mode2D)
	want := bets("55", 10.0)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("palindrome mixed reverse: got %v, want %v", got, want)
	}
}

func TestParse_BulkReverseDistributesAmount(t *testing.T) {
	got := parser.Parse("12 34 56 r 100", parser.Mode2D)
	want := bets("12", 50.0, "21", 50.0, "34", 50.0, "43", 50.0, "56", 50.0, "65", 50.0)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("bulk reverse: got %v, want %v", got, want)
	}
}

func TestParse_InlineMixedAmountOnLiteralKey(t *testing.T) {
	got := parser.Parse("12 3r2 34 100", parser.Mode2D)
	want := bets("12", 3.0, "21", 2.0, "34", 100.0)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("inline mixed: got %v, want %v", got, want)
	}
}

// ============================================================
// Test: Noise, metadata and amounts
// ============================================================

func TestParse_SkipsMetadataAndSeparators(t *testing.T) {
	input := "Agent: somebody\n----------\n12 100\nTotal: 99999\nစုစုပေါင်း: (1) ကွက်\n"
	got := parser.Parse(input, parser.Mode2D)
	want := bets("12", 100.0)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("metadata filtering: got %v, want %v", got, want)
	}
}

func TestParse_UnparseableTextYieldsEmpty(t *testing.T) {
	got := parser.Parse("hello there nothing here", parser.Mode2D)
	if len(got) != 0 {
		t.Errorf("noise: got %v, want empty", got)
	}
}

func TestParse_KSuffixAmountMultiplies(t *testing.T) {
	got := parser.Parse("12 2k", parser.Mode2D)
	want := bets("12", 2000.0)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("k amount: got %v, want %v", got, want)
	}
}

func TestParse_CurrencySymbolsStripped(t *testing.T) {
	got := parser.Parse("12 = $100", parser.Mode2D)
	want := bets("12", 100.0)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("currency: got %v, want %v", got, want)
	}
}

func TestParse_BurmeseKeywordsAndDigits(t *testing.T) {
	got := parser.Parse("အပူး ၅၀", parser.Mode2D)
	if len(got) != 10 || got[0].Amount != 50 {
		t.Errorf("Burmese apu: got %v", got)
	}
	rev := parser.Parse("၁၂ပတ်လည် 100", parser.Mode2D)
	want := bets("12", 50.0, "21", 50.0)
	if !reflect.DeepEqual(rev, want) {
		t.Errorf("Burmese reverse: got %v, want %v", rev, want)
	}
}

func TestParse_DelimitersTreatedAsSpaces(t *testing.T) {
	got := parser.Parse("12-100\n34/200", parser.Mode2D)
	want := bets("12", 100.0, "34", 200.0)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("delimiters: got %v, want %v", got, want)
	}
}

func TestParseTotals_AggregatesRepeatedNumbers(t *testing.T) {
	totals := parser.ParseTotals("12 100\n12 50\n21 30", parser.Mode2D)
	if totals["12"] != 150 || totals["21"] != 30 {
		t.Errorf("totals: got %v", totals)
	}
}
