package parser

import "strings"

// keywordRewrites maps Burmese shorthand onto canonical latin keywords.
// Order matters: ဘူဘဒိတ် must rewrite before its suffix ဘဒိတ် does.
var keywordRewrites = []struct {
	from, to string
}{
	{"အပူး", "apu"},
	{"ညီကို", "nk"},
	{"ပါဝါ", "pao"},
	{"နက်ခတ်", "nat"},
	{"စုံစုံ", "ss"},
	{"မမ", "mm"},
	{"စုံမ", "sm"},
	{"မစုံ", "ms"},
	{"ဆယ်ပြည့်", "sp"},
	{"အကုန်", "all"},
	{"ဘူဘဒိတ်", "bb"},
	{"ထိပ်", "t"},
	{"ပိတ်", "p"},
	{"အပါ", "a"},
	{"ခွေ", "k"},
	{"ဗြိတ်", "v"},
	{"ဘဒိတ်", "b"},
	{"အကပ်", "ak"},
	{"ပတ်လည်", "r"},
}

var burmeseDigits = strings.NewReplacer(
	"၀", "0", "၁", "1", "၂", "2", "၃", "3", "၄", "4",
	"၅", "5", "၆", "6", "၇", "7", "၈", "8", "၉", "9",
)

// normalize rewrites Burmese keywords and digits into the canonical
// shorthand alphabet before tier dispatch.
func normalize(line string) string {
	for _, kw := range keywordRewrites {
		line = strings.ReplaceAll(line, kw.from, kw.to)
	}
	return burmeseDigits.Replace(line)
}
