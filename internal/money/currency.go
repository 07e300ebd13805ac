package money

import "strings"

// currencySynonyms maps every accepted currency token to its canonical code.
// The keys double as the scanner's currency vocabulary.
var currencySynonyms = map[string]string{
	// US dollar
	"$":       "usd",
	"dollar":  "usd",
	"dollars": "usd",
	"usd":     "usd",

	// Euro
	"€":     "eur",
	"eur":   "eur",
	"euro":  "eur",
	"euros": "eur",

	// Pound sterling
	"£":      "gbp",
	"pound":  "gbp",
	"pounds": "gbp",
	"gbp":    "gbp",

	"cad": "cad",
	"aud": "aud",
	"inr": "inr",
	"jpy": "jpy",
	"yen": "jpy",
	"chf": "chf",
	"krw": "krw",
	"sar": "sar",

	// UAE dirham
	"dirham": "aed",
	"dhs":    "aed",

	// Indian rupee
	"rupee":  "inr",
	"rupees": "inr",
}

// NormalizeCurrency maps a raw currency token to its canonical code.
// Trailing periods and dollar signs are stripped before lookup, except for a
// lone "$". Unknown tokens report false.
func NormalizeCurrency(token string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(token))
	if t != "$" {
		t = strings.TrimRight(t, ".$")
	}
	code, ok := currencySynonyms[t]
	return code, ok
}

// IsCurrencyWord reports whether token belongs to the currency vocabulary.
func IsCurrencyWord(token string) bool {
	_, ok := NormalizeCurrency(token)
	return ok
}

func isCurrencySymbol(r rune) bool {
	return r == '$' || r == '€' || r == '£'
}
