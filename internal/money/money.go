// Package money finds amounts and currencies in free text.
package money

// Money is a parsed amount with its optional canonical currency code.
type Money struct {
	Amount   float64
	Currency string
}

// HasCurrency reports whether a currency was recognized.
func (m Money) HasCurrency() bool {
	return m.Currency != ""
}

// Parse returns the first amount mentioned in text. Text without a usable
// number reports false; a number without a known currency comes back with an
// empty Currency.
func Parse(text string) (Money, bool) {
	m, ok := Scan(text)
	if !ok {
		return Money{}, false
	}
	return m.Money(), true
}

// Money converts the match to its float amount and canonical currency.
func (m Match) Money() Money {
	amount, _ := m.Value.Float64()
	return Money{Amount: amount, Currency: m.Currency}
}
