package money

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Match is one monetary mention found by the scanner.
type Match struct {
	// Amount is the number as written, grouping commas removed and a decimal
	// comma turned into a point.
	Amount string
	// Value is Amount parsed as a decimal; always positive.
	Value decimal.Decimal
	// Token is the raw currency token, empty when none was adjacent.
	Token string
	// Currency is the canonical code for Token, empty when unknown or absent.
	Currency string
	// Start and End are the byte span of the number plus any currency token.
	Start int
	End   int
	// NumberStart is the byte offset where the digits begin.
	NumberStart int
}

// HasCurrency reports whether a known currency token was attached.
func (m Match) HasCurrency() bool {
	return m.Currency != ""
}

// ScanAll returns every money match in text, in order of appearance.
//
// A match is a run of digits with an optional ".digits" fraction (and optional
// ",ddd" thousands groups) that is not glued to other word characters. A
// comma followed by one or two digits is a decimal comma ("1,5 euros"). It may
// be followed, directly or after whitespace, by a currency token, or preceded
// directly by a currency symbol. A digit run with embedded letters or stray
// separators ("12x34", "1.2.3") yields nothing.
func ScanAll(text string) []Match {
	var matches []Match
	s := scanner{text: text}

	for s.pos < len(text) {
		m, ok := s.next()
		if !ok {
			break
		}
		matches = append(matches, m)
	}
	return matches
}

// Scan returns the first money match in text.
func Scan(text string) (Match, bool) {
	s := scanner{text: text}
	return s.next()
}

type scanner struct {
	text string
	pos  int
}

// next advances to the following valid match.
func (s *scanner) next() (Match, bool) {
	for s.pos < len(s.text) {
		if !isDigit(s.text[s.pos]) {
			_, size := utf8.DecodeRuneInString(s.text[s.pos:])
			s.pos += size
			continue
		}

		start := s.pos
		if start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(s.text[:start])
			if isWordRune(prev) {
				s.pos = skipWord(s.text, start)
				continue
			}
		}

		numEnd := scanNumber(s.text, start)
		m, ok := s.complete(start, numEnd)
		if !ok {
			s.pos = skipWord(s.text, start)
			continue
		}
		s.pos = m.End
		if m.Value.Sign() <= 0 {
			continue
		}
		return m, true
	}
	return Match{}, false
}

// complete validates what follows the number at [start, numEnd) and attaches
// a currency token when one is adjacent.
func (s *scanner) complete(start, numEnd int) (Match, bool) {
	text := s.text
	amount := canonicalAmount(text[start:numEnd])
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return Match{}, false
	}

	m := Match{
		Amount:      amount,
		Value:       value,
		Start:       start,
		End:         numEnd,
		NumberStart: start,
	}

	if numEnd < len(text) {
		r, _ := utf8.DecodeRuneInString(text[numEnd:])
		switch {
		case isWordRune(r) || isCurrencySymbol(r):
			// glued suffix: only a known currency token is acceptable
			token, end := readCurrencyToken(text, numEnd)
			code, known := NormalizeCurrency(token)
			if !known {
				return Match{}, false
			}
			m.Token, m.Currency, m.End = token, code, end
			return m, true
		case (r == '.' || r == ',') && numEnd+1 < len(text) && isDigit(text[numEnd+1]):
			// "1.2.3" or "1,2345"
			return Match{}, false
		}
	}

	// currency token after whitespace
	k := numEnd
	for k < len(text) {
		r, size := utf8.DecodeRuneInString(text[k:])
		if !unicode.IsSpace(r) {
			break
		}
		k += size
	}
	if k > numEnd {
		if token, end := readCurrencyToken(text, k); token != "" {
			if code, known := NormalizeCurrency(token); known {
				m.Token, m.Currency, m.End = token, code, end
				return m, true
			}
		}
	}

	// symbol prefix, "$200"
	if start > 0 {
		prev, size := utf8.DecodeLastRuneInString(text[:start])
		if isCurrencySymbol(prev) {
			token := string(prev)
			code, _ := NormalizeCurrency(token)
			m.Token, m.Currency, m.Start = token, code, start-size
		}
	}

	return m, true
}

// scanNumber returns the end offset of the number starting at start.
func scanNumber(text string, start int) int {
	j := start
	for j < len(text) && isDigit(text[j]) {
		j++
	}

	intEnd := j

	// thousands groups: exactly three digits after each comma
	for j+3 < len(text) && text[j] == ',' && allDigits(text[j+1:j+4]) &&
		(j+4 == len(text) || !isDigit(text[j+4])) {
		j += 4
	}

	if j == intEnd && j+1 < len(text) && text[j] == ',' {
		if n := digitRun(text, j+1); n == 1 || n == 2 {
			return j + 1 + n
		}
	}

	if j+1 < len(text) && text[j] == '.' && isDigit(text[j+1]) {
		j++
		for j < len(text) && isDigit(text[j]) {
			j++
		}
	}
	return j
}

// canonicalAmount drops grouping commas, or turns a decimal comma into a
// point when the last comma has fewer than three digits after it.
func canonicalAmount(raw string) string {
	if i := strings.LastIndexByte(raw, ','); i >= 0 && len(raw)-i-1 < 3 {
		return raw[:i] + "." + raw[i+1:]
	}
	return strings.ReplaceAll(raw, ",", "")
}

func digitRun(text string, pos int) int {
	n := 0
	for pos+n < len(text) && isDigit(text[pos+n]) {
		n++
	}
	return n
}

// readCurrencyToken reads a currency symbol or a run of letters at pos.
func readCurrencyToken(text string, pos int) (string, int) {
	if pos >= len(text) {
		return "", pos
	}
	r, size := utf8.DecodeRuneInString(text[pos:])
	if isCurrencySymbol(r) {
		return string(r), pos + size
	}

	end := pos
	for end < len(text) {
		r, size := utf8.DecodeRuneInString(text[end:])
		if !unicode.IsLetter(r) {
			break
		}
		end += size
	}
	return text[pos:end], end
}

// skipWord moves past a run of word characters, including separators that sit
// between digits, so a rejected token is never rescanned from its middle.
func skipWord(text string, pos int) int {
	for pos < len(text) {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if isWordRune(r) {
			pos += size
			continue
		}
		if (r == '.' || r == ',') && pos+1 < len(text) && isDigit(text[pos+1]) {
			pos++
			continue
		}
		break
	}
	return pos
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
