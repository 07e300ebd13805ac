// Package textproc holds the small text helpers shared by the annotators and
// the extraction pipeline. Every helper that returns offsets works in bytes
// against the string it was given.
package textproc

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var multiSpacePattern = regexp.MustCompile(`\s+`)

// typographic quotes folded to ASCII before any matching happens
var apostropheReplacer = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// Token is a word with its byte span in the source string.
type Token struct {
	Text  string
	Start int
	End   int
}

// NormalizeApostrophes replaces typographic apostrophes with ASCII ones so
// "I’m" and "I'm" hit the same lexicon phrases.
func NormalizeApostrophes(s string) string {
	return apostropheReplacer.Replace(s)
}

// Fold lowercases s without changing its byte length. Runes whose lowercase
// form has a different UTF-8 width are kept as they are, so offsets found in
// the folded string index the original one.
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(s[i])
			i++
			continue
		}
		lower := unicode.ToLower(r)
		if utf8.RuneLen(lower) != size {
			lower = r
		}
		b.WriteRune(lower)
		i += size
	}
	return b.String()
}

// Tokenize splits s into word tokens. Apostrophes and hyphens stay inside a
// token when they sit between two word characters ("i'm", "high-resolution").
func Tokenize(s string) []Token {
	var tokens []Token
	start := -1

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case isWordRune(r):
			if start < 0 {
				start = i
			}
		case start >= 0 && isJoiner(r) && nextIsWordRune(s, i+size):
			// joiner inside a word
		default:
			if start >= 0 {
				tokens = append(tokens, Token{Text: s[start:i], Start: start, End: i})
				start = -1
			}
		}
		i += size
	}

	if start >= 0 {
		tokens = append(tokens, Token{Text: s[start:], Start: start, End: len(s)})
	}
	return tokens
}

// CollapseSpaces replaces every whitespace run (newlines included) with a
// single space and trims the ends.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(s, " "))
}

// TrimPunct strips whitespace and sentence punctuation from both ends.
func TrimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(".,;:!?¡¿-–—\"", r)
	})
}

// Capitalize uppercases the first rune and leaves the rest untouched.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// IsNumeric reports whether s is made only of digits and at most one
// decimal separator.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	seenSep, seenDigit := false, false
	for _, r := range s {
		if r == '.' || r == ',' {
			if seenSep {
				return false
			}
			seenSep = true
			continue
		}
		if !unicode.IsDigit(r) {
			return false
		}
		seenDigit = true
	}
	return seenDigit
}

// IndexWord returns the offset of the first occurrence of phrase in s that
// does not start or end inside a word, or -1.
func IndexWord(s, phrase string) int {
	if phrase == "" {
		return -1
	}
	for from := 0; from <= len(s)-len(phrase); {
		i := strings.Index(s[from:], phrase)
		if i < 0 {
			return -1
		}
		i += from
		if onBoundary(s, phrase, i) {
			return i
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		from = i + size
	}
	return -1
}

// onBoundary reports whether the occurrence of phrase at s[i:] is not glued
// to a neighbouring word character.
func onBoundary(s, phrase string, i int) bool {
	first, _ := utf8.DecodeRuneInString(phrase)
	if isWordRune(first) && i > 0 {
		if prev, _ := utf8.DecodeLastRuneInString(s[:i]); isWordRune(prev) {
			return false
		}
	}
	last, _ := utf8.DecodeLastRuneInString(phrase)
	return !isWordRune(last) || !nextIsWordRune(s, i+len(phrase))
}

// HasLetter reports whether s contains at least one letter.
func HasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func isJoiner(r rune) bool {
	return r == '\'' || r == '-'
}

func nextIsWordRune(s string, at int) bool {
	if at >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[at:])
	return isWordRune(r)
}
