// Package lexicon holds the per-language phrase dictionaries used to classify
// and clean chat clauses. Lexicons are immutable once loaded and safe to share
// between goroutines.
package lexicon

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ector/backend/internal/domain"
	"github.com/ector/backend/internal/textproc"
)

// Lexicon is the phrase data for one language. All phrases are folded to
// lower case and keep their file order.
type Lexicon struct {
	Language          string
	RequestTriggers   []string
	FillerPhrases     []string
	BudgetHints       []string
	Articles          []string
	Connectors        []string
	PricePrepositions []string

	fillersByLength []string
	stopwords       map[string]struct{}
	leadIns         map[string]struct{}
	articles        map[string]struct{}
	triggerWords    map[string]struct{}
	pricePreps      map[string]struct{}
	elisions        []string
}

// lexiconFile is the YAML layout of a lexicon file.
type lexiconFile struct {
	Language          string   `yaml:"language"`
	RequestTriggers   []string `yaml:"request_triggers"`
	FillerPhrases     []string `yaml:"filler_phrases"`
	BudgetHints       []string `yaml:"budget_hints"`
	Articles          []string `yaml:"articles"`
	Connectors        []string `yaml:"connectors"`
	PricePrepositions []string `yaml:"price_prepositions"`
	Stopwords         []string `yaml:"stopwords"`
}

// Parse decodes a YAML lexicon file.
func Parse(data []byte) (*Lexicon, error) {
	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLexiconInvalid, err)
	}

	lang := Resolve(f.Language)
	if strings.TrimSpace(f.Language) == "" || lang != strings.ToLower(strings.TrimSpace(f.Language)) {
		return nil, fmt.Errorf("%w: unsupported language %q", domain.ErrLexiconInvalid, f.Language)
	}

	l := &Lexicon{
		Language:          lang,
		RequestTriggers:   normalizePhrases(f.RequestTriggers),
		FillerPhrases:     normalizePhrases(f.FillerPhrases),
		BudgetHints:       normalizePhrases(f.BudgetHints),
		Articles:          normalizePhrases(f.Articles),
		Connectors:        normalizePhrases(f.Connectors),
		PricePrepositions: normalizePhrases(f.PricePrepositions),
	}
	if len(l.RequestTriggers) == 0 {
		return nil, fmt.Errorf("%w: %s has no request triggers", domain.ErrLexiconInvalid, lang)
	}
	if len(l.BudgetHints) == 0 {
		return nil, fmt.Errorf("%w: %s has no budget hints", domain.ErrLexiconInvalid, lang)
	}

	l.index(normalizePhrases(f.Stopwords))
	return l, nil
}

// index builds the lookup sets derived from the phrase lists.
func (l *Lexicon) index(stopwords []string) {
	l.stopwords = toSet(stopwords)
	l.pricePreps = toSet(l.PricePrepositions)

	l.articles = toSet(l.Articles)
	l.triggerWords = make(map[string]struct{})
	l.leadIns = toSet(l.Articles)
	for _, c := range l.Connectors {
		l.leadIns[c] = struct{}{}
	}
	for _, t := range l.RequestTriggers {
		if !strings.ContainsAny(t, " ") {
			l.leadIns[t] = struct{}{}
			l.triggerWords[t] = struct{}{}
		}
	}

	for _, a := range l.Articles {
		if strings.HasSuffix(a, "'") {
			l.elisions = append(l.elisions, a)
		}
	}

	// longer fillers first so "i want a" is removed before "i want"
	l.fillersByLength = append([]string(nil), l.FillerPhrases...)
	sort.SliceStable(l.fillersByLength, func(i, j int) bool {
		return len(l.fillersByLength[i]) > len(l.fillersByLength[j])
	})
}

// FindTrigger returns the request trigger to act on in a folded clause and
// the byte offset of the occurrence to cut at. Only occurrences standing on
// word boundaries are considered, so "recommend" never fires inside
// "recommendation". A multi-word trigger beats a single word, the longest
// multi-word one wins, and between single words the earliest in the clause
// wins. Ties go to the trigger listed first. When no trigger stands on a
// boundary, the longest contained one is used.
func (l *Lexicon) FindTrigger(folded string) (string, int) {
	best, bestIdx := "", -1
	for _, t := range l.RequestTriggers {
		idx := textproc.IndexWord(folded, t)
		if idx >= 0 && (bestIdx < 0 || outranks(t, idx, best, bestIdx)) {
			best, bestIdx = t, idx
		}
	}
	if bestIdx >= 0 {
		return best, bestIdx
	}
	return BestMatch(folded, l.RequestTriggers)
}

// outranks reports whether trigger t found at idx beats the current pick.
func outranks(t string, idx int, best string, bestIdx int) bool {
	multi, bestMulti := strings.Contains(t, " "), strings.Contains(best, " ")
	switch {
	case multi != bestMulti:
		return multi
	case multi:
		return len(t) > len(best)
	case idx != bestIdx:
		return idx < bestIdx
	default:
		return len(t) > len(best)
	}
}

// HasTrigger reports whether any request trigger occurs in the folded clause.
func (l *Lexicon) HasTrigger(folded string) bool {
	return ContainsAny(folded, l.RequestTriggers)
}

// HasBudgetHint reports whether any budget hint occurs in the folded clause.
func (l *Lexicon) HasBudgetHint(folded string) bool {
	return ContainsAny(folded, l.BudgetHints)
}

// RemoveFillers deletes every filler phrase occurrence from s that stands on
// word boundaries, leaving "some" inside "handsome" alone. Matching is done
// on the folded form so the surviving text keeps its original case.
func (l *Lexicon) RemoveFillers(s string) string {
	for _, filler := range l.fillersByLength {
		for {
			idx := textproc.IndexWord(textproc.Fold(s), filler)
			if idx < 0 {
				break
			}
			s = s[:idx] + " " + s[idx+len(filler):]
		}
	}
	return s
}

// IsStopword reports whether a folded token is a stopword.
func (l *Lexicon) IsStopword(token string) bool {
	_, ok := l.stopwords[token]
	return ok
}

// IsLeadIn reports whether a folded token may be dropped from the front of a
// product phrase: articles, connectors and single-word triggers.
func (l *Lexicon) IsLeadIn(token string) bool {
	_, ok := l.leadIns[token]
	return ok
}

// IsArticle reports whether a folded token is an article.
func (l *Lexicon) IsArticle(token string) bool {
	_, ok := l.articles[token]
	return ok
}

// IsTriggerWord reports whether a folded token is a single-word request
// trigger.
func (l *Lexicon) IsTriggerWord(token string) bool {
	_, ok := l.triggerWords[token]
	return ok
}

// IsPricePreposition reports whether a folded token introduces a price.
func (l *Lexicon) IsPricePreposition(token string) bool {
	_, ok := l.pricePreps[token]
	return ok
}

// FollowsPricePreposition reports whether the last word of folded[:at] is a
// price preposition, as "for" in "a phone for 250".
func (l *Lexicon) FollowsPricePreposition(folded string, at int) bool {
	tokens := textproc.Tokenize(folded[:at])
	return len(tokens) > 0 && l.IsPricePreposition(tokens[len(tokens)-1].Text)
}

// ElidedArticle returns the elided article ("l'", "d'") a folded token starts
// with, or "".
func (l *Lexicon) ElidedArticle(token string) string {
	for _, e := range l.elisions {
		if len(token) > len(e) && strings.HasPrefix(token, e) {
			return e
		}
	}
	return ""
}

// BestMatch returns the longest phrase contained in folded and the offset of
// its first occurrence, or ("", -1). Ties go to the earliest listed phrase.
func BestMatch(folded string, phrases []string) (string, int) {
	best, bestIdx := "", -1
	for _, p := range phrases {
		if len(p) <= len(best) {
			continue
		}
		if idx := strings.Index(folded, p); idx >= 0 {
			best, bestIdx = p, idx
		}
	}
	return best, bestIdx
}

// ContainsAny reports whether folded contains any of the phrases.
func ContainsAny(folded string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(folded, p) {
			return true
		}
	}
	return false
}

func normalizePhrases(phrases []string) []string {
	seen := make(map[string]struct{}, len(phrases))
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = textproc.Fold(textproc.CollapseSpaces(textproc.NormalizeApostrophes(p)))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
