// Package annotator provides the domain.Annotator implementations: an
// in-process rule based one and a client for an external NLP service.
package annotator

import (
	"context"
	"slices"
	"strings"

	"github.com/ector/backend/internal/domain"
	"github.com/ector/backend/internal/lexicon"
	"github.com/ector/backend/internal/metrics"
	"github.com/ector/backend/internal/money"
	"github.com/ector/backend/internal/textproc"
)

const ruleAnnotatorName = "rules"

// RuleAnnotator segments and tags text with lexical rules only.
type RuleAnnotator struct {
	lexicons *lexicon.Store
}

// NewRuleAnnotator creates a rule based annotator backed by the lexicons.
func NewRuleAnnotator(lexicons *lexicon.Store) *RuleAnnotator {
	return &RuleAnnotator{lexicons: lexicons}
}

// Segment splits text into sentences and tags each one.
func (a *RuleAnnotator) Segment(ctx context.Context, text, language string) ([]domain.Clause, error) {
	if err := ctx.Err(); err != nil {
		metrics.AnnotatorRequests.WithLabelValues(ruleAnnotatorName, "canceled").Inc()
		return nil, err
	}

	lex := a.lexicons.Get(language)
	sentences := SplitSentences(text)
	clauses := make([]domain.Clause, 0, len(sentences))
	for _, sentence := range sentences {
		clauses = append(clauses, domain.Clause{
			Text:     sentence,
			Entities: tagSentence(sentence, lex),
		})
	}

	metrics.AnnotatorRequests.WithLabelValues(ruleAnnotatorName, "ok").Inc()
	return clauses, nil
}

// Ready always succeeds.
func (a *RuleAnnotator) Ready(ctx context.Context) error {
	return nil
}

// SplitSentences cuts text after '.', '!' or '?' when followed by whitespace
// or the end of input, and at blank lines. A single line break is plain
// whitespace, so a sentence may wrap over several lines. Decimals such as
// "12.50" stay whole. Sentences are trimmed and empty ones dropped.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	flush := func(end int) {
		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			if end, ok := blankLineEnd(text, i); ok {
				flush(end)
				i = end - 1
			}
		case '.', '!', '?':
			if i+1 == len(text) || isSpace(text[i+1]) {
				flush(i + 1)
			}
		}
	}
	flush(len(text))
	return sentences
}

// blankLineEnd reports whether the line break at i is followed by a line
// holding only whitespace, and returns the offset just past that line.
func blankLineEnd(text string, i int) (int, bool) {
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\n':
			return j + 1, true
		case ' ', '\t', '\r':
		default:
			return 0, false
		}
	}
	return 0, false
}

// tagSentence marks money amounts and candidate product words. Offsets are
// relative to the sentence.
func tagSentence(sentence string, lex *lexicon.Lexicon) []domain.Entity {
	folded := textproc.Fold(sentence)
	var entities []domain.Entity

	for _, m := range money.ScanAll(sentence) {
		if !m.HasCurrency() && !lex.FollowsPricePreposition(folded, m.Start) {
			continue
		}
		entities = append(entities, domain.Entity{
			Kind:  domain.EntityMoney,
			Text:  sentence[m.Start:m.End],
			Start: m.Start,
			End:   m.End,
		})
	}

	for _, tok := range textproc.Tokenize(folded) {
		word := tok.Text
		if !textproc.HasLetter(word) || lex.IsStopword(word) || lex.IsLeadIn(word) || money.IsCurrencyWord(word) {
			continue
		}
		entities = append(entities, domain.Entity{
			Kind:  domain.EntityProduct,
			Text:  sentence[tok.Start:tok.End],
			Start: tok.Start,
			End:   tok.End,
		})
	}

	slices.SortStableFunc(entities, func(a, b domain.Entity) int {
		return a.Start - b.Start
	})
	return entities
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
