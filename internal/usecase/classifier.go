package usecase

import (
	"github.com/ector/backend/internal/domain"
	"github.com/ector/backend/internal/lexicon"
	"github.com/ector/backend/internal/money"
	"github.com/ector/backend/internal/textproc"
)

// budgetWord marks a budget statement in either language even when no
// budget hint phrase matches ("the budget is 300").
const budgetWord = "budget"

// SentenceClassifier labels clauses as budget statements, product requests
// or neither.
type SentenceClassifier struct{}

// NewSentenceClassifier creates a new sentence classifier
func NewSentenceClassifier() *SentenceClassifier {
	return &SentenceClassifier{}
}

// Classify decides what a clause expresses. Budget detection takes priority
// over product requests. A product request needs a trigger followed by at
// least one word the annotator tagged as part of a product.
func (c *SentenceClassifier) Classify(clause domain.Clause, lex *lexicon.Lexicon) domain.ClauseKind {
	folded := textproc.Fold(clause.Text)

	if lex.HasBudgetHint(folded) || containsWord(folded, budgetWord) {
		return domain.ClauseBudget
	}

	tail, ok := requestTail(clause.Text, lex)
	if !ok {
		return domain.ClauseNone
	}
	if c.hasProductWord(tail, clause, lex) {
		return domain.ClauseProductRequest
	}
	return domain.ClauseNone
}

func (c *SentenceClassifier) hasProductWord(tail string, clause domain.Clause, lex *lexicon.Lexicon) bool {
	vocabulary := productVocabulary(clause)
	if len(vocabulary) == 0 {
		return false
	}

	for _, tok := range textproc.Tokenize(textproc.Fold(tail)) {
		word := tok.Text
		if lex.IsStopword(word) || lex.IsLeadIn(word) || textproc.IsNumeric(word) || money.IsCurrencyWord(word) {
			continue
		}
		if _, ok := vocabulary[word]; ok {
			return true
		}
		// annotators that split "l'ordinateur" only tag "ordinateur"
		if e := lex.ElidedArticle(word); e != "" {
			if _, ok := vocabulary[word[len(e):]]; ok {
				return true
			}
		}
	}
	return false
}

// productVocabulary collects the folded words of every PRODUCT entity.
func productVocabulary(clause domain.Clause) map[string]struct{} {
	words := make(map[string]struct{})
	for _, e := range clause.EntitiesOf(domain.EntityProduct) {
		for _, tok := range textproc.Tokenize(textproc.Fold(e.Text)) {
			words[tok.Text] = struct{}{}
		}
	}
	return words
}

func containsWord(folded, word string) bool {
	for _, tok := range textproc.Tokenize(folded) {
		if tok.Text == word {
			return true
		}
	}
	return false
}
