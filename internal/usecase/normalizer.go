package usecase

import (
	"strings"

	"github.com/ector/backend/internal/lexicon"
	"github.com/ector/backend/internal/logger"
	"github.com/ector/backend/internal/money"
	"github.com/ector/backend/internal/textproc"
)

// ProductNormalizer turns a product-request clause into a clean product name
type ProductNormalizer struct {
	log                logger.Logger
	enableDebugLogging bool
}

// NewProductNormalizer creates a new product phrase normalizer
func NewProductNormalizer(log logger.Logger, enableDebugLogging bool) *ProductNormalizer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &ProductNormalizer{
		log:                log,
		enableDebugLogging: enableDebugLogging,
	}
}

// Normalize returns the product phrase of a clause, or "" when nothing is
// left after cleaning. The clause text must already have its apostrophes
// normalized.
func (n *ProductNormalizer) Normalize(clause string, lex *lexicon.Lexicon) string {
	// Step 1: Keep what follows the request trigger, minus filler phrases
	phrase, ok := requestTail(clause, lex)
	if !ok {
		return ""
	}

	// Step 2: Drop the price clause ("for 200 usd", "under $50")
	phrase = stripPriceClause(phrase, lex)

	// Step 3: Drop leading articles and connectors
	phrase = trimLeadIns(phrase, lex)

	// Step 4: Normalize whitespace and punctuation
	phrase = textproc.TrimPunct(textproc.CollapseSpaces(phrase))

	// Step 5: Capitalize the first letter
	phrase = textproc.Capitalize(phrase)

	if n.enableDebugLogging {
		n.log.Debug("normalized product phrase", map[string]interface{}{
			"language": lex.Language,
			"input":    clause,
			"output":   phrase,
		})
	}

	return phrase
}

// requestTail cuts a clause right after the end of its request trigger and
// removes filler phrases from the remainder. ok is false when the clause has
// no trigger.
func requestTail(clause string, lex *lexicon.Lexicon) (string, bool) {
	trigger, idx := lex.FindTrigger(textproc.Fold(clause))
	if idx < 0 {
		return "", false
	}
	return lex.RemoveFillers(clause[idx+len(trigger):]), true
}

// stripPriceClause truncates the phrase at its first price-like amount and
// removes the prepositions left dangling before it. When the cut would leave
// nothing, only the amount itself is removed ("a $200 headset").
func stripPriceClause(phrase string, lex *lexicon.Lexicon) string {
	for _, m := range money.ScanAll(phrase) {
		if !isPriceLike(phrase, m, lex) {
			continue
		}
		head := trimTrailingPrepositions(phrase[:m.Start], lex)
		if remainsContent(head, lex) {
			return head
		}
		return phrase[:m.Start] + " " + phrase[m.End:]
	}
	return phrase
}

// isPriceLike reports whether a scanned amount reads as a price: it carries
// a currency or directly follows a price preposition.
func isPriceLike(phrase string, m money.Match, lex *lexicon.Lexicon) bool {
	return m.HasCurrency() || lex.FollowsPricePreposition(textproc.Fold(phrase), m.Start)
}

func trimTrailingPrepositions(s string, lex *lexicon.Lexicon) string {
	for {
		s = textproc.TrimPunct(s)
		tokens := textproc.Tokenize(textproc.Fold(s))
		if len(tokens) == 0 {
			return s
		}
		last := tokens[len(tokens)-1]
		if !lex.IsPricePreposition(last.Text) {
			return s
		}
		s = s[:last.Start]
	}
}

// trimLeadIns repeatedly drops a leading article, connector or single-word
// trigger. Elided articles ("l'ordinateur") lose only their prefix. Once an
// article is gone a trigger word belongs to the product ("a purchase order
// book").
func trimLeadIns(s string, lex *lexicon.Lexicon) string {
	sawArticle := false
	for {
		tokens := textproc.Tokenize(textproc.Fold(s))
		if len(tokens) == 0 {
			return s
		}
		first := tokens[0]
		triggerWord := lex.IsTriggerWord(first.Text) && !lex.IsArticle(first.Text)
		if lex.IsLeadIn(first.Text) && !(sawArticle && triggerWord) {
			sawArticle = sawArticle || lex.IsArticle(first.Text)
			s = s[first.End:]
			continue
		}
		if e := lex.ElidedArticle(first.Text); e != "" {
			sawArticle = true
			s = s[first.Start+len(e):]
			continue
		}
		return s
	}
}

func remainsContent(s string, lex *lexicon.Lexicon) bool {
	return strings.TrimSpace(textproc.TrimPunct(trimLeadIns(s, lex))) != ""
}
