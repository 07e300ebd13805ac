package annotator

import (
	"strings"
	"unicode/utf8"

	"github.com/ector/backend/internal/domain"
)

// Labels used by the NLP service
const (
	LabelMoney    = "MONEY"
	LabelProduct  = "PRODUCT"
	POSNoun       = "NOUN"
	POSProperNoun = "PROPN"
)

// annotateRequest is the body of POST /v1/annotate
type annotateRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// annotateResponse is the NLP service answer. Offsets are character offsets
// into the submitted document.
type annotateResponse struct {
	Sentences []sentencePayload `json:"sentences"`
}

type sentencePayload struct {
	Text     string          `json:"text"`
	Start    int             `json:"start"`
	End      int             `json:"end"`
	Entities []entityPayload `json:"entities"`
	Tokens   []tokenPayload  `json:"tokens"`
}

type entityPayload struct {
	Label string `json:"label"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type tokenPayload struct {
	Text  string `json:"text"`
	POS   string `json:"pos"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// MapToClauses converts an annotate response to domain clauses. Blank
// sentences are dropped and unknown labels are ignored.
func MapToClauses(resp *annotateResponse) []domain.Clause {
	clauses := make([]domain.Clause, 0, len(resp.Sentences))
	for _, s := range resp.Sentences {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		clauses = append(clauses, domain.Clause{
			Text:     s.Text,
			Entities: extractEntities(s),
		})
	}
	return clauses
}

// extractEntities keeps MONEY and PRODUCT entities plus noun tokens, which
// the NLP service reports as product candidates only when its model has a
// PRODUCT label.
func extractEntities(s sentencePayload) []domain.Entity {
	var entities []domain.Entity

	for _, e := range s.Entities {
		var kind domain.EntityKind
		switch e.Label {
		case LabelMoney:
			kind = domain.EntityMoney
		case LabelProduct:
			kind = domain.EntityProduct
		default:
			continue
		}
		if entity, ok := locate(s, kind, e.Text, e.Start); ok {
			entities = append(entities, entity)
		}
	}

	for _, tok := range s.Tokens {
		if tok.POS != POSNoun && tok.POS != POSProperNoun {
			continue
		}
		if entity, ok := locate(s, domain.EntityProduct, tok.Text, tok.Start); ok {
			entities = append(entities, entity)
		}
	}

	return entities
}

// locate turns a document character offset into byte offsets within the
// sentence. When the offset does not point at text it falls back to the
// first occurrence of text in the sentence.
func locate(s sentencePayload, kind domain.EntityKind, text string, docStart int) (domain.Entity, bool) {
	if text == "" {
		return domain.Entity{}, false
	}

	if start, ok := byteOffset(s.Text, docStart-s.Start); ok && strings.HasPrefix(s.Text[start:], text) {
		return domain.Entity{Kind: kind, Text: text, Start: start, End: start + len(text)}, true
	}

	start := strings.Index(s.Text, text)
	if start < 0 {
		return domain.Entity{}, false
	}
	return domain.Entity{Kind: kind, Text: text, Start: start, End: start + len(text)}, true
}

// byteOffset converts a character offset in s to a byte offset.
func byteOffset(s string, chars int) (int, bool) {
	if chars < 0 {
		return 0, false
	}
	i := 0
	for n := 0; n < chars; n++ {
		if i >= len(s) {
			return 0, false
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i, i <= len(s)
}
