package domain

// EntityKind labels a span tagged by an annotator.
type EntityKind string

const (
	// EntityMoney marks an amount, with or without currency.
	EntityMoney EntityKind = "MONEY"
	// EntityProduct marks a candidate product noun or named product.
	EntityProduct EntityKind = "PRODUCT"
)

// Entity is a tagged span inside a clause. Start and End are byte offsets
// relative to Clause.Text.
type Entity struct {
	Kind  EntityKind `json:"kind"`
	Text  string     `json:"text"`
	Start int        `json:"start"`
	End   int        `json:"end"`
}

// Clause is one sentence-level unit of the input.
type Clause struct {
	Text     string   `json:"text"`
	Entities []Entity `json:"entities,omitempty"`
}

// EntitiesOf returns the entities of the given kind, in order.
func (c Clause) EntitiesOf(kind EntityKind) []Entity {
	var out []Entity
	for _, e := range c.Entities {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ClauseKind is the classification of a clause.
type ClauseKind int

const (
	ClauseNone ClauseKind = iota
	ClauseBudget
	ClauseProductRequest
)

func (k ClauseKind) String() string {
	switch k {
	case ClauseBudget:
		return "budget"
	case ClauseProductRequest:
		return "product_request"
	default:
		return "none"
	}
}
