package domain

// ExtractionResult is the purchase intent found in one chat message.
// Products is never nil so it always serializes as a JSON array.
type ExtractionResult struct {
	Products []ProductEntry `json:"products"`
	Budget   *BudgetEntry   `json:"budget,omitempty"`
}

// ProductEntry is one requested product with an optional price hint.
type ProductEntry struct {
	Product  string   `json:"product"`
	Price    *float64 `json:"price,omitempty"`
	Currency string   `json:"currency,omitempty"` // canonical code, only set with Price
}

// BudgetEntry is the overall spending limit stated by the customer.
type BudgetEntry struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency,omitempty"`
}

// NewExtractionResult returns an empty result with a non-nil product list.
func NewExtractionResult() *ExtractionResult {
	return &ExtractionResult{Products: []ProductEntry{}}
}

// ExtractRequest is the payload accepted by the extract endpoint.
type ExtractRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// BudgetPolicy decides which budget statement is kept when a message has
// several of them.
type BudgetPolicy string

const (
	// BudgetLastWins keeps the last budget clause in the message.
	BudgetLastWins BudgetPolicy = "last_wins"
	// BudgetFirstWins keeps the first budget clause in the message.
	BudgetFirstWins BudgetPolicy = "first_wins"
)

// Valid reports whether p is a known policy.
func (p BudgetPolicy) Valid() bool {
	return p == BudgetLastWins || p == BudgetFirstWins
}
