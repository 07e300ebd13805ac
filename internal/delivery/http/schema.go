package http

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// extractionResultSchema is the public contract of POST /api/v1/extract.
const extractionResultSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["products"],
  "additionalProperties": false,
  "properties": {
    "products": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["product"],
        "additionalProperties": false,
        "properties": {
          "product": {"type": "string", "minLength": 1},
          "price": {"type": "number", "exclusiveMinimum": 0},
          "currency": {"type": "string", "pattern": "^[a-z]{3}$"}
        },
        "dependencies": {"currency": ["price"]}
      }
    },
    "budget": {
      "type": "object",
      "required": ["price"],
      "additionalProperties": false,
      "properties": {
        "price": {"type": "number", "exclusiveMinimum": 0},
        "currency": {"type": "string", "pattern": "^[a-z]{3}$"}
      }
    }
  }
}`

// ResultValidator checks extraction responses against the result schema
type ResultValidator struct {
	schema *gojsonschema.Schema
}

// NewResultValidator compiles the result schema
func NewResultValidator() (*ResultValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(extractionResultSchema))
	if err != nil {
		return nil, fmt.Errorf("compile result schema: %w", err)
	}
	return &ResultValidator{schema: schema}, nil
}

// Validate returns an error listing every schema violation in v
func (r *ResultValidator) Validate(v interface{}) error {
	result, err := r.schema.Validate(gojsonschema.NewGoLoader(v))
	if err != nil {
		return fmt.Errorf("validate result: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("result violates schema: %s", strings.Join(msgs, "; "))
}
