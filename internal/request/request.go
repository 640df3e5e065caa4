// Package request decodes guidance payloads from the HTTP and batch surfaces.
package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/SeelanGov/thandi/internal/model"
)

const schemaJSON = `{
  "type": "object",
  "required": ["questionText"],
  "additionalProperties": false,
  "properties": {
    "id":           {"type": "string", "maxLength": 128},
    "questionText": {"type": "string", "minLength": 1, "maxLength": 8000},
    "profile": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "grade":            {"type": "integer", "minimum": 8, "maximum": 12},
        "likedSubjects":    {"type": "array", "items": {"type": "string"}, "maxItems": 20},
        "dislikedSubjects": {"type": "array", "items": {"type": "string"}, "maxItems": 20},
        "marks": {
          "type": "object",
          "additionalProperties": {"type": "integer", "minimum": 0, "maximum": 100}
        },
        "performanceBand": {"type": "string"},
        "interests":       {"type": "array", "items": {"type": "string"}, "maxItems": 30},
        "financialNeed":   {"enum": ["", "none", "moderate", "high"]},
        "constraints":     {"type": "string", "maxLength": 2000}
      }
    }
  }
}`

var schema = mustSchema(schemaJSON)

// Envelope is one decoded payload: an optional caller id plus the query
type Envelope struct {
	ID string `json:"id,omitempty"`
	model.Query
}

// Decode validates data against the request schema and returns the
// envelope. Every failure is an INVALID_QUERY error.
func Decode(data []byte) (Envelope, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Envelope{}, model.NewError(model.CodeInvalidQuery, "empty request body", nil)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Envelope{}, model.NewError(model.CodeInvalidQuery, "malformed JSON", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, e := range result.Errors() {
			errs[i] = e.String()
		}
		return Envelope{}, model.NewError(model.CodeInvalidQuery, strings.Join(errs, "; "), nil)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, model.NewError(model.CodeInvalidQuery, "malformed JSON", err)
	}
	if err := env.Query.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("request schema: %v", err))
	}
	return s
}
