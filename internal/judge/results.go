// Package judge defines the message contract between the judging engine
// and the API. The engine pushes one message per finished submission onto
// a storage queue; the server validates it against a schema before
// touching the database.
package judge

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/openoj/judge-api/internal/types"
)

// Verdict for a fully judged submission.
type ResultMessage struct {
	SubmissionID string            `json:"submission_id" validate:"required,uuid_rfc4122"`
	Groups       []types.TestGroup `json:"groups"        validate:"required"`
}

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["submission_id", "groups"],
  "properties": {
    "submission_id": {"type": "string", "minLength": 1},
    "groups": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["score", "fullScore", "status"],
        "properties": {
          "score": {"type": "number"},
          "fullScore": {"type": "number"},
          "status": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["time", "memory"],
              "properties": {
                "time": {"type": "number"},
                "memory": {"type": "number"}
              }
            }
          }
        }
      }
    }
  }
}`

var Schema = jsonschema.MustCompileString("judge/results.json", schemaJSON)

// ParseResult validates `raw` against the result schema and decodes it.
func ParseResult(raw []byte) (*ResultMessage, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("result message is not valid json: %w", err)
	}

	if err := Schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("result message failed schema validation: %w", err)
	}

	var msg ResultMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}

	return &msg, nil
}
