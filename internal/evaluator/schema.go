package evaluator

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// responseSchemaURL names the compiled response schema.
const responseSchemaURL = "schema://evaluation-response.json"

// responseSchema describes the body of a /quiz/next reply. Fields the
// service may omit are optional; nulls are tolerated where the service
// serializes absent values as null.
var responseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"next_question": map[string]any{
			"type": []any{"object", "null"},
			"properties": map[string]any{
				"id":         map[string]any{"type": "string", "minLength": 1},
				"topic":      map[string]any{"type": "string"},
				"difficulty": map[string]any{"type": "integer", "minimum": 1, "maximum": 5},
				"question":   map[string]any{"type": "string"},
				"options": map[string]any{
					"type":     "array",
					"items":    map[string]any{"type": "string"},
					"minItems": 2,
					"maxItems": 5,
				},
				"correct":       map[string]any{"type": "string"},
				"misconception": map[string]any{"type": []any{"string", "null"}},
			},
			"required": []any{"id", "topic", "question", "options", "correct"},
		},
		// learner_state is decoded leniently in decodeResponse.
		"learner_state": map[string]any{},
		"explanation": map[string]any{"type": []any{"string", "null"}},
	},
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// decodeResponse validates raw against the response schema and decodes it.
// Returns *ErrInvalidResponse on failure.
func decodeResponse(raw []byte) (*Response, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ErrInvalidResponse{Body: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	sch, err := responseValidator()
	if err != nil {
		return nil, &ErrInvalidResponse{Body: raw, Err: fmt.Errorf("compile schema: %w", err)}
	}
	if err := sch.Validate(parsed); err != nil {
		return nil, &ErrInvalidResponse{Body: raw, Err: fmt.Errorf("schema validation failed: %w", err)}
	}

	var wire wireResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &ErrInvalidResponse{Body: raw, Err: fmt.Errorf("decode: %w", err)}
	}
	resp := wire.Response
	resp.LearnerState = decodeLearnerState(wire.LearnerState)
	return &resp, nil
}

// wireResponse holds learner_state raw so a partial or mistyped one can be
// dropped without losing the rest of the reply.
type wireResponse struct {
	Response
	LearnerState json.RawMessage `json:"learner_state"`
}

// decodeLearnerState returns nil unless raw is a complete learner state.
// The service sends {"topic_mastery": {}, "error": ...} when its own update
// fails; callers then keep their local estimate.
func decodeLearnerState(raw json.RawMessage) *LearnerState {
	if len(raw) == 0 {
		return nil
	}
	var ls LearnerState
	if err := json.Unmarshal(raw, &ls); err != nil || !ls.Complete() {
		return nil
	}
	return &ls
}

func responseValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants a plain decoded JSON value, not Go maps with
		// typed slices, so round-trip the definition first.
		defBytes, err := json.Marshal(responseSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema definition: %w", err)
			return
		}
		var def any
		if err := json.Unmarshal(defBytes, &def); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(responseSchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(responseSchemaURL)
	})
	return compiledSchema, compileErr
}
