package cms

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"github.com/reedharmon/pubpulse/internal/engine"
)

// payloadSchemaJSON is the contract for operator create and update
// responses. The value and context fields may be any JSON type; values are
// compared in string form.
const payloadSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["pagePath", "selector", "value"],
  "properties": {
    "pagePath": {"type": "string", "minLength": 1},
    "selector": {"type": "string", "minLength": 1},
    "value": {},
    "context": {}
  }
}`

var payloadSchema = jsonschema.MustCompileString("payload.json", payloadSchemaJSON)

// validatePayload checks an operator response body against the payload
// schema and decodes it. Any validation failure comes back as a
// *engine.PayloadError.
func validatePayload(verb engine.Verb, nodeID string, body []byte) (engine.Payload, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return engine.Payload{}, &engine.PayloadError{
			Verb:   verb,
			NodeID: nodeID,
			Causes: []string{fmt.Sprintf("response is not JSON: %v", err)},
		}
	}

	if err := payloadSchema.Validate(doc); err != nil {
		pe := &engine.PayloadError{Verb: verb, NodeID: nodeID}
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			pe.Causes = flattenCauses(ve)
		} else {
			pe.Causes = []string{err.Error()}
		}
		return engine.Payload{}, pe
	}

	// gjson gives the canonical string form whatever the JSON type of the
	// field was.
	return engine.Payload{
		PagePath: gjson.GetBytes(body, "pagePath").String(),
		Selector: gjson.GetBytes(body, "selector").String(),
		Value:    gjson.GetBytes(body, "value").String(),
		Context:  gjson.GetBytes(body, "context").String(),
	}, nil
}

// flattenCauses extracts all leaf messages from a validation error tree.
func flattenCauses(err *jsonschema.ValidationError) []string {
	var out []string
	if err.Message != "" {
		out = append(out, fmt.Sprintf("validation error at %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		out = append(out, flattenCauses(cause)...)
	}
	return out
}
