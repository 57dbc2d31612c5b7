package validation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"feedback-be/internal/domain"
)

// DecodePayload turns a raw submission body into questionID → raw value.
//
// Accepted shapes:
//   - object keyed by question id (current clients)
//   - array of values in top-level question order (legacy clients)
//   - a bare scalar, only for polls with a single top-level question
//
// Numbers are kept as json.Number so integer ratings are not rounded.
func DecodePayload(questions []domain.Question, payload json.RawMessage) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]interface{}{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, malformed("answers are not valid JSON: %v", err)
	}

	switch v := raw.(type) {
	case map[string]interface{}:
		return v, nil
	case []interface{}:
		if len(v) > len(questions) {
			return nil, malformed("got %d positional answers for %d questions", len(v), len(questions))
		}
		out := make(map[string]interface{}, len(v))
		for i, value := range v {
			if value != nil {
				out[questions[i].ID] = value
			}
		}
		return out, nil
	default:
		if len(questions) != 1 {
			return nil, malformed("a bare answer value needs a single-question poll, got %d questions", len(questions))
		}
		return map[string]interface{}{questions[0].ID: v}, nil
	}
}

func malformed(format string, args ...interface{}) error {
	return domain.NewValidationError(domain.ErrMalformedAnswers, "", fmt.Sprintf(format, args...))
}
