package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AnswerKind tags the shape of a normalized answer value
type AnswerKind string

const (
	AnswerNumber  AnswerKind = "number"
	AnswerString  AnswerKind = "string"
	AnswerStrings AnswerKind = "strings"
	AnswerBool    AnswerKind = "bool"
)

// AnswerValue is a normalized, typed answer. Exactly one payload field is
// meaningful, selected by Kind.
type AnswerValue struct {
	Kind    AnswerKind
	Number  float64
	String  string
	Strings []string
	Bool    bool
}

func NumberValue(n float64) AnswerValue   { return AnswerValue{Kind: AnswerNumber, Number: n} }
func StringValue(s string) AnswerValue    { return AnswerValue{Kind: AnswerString, String: s} }
func StringsValue(s []string) AnswerValue { return AnswerValue{Kind: AnswerStrings, Strings: s} }
func BoolValue(b bool) AnswerValue        { return AnswerValue{Kind: AnswerBool, Bool: b} }

// Canonical returns the string form used for follow-up trigger matching
func (v AnswerValue) Canonical() string {
	switch v.Kind {
	case AnswerNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case AnswerString:
		return v.String
	case AnswerStrings:
		return strings.Join(v.Strings, ",")
	case AnswerBool:
		return strconv.FormatBool(v.Bool)
	}
	return ""
}

// Interface returns the bare JSON-compatible value
func (v AnswerValue) Interface() interface{} {
	switch v.Kind {
	case AnswerNumber:
		return v.Number
	case AnswerString:
		return v.String
	case AnswerStrings:
		if v.Strings == nil {
			return []string{}
		}
		return v.Strings
	case AnswerBool:
		return v.Bool
	}
	return nil
}

// Answer is one entry of the canonical ordered answer list
type Answer struct {
	QuestionID string
	Value      AnswerValue
}

type answerJSON struct {
	QuestionID string          `json:"question_id"`
	Kind       AnswerKind      `json:"kind"`
	Value      json.RawMessage `json:"value"`
}

// MarshalJSON implements json.Marshaler
func (a Answer) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(a.Value.Interface())
	if err != nil {
		return nil, err
	}
	return json.Marshal(answerJSON{QuestionID: a.QuestionID, Kind: a.Value.Kind, Value: raw})
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Answer) UnmarshalJSON(data []byte) error {
	var aux answerJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	a.QuestionID = aux.QuestionID
	a.Value = AnswerValue{Kind: aux.Kind}

	var target interface{}
	switch aux.Kind {
	case AnswerNumber:
		target = &a.Value.Number
	case AnswerString:
		target = &a.Value.String
	case AnswerStrings:
		target = &a.Value.Strings
	case AnswerBool:
		target = &a.Value.Bool
	default:
		return fmt.Errorf("unknown answer kind %q", aux.Kind)
	}
	return json.Unmarshal(aux.Value, target)
}

// Answers is the canonical ordered list of normalized answers
type Answers []Answer

// Get returns the answer for a question id
func (a Answers) Get(questionID string) (AnswerValue, bool) {
	for _, ans := range a {
		if ans.QuestionID == questionID {
			return ans.Value, true
		}
	}
	return AnswerValue{}, false
}

// Map renders answers as questionID → bare value
func (a Answers) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(a))
	for _, ans := range a {
		out[ans.QuestionID] = ans.Value.Interface()
	}
	return out
}
