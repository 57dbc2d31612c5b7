package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"feedback-be/internal/domain"
)

var (
	binaryTrue  = map[string]bool{"да": true, "yes": true, "true": true, "1": true}
	binaryFalse = map[string]bool{"нет": true, "no": true, "false": true, "0": true}
)

// ValidateAnswer normalizes a single raw value against its question.
// present is false when the value is absent (nil or blank), which is not an
// error here; required-ness is checked by Validate.
func ValidateAnswer(q domain.Question, raw interface{}) (value domain.AnswerValue, present bool, err error) {
	if raw == nil {
		return domain.AnswerValue{}, false, nil
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" && q.Type != domain.QuestionMultipleChoice {
		return domain.AnswerValue{}, false, nil
	}

	switch q.Type {
	case domain.QuestionRating:
		value, err = validateRating(q, raw)
	case domain.QuestionSingleChoice:
		value, err = validateSingleChoice(q, raw)
	case domain.QuestionMultipleChoice:
		value, err = validateMultipleChoice(q, raw)
	case domain.QuestionBinary:
		value, err = validateBinary(q, raw)
	case domain.QuestionFreeText:
		value, err = validateFreeText(q, raw)
	default:
		err = domain.NewValidationError(domain.ErrInvalidOption, q.ID, fmt.Sprintf("unknown question type %q", q.Type))
	}
	if err != nil {
		return domain.AnswerValue{}, false, err
	}
	return value, true, nil
}

func validateRating(q domain.Question, raw interface{}) (domain.AnswerValue, error) {
	scale := q.RatingScale()
	n, ok := toInteger(raw)
	if !ok || n < 1 || n > scale {
		return domain.AnswerValue{}, domain.NewValidationError(domain.ErrOutOfRange, q.ID,
			fmt.Sprintf("expected an integer between 1 and %d, got %v", scale, raw))
	}
	return domain.NumberValue(float64(n)), nil
}

func validateSingleChoice(q domain.Question, raw interface{}) (domain.AnswerValue, error) {
	s, ok := raw.(string)
	if !ok || !(q.HasOption(s) || isOtherEntry(q, s)) {
		return domain.AnswerValue{}, domain.NewValidationError(domain.ErrInvalidOption, q.ID,
			fmt.Sprintf("%v is not one of the options", raw))
	}
	return domain.StringValue(s), nil
}

func validateMultipleChoice(q domain.Question, raw interface{}) (domain.AnswerValue, error) {
	items, ok := raw.([]interface{})
	if ss, isStrings := raw.([]string); isStrings {
		items, ok = make([]interface{}, len(ss)), true
		for i, v := range ss {
			items[i] = v
		}
	}
	if !ok {
		return domain.AnswerValue{}, domain.NewValidationError(domain.ErrInvalidOption, q.ID, "expected a list of options")
	}

	selected := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || !(q.HasOption(s) || isOtherEntry(q, s)) {
			return domain.AnswerValue{}, domain.NewValidationError(domain.ErrInvalidOption, q.ID,
				fmt.Sprintf("%v is not one of the options", item))
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		selected = append(selected, s)
	}
	return domain.StringsValue(selected), nil
}

func isOtherEntry(q domain.Question, s string) bool {
	if !q.AllowOther || !strings.HasPrefix(s, domain.OtherOptionPrefix) {
		return false
	}
	return strings.TrimSpace(strings.TrimPrefix(s, domain.OtherOptionPrefix)) != ""
}

func validateBinary(q domain.Question, raw interface{}) (domain.AnswerValue, error) {
	switch v := raw.(type) {
	case bool:
		return domain.BoolValue(v), nil
	case string, json.Number, float64, int:
		token := strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
		if binaryTrue[token] {
			return domain.BoolValue(true), nil
		}
		if binaryFalse[token] {
			return domain.BoolValue(false), nil
		}
	}
	return domain.AnswerValue{}, domain.NewValidationError(domain.ErrInvalidBinaryValue, q.ID,
		fmt.Sprintf("%v is not a yes/no value", raw))
}

func validateFreeText(q domain.Question, raw interface{}) (domain.AnswerValue, error) {
	var text string
	switch v := raw.(type) {
	case string:
		text = v
	case json.Number:
		text = v.String()
	case bool, float64, int:
		text = fmt.Sprint(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return domain.AnswerValue{}, domain.NewValidationError(domain.ErrMalformedAnswers, q.ID, err.Error())
		}
		text = string(encoded)
	}

	text = strings.TrimSpace(text)
	if limit := q.TextLimit(); utf8.RuneCountInString(text) > limit {
		return domain.AnswerValue{}, domain.NewValidationError(domain.ErrTooLong, q.ID,
			fmt.Sprintf("at most %d characters allowed", limit))
	}
	return domain.StringValue(text), nil
}

// toInteger coerces JSON numbers and numeric strings to an int; fractional values fail.
func toInteger(raw interface{}) (int, bool) {
	var f float64
	switch v := raw.(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = v
	case int:
		return v, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
