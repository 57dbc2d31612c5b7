package aggregation

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"feedback-be/internal/domain"
)

// metricValue reduces one response to the number being aggregated.
// ok is false when the response carries nothing usable for the metric.
func metricValue(resp *domain.Response, req domain.ReportRequest) (float64, bool) {
	switch req.Metric {
	case domain.MetricIKOP:
		if resp.IKOP == nil {
			return 0, false
		}
		return float64(*resp.IKOP), true

	case domain.MetricQuestion:
		if v, ok := resp.Answers.Get(req.QuestionID); ok {
			if v.Kind == domain.AnswerNumber {
				return v.Number, true
			}
			return 0, false
		}
		raw, ok := decodeRaw(resp.RawAnswers)
		if !ok {
			return 0, false
		}
		if m, isMap := raw.(map[string]interface{}); isMap {
			return meanOf(NumericLeaves(m[req.QuestionID]))
		}
		return 0, false

	case domain.MetricAnswerMean:
		if len(resp.Answers) > 0 {
			leaves := make([]float64, 0, len(resp.Answers))
			for _, a := range resp.Answers {
				if a.Value.Kind == domain.AnswerNumber {
					leaves = append(leaves, a.Value.Number)
				}
			}
			return meanOf(leaves)
		}
		raw, ok := decodeRaw(resp.RawAnswers)
		if !ok {
			return 0, false
		}
		return meanOf(NumericLeaves(raw))
	}
	return 0, false
}

// decodeRaw parses a legacy payload; unparseable payloads are skipped.
func decodeRaw(payload json.RawMessage) (interface{}, bool) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// NumericLeaves collects every numeric leaf of a decoded JSON value, walking
// objects and arrays recursively. Numeric strings count; booleans and other
// strings are skipped.
func NumericLeaves(v interface{}) []float64 {
	var out []float64
	var walk func(interface{})
	walk = func(v interface{}) {
		switch t := v.(type) {
		case json.Number:
			if f, err := t.Float64(); err == nil && isFinite(f) {
				out = append(out, f)
			}
		case float64:
			if isFinite(t) {
				out = append(out, t)
			}
		case int:
			out = append(out, float64(t))
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil && isFinite(f) {
				out = append(out, f)
			}
		case map[string]interface{}:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(t[k])
			}
		case []interface{}:
			for _, item := range t {
				walk(item)
			}
		}
	}
	walk(v)
	return out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func meanOf(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return mean(values), true
}

// Describe returns count, mean, median and population standard deviation.
// Statistics are nil for an empty sample.
func Describe(values []float64) domain.Stats {
	stats := domain.Stats{Count: len(values)}
	if len(values) == 0 {
		return stats
	}
	m := mean(values)
	med := median(values)
	sd := stddev(values, m)
	stats.Mean, stats.Median, stats.StdDev = &m, &med, &sd
	return stats
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func stddev(values []float64, m float64) float64 {
	var sq float64
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	return math.Sqrt(sq / float64(len(values)))
}
