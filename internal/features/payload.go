// Package features maps raw request context to the fixed-arity feature
// vectors the scorers expect. Extraction never fails: malformed or missing
// inputs degrade to neutral defaults so availability beats strict validation.
package features

import (
	"encoding/json"
	"strconv"
	"strings"
)

// numField pulls a numeric value out of a loose JSON payload. Numbers arrive
// as float64 from the decoder, but callers sometimes send numeric strings, so
// those are accepted too. Anything else is a miss.
func numField(payload map[string]any, keys ...string) (float64, bool) {
	if payload == nil {
		return 0, false
	}
	for _, key := range keys {
		v, ok := payload[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
