// Package jsonutil holds JSON helpers shared by the extraction decoder.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// TypeError reports a JSON value whose type does not match the expected one.
type TypeError struct {
	Expected string
	Got      string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Expected, e.Got)
}

// Kind returns the JSON type name of raw: "null", "string", "number",
// "boolean", "array", "object", or "invalid". Empty input counts as null.
func Kind(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "null"
	}
	switch c := trimmed[0]; {
	case c == 'n':
		return "null"
	case c == '"':
		return "string"
	case c == '-' || (c >= '0' && c <= '9'):
		return "number"
	case c == 't' || c == 'f':
		return "boolean"
	case c == '[':
		return "array"
	case c == '{':
		return "object"
	default:
		return "invalid"
	}
}

// NullableInteger decodes a JSON number with no fractional part, or null.
// 10000 and 10000.0 are accepted; 10000.5 and values outside int64 are not.
func NullableInteger(raw json.RawMessage) (*int64, error) {
	switch kind := Kind(raw); kind {
	case "null":
		return nil, nil
	case "number":
	default:
		return nil, &TypeError{Expected: "integer or null", Got: kind}
	}

	n := json.Number(bytes.TrimSpace(raw))
	if i, err := n.Int64(); err == nil {
		return &i, nil
	}

	f, err := n.Float64()
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, &TypeError{Expected: "integer or null", Got: "invalid number"}
	}
	// 2^63 is the first float64 that does not fit; int64(2^63) would wrap.
	if math.IsInf(f, 0) || f >= 0x1p63 || f < -0x1p63 {
		return nil, &TypeError{Expected: "integer or null", Got: "number outside int64 range"}
	}
	if f != math.Trunc(f) {
		return nil, &TypeError{Expected: "integer or null", Got: "fractional number"}
	}
	i := int64(f)
	return &i, nil
}
