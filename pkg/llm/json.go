package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// thinkTagPattern matches a reasoning block some models emit before the answer.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// ExtractJSONObject returns the first balanced, valid JSON object in an LLM
// response. Leading <think> blocks and surrounding prose or markdown fences
// are ignored. Arrays and scalars at the top level are rejected.
func ExtractJSONObject(response string) (string, error) {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	for offset := 0; offset < len(cleaned); {
		start := strings.IndexByte(cleaned[offset:], '{')
		if start < 0 {
			break
		}
		start += offset

		candidate, ok := balancedObject(cleaned[start:])
		if !ok {
			break
		}
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
		offset = start + 1
	}

	return "", fmt.Errorf("no valid JSON object found in response")
}

// balancedObject returns the prefix of s, which must start with '{', up to
// the brace that closes it. Braces inside string literals are skipped.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}

	return "", false
}
