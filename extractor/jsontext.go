package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ysmood/gson"
)

var errNotObject = errors.New("payload is not a JSON object")

// ParseObject decodes s as a JSON object. Arrays, scalars and null are
// rejected so every accepted payload can be walked by key.
func ParseObject(s string) (gson.JSON, error) {
	v, err := parseJSON(s)
	if err != nil {
		return gson.JSON{}, err
	}
	if _, ok := v.(map[string]any); !ok {
		return gson.JSON{}, fmt.Errorf("%w: %v", ErrStrategyFailed, errNotObject)
	}
	return gson.New(v), nil
}

func parseJSON(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrStrategyFailed)
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStrategyFailed, err)
	}
	return v, nil
}

// balancedObject returns the {...} block that opens at the first '{' at or
// after from, matching braces while skipping over string literals.
func balancedObject(s string, from int) (string, bool) {
	if from < 0 || from >= len(s) {
		return "", false
	}
	start := strings.IndexByte(s[from:], '{')
	if start < 0 {
		return "", false
	}
	start += from

	depth := 0
	inString := false
	var quote byte
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case quote:
				inString = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inString = true
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// objectAfter finds pattern in s and returns the balanced object that
// follows it.
func objectAfter(s, pattern string) (string, bool) {
	idx := strings.Index(s, pattern)
	if idx < 0 {
		return "", false
	}
	return balancedObject(s, idx+len(pattern))
}
