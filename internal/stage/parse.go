package stage

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var jsonListPattern = regexp.MustCompile(`(?s)\[.*\]`)

// ExtractFirstJSONList pulls the first JSON list out of generated text.
// Models wrap payloads in prose or fences often enough that a direct parse is
// tried first and a bracketed slice second. Failure returns nil.
func ExtractFirstJSONList(text string) []map[string]any {
	if list, ok := parseList(text); ok {
		return list
	}
	if snippet := jsonListPattern.FindString(text); snippet != "" {
		if list, ok := parseList(snippet); ok {
			return list
		}
	}
	return nil
}

func parseList(text string) ([]map[string]any, bool) {
	var rawList []any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &rawList); err != nil {
		return nil, false
	}
	out := make([]map[string]any, 0, len(rawList))
	for _, item := range rawList {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, true
}

// firstResult returns the first object of the first JSON list in text, or nil.
func firstResult(text string) map[string]any {
	list := ExtractFirstJSONList(text)
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

// strField returns the first non-empty string among the given keys.
func strField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// intField reads an integer that models emit as number or digit string.
func intField(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
