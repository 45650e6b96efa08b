package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// extractJSON cuts the JSON object or array out of text that may wrap it
// in markdown fences or commentary.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	if startObj != -1 && endObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	} else if startArr != -1 && endArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return text
}

// decodeJSONObject parses a model reply into a generic map, tolerating
// markdown wrapping around the object.
func decodeJSONObject(raw string) (map[string]interface{}, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal reply: %w", err)
	}
	return payload, nil
}

// coerceInt accepts the number shapes models actually produce: JSON
// numbers, quoted numbers and numbers with a trailing percent sign.
func coerceInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(math.Round(v)), true
	case int:
		return v, true
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(math.Round(f)), true
		}
	}
	return 0, false
}

// coerceString renders a value as a plain string. Non-string scalars are
// formatted, composites are compact-marshaled.
func coerceString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}

// coerceStringSlice flattens a value into a list of strings, dropping
// empty entries. A bare string becomes a single-element list.
func coerceStringSlice(value interface{}) []string {
	items := []string{}
	switch v := value.(type) {
	case nil:
		return items
	case []interface{}:
		for _, item := range v {
			if s := coerceString(item); s != "" {
				items = append(items, s)
			}
		}
	default:
		if s := coerceString(v); s != "" {
			items = append(items, s)
		}
	}
	return items
}
