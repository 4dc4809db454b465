// Package jsonutil provides safe JSON field extraction for vendor parsers.
// Functions extract typed values from map[string]any produced by
// encoding/json.Unmarshal; no validation, no transformation.
package jsonutil

// GetString safely extracts a string field from a map.
func GetString(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

// GetBool safely extracts a bool field from a map.
func GetBool(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

// GetInt64 safely extracts a numeric field as int64. JSON numbers decode
// as float64 via encoding/json.
func GetInt64(m map[string]any, key string) int64 {
	v, ok := m[key].(float64)
	if !ok {
		return 0
	}
	return int64(v)
}

// GetMap safely extracts a nested object from a map.
func GetMap(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

// GetSlice safely extracts an array field from a map.
func GetSlice(m map[string]any, key string) []any {
	v, _ := m[key].([]any)
	return v
}

// FirstString returns the first non-empty string value among keys, in
// order. Used for diagnostic payloads whose message field varies by
// vendor (message vs content vs error vs error_message vs details).
func FirstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
