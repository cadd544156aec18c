package store

import "encoding/json"

// marshalNames converts []string to JSON text for storage.
func marshalNames(names []string) string {
	if len(names) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(names)
	return string(b)
}

// unmarshalNames converts JSON text back to []string.
func unmarshalNames(s string) []string {
	if s == "" || s == "null" {
		return nil
	}
	var names []string
	_ = json.Unmarshal([]byte(s), &names)
	if len(names) == 0 {
		return nil
	}
	return names
}
