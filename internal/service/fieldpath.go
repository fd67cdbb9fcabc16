package service

import "strings"

// ResolveField looks up a dot-delimited path inside an event data payload.
// It returns the value and true when the full path resolves, or (nil, false)
// the moment any intermediate value is missing or not a map. Absence is a
// normal outcome, not an error.
func ResolveField(data map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}

	var current interface{} = data
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}
