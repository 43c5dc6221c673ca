package object

import "strings"

// MetadataValue looks up user metadata regardless of how the backend
// canonicalised the key.
func MetadataValue(meta map[string]string, key string) string {
	for k, v := range meta {
		name := strings.TrimPrefix(strings.ToLower(k), "x-amz-meta-")
		if name == strings.ToLower(key) {
			return v
		}
	}
	return ""
}
