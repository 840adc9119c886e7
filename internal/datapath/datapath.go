// Package datapath implements dot-separated navigation into a parsed
// response JSON document, shared by the Request Executor and the File
// Extractor.
package datapath

import "strings"

// Navigate walks path (split on ".") into value. A leading "$" segment
// means "root" and is skipped. If a segment is missing on the current
// object, navigation stops and the last valid value is returned
// (forgiving navigation), with ok=false signaling the miss to callers
// that feed it back to a Synthesizer.
func Navigate(value any, path string) (result any, ok bool) {
	if path == "" {
		return value, true
	}

	segments := strings.Split(path, ".")
	current := value
	success := true

	for _, seg := range segments {
		if seg == "$" {
			continue
		}
		obj, isMap := current.(map[string]any)
		if !isMap {
			success = false
			break
		}
		next, present := obj[seg]
		if !present {
			success = false
			break
		}
		current = next
	}

	return current, success
}
