// Package headers parses "Key: Value" header arguments, the form used
// by the -H flag and the extra_headers config entry.
package headers

import (
	"strings"
)

// Parse converts header strings ("Key: Value") into a map. Malformed
// entries without a colon and entries with an empty key are dropped.
func Parse(h []string) map[string]string {
	m := make(map[string]string)
	for _, hdr := range h {
		parts := strings.SplitN(hdr, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		m[key] = strings.TrimSpace(parts[1])
	}
	return m
}

// Merge overlays extra onto base, with extra winning on conflicts.
// Neither input is modified.
func Merge(base, extra map[string]string) map[string]string {
	m := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		m[k] = v
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}
