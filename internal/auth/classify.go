// internal/auth/classify.go
package auth

import (
	"encoding/json"
	"net/http"
)

// IsAuthFailure is the single boundary predicate for the dual-channel
// auth-failure signal: an HTTP 401, or a 2xx response whose body
// envelope carries a code/status/error field equal to 401. The upstream
// API reports expiry both ways and either must trigger a refresh.
func IsAuthFailure(statusCode int, body []byte) bool {
	if statusCode == http.StatusUnauthorized {
		return true
	}
	if len(body) == 0 {
		return false
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false
	}
	for _, field := range []string{"code", "status", "error"} {
		raw, ok := envelope[field]
		if !ok {
			continue
		}
		if fieldIs401(raw) {
			return true
		}
	}
	return false
}

// fieldIs401 accepts both the numeric and string renditions the
// upstream has been observed emitting.
func fieldIs401(raw json.RawMessage) bool {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n == http.StatusUnauthorized
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s == "401"
	}
	return false
}
