package logger

import (
	"net/http"
	"strings"
)

// maxLoggedBody caps the request bodies written to the access log.
const maxLoggedBody = 1 << 12

var bodyLogPrefixes = []string{dataQualityPrefix}

// Only log small query-form posts on allowlisted prefixes.
func shouldLogBody(r *http.Request, body []byte) bool {
	if r.Method != http.MethodPost {
		return false
	}
	if len(body) == 0 || len(body) > maxLoggedBody {
		return false
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		return false
	}
	for _, p := range bodyLogPrefixes {
		if strings.HasPrefix(r.URL.Path, p) {
			return true
		}
	}
	return false
}
