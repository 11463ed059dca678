package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// unmatched labels requests that no route claimed.
const unmatched = "unmatched"

var skipPaths = map[string]struct{}{"/metrics": {}, "/ping": {}}

func isSkipPath(r *http.Request) bool {
	_, ok := skipPaths[r.URL.Path]
	return ok
}

// routeLabel is the uri label: the chi route pattern, never the raw path.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatched
}
