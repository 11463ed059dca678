package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-dq/pkg/middleware/auth"
)

// Collect produces the HTTP middleware that records the counters/histogram.
func Collect(ca *auth.Middleware) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)
			startTime := time.Now()

			defer func() {
				if isSkipPath(r) {
					return
				}

				role := ""
				if ca != nil {
					role = ca.GetUser(r.Context()).Role.Name
				}

				code := strconv.Itoa(ww.Status())
				totalHttpRequestsFromRole.WithLabelValues(role).Inc()
				totalHttpRequests.WithLabelValues(code, routeLabel(r), r.Method).Inc()
				responseTime.WithLabelValues(r.Method).Observe(time.Since(startTime).Seconds())
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
