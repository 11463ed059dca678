package auth

import (
	"context"
	"net/http"
)

func (m *Middleware) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Dev bypass for local testing (NEVER enable in prod)
			if m.devBypass {
				if u := devUserFromHeaders(r); u.Username != "" {
					ctx := context.WithValue(r.Context(), userCtxKey, u)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			if ac, _ := r.Cookie(m.assertCookieName); ac != nil && ac.Value != "" && m.assertKey != nil {
				if u, err := m.validateAssertion(ac.Value); err == nil && u.Username != "" {
					ctx := context.WithValue(r.Context(), userCtxKey, u)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
