package core

import (
	"context"
	"net/http"

	"github.com/joeydtaylor/steeze-dq/pkg/config"
	"github.com/joeydtaylor/steeze-dq/pkg/middleware/auth"
)

// guardStatus returns 0 when the request may pass g, otherwise 401 or 403.
func guardStatus(ctx context.Context, a *auth.Middleware, g config.Guard) int {
	// If no auth middleware wired, only allow when the guard restricts nothing
	if a == nil {
		if g.RequireAuth || len(g.Users) > 0 || len(g.Roles) > 0 {
			return http.StatusUnauthorized
		}
		return 0
	}

	if g.RequireAuth && !a.IsAuthenticated(ctx) {
		return http.StatusUnauthorized
	}
	if len(g.Users) > 0 {
		u := a.GetUser(ctx).Username
		if u == "" {
			return http.StatusUnauthorized
		}
		for _, x := range g.Users {
			if u == x {
				return 0
			}
		}
		return http.StatusForbidden
	}
	if len(g.Roles) > 0 {
		u := a.GetUser(ctx)
		if u.Username == "" {
			return http.StatusUnauthorized
		}
		if a.IsAdmin(ctx) {
			return 0
		}
		for _, x := range g.Roles {
			if u.Role.Name == x {
				return 0
			}
		}
		return http.StatusForbidden
	}
	return 0
}

func withGuard(next http.HandlerFunc, a *auth.Middleware, g config.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if code := guardStatus(r.Context(), a, g); code != 0 {
			http.Error(w, http.StatusText(code), code)
			return
		}
		next(w, r)
	}
}
