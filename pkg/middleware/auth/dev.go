package auth

import "net/http"

// Dev-only user injection via headers when [auth].dev_bypass is set.
// X-Dev-Provider defaults to "dev".
func devUserFromHeaders(r *http.Request) User {
	user := r.Header.Get("X-Dev-User")
	if user == "" {
		return User{}
	}
	prov := r.Header.Get("X-Dev-Provider")
	if prov == "" {
		prov = "dev"
	}
	return User{
		Username:             user,
		AuthenticationSource: AuthenticationSource{Provider: prov},
		Role:                 Role{Name: r.Header.Get("X-Dev-Role")},
	}
}
