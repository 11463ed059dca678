package auth

import (
	"errors"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

func (m *Middleware) validateAssertion(raw string) (User, error) {
	if m.assertKey == nil {
		return User{}, errors.New("assertion key not configured")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(m.assertLeeway),
	)

	var claims struct {
		jwt.RegisteredClaims
		UID   string   `json:"uid"`
		Roles []string `json:"roles"`
		Role  string   `json:"role"`
	}

	tok, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.assertKey, nil
	})
	if err != nil || !tok.Valid {
		return User{}, errors.New("invalid assertion")
	}
	if m.assertIssuer != "" && claims.Issuer != m.assertIssuer {
		return User{}, errors.New("bad issuer")
	}
	if m.assertAudience != "" && !slices.Contains(claims.Audience, m.assertAudience) {
		return User{}, errors.New("bad audience")
	}

	username := firstNonEmpty(claims.UID, claims.Subject)
	if username == "" {
		return User{}, errors.New("missing uid")
	}
	return User{
		Username:             username,
		AuthenticationSource: AuthenticationSource{Provider: "assert"},
		Role:                 Role{Name: firstNonEmpty(claims.Role, first(claims.Roles...))},
	}, nil
}
