package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeydtaylor/steeze-dq/pkg/config"
)

// Middleware identifies the user behind a request from a signed assertion
// cookie (RS256). Requests without one continue unauthenticated.
type Middleware struct {
	adminRole string
	devBypass bool

	assertCookieName string
	assertIssuer     string
	assertAudience   string
	assertLeeway     time.Duration
	assertKey        *rsa.PublicKey
}

// New builds the middleware from the [auth] config section. A missing key
// file leaves assertion checks disabled.
func New(c config.Auth) (*Middleware, error) {
	m := &Middleware{
		adminRole:        c.AdminRole,
		devBypass:        c.DevBypass,
		assertCookieName: firstNonEmpty(strings.TrimSpace(c.AssertionCookie), "assert"),
		assertIssuer:     strings.TrimSpace(c.Issuer),
		assertAudience:   strings.TrimSpace(c.Audience),
		assertLeeway:     time.Duration(c.LeewaySeconds) * time.Second,
	}
	if p := strings.TrimSpace(c.AssertionKeyFile); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("assertion key: %w", err)
		}
		k, err := parseRSAPublicKey(b)
		if err != nil {
			return nil, fmt.Errorf("assertion key %s: %w", p, err)
		}
		m.assertKey = k
	}
	return m, nil
}

// WithKey sets the assertion verification key.
func (m *Middleware) WithKey(k *rsa.PublicKey) *Middleware {
	m.assertKey = k
	return m
}

func parseRSAPublicKey(b []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, errors.New("no PEM block")
	}
	keyAny, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rk, ok := keyAny.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("PEM is not RSA public key")
	}
	return rk, nil
}

func first(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
