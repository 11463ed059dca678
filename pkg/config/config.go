// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the top-level dq.toml.
type Config struct {
	Server   Server   `toml:"server"`
	Database Database `toml:"database"`
	Session  Session  `toml:"session"`
	Pages    Pages    `toml:"pages"`
	Auth     Auth     `toml:"auth"`
	Guards   []Guard  `toml:"guard"`
}

type Server struct {
	Service         string `toml:"service"` // logs/metrics tag only
	Listen          string `toml:"listen"`
	RenderTimeoutMS int    `toml:"render_timeout_ms"` // 0: no per-page deadline
}

type Database struct {
	URL      string `toml:"url"`
	URLEnv   string `toml:"url_env"` // takes precedence when the variable is set
	MaxConns int32  `toml:"max_conns"`
}

// DSN returns the effective connection string; empty disables the database.
func (d Database) DSN() string {
	if d.URLEnv != "" {
		if v := strings.TrimSpace(os.Getenv(d.URLEnv)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(d.URL)
}

type Session struct {
	CookieName    string `toml:"cookie_name"`
	SecretEnv     string `toml:"secret_env"`
	MaxAgeMinutes int    `toml:"max_age_minutes"`
	Secure        bool   `toml:"secure"`
}

func (s Session) MaxAge() time.Duration { return time.Duration(s.MaxAgeMinutes) * time.Minute }

type Pages struct {
	Dir        string `toml:"dir"` // empty: embedded pages
	Watch      bool   `toml:"watch"`
	DateLayout string `toml:"date_layout"`
}

type Auth struct {
	AssertionCookie  string `toml:"assertion_cookie"`
	AssertionKeyFile string `toml:"assertion_key_file"`
	Issuer           string `toml:"issuer"`
	Audience         string `toml:"audience"`
	AdminRole        string `toml:"admin_role"`
	DevBypass        bool   `toml:"dev_bypass"`
	LeewaySeconds    int    `toml:"leeway_seconds"`
}

// Guard restricts every page package under Prefix (dotted, e.g. "instrument.hrs").
type Guard struct {
	Prefix      string   `toml:"prefix"`
	Roles       []string `toml:"roles"`
	Users       []string `toml:"users"`
	RequireAuth bool     `toml:"require_auth"`
}

// Matches reports whether pkg lies under the guard's prefix.
func (g Guard) Matches(pkg string) bool {
	if g.Prefix == "" {
		return true
	}
	return pkg == g.Prefix || strings.HasPrefix(pkg, g.Prefix+".")
}

// GuardFor returns the most specific guard covering pkg.
func (c *Config) GuardFor(pkg string) (Guard, bool) {
	var best Guard
	found := false
	for _, g := range c.Guards {
		if g.Matches(pkg) && (!found || len(g.Prefix) > len(best.Prefix)) {
			best, found = g, true
		}
	}
	return best, found
}

func Default() Config {
	return Config{
		Server:  Server{Service: "dq", Listen: ":4000"},
		Session: Session{CookieName: "dq_session", SecretEnv: "SESSION_SECRET", MaxAgeMinutes: 60 * 24 * 30},
		Pages:   Pages{DateLayout: "2006-01-02"},
		Auth:    Auth{AssertionCookie: "assert", LeewaySeconds: 60},
	}
}

// Load reads and validates a TOML config; fields not set keep Default values.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("session.cookie_name required")
	}
	if c.Session.MaxAgeMinutes < 0 {
		return errors.New("session.max_age_minutes must be >= 0")
	}
	if c.Server.RenderTimeoutMS < 0 {
		return errors.New("server.render_timeout_ms must be >= 0")
	}
	if c.Database.MaxConns < 0 {
		return errors.New("database.max_conns must be >= 0")
	}
	if c.Pages.DateLayout == "" {
		c.Pages.DateLayout = "2006-01-02"
	}
	if c.Pages.Watch && c.Pages.Dir == "" {
		return errors.New("pages.watch requires pages.dir")
	}
	if c.Pages.Dir != "" {
		st, err := os.Stat(c.Pages.Dir)
		if err != nil {
			return fmt.Errorf("pages.dir: %w", err)
		}
		if !st.IsDir() {
			return fmt.Errorf("pages.dir %q is not a directory", c.Pages.Dir)
		}
	}
	for i := range c.Guards {
		g := &c.Guards[i]
		g.Prefix = strings.Trim(strings.ReplaceAll(strings.TrimSpace(g.Prefix), "/", "."), ".")
		if !g.RequireAuth && len(g.Roles) == 0 && len(g.Users) == 0 {
			return fmt.Errorf("guard %d (%q): no restriction configured", i, g.Prefix)
		}
	}
	return nil
}
