package serverfx

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/joeydtaylor/steeze-dq/pkg/config"
	"github.com/joeydtaylor/steeze-dq/pkg/core"
	"github.com/joeydtaylor/steeze-dq/pkg/dq"
	"github.com/joeydtaylor/steeze-dq/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-dq/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-dq/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-dq/pkg/pages"
	"github.com/joeydtaylor/steeze-dq/pkg/session"
	"github.com/joeydtaylor/steeze-dq/pkg/store"
	"github.com/joeydtaylor/steeze-dq/pkg/transport/httpx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ---------- Options ----------

// Options allow per-deployment env keys/defaults without code duplication.
type Options struct {
	Service       string // for logs only; dq.toml [server].service wins when set
	ConfigEnv     string // e.g. "DQ_CONFIG"
	DefaultConfig string // e.g. "dq.toml"
	ListenEnv     string // e.g. "SERVER_LISTEN_ADDRESS"
	TLSCertEnv    string // e.g. "SSL_SERVER_CERTIFICATE"
	TLSKeyEnv     string // e.g. "SSL_SERVER_KEY"
}

type Option func(*Options)

func WithService(s string) Option          { return func(o *Options) { o.Service = s } }
func WithConfigEnv(k string) Option        { return func(o *Options) { o.ConfigEnv = k } }
func WithDefaultConfig(path string) Option { return func(o *Options) { o.DefaultConfig = path } }
func WithListenEnv(k string) Option        { return func(o *Options) { o.ListenEnv = k } }
func WithTLSCertKeyEnv(cert, key string) Option {
	return func(o *Options) { o.TLSCertEnv, o.TLSKeyEnv = cert, key }
}

func defaultOptions() Options {
	return Options{
		Service:       "dq",
		ConfigEnv:     "DQ_CONFIG",
		DefaultConfig: "dq.toml",
		ListenEnv:     "SERVER_LISTEN_ADDRESS",
		TLSCertEnv:    "SSL_SERVER_CERTIFICATE",
		TLSKeyEnv:     "SSL_SERVER_KEY",
	}
}

// ---- Config ----

func provideConfig(o Options, log *zap.Logger) *config.Config {
	path := envOr(o.ConfigEnv, o.DefaultConfig)
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == o.DefaultConfig {
		log.Warn("config file not found, using defaults", zap.String("path", path))
		cfg = config.Default()
		err = cfg.Validate()
	}
	if err != nil {
		log.Fatal("config load failed", zap.Error(err), zap.String("path", path))
	}
	if cfg.Server.Service == "" {
		cfg.Server.Service = o.Service
	}
	return &cfg
}

// ---- Middleware ----

func provideAuth(cfg *config.Config, log *zap.Logger) *auth.Middleware {
	m, err := auth.New(cfg.Auth)
	if err != nil {
		log.Fatal("auth setup failed", zap.Error(err))
	}
	if cfg.Auth.DevBypass {
		log.Warn("auth dev bypass enabled; X-Dev-User headers are trusted")
	}
	return m
}

func provideSessions(cfg *config.Config, log *zap.Logger) *session.Store {
	key := []byte(os.Getenv(cfg.Session.SecretEnv))
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			log.Fatal("session key generation failed", zap.Error(err))
		}
		log.Warn("session secret not set; stored query parameters will not survive a restart",
			zap.String("env", cfg.Session.SecretEnv),
		)
	}
	return session.NewStore(cfg.Session.CookieName, key, cfg.Session.MaxAge(), cfg.Session.Secure)
}

// ---- Database ----

func provideDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) store.Queryer {
	dsn := cfg.Database.DSN()
	if dsn == "" {
		log.Info("no database configured; database items will fail")
		return store.Unavailable{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := store.Connect(ctx, dsn, cfg.Database.MaxConns, log)
	if err != nil {
		log.Fatal("database connect failed", zap.Error(err))
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		pool.Close()
		return nil
	}})
	return pool
}

// ---- Pages ----

func provideLoader(lc fx.Lifecycle, cfg *config.Config, db store.Queryer, log *zap.Logger) *dq.Loader {
	l := pages.NewLoader(cfg.Pages, pages.Deps{DB: db}, log, dq.WithObserver(metrics.ObserveItem))
	if err := l.Discover(context.Background()); err != nil {
		log.Fatal("data quality discovery failed", zap.Error(err))
	}
	if !cfg.Pages.Watch {
		l.Registry().Seal()
		return l
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := l.Watch(watchCtx, cfg.Pages.Dir); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("page watcher stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			watchCancel()
			return nil
		},
	})
	return l
}

// ---- Router ----

type routerDeps struct {
	fx.In

	Cfg *config.Config

	AuthMW *auth.Middleware
	LogMW  *logger.Middleware

	Metrics http.Handler `name:"metrics"`

	Loader   *dq.Loader
	Sessions *session.Store
	R        httpx.Router
	Log      *zap.Logger
}

func provideRouter(d routerDeps) http.Handler {
	return core.BuildRouter(d.Cfg, core.BuildDeps{
		Auth:     d.AuthMW,
		LogMW:    d.LogMW,
		Metrics:  d.Metrics,
		Router:   d.R,
		Loader:   d.Loader,
		Sessions: d.Sessions,
		Log:      d.Log,
	})
}

// ---- Server lifecycle ----

type serverDeps struct {
	fx.In
	Opts   Options
	Cfg    *config.Config
	Logger *zap.Logger
	App    http.Handler `name:"app"`
}

func registerHooks(lc fx.Lifecycle, d serverDeps) {
	addr := envOr(d.Opts.ListenEnv, d.Cfg.Server.Listen)
	cert := os.Getenv(d.Opts.TLSCertEnv)
	key := os.Getenv(d.Opts.TLSKeyEnv)
	service := d.Cfg.Server.Service

	srv := &http.Server{
		Addr:         addr,
		Handler:      d.App,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		TLSConfig:    &tls.Config{MinVersion: tls.VersionTLS13, MaxVersion: tls.VersionTLS13},
	}
	useTLS := fileExists(cert) && fileExists(key)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if useTLS {
				d.Logger.Info("server starting (TLS)",
					zap.String("service", service),
					zap.String("addr", addr),
					zap.String("cert", cert),
				)
				go func() {
					if err := srv.ListenAndServeTLS(cert, key); err != nil && err != http.ErrServerClosed {
						d.Logger.Fatal("server failed", zap.Error(err))
					}
				}()
			} else {
				d.Logger.Info("server starting (PLAINTEXT)",
					zap.String("service", service),
					zap.String("addr", addr),
				)
				go func() {
					srv.TLSConfig = nil
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						d.Logger.Fatal("server failed", zap.Error(err))
					}
				}()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Logger.Info("server stopping", zap.String("service", service))
			return srv.Shutdown(ctx)
		},
	})
}

// ---- Public Fx module ----

// Module returns a complete Fx option set; add app-specific fx.Invoke(...) alongside.
func Module(opts ...Option) fx.Option {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return fx.Options(
		// Options into DI
		fx.Supply(o),

		// Logging
		logger.Module,

		// Config and middleware
		fx.Provide(provideConfig),
		fx.Provide(provideAuth),
		fx.Provide(provideSessions),

		// Metrics (named)
		fx.Provide(fx.Annotate(metrics.ProvideMetrics, fx.ResultTags(`name:"metrics"`))),

		// Router implementation
		fx.Provide(httpx.NewChi),

		// Observation database and page loader
		fx.Provide(provideDatabase),
		fx.Provide(provideLoader),

		// Router (named "app")
		fx.Provide(fx.Annotate(provideRouter, fx.ResultTags(`name:"app"`))),

		// App lifecycle
		fx.Invoke(registerHooks),
	)
}

// ---- helpers ----

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func envOr(k, def string) string {
	if k == "" {
		return def
	}
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
