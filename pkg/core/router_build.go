package core

import (
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-dq/pkg/config"
	hmetrics "github.com/joeydtaylor/steeze-dq/pkg/middleware/metrics"
	"go.uber.org/zap"
)

// DataQualityPrefix is where page packages are served.
const DataQualityPrefix = "/data-quality/"

func BuildRouter(cfg *config.Config, d BuildDeps) http.Handler {
	r := d.Router
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat("/ping"))

	if d.Auth != nil {
		r.Use(d.Auth.Middleware())
	}
	if d.LogMW != nil {
		r.Use(d.LogMW.Middleware(d.Auth))
	}
	r.Use(hmetrics.Collect(d.Auth))
	r.Use(d.Sessions.Middleware())

	if d.Metrics != nil {
		r.Get("/metrics", d.Metrics)
	}

	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}

	pages := &pageHandler{
		loader:   d.Loader,
		sessions: d.Sessions,
		auth:     d.Auth,
		cfg:      cfg,
		log:      log,
		now:      now,
	}
	var h http.HandlerFunc = pages.ServeHTTP
	if cfg.Server.RenderTimeoutMS > 0 {
		h = withTimeout(h, time.Duration(cfg.Server.RenderTimeoutMS)*time.Millisecond)
	}
	r.Get(DataQualityPrefix+"*", h)
	r.Post(DataQualityPrefix+"*", h)

	r.Get("/", &indexHandler{loader: d.Loader, auth: d.Auth, cfg: cfg, log: log})
	return r.Mux()
}
