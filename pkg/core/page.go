package core

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-dq/pkg/config"
	"github.com/joeydtaylor/steeze-dq/pkg/dq"
	"github.com/joeydtaylor/steeze-dq/pkg/forms"
	"github.com/joeydtaylor/steeze-dq/pkg/middleware/auth"
	hmetrics "github.com/joeydtaylor/steeze-dq/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-dq/pkg/session"
	"go.uber.org/zap"
)

// pageHandler serves /data-quality/<path>, where <path> names a page package.
type pageHandler struct {
	loader   *dq.Loader
	sessions *session.Store
	auth     *auth.Middleware
	cfg      *config.Config
	log      *zap.Logger
	now      func() time.Time
}

func (h *pageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pkg := dq.PackageForPath(chi.URLParam(r, "*"))
	pc, err := h.loader.Page(pkg)
	if err != nil {
		h.fail(w, r, pkg, err)
		return
	}
	if !forms.Known(pc.Kind) {
		h.fail(w, r, pkg, fmt.Errorf("page %s: unknown kind %q", pkg, pc.Kind))
		return
	}

	var next http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, pkg, pc)
	})
	if forms.HasForm(pc.Kind) {
		next = session.StoreQueryParameters(h.sessions, forms.Fields(pc.Kind)...)(next)
	}
	if g, ok := h.cfg.GuardFor(pkg); ok {
		next = withGuard(next.ServeHTTP, h.auth, g)
	}
	next.ServeHTTP(w, r)
}

func (h *pageHandler) render(w http.ResponseWriter, r *http.Request, pkg string, pc dq.PageConfig) {
	v := pageView{Title: pc.Title, Package: pkg}
	outcome := "ok"

	switch pc.Kind {
	case forms.KindStatic:
		v.Content = template.HTML(pc.Body)
	default:
		var a dq.Args
		if f := forms.ForPage(pc, session.QueryParameters(r.Context()), h.now(), h.cfg.Pages.DateLayout); f != nil {
			html, err := f.HTML()
			if err != nil {
				h.fail(w, r, pkg, err)
				return
			}
			v.Form = html
			if !f.Valid() {
				outcome = "invalid"
				break
			}
			a = f.Args()
		}
		content, err := h.loader.Content(r.Context(), pkg, a)
		if err != nil {
			h.fail(w, r, pkg, err)
			return
		}
		v.Content = template.HTML(content)
	}

	if err := writeHTML(w, pageTpl, v, http.StatusOK); err != nil {
		h.fail(w, r, pkg, err)
		return
	}
	hmetrics.ObservePage(pkg, outcome)
}

func (h *pageHandler) fail(w http.ResponseWriter, r *http.Request, pkg string, err error) {
	code := statusFor(err)
	if code == http.StatusNotFound {
		// unknown paths are not labelled, the set is unbounded
		hmetrics.ObservePage("", "not_found")
		http.NotFound(w, r)
		return
	}
	hmetrics.ObservePage(pkg, "error")
	h.log.Error("data quality page failed",
		zap.String("requestId", chimd.GetReqID(r.Context())),
		zap.String("package", pkg),
		zap.Int("status", code),
		zap.Error(err),
	)
	http.Error(w, http.StatusText(code), code)
}
