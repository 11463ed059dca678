package core

import (
	"net/http"
	"strings"

	"github.com/joeydtaylor/steeze-dq/pkg/config"
	"github.com/joeydtaylor/steeze-dq/pkg/dq"
	"github.com/joeydtaylor/steeze-dq/pkg/middleware/auth"
	"go.uber.org/zap"
)

// indexHandler lists the pages the caller may open.
type indexHandler struct {
	loader *dq.Loader
	auth   *auth.Middleware
	cfg    *config.Config
	log    *zap.Logger
}

func (h *indexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.loader.Packages()
	if err != nil {
		h.log.Error("list pages", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var v indexView
	for _, p := range pkgs {
		if g, ok := h.cfg.GuardFor(p); ok && guardStatus(r.Context(), h.auth, g) != 0 {
			continue
		}
		pc, err := h.loader.Page(p)
		if err != nil {
			h.log.Warn("page initializer unreadable", zap.String("package", p), zap.Error(err))
			continue
		}
		v.Pages = append(v.Pages, indexEntry{Path: strings.ReplaceAll(p, ".", "/"), Title: pc.Title})
	}
	if err := writeHTML(w, indexTpl, v, http.StatusOK); err != nil {
		h.log.Error("render index", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
