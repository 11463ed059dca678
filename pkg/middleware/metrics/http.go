package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewPromHttpHandler serves the default registry, dq_* collectors included.
func NewPromHttpHandler() http.Handler { return promhttp.Handler() }

// ProvideMetrics backs the named "metrics" handler in serverfx.
func ProvideMetrics() http.Handler { return NewPromHttpHandler() }
