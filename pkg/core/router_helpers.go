package core

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/joeydtaylor/steeze-dq/pkg/dq"
)

func writeHTML(w http.ResponseWriter, t *template.Template, v any, status int) error {
	// render fully first so a template failure never leaves half a page
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
	return nil
}

// statusFor maps a page failure to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dq.ErrNotPackage):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
