package logger

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-dq/pkg/dq"
	"github.com/joeydtaylor/steeze-dq/pkg/middleware/auth"
	"go.uber.org/zap"
)

const dataQualityPrefix = "/data-quality/"

type replayBody struct {
	io.Reader
	io.Closer
}

func (m *Middleware) Middleware(ca *auth.Middleware) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := accessLogger()

			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)

			// downstream reads the peeked bytes, then the rest of the body
			var body []byte
			if r.Body != nil && r.Body != http.NoBody && r.Method == http.MethodPost {
				body, _ = io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
				r.Body = replayBody{io.MultiReader(bytes.NewReader(body), r.Body), r.Body}
			}

			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}

			start := time.Now()
			defer func() {
				lat := time.Since(start)

				isAuth := false
				username := ""
				role := ""
				if ca != nil {
					isAuth = ca.IsAuthenticated(r.Context())
					u := ca.GetUser(r.Context())
					username = u.Username
					role = u.Role.Name
				}

				pkg := ""
				if strings.HasPrefix(r.URL.Path, dataQualityPrefix) {
					pkg = dq.PackageForPath(strings.TrimPrefix(r.URL.Path, dataQualityPrefix))
				}

				log := l.With(
					zap.String("requestId", chimd.GetReqID(r.Context())),
					zap.String("httpScheme", scheme),
					zap.Bool("isAuthenticated", isAuth),
					zap.String("username", username),
					zap.String("role", role),
					zap.String("httpProto", r.Proto),
					zap.String("httpMethod", r.Method),
					zap.String("remoteAddr", r.RemoteAddr),
					zap.String("uri", r.URL.Path),
					zap.String("package", pkg),
					zap.Duration("lat", lat),
					zap.Int("responseSize", ww.BytesWritten()),
					zap.Int("status", ww.Status()),
				)

				if shouldLogBody(r, body) {
					log.Info("http request", zap.ByteString("requestData", body))
				} else {
					log.Info("http request")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
