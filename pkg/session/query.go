// pkg/session/query.go
package session

import (
	"context"
	"net/http"

	"github.com/joeydtaylor/steeze-dq/pkg/codec"
)

var queryCtxKey = &contextKey{"query_parameters"}

// QueryKey is the session key under which parameters for path are stored.
func QueryKey(path string) string { return "query_parameters:" + path }

// StoredQueryParameters returns what the session holds for path.
func StoredQueryParameters(sess *Session, path string) map[string]string {
	raw, ok := sess.Get(QueryKey(path))
	if !ok {
		return map[string]string{}
	}
	p, err := codec.DecodeParams(raw)
	if err != nil {
		return map[string]string{}
	}
	return p
}

// MergeQueryParameters overlays request values on stored ones and keeps only
// names. A name found in neither stays absent.
func MergeQueryParameters(stored map[string]string, request map[string][]string, names []string) map[string]string {
	merged := make(map[string]string, len(stored)+len(request))
	for k, v := range stored {
		merged[k] = v
	}
	for k, vs := range request {
		if len(vs) > 0 {
			merged[k] = vs[0]
		}
	}
	out := make(map[string]string, len(names))
	for _, n := range names {
		if v, ok := merged[n]; ok {
			out[n] = v
		}
	}
	return out
}

// StoreQueryParameters remembers the named request parameters per request
// path. The merged set is exposed through QueryParameters and written back
// to the session before next runs.
func StoreQueryParameters(store *Store, names ...string) func(http.Handler) http.Handler {
	names = append([]string(nil), names...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Bad Request", http.StatusBadRequest)
				return
			}
			sess := From(r.Context())
			ctx := r.Context()
			if sess == nil {
				sess = store.Load(r)
				ctx = context.WithValue(ctx, sessionCtxKey, sess)
			}

			params := MergeQueryParameters(StoredQueryParameters(sess, r.URL.Path), r.Form, names)
			enc, err := codec.EncodeParams(params)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			sess.Set(QueryKey(r.URL.Path), enc)
			if err := store.Save(w, sess); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			ctx = context.WithValue(ctx, queryCtxKey, params)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// QueryParameters returns the merged parameters for the current request.
func QueryParameters(ctx context.Context) map[string]string {
	if p, ok := ctx.Value(queryCtxKey).(map[string]string); ok {
		return p
	}
	return map[string]string{}
}
