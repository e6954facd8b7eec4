// Package middleware holds the HTTP middleware chain applied ahead of every
// handler: correlation ids and client metadata extraction.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"loyalty-gateway/pkg/requestcontext"
)

// RequestIDHeader carries the correlation id on requests and responses.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request a correlation id, honoring one supplied by
// the caller so ids can span service boundaries. The id is echoed on the
// response and stored in the context for logs and audit events.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
