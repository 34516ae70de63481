package transport

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rhuss/oauthfilter/pkg/debug"
)

// RequestIDHeader is the header used to propagate request IDs.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength caps client supplied IDs so they cannot flood logs.
const maxRequestIDLength = 128

// RequestID returns middleware that assigns a unique request ID to each
// request. If the incoming request carries an X-Request-ID header, that
// value is used. Otherwise, a new UUID is generated.
//
// The request ID is stored in the context, retrievable with
// RequestIDFromContext, and echoed in the X-Request-ID response header.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if len(id) > maxRequestIDLength {
				debug.Log("transport", "discarding oversized request id", "length", len(id))
				id = ""
			}
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ContextWithRequestID(r.Context(), id)))
		})
	}
}
