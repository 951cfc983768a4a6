// Package requestid assigns every request a correlation ID, honoring an
// inbound X-Request-ID header when present.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"caredex/pkg/requestcontext"
)

const header = "X-Request-ID"

// Middleware stores the request ID in the context and echoes it back to the
// client so support tickets can reference a single correlation ID end to end.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(header)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		w.Header().Set(header, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
