// Package requesttime pins one "now" per HTTP request so every evaluation,
// entitlement activity check and status date inside it agree.
package requesttime

import (
	"net/http"
	"time"

	"candlepin/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and stores
// it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
