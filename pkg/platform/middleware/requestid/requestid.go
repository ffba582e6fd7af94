// Package requestid propagates or assigns a correlation ID per request.
package requestid

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"candlepin/pkg/requestcontext"
)

// Header carries the correlation ID in and out.
const Header = "X-Request-ID"

const maxLength = 128

// Middleware reuses a well-formed inbound X-Request-ID or generates one, stores
// it in the context and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get(Header))
		if reqID == "" || len(reqID) > maxLength {
			reqID = uuid.NewString()
		}
		w.Header().Set(Header, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
