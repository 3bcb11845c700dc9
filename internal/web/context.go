package web

import (
	"net/http"

	"github.com/JonMunkholm/euicc/internal/core"
	mw "github.com/JonMunkholm/euicc/internal/web/middleware"
)

// withClientIP stores the caller's address in the request context so that
// service-level mutation logs can include it. Must run after TrustedRealIP.
func withClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithClientIP(r.Context(), mw.ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
