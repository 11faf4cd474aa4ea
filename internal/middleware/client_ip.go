package middleware

import (
	"net/http"

	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
)

// ClientIP resolves the caller's address once per request and stores it in
// the context for rate limiting, audit rows and support tickets.
func ClientIP(config *pkghttp.IPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := pkghttp.ExtractClientIP(r, config)
			next.ServeHTTP(w, r.WithContext(pkghttp.WithClientIP(r.Context(), ip)))
		})
	}
}

// clientIP returns the stored address, falling back to extraction without
// trusted proxies when ClientIP is not installed.
func clientIP(r *http.Request) string {
	if ip := pkghttp.ClientIPFromContext(r.Context()); ip != "" {
		return ip
	}
	return pkghttp.ExtractClientIP(r, nil)
}
