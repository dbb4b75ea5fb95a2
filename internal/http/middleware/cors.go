package middleware

import (
	"net/http"
)

// CORS reflects the origin when it sits on the allow list and falls back to
// the wildcard otherwise, so unlisted origins can still reach the public
// endpoints without credentials. Vary: Origin keeps shared caches from
// serving one origin's preflight to another.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			header := w.Header()
			if _, ok := allowed[origin]; ok && origin != "" {
				header.Set("Access-Control-Allow-Origin", origin)
			} else {
				header.Set("Access-Control-Allow-Origin", "*")
			}
			header.Add("Vary", "Origin")
			header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			header.Set("Access-Control-Max-Age", "600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
