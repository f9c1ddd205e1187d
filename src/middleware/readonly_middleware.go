package middleware

import (
	"categorizer-server/src/util"
	"net/http"
)

// ReadOnlyMiddleware rejects requests that would change stored rules or
// caches. Evaluation and categorization stay available because they only read.
func ReadOnlyMiddleware(readOnly bool) func(http.Handler) http.Handler {
	allowedPosts := map[string]bool{
		"/api/categorize":       true,
		"/api/rules/evaluate":   true,
		"/api/plaid/categorize": true,
		"/api/plaid/webhook":    true,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !readOnly || r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if r.Method == http.MethodPost && allowedPosts[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			util.WriteError(w, http.StatusForbidden, "read-only mode: rule changes are disabled")
		})
	}
}
