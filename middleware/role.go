package middleware

import "net/http"

// Authorize rejects authenticated callers whose role fails allowed. It must run after Protect.
func Authorize(allowed func(role string) bool, denied string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r)
			if !ok || !allowed(user.Role) {
				writeError(w, http.StatusUnauthorized, denied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
