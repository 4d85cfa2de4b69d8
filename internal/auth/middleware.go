package auth

import (
	"net/http"
)

// Middleware guards admin routes behind the signed session cookie. Every
// mutating call on the membership and catalog stores passes through it
// before reaching a handler.
func Middleware(sessionSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if err := VerifySessionToken(sessionSecret, cookie.Value); err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
