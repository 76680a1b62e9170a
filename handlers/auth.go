package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// AdminUser is the only account accepted by BasicAuth.
const AdminUser = "admin"

// BasicAuth guards the admin API with HTTP Basic auth checked against a bcrypt
// hash. An empty hash disables the check.
func BasicAuth(hash string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if hash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || subtle.ConstantTimeCompare([]byte(user), []byte(AdminUser)) != 1 ||
				bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass)) != nil {
				if ok {
					log.Warn("rejected admin credentials", "remote_addr", r.RemoteAddr)
				}
				w.Header().Set("WWW-Authenticate", `Basic realm="watercolour", charset="UTF-8"`)
				WriteAPIError(w, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
