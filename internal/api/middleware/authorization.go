package middleware

import (
	"encoding/json"
	"net/http"

	internaljwt "chatbot-backend/internal/jwt"
)

// RequireJWT rejects requests without a valid access token for role before
// they reach the request queue.
func RequireJWT(role internaljwt.Role) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if _, err := internaljwt.UserFromAuthorizationHeader(r.Header.Get("Authorization"), role); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
				return
			}
			next(w, r)
		}
	}
}

var RequireUserJWT = RequireJWT(internaljwt.RoleUser)
