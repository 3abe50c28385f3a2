package middleware

import (
	"net/http"
	"strings"
)

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// CORS answers preflight requests itself and decorates every other response
// for allowed origins. The chat widget is embedded on customer sites, so
// "*" is a valid entry, but it only ever grants anonymous access:
// credentials are allowed for explicitly listed origins alone.
func CORS(config CORSConfig) Middleware {
	methods := strings.Join(config.AllowedMethods, ", ")
	headers := strings.Join(config.AllowedHeaders, ", ")

	origins := make(map[string]struct{}, len(config.AllowedOrigins))
	wildcard := false
	for _, o := range config.AllowedOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		origins[o] = struct{}{}
	}

	// allow returns the Access-Control-Allow-Origin value and whether the
	// response may carry credentials.
	allow := func(origin string) (string, bool) {
		if _, ok := origins[origin]; ok && origin != "" {
			return origin, config.AllowCredentials
		}
		if wildcard {
			return "*", false
		}
		return "", false
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			allowed, credentials := allow(r.Header.Get("Origin"))

			if allowed != "" {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Add("Vary", "Origin")
				if credentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
			}

			if r.Method != http.MethodOptions {
				next(w, r)
				return
			}
			if allowed == "" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.WriteHeader(http.StatusOK)
		}
	}
}
