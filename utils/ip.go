package utils

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the originating client address. Behind a proxy chain
// the left-most X-Forwarded-For entry wins.
func RealClientIP(r *http.Request) string {
	if xfwd := r.Header.Get("X-Forwarded-For"); xfwd != "" {
		first, _, _ := strings.Cut(xfwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
